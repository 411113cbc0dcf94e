package analysis

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"
	"github.com/schollz/gowaveform"

	"github.com/schollz/chunktrack/internal/render"
)

// Peaks computes one (min, max) pair per pixel for a channel. Pixel x
// covers samples [x*samplesPerPixel, (x+1)*samplesPerPixel).
func Peaks(a *Audio, channel int, samplesPerPixel float64) render.Peaks {
	p := render.Peaks{BitDepth: a.BitDepth}
	if samplesPerPixel <= 0 || channel < 0 || channel >= a.Channels {
		return p
	}
	frames := a.Frames()
	width := int(math.Ceil(float64(frames) / samplesPerPixel))
	p.Data = make([]int32, width*2)
	for x := 0; x < width; x++ {
		start := int(float64(x) * samplesPerPixel)
		end := min(int(float64(x+1)*samplesPerPixel), frames)
		if end <= start {
			end = min(start+1, frames)
		}
		lo, hi := math.MaxInt32, math.MinInt32
		for i := start; i < end; i++ {
			v := a.Samples[i*a.Channels+channel]
			lo = min(lo, v)
			hi = max(hi, v)
		}
		if lo > hi {
			lo, hi = 0, 0
		}
		p.Data[x*2] = int32(lo)
		p.Data[x*2+1] = int32(hi)
	}
	return p
}

// Overview loads a min/max view of a whole file at the given width using
// gowaveform, together with the file duration in seconds.
func Overview(path string, width int) (render.Peaks, float64, error) {
	duration, err := FileDuration(path)
	if err != nil {
		return render.Peaks{}, 0, err
	}
	wf, err := gowaveform.LoadWaveform(path)
	if err != nil {
		return render.Peaks{}, 0, fmt.Errorf("failed to load waveform: %w", err)
	}
	view, err := wf.GenerateView(gowaveform.WaveformOptions{
		Start: 0,
		End:   duration,
		Width: width,
	})
	if err != nil {
		return render.Peaks{}, 0, fmt.Errorf("failed to generate view: %w", err)
	}
	p := render.Peaks{BitDepth: 16}
	if view == nil {
		return p, duration, nil
	}
	p.Data = make([]int32, len(view.Data)&^1)
	for i := range p.Data {
		p.Data[i] = int32(view.Data[i])
	}
	return p, duration, nil
}

// FileDuration reads the duration from the WAV header.
func FileDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("duration of %s: %w", path, err)
	}
	return dur.Seconds(), nil
}
