// Package analysis turns WAV recordings into the inputs of the track
// painters: per-pixel peaks for bar tracks and STFT magnitudes for
// spectrograms.
package analysis

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for files that are not RIFF/WAVE audio.
var ErrInvalidWAV = errors.New("analysis: not a valid wav file")

// Audio is a decoded recording with interleaved integer samples.
type Audio struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Samples    []int
}

// DecodeWAV reads the whole file into memory.
func DecodeWAV(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	a := &Audio{
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
		Channels:   int(d.NumChans),
		Samples:    buf.Data,
	}
	if a.Channels < 1 || a.SampleRate < 1 || a.BitDepth < 1 {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	return a, nil
}

// Frames returns the number of sample frames.
func (a *Audio) Frames() int {
	return len(a.Samples) / a.Channels
}

// Duration returns the length in seconds.
func (a *Audio) Duration() float64 {
	return float64(a.Frames()) / float64(a.SampleRate)
}

// Channel returns one channel normalised to [-1, 1].
func (a *Audio) Channel(ch int) []float64 {
	if ch < 0 || ch >= a.Channels || a.BitDepth < 1 {
		return nil
	}
	full := float64(int64(1) << (a.BitDepth - 1))
	out := make([]float64, a.Frames())
	for i := range out {
		out[i] = float64(a.Samples[i*a.Channels+ch]) / full
	}
	return out
}
