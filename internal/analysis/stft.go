package analysis

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"runtime"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"golang.org/x/sync/errgroup"

	"github.com/schollz/chunktrack/internal/render"
)

// silence is the floor for magnitudes, in dB.
const silence = -200

// STFTOptions configures the short-time Fourier transform.
type STFTOptions struct {
	FFTSize int
	HopSize int
	Colors  render.ColorMap
	// Workers bounds the number of goroutines; zero uses GOMAXPROCS.
	Workers int
}

// DefaultSTFTOptions matches a 1024 point FFT with 75% overlap.
func DefaultSTFTOptions() STFTOptions {
	return STFTOptions{FFTSize: 1024, HopSize: 256}
}

// STFT analyses samples into per-frame dB magnitudes. Frames start every
// HopSize samples; the last frame is zero padded.
func STFT(ctx context.Context, samples []float64, sampleRate int, opts STFTOptions) (*render.FrequencyLookup, error) {
	if opts.FFTSize < 2 || opts.FFTSize%2 != 0 {
		return nil, errors.New("analysis: fft size must be even and at least 2")
	}
	if opts.HopSize < 1 {
		return nil, errors.New("analysis: hop size must be positive")
	}
	frames := 1
	if len(samples) > opts.FFTSize {
		frames += (len(samples) - opts.FFTSize + opts.HopSize - 1) / opts.HopSize
	}

	win := window.Hann(opts.FFTSize)
	var gain float64
	for _, w := range win {
		gain += w
	}
	// a full scale sine at a bin centre reads 0 dB
	norm := 2 / gain

	out := make([][]float32, frames)
	g, ctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	const batch = 64
	for first := 0; first < frames; first += batch {
		g.Go(func() error {
			buf := make([]float64, opts.FFTSize)
			for f := first; f < min(first+batch, frames); f++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				start := f * opts.HopSize
				for i := range buf {
					buf[i] = 0
					if start+i < len(samples) {
						buf[i] = samples[start+i] * win[i]
					}
				}
				spectrum := fft.FFTReal(buf)
				mags := make([]float32, opts.FFTSize/2)
				for k := range mags {
					mag := cmplx.Abs(spectrum[k]) * norm
					if mag <= 0 {
						mags[k] = silence
						continue
					}
					mags[k] = float32(math.Max(20*math.Log10(mag), silence))
				}
				out[f] = mags
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &render.FrequencyLookup{
		Frames:     out,
		SampleRate: sampleRate,
		FFTSize:    opts.FFTSize,
		HopSize:    opts.HopSize,
		Colors:     opts.Colors,
	}, nil
}
