package render

import (
	"fmt"
	"math"
)

// FrequencyScale maps frequencies onto the vertical axis.
type FrequencyScale int

const (
	Linear FrequencyScale = iota
	Logarithmic
	Mel
	Bark
)

func (fs FrequencyScale) String() string {
	switch fs {
	case Logarithmic:
		return "log"
	case Mel:
		return "mel"
	case Bark:
		return "bark"
	}
	return "linear"
}

// ParseFrequencyScale parses the names returned by String.
func ParseFrequencyScale(s string) (FrequencyScale, error) {
	switch s {
	case "", "linear":
		return Linear, nil
	case "log":
		return Logarithmic, nil
	case "mel":
		return Mel, nil
	case "bark":
		return Bark, nil
	}
	return Linear, fmt.Errorf("unknown frequency scale %q", s)
}

// warp applies the scale's transfer function to a frequency in Hz.
func (fs FrequencyScale) warp(hz float64) float64 {
	switch fs {
	case Logarithmic:
		return math.Log10(1 + hz)
	case Mel:
		return 2595 * math.Log10(1+hz/700)
	case Bark:
		return 13*math.Atan(0.00076*hz) + 3.5*math.Atan(math.Pow(hz/7500, 2))
	}
	return hz
}

// BinPositions returns, for each FFT bin, its position on the scaled axis
// normalised to [0,1]. The result is non-decreasing.
func (fs FrequencyScale) BinPositions(bins int, nyquist float64) []float64 {
	positions := make([]float64, bins)
	if bins == 0 {
		return positions
	}
	top := fs.warp(nyquist)
	if top <= 0 {
		return positions
	}
	for i := range positions {
		hz := float64(i) / float64(bins) * nyquist
		positions[i] = fs.warp(hz) / top
	}
	return positions
}
