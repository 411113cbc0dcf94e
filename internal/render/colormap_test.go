package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedColorMaps(t *testing.T) {
	for name := range colorMapStops {
		t.Run(name, func(t *testing.T) {
			cm, err := NamedColorMap(name)
			require.NoError(t, err)
			for i := range cm {
				assert.Equal(t, uint8(255), cm[i].A)
			}
		})
	}

	_, err := NamedColorMap("jet")
	assert.Error(t, err)
}

func TestGrayscaleEndpoints(t *testing.T) {
	cm, err := NamedColorMap("grayscale")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{A: 255}, cm[0])
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, cm[255])
	assert.Less(t, cm[64].R, cm[192].R)
}

func TestColorMapFromHexRejectsBadStops(t *testing.T) {
	_, err := ColorMapFromHex("#000000", "nope")
	assert.Error(t, err)
}

func TestSingleStopColorMap(t *testing.T) {
	c, _ := colorful.Hex("#336699")
	cm := NewColorMap(c)
	assert.Equal(t, cm[0], cm[255])
	assert.Equal(t, uint8(0x33), cm[17].R)
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		v    float64
		want int
	}{
		{-1, 0},
		{0, 0},
		{math.NaN(), 0},
		{0.5, 127},
		{0.999, 254},
		{1, 255},
		{3, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quantize(tt.v), "v=%v", tt.v)
	}
}

func TestBinPositions(t *testing.T) {
	for _, fs := range []FrequencyScale{Linear, Logarithmic, Mel, Bark} {
		t.Run(fs.String(), func(t *testing.T) {
			pos := fs.BinPositions(256, 22050)
			require.Len(t, pos, 256)
			assert.Equal(t, 0.0, pos[0])
			for i := 1; i < len(pos); i++ {
				assert.GreaterOrEqual(t, pos[i], pos[i-1])
				assert.LessOrEqual(t, pos[i], 1.0)
			}

			parsed, err := ParseFrequencyScale(fs.String())
			require.NoError(t, err)
			assert.Equal(t, fs, parsed)
		})
	}

	assert.Empty(t, Mel.BinPositions(0, 22050))
	_, err := ParseFrequencyScale("erb")
	assert.Error(t, err)
}
