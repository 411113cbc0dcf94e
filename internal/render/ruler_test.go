package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/surface"
)

func TestTimeScaleTicks(t *testing.T) {
	ts := NewTimeScale(60, 100, 20)
	assert.Equal(t, 1.0, ts.Interval)
	assert.Equal(t, 6000, ts.TotalWidth())

	h, ok := ts.TickAt(0)
	require.True(t, ok)
	assert.Equal(t, 20, h)

	h, _ = ts.TickAt(10)
	assert.Equal(t, 5, h)
	h, _ = ts.TickAt(50)
	assert.Equal(t, 10, h)
	h, _ = ts.TickAt(100)
	assert.Equal(t, 20, h)

	_, ok = ts.TickAt(5)
	assert.False(t, ok)

	assert.Len(t, ts.Labels(), 61)
	assert.Equal(t, Label{Position: 100, Text: "0:01"}, ts.Labels()[1])
}

func TestTimeScaleIntervalSelection(t *testing.T) {
	tests := []struct {
		pps  float64
		want float64
	}{
		{1000, 0.1},
		{100, 1},
		{20, 5},
		{1, 120},
		{0.001, 7200},
	}
	for _, tt := range tests {
		ts := NewTimeScale(10, tt.pps, 10)
		assert.Equal(t, tt.want, ts.Interval, "pps=%v", tt.pps)
	}
}

func TestTimeScaleEmpty(t *testing.T) {
	ts := NewTimeScale(0, 100, 20)
	assert.Empty(t, ts.Labels())
	assert.Empty(t, ts.TicksIn(0, 1000))
}

func TestTicksIn(t *testing.T) {
	ts := NewTimeScale(60, 100, 20)
	ticks := ts.TicksIn(1000, 1100)
	require.Len(t, ticks, 10)
	assert.Equal(t, 1000, ticks[0])
	assert.Equal(t, 1090, ticks[9])
}

func TestVisibleLabels(t *testing.T) {
	ts := NewTimeScale(60, 100, 20)

	labels := ts.VisibleLabels([]int{3, 4}, 1000)
	require.Len(t, labels, 20)
	assert.Equal(t, "0:30", labels[0].Text)
	assert.Equal(t, "0:49", labels[19].Text)

	assert.Nil(t, ts.VisibleLabels(nil, 1000))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "0:00", FormatTime(0, 1))
	assert.Equal(t, "1:05", FormatTime(65, 5))
	assert.Equal(t, "1:02:05", FormatTime(3725, 60))
	assert.Equal(t, "1:05.5", FormatTime(65.5, 0.5))
	assert.Equal(t, "0:01.250", FormatTime(1.25, 0.05))
}

func TestRulerPaint(t *testing.T) {
	tick := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	r := &Ruler{Scale: NewTimeScale(60, 100, 20), TickColor: tick}
	d := chunk.Describe(1, 6000, 1000)
	s := surface.New(1, d.GlobalOffset, d.Width, 20, 1)
	r.Paint(s, d)

	img := s.Image()
	// labelled tick at 1000 spans the full height
	assert.Equal(t, tick, img.RGBAAt(0, 0))
	assert.Equal(t, tick, img.RGBAAt(0, 19))
	// mid tick at 1050 covers the lower half
	assert.Equal(t, color.RGBA{}, img.RGBAAt(50, 9))
	assert.Equal(t, tick, img.RGBAAt(50, 10))
	// minor tick at 1010 covers the lower quarter
	assert.Equal(t, color.RGBA{}, img.RGBAAt(10, 14))
	assert.Equal(t, tick, img.RGBAAt(10, 15))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(5, 19))

	assert.Contains(t, r.Signature(), "ruler|60|100|20")
}
