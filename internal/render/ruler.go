package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/surface"
)

// MinLabelSpacing is the minimum distance in pixels between two labels.
const MinLabelSpacing = 80

// label intervals in seconds, the first one at least MinLabelSpacing apart wins
var labelIntervals = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30,
	60, 120, 300, 600, 900, 1800, 3600, 7200,
}

const (
	minorPerLabel = 10
	minorPerMid   = 5
)

// Label is a time label anchored at a global pixel position.
type Label struct {
	Position int
	Text     string
}

// TimeScale holds the ticks and labels of a ruler for one duration and
// zoom level. It is computed once and shared by every chunk.
type TimeScale struct {
	Duration        float64
	PixelsPerSecond float64
	Height          int
	Interval        float64

	// ticks maps a global pixel position to a tick height.
	ticks     map[int]int
	positions []int
	labels    []Label
}

// NewTimeScale precomputes tick heights in three tiers: labelled ticks use
// the full height, mid ticks half of it and minor ticks a quarter.
func NewTimeScale(duration, pixelsPerSecond float64, height int) *TimeScale {
	ts := &TimeScale{
		Duration:        duration,
		PixelsPerSecond: pixelsPerSecond,
		Height:          height,
		ticks:           make(map[int]int),
	}
	if duration <= 0 || pixelsPerSecond <= 0 {
		return ts
	}
	ts.Interval = labelIntervals[len(labelIntervals)-1]
	for _, iv := range labelIntervals {
		if iv*pixelsPerSecond >= MinLabelSpacing {
			ts.Interval = iv
			break
		}
	}
	for k := 0; ; k++ {
		t := float64(k) * ts.Interval / minorPerLabel
		if t > duration {
			break
		}
		pos := int(math.Round(t * pixelsPerSecond))
		switch {
		case k%minorPerLabel == 0:
			ts.ticks[pos] = height
			ts.labels = append(ts.labels, Label{Position: pos, Text: FormatTime(t, ts.Interval)})
		case k%minorPerMid == 0:
			ts.ticks[pos] = height / 2
		default:
			if _, ok := ts.ticks[pos]; !ok {
				ts.ticks[pos] = height / 4
			}
		}
	}
	ts.positions = make([]int, 0, len(ts.ticks))
	for pos := range ts.ticks {
		ts.positions = append(ts.positions, pos)
	}
	sort.Ints(ts.positions)
	return ts
}

// TotalWidth is the ruler width in pixels.
func (ts *TimeScale) TotalWidth() int {
	return int(math.Ceil(ts.Duration * ts.PixelsPerSecond))
}

// TickAt returns the tick height at a global position.
func (ts *TimeScale) TickAt(pos int) (int, bool) {
	h, ok := ts.ticks[pos]
	return h, ok
}

// TicksIn returns the tick positions in [start, end), ascending.
func (ts *TimeScale) TicksIn(start, end int) []int {
	lo := sort.SearchInts(ts.positions, start)
	hi := sort.SearchInts(ts.positions, end)
	return ts.positions[lo:hi]
}

// Labels returns every label.
func (ts *TimeScale) Labels() []Label { return ts.labels }

// VisibleLabels keeps the labels within the span of the given visible
// chunks, from the first chunk's start to the last chunk's end.
func (ts *TimeScale) VisibleLabels(indices []int, chunkWidth int) []Label {
	start, end, ok := chunk.Span(indices, ts.TotalWidth(), chunkWidth)
	if !ok {
		return nil
	}
	var out []Label
	for _, l := range ts.labels {
		if l.Position >= start && l.Position < end {
			out = append(out, l)
		}
	}
	return out
}

// FormatTime renders seconds for a label; sub-second intervals get
// fractional digits.
func FormatTime(seconds, interval float64) string {
	whole := int(seconds)
	h, m, s := whole/3600, (whole/60)%60, whole%60
	frac := ""
	switch {
	case interval < 0.1:
		frac = fmt.Sprintf(".%03d", int(math.Round((seconds-float64(whole))*1000))%1000)
	case interval < 1:
		frac = fmt.Sprintf(".%d", int(math.Round((seconds-float64(whole))*10))%10)
	}
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d%s", h, m, s, frac)
	}
	return fmt.Sprintf("%d:%02d%s", m, s, frac)
}

// Ruler paints the ticks of a TimeScale into chunk surfaces.
type Ruler struct {
	Scale     *TimeScale
	TickColor color.RGBA
}

// Signature covers every input that changes the pixels.
func (r *Ruler) Signature() string {
	return fmt.Sprintf("ruler|%g|%g|%d|%v", r.Scale.Duration, r.Scale.PixelsPerSecond, r.Scale.Height, r.TickColor)
}

// Paint draws the ticks inside chunk d, bottom aligned.
func (r *Ruler) Paint(s *surface.Surface, d chunk.Descriptor) {
	img := s.Image()
	if img == nil {
		return
	}
	clear(img.Pix)
	for _, pos := range r.Scale.TicksIn(d.GlobalOffset, d.End()) {
		h := r.Scale.ticks[pos]
		localX := pos - d.GlobalOffset
		fillRect(img, s.Scale, localX, s.Height-h, 1, h, r.TickColor)
	}
}
