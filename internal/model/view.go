package model

import "math"

// Jog and zoom steps, as fractions of the visible duration.
const (
	jogStep     = 0.05
	fastJogStep = 0.5
	zoomInStep  = 0.8
	zoomOutStep = 1.25
)

// View is the visible time range of a recording, in seconds.
type View struct {
	Start    float64
	End      float64
	Duration float64
	// MinSpan is the shortest range zooming in may reach.
	MinSpan float64
}

// NewView shows the whole recording.
func NewView(duration float64) View {
	return View{Start: 0, End: duration, Duration: duration}
}

// Span returns the visible duration.
func (v View) Span() float64 {
	return v.End - v.Start
}

// Jog moves the view left or right without changing its span.
func (v *View) Jog(direction float64, fast bool) {
	span := v.Span()
	stepPercent := jogStep
	if fast {
		stepPercent = fastJogStep
	}
	step := span * stepPercent * direction

	v.Start += step
	v.End += step
	v.clamp(span)
}

// Zoom narrows or widens the view around its centre, or around focus
// when it is not negative: the centre moves 30% of the way towards it
// on every step.
func (v *View) Zoom(zoomIn bool, focus float64) {
	center := (v.Start + v.End) / 2
	if focus >= 0 {
		center += (focus - center) * 0.3
	}

	span := v.Span() * zoomOutStep
	if zoomIn {
		span = v.Span() * zoomInStep
	}
	span = max(span, v.MinSpan)
	// don't zoom out beyond the recording
	span = min(span, v.Duration)
	if math.Abs(span-v.Span()) < 1e-9 {
		return
	}

	v.Start = center - span/2
	v.End = center + span/2
	v.clamp(span)
}

// clamp keeps the view inside [0, Duration] while preserving span.
func (v *View) clamp(span float64) {
	if v.Start < 0 {
		v.Start = 0
		v.End = span
	}
	if v.End > v.Duration {
		v.End = v.Duration
		v.Start = max(v.End-span, 0)
	}
}
