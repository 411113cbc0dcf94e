// Package model holds the state of the interactive browser: the visible
// time range, the terminal geometry and the track managers that keep the
// visible chunks mounted.
package model

import (
	"log"
	"math"

	"github.com/schollz/chunktrack/internal/analysis"
	"github.com/schollz/chunktrack/internal/config"
	"github.com/schollz/chunktrack/internal/render"
	"github.com/schollz/chunktrack/internal/surface"
	"github.com/schollz/chunktrack/internal/track"
	"github.com/schollz/chunktrack/internal/viewport"
)

// Vertical resolution of the text lanes, in layout pixels per text row.
const (
	SegmentsPerRow   = 8
	SpecPixelsPerRow = 2
	RulerPixels      = 4
)

// rows used by the header, overview, ruler, info line and help
const chromeRows = 10

// Layout is the terminal area given to each lane.
type Layout struct {
	Columns  int
	WaveRows int
	SpecRows int
}

// Model is one browsing session over a decoded recording.
type Model struct {
	File  string
	Audio *analysis.Audio
	Theme config.Theme
	View  View

	TermWidth  int
	TermHeight int
	ShowHelp   bool

	Store   *viewport.Store
	Frames  *viewport.ManualScheduler
	Tracker *viewport.Tracker

	Wave      *track.Manager
	Spec      *track.Manager
	Ruler     *track.Manager
	TimeScale *render.TimeScale
	// Overview is an optional min/max summary of the whole file, drawn
	// above the lanes.
	Overview render.Peaks

	lookup *render.FrequencyLookup
	layout Layout
	spp    float64
}

// New creates a session. lookup may be nil, in which case no spectrogram
// lane is shown.
func New(file string, a *analysis.Audio, theme config.Theme, lookup *render.FrequencyLookup) *Model {
	theme.RulerHeight = RulerPixels
	m := &Model{
		File:       file,
		Audio:      a,
		Theme:      theme,
		View:       NewView(a.Duration()),
		TermWidth:  80,
		TermHeight: 24,
		Store:      viewport.NewStore(),
		Frames:     &viewport.ManualScheduler{},
		lookup:     lookup,
	}
	m.layout = m.computeLayout()
	m.updateScale()

	id := config.NewTrackID()
	wave, spec, ruler := m.painters()
	total := m.totalWidth()
	m.Wave = track.NewManager(track.Options{
		ID:         id,
		TotalWidth: total,
		ChunkWidth: theme.ChunkWidth,
		Height:     m.layout.WaveRows * SegmentsPerRow,
		Layer:      surface.NewLayer(false),
	}, wave)
	m.Ruler = track.NewManager(track.Options{
		ID:         id + "-ruler",
		TotalWidth: total,
		ChunkWidth: theme.ChunkWidth,
		Height:     RulerPixels,
	}, ruler)
	if spec != nil {
		m.Spec = track.NewManager(track.Options{
			ID:         id + "-spec",
			TotalWidth: total,
			ChunkWidth: theme.ChunkWidth,
			Height:     m.layout.SpecRows * SpecPixelsPerRow,
		}, spec)
	}

	m.Tracker = viewport.NewTracker(m.Store, m, m.Frames)
	for _, t := range m.Tracks() {
		t.Attach(m.Store)
	}
	return m
}

// Tracks returns the mounted track managers, top to bottom.
func (m *Model) Tracks() []*track.Manager {
	out := []*track.Manager{m.Wave}
	if m.Spec != nil {
		out = append(out, m.Spec)
	}
	return append(out, m.Ruler)
}

// Layout returns the current lane sizes.
func (m *Model) Layout() Layout { return m.layout }

// SamplesPerPixel is the current zoom level.
func (m *Model) SamplesPerPixel() float64 { return m.spp }

// PixelsPerSecond is the horizontal scale of every track.
func (m *Model) PixelsPerSecond() float64 {
	return float64(m.Audio.SampleRate) / m.spp
}

// ScrollOffset implements viewport.Container.
func (m *Model) ScrollOffset() float64 {
	return m.View.Start * m.PixelsPerSecond()
}

// ContainerWidth implements viewport.Container.
func (m *Model) ContainerWidth() float64 {
	return float64(m.layout.Columns)
}

// Resize adapts the lanes to a new terminal size.
func (m *Model) Resize(width, height int) {
	m.TermWidth, m.TermHeight = width, height
	layout := m.computeLayout()
	if layout == m.layout {
		return
	}
	m.layout = layout
	m.rebuild()
	m.Tracker.OnResize()
}

// Jog scrolls the view.
func (m *Model) Jog(direction float64, fast bool) {
	m.View.Jog(direction, fast)
	m.Tracker.OnScroll()
}

// Zoom changes the time scale and remounts every track.
func (m *Model) Zoom(zoomIn bool) {
	before := m.View
	m.View.Zoom(zoomIn, -1)
	if m.View == before {
		return
	}
	m.rebuild()
	m.Tracker.OnScroll()
}

// ShowAll zooms out to the whole recording.
func (m *Model) ShowAll() {
	if m.View.Start == 0 && m.View.End == m.View.Duration {
		return
	}
	m.View.Start, m.View.End = 0, m.View.Duration
	m.rebuild()
	m.Tracker.OnScroll()
}

// Close releases every surface.
func (m *Model) Close() {
	for _, t := range m.Tracks() {
		t.Close()
	}
}

func (m *Model) computeLayout() Layout {
	l := Layout{Columns: max(m.TermWidth-4, 20)}
	rows := max(m.TermHeight-chromeRows, 4)
	if m.lookup != nil {
		l.SpecRows = rows / 3
		rows -= l.SpecRows
	}
	l.WaveRows = rows
	return l
}

func (m *Model) updateScale() {
	sr := float64(m.Audio.SampleRate)
	cols := float64(m.layout.Columns)
	// one sample per pixel is as far as zooming goes
	m.View.MinSpan = min(cols/sr, m.View.Duration)
	m.spp = m.View.Span() * sr / cols
	if m.spp <= 0 {
		m.spp = 1
	}
}

func (m *Model) totalWidth() int {
	return int(math.Ceil(float64(m.Audio.Frames()) / m.spp))
}

func (m *Model) painters() (wave, spec, ruler track.Painter) {
	wave = m.Theme.Bars(analysis.Peaks(m.Audio, 0, m.spp))
	ruler = m.Theme.Ruler(m.View.Duration, m.PixelsPerSecond())
	m.TimeScale = ruler.(*render.Ruler).Scale
	if m.lookup != nil {
		opts := m.Theme.SpectrogramOptions()
		opts.SamplesPerPixel = m.spp
		spec = render.NewSpectrogram(m.lookup, opts)
	}
	return wave, spec, ruler
}

// rebuild remounts every track for the current zoom and layout.
func (m *Model) rebuild() {
	m.updateScale()
	wave, spec, ruler := m.painters()
	total := m.totalWidth()
	m.Wave.Rebuild(total, m.layout.WaveRows*SegmentsPerRow, wave)
	m.Ruler.Rebuild(total, RulerPixels, ruler)
	if m.Spec != nil {
		m.Spec.Rebuild(total, m.layout.SpecRows*SpecPixelsPerRow, spec)
	}
	log.Printf("zoom: %.1f samples/px, %d px total, view %.2fs-%.2fs", m.spp, total, m.View.Start, m.View.End)
}
