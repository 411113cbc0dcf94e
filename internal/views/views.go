// Package views renders the browser: the mounted chunk surfaces of every
// track are composited at the current scroll offset and turned into text.
package views

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/schollz/chunktrack/internal/model"
)

// ViewStyles contains the styles shared by the browser lanes.
type ViewStyles struct {
	Title     lipgloss.Style
	Normal    lipgloss.Style
	Label     lipgloss.Style
	Container lipgloss.Style
	Wave      lipgloss.Style
	Tick      lipgloss.Style
	Chunk     lipgloss.Style
}

func getCommonStyles(m *model.Model) *ViewStyles {
	return &ViewStyles{
		Title:     lipgloss.NewStyle().Background(lipgloss.Color("7")).Foreground(lipgloss.Color("0")),
		Normal:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Container: lipgloss.NewStyle().Padding(1, 2),
		Wave:      lipgloss.NewStyle().Foreground(lipgloss.Color(m.Theme.WaveColor)),
		Tick:      lipgloss.NewStyle().Foreground(lipgloss.Color(m.Theme.TickColor)),
		Chunk:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// Render draws the whole browser screen.
func Render(m *model.Model, h help.Model, keys help.KeyMap) string {
	styles := getCommonStyles(m)
	var content strings.Builder

	content.WriteString(RenderHeader(m, styles))
	content.WriteString("\n")
	if m.Overview.Len() > 0 {
		content.WriteString(RenderOverview(m, styles))
		content.WriteString("\n")
	}
	content.WriteString(RenderWaveform(m, styles))
	if m.Spec != nil {
		content.WriteString(RenderSpectrogram(m))
	}
	content.WriteString(RenderRuler(m, styles))
	content.WriteString(RenderInfo(m, styles))
	content.WriteString("\n")

	h.ShowAll = m.ShowHelp
	h.Width = m.Layout().Columns
	content.WriteString(h.View(keys))

	return styles.Container.Render(content.String())
}

// RenderHeader shows the file name on the left and the visible range on
// the right.
func RenderHeader(m *model.Model, styles *ViewStyles) string {
	leftContent := styles.Title.Render(" " + filepath.Base(m.File) + " ")
	rightContent := styles.Normal.Render(fmt.Sprintf("%.2fs - %.2fs of %.2fs",
		m.View.Start, m.View.End, m.View.Duration))

	availableWidth := m.Layout().Columns
	paddingSize := availableWidth - lipgloss.Width(leftContent) - lipgloss.Width(rightContent)
	if paddingSize < 1 {
		paddingSize = 1
	}
	return leftContent + strings.Repeat(" ", paddingSize) + rightContent
}

// RenderOverview draws the whole file in one row, highlighting the
// columns inside the visible range.
func RenderOverview(m *model.Model, styles *ViewStyles) string {
	cols := m.Layout().Columns
	n := m.Overview.Len()
	var sb strings.Builder
	for c := 0; c < cols; c++ {
		i0 := c * n / cols
		i1 := max((c+1)*n/cols, i0+1)
		amp := 0.0
		for i := i0; i < i1 && i < n; i++ {
			lo, hi := m.Overview.At(i)
			amp = max(amp, -lo, hi)
		}
		level := min(int(amp*8+0.5), 8)
		t := (float64(c) + 0.5) / float64(cols) * m.View.Duration
		style := styles.Label
		if t >= m.View.Start && t <= m.View.End {
			style = styles.Wave
		}
		sb.WriteString(style.Render(lowerBlocks[level]))
	}
	return sb.String()
}

// RenderInfo summarises the zoom level and what each track has mounted.
func RenderInfo(m *model.Model, styles *ViewStyles) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%.1f samples/px", m.SamplesPerPixel()))
	for _, t := range m.Tracks() {
		opts := t.Options()
		total := (opts.TotalWidth + opts.ChunkWidth - 1) / opts.ChunkWidth
		parts = append(parts, fmt.Sprintf("%s %s/%d", laneName(m, t.ID()),
			styles.Chunk.Render(fmt.Sprint(t.Mounted())), total))
	}
	return styles.Label.Render(strings.Join(parts, " | "))
}

func laneName(m *model.Model, id string) string {
	switch {
	case m.Wave != nil && id == m.Wave.ID():
		return "wave"
	case m.Spec != nil && id == m.Spec.ID():
		return "spec"
	}
	return "ruler"
}
