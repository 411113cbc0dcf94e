package views

import (
	"image"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/schollz/chunktrack/internal/model"
	"github.com/schollz/chunktrack/internal/track"
)

// Block characters by filled eighths, growing down from the top of a cell
// and up from the bottom.
var (
	upperBlocks = []string{" ", "▔", "🮂", "🮃", "▀", "🮄", "🮅", "🮆", "█"}
	lowerBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
)

// composite draws the mounted surfaces of t into a cols wide raster at
// the current scroll offset.
func composite(m *model.Model, t *track.Manager) *image.RGBA {
	opts := t.Options()
	img := image.NewRGBA(image.Rect(0, 0, m.Layout().Columns*opts.Scale, opts.Height*opts.Scale))
	t.Layer().Composite(img, scrollPixels(m), 0)
	return img
}

func scrollPixels(m *model.Model) int {
	return int(math.Round(m.ScrollOffset()))
}

// coverage turns a raster into a grid of painted pixels.
func coverage(img *image.RGBA) [][]bool {
	b := img.Bounds()
	grid := make([][]bool, b.Dy())
	for y := range grid {
		grid[y] = make([]bool, b.Dx())
		for x := range grid[y] {
			grid[y][x] = img.RGBAAt(b.Min.X+x, b.Min.Y+y).A > 0
		}
	}
	return grid
}

// RenderWaveform draws the bar track with eight vertical segments per
// text row. Rows above the centre line fill up from the bottom of the
// cell, rows below it fill down from the top.
func RenderWaveform(m *model.Model, styles *ViewStyles) string {
	grid := coverage(composite(m, m.Wave))
	height := m.Layout().WaveRows
	width := m.Layout().Columns
	centerY := height / 2

	var sb strings.Builder
	for y := 0; y < height; y++ {
		var row strings.Builder
		for x := 0; x < width; x++ {
			row.WriteString(cellChar(grid, x, y, model.SegmentsPerRow, y < centerY))
		}
		sb.WriteString(styles.Wave.Render(row.String()))
		sb.WriteString("\n")
	}
	return sb.String()
}

// cellChar returns the block for one text cell of the grid.
func cellChar(grid [][]bool, x, y, segmentsPerChar int, above bool) string {
	baseY := y * segmentsPerChar
	filled := func(i int) bool {
		segY := baseY + i
		return segY < len(grid) && x < len(grid[segY]) && grid[segY][x]
	}

	if above {
		// extent from the topmost painted segment down to the cell bottom
		for i := 0; i < segmentsPerChar; i++ {
			if filled(i) {
				return lowerBlocks[segmentsPerChar-i]
			}
		}
		return " "
	}
	for i := segmentsPerChar - 1; i >= 0; i-- {
		if filled(i) {
			return upperBlocks[i+1]
		}
	}
	return " "
}

// RenderSpectrogram draws two pixel rows per text row using the upper
// half block with foreground and background colours.
func RenderSpectrogram(m *model.Model) string {
	img := composite(m, m.Spec)
	b := img.Bounds()
	var sb strings.Builder
	for y := 0; y+1 < b.Dy(); y += model.SpecPixelsPerRow {
		for x := 0; x < b.Dx(); x++ {
			top, bottom := img.RGBAAt(x, y), img.RGBAAt(x, y+1)
			if top.A == 0 && bottom.A == 0 {
				sb.WriteString(" ")
				continue
			}
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(top.R, top.G, top.B))).
				Background(lipgloss.Color(hexColor(bottom.R, bottom.G, bottom.B))).
				Render("▀"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func hexColor(r, g, b uint8) string {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
}

// RenderRuler draws the tick row and the labels of the mounted ruler
// chunks. Labels are centred on their tick and dropped when they would
// overlap the previous one.
func RenderRuler(m *model.Model, styles *ViewStyles) string {
	img := composite(m, m.Ruler)
	width := m.Layout().Columns
	height := img.Bounds().Dy()

	tickLine := make([]rune, width)
	for x := range tickLine {
		tickLine[x] = ' '
		h := 0
		for y := 0; y < height; y++ {
			if img.RGBAAt(x, y).A > 0 {
				h++
			}
		}
		switch {
		case h == 0:
		case h >= height:
			tickLine[x] = '│'
		case h*2 >= height:
			tickLine[x] = '╷'
		default:
			tickLine[x] = '.'
		}
	}

	labelLine := make([]rune, width)
	for i := range labelLine {
		labelLine[i] = ' '
	}
	scroll := scrollPixels(m)
	nextFree := 0
	for _, l := range m.TimeScale.VisibleLabels(m.Ruler.Mounted(), m.Ruler.Options().ChunkWidth) {
		pos := l.Position - scroll
		if pos < 0 || pos >= width {
			continue
		}
		label := []rune(l.Text)
		startPos := max(pos-len(label)/2, 0)
		if startPos+len(label) > width {
			startPos = width - len(label)
		}
		if startPos < 0 || startPos < nextFree {
			continue
		}
		copy(labelLine[startPos:], label)
		nextFree = startPos + len(label) + 1
	}

	return styles.Tick.Render(string(tickLine)) + "\n" + styles.Label.Render(string(labelLine)) + "\n"
}
