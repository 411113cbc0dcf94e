// Package render paints chunk surfaces: amplitude bars, spectrograms and
// time rulers. Every painter works in chunk-local coordinates derived from
// the chunk's global offset.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/surface"
)

// DrawMode selects how bars are painted.
type DrawMode int

const (
	// Normal fills the bar extent with the wave colour.
	Normal DrawMode = iota
	// Inverted fills everything except the bar extent with the mask
	// colour, so the background shows through as the bar.
	Inverted
)

func (m DrawMode) String() string {
	if m == Inverted {
		return "inverted"
	}
	return "normal"
}

// ParseDrawMode parses "normal" or "inverted".
func ParseDrawMode(s string) (DrawMode, error) {
	switch s {
	case "", "normal":
		return Normal, nil
	case "inverted":
		return Inverted, nil
	}
	return Normal, fmt.Errorf("unknown draw mode %q", s)
}

// Peaks holds one (min, max) pair of signed samples per pixel.
type Peaks struct {
	Data     []int32
	BitDepth int
}

// Len returns the number of pixels covered.
func (p Peaks) Len() int { return len(p.Data) / 2 }

// At returns the normalised (min, max) peak at pixel x. Peaks without a
// bit depth read as silence.
func (p Peaks) At(x int) (minPeak, maxPeak float64) {
	if p.BitDepth < 1 {
		return 0, 0
	}
	full := float64(int64(1) << (p.BitDepth - 1))
	return float64(p.Data[x*2]) / full, float64(p.Data[x*2+1]) / full
}

// Bars paints an amplitude envelope as evenly spaced bars.
type Bars struct {
	Peaks     Peaks
	BarWidth  int
	BarGap    int
	Mode      DrawMode
	WaveColor color.RGBA
	MaskColor color.RGBA
}

// FirstBar returns the global x of the earliest bar that can still reach
// into a chunk starting at globalOffset, even if it starts left of it.
func FirstBar(globalOffset, barWidth, step int) int {
	return (globalOffset - barWidth + step) / step * step
}

func (b *Bars) geometry() (width, step int) {
	width = max(b.BarWidth, 1)
	return width, width + max(b.BarGap, 0)
}

// Signature covers every input that changes the pixels.
func (b *Bars) Signature() string {
	var data *int32
	if len(b.Peaks.Data) > 0 {
		data = &b.Peaks.Data[0]
	}
	return fmt.Sprintf("bars|%p|%d|%d|%d|%d|%s|%v|%v",
		data, len(b.Peaks.Data), b.Peaks.BitDepth, b.BarWidth, b.BarGap, b.Mode, b.WaveColor, b.MaskColor)
}

// Paint draws the bars that fall into chunk d.
func (b *Bars) Paint(s *surface.Surface, d chunk.Descriptor) {
	img := s.Image()
	if img == nil {
		return
	}
	clear(img.Pix)
	b.PaintImage(img, d, s.Height, s.Scale)
}

// PaintImage draws into an RGBA raster of height layout pixels times scale.
func (b *Bars) PaintImage(img *image.RGBA, d chunk.Descriptor, height, scale int) {
	if b.Peaks.BitDepth < 1 {
		return
	}
	barWidth, step := b.geometry()
	h2 := height / 2
	end := d.GlobalOffset + d.Width
	for barGlobal := FirstBar(d.GlobalOffset, barWidth, step); barGlobal < end; barGlobal += step {
		if barGlobal >= b.Peaks.Len() {
			break
		}
		minPeak, maxPeak := b.Peaks.At(barGlobal)
		lo := int(math.Round(math.Abs(minPeak * float64(h2))))
		hi := int(math.Round(math.Abs(maxPeak * float64(h2))))
		localX := barGlobal - d.GlobalOffset

		if b.Mode == Inverted {
			fillRect(img, scale, localX, 0, barWidth, h2-hi, b.MaskColor)
			fillRect(img, scale, localX, h2+lo, barWidth, height-(h2+lo), b.MaskColor)
			continue
		}
		fillRect(img, scale, localX, h2-hi, barWidth, hi+lo, b.WaveColor)
	}
}

// fillRect fills a rectangle given in layout pixels, clipped to img.
func fillRect(img *image.RGBA, scale, x, y, w, h int, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	r := image.Rect(x*scale, y*scale, (x+w)*scale, (y+h)*scale).Intersect(img.Rect)
	if r.Empty() {
		return
	}
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}
