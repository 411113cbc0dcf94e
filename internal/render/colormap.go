package render

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorMap is a 256-entry lookup table from normalised magnitude to colour.
type ColorMap [256]color.RGBA

// Named colour map stops, quiet to loud.
var colorMapStops = map[string][]string{
	"magma":     {"#000004", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"},
	"viridis":   {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	"grayscale": {"#000000", "#ffffff"},
	"roseus":    {"#040404", "#3a1061", "#9a1c6d", "#e34f3c", "#f7b733", "#fffde0"},
}

// NewColorMap blends the stops evenly across 256 entries in Lab space.
func NewColorMap(stops ...colorful.Color) ColorMap {
	var cm ColorMap
	switch len(stops) {
	case 0:
		return cm
	case 1:
		for i := range cm {
			cm[i] = toRGBA(stops[0])
		}
		return cm
	}
	segments := len(stops) - 1
	for i := range cm {
		t := float64(i) / 255 * float64(segments)
		seg := min(int(t), segments-1)
		c := stops[seg].BlendLab(stops[seg+1], t-float64(seg))
		cm[i] = toRGBA(c)
	}
	return cm
}

// NamedColorMap returns one of the built-in colour maps.
func NamedColorMap(name string) (ColorMap, error) {
	hexes, ok := colorMapStops[name]
	if !ok {
		return ColorMap{}, fmt.Errorf("unknown colour map %q", name)
	}
	return ColorMapFromHex(hexes...)
}

// ColorMapFromHex parses "#rrggbb" stops and blends them.
func ColorMapFromHex(hexes ...string) (ColorMap, error) {
	stops := make([]colorful.Color, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return ColorMap{}, fmt.Errorf("colour stop %q: %w", h, err)
		}
		stops = append(stops, c)
	}
	return NewColorMap(stops...), nil
}

// At quantises v in [0,1] to a table entry. Values outside are clamped.
func (cm *ColorMap) At(v float64) color.RGBA {
	return cm[quantize(v)]
}

func quantize(v float64) int {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	}
	return int(v * 255)
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
