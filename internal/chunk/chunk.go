// Package chunk maps global pixel ranges of a track onto fixed-width chunks.
//
// A chunk's position is always derived from its index, never from the widths
// of the chunks before it: at any moment only a sparse subset of indices is
// mounted, so summing neighbours would drift.
package chunk

import (
	"math"

	"github.com/schollz/chunktrack/internal/viewport"
)

// MaxWidth is the default chunk width in pixels. Raster surfaces much wider
// than this are slow or refused outright by most platforms.
const MaxWidth = 1000

// Descriptor is the geometry of one chunk.
type Descriptor struct {
	Index        int
	GlobalOffset int
	Width        int
}

// End returns the exclusive global end of the chunk.
func (d Descriptor) End() int {
	return d.GlobalOffset + d.Width
}

// GlobalOffsetOf returns the global x of a chunk's left edge.
func GlobalOffsetOf(index, chunkWidth int) int {
	return index * chunkWidth
}

// Count returns the number of chunks needed to cover totalWidth.
func Count(totalWidth, chunkWidth int) int {
	if totalWidth <= 0 || chunkWidth <= 0 {
		return 0
	}
	return (totalWidth + chunkWidth - 1) / chunkWidth
}

// Describe returns the descriptor for index. The last chunk is narrower
// when totalWidth is not a multiple of chunkWidth.
func Describe(index, totalWidth, chunkWidth int) Descriptor {
	offset := GlobalOffsetOf(index, chunkWidth)
	width := chunkWidth
	if rest := totalWidth - offset; rest < width {
		width = max(rest, 0)
	}
	return Descriptor{Index: index, GlobalOffset: offset, Width: width}
}

// All returns every chunk index for a track.
func All(totalWidth, chunkWidth int) []int {
	n := Count(totalWidth, chunkWidth)
	indices := make([]int, n)
	for i := range n {
		indices[i] = i
	}
	return indices
}

// IndicesFor returns, in ascending order, the chunks whose
// [offset, offset+width) range intersects [VisibleStart, VisibleEnd).
// Touching a boundary is not an intersection. A nil viewport selects every
// chunk so tracks outside a scroll container still render completely.
func IndicesFor(totalWidth, chunkWidth int, vp *viewport.State) []int {
	if vp == nil {
		return All(totalWidth, chunkWidth)
	}
	n := Count(totalWidth, chunkWidth)
	if n == 0 || vp.VisibleEnd <= vp.VisibleStart {
		return []int{}
	}
	first := int(math.Floor(vp.VisibleStart / float64(chunkWidth)))
	first = max(first, 0)
	var indices []int
	for i := first; i < n; i++ {
		d := Describe(i, totalWidth, chunkWidth)
		start, end := float64(d.GlobalOffset), float64(d.End())
		if start >= vp.VisibleEnd {
			break
		}
		if end <= vp.VisibleStart {
			continue
		}
		indices = append(indices, i)
	}
	if indices == nil {
		return []int{}
	}
	return indices
}

// Span returns the global pixel range covered by the given (ascending)
// indices: the first chunk's start through the last chunk's end.
// ok is false for an empty set.
func Span(indices []int, totalWidth, chunkWidth int) (start, end int, ok bool) {
	if len(indices) == 0 {
		return 0, 0, false
	}
	first := Describe(indices[0], totalWidth, chunkWidth)
	last := Describe(indices[len(indices)-1], totalWidth, chunkWidth)
	return first.GlobalOffset, last.End(), true
}
