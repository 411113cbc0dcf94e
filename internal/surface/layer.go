package surface

import (
	"image"
	"sort"
	"sync"

	"golang.org/x/image/draw"
)

// Layer hosts the surfaces of one track at absolute positions. Removing an
// interior surface never moves the surfaces to its right.
type Layer struct {
	mu        sync.Mutex
	nodes     map[*Surface]struct{}
	offscreen bool
}

// NewLayer creates a layer. offscreen reports whether surfaces attached to
// it may be transferred to a background context.
func NewLayer(offscreen bool) *Layer {
	return &Layer{
		nodes:     make(map[*Surface]struct{}),
		offscreen: offscreen,
	}
}

// Attach adds s to the layer.
func (l *Layer) Attach(s *Surface) {
	l.mu.Lock()
	l.nodes[s] = struct{}{}
	l.mu.Unlock()
	s.setTransferable(l.offscreen)
	s.setAttached(true)
}

// Detach removes s from the layer. Detaching twice is harmless.
func (l *Layer) Detach(s *Surface) {
	l.mu.Lock()
	delete(l.nodes, s)
	l.mu.Unlock()
	s.setAttached(false)
}

// Clear detaches every surface, as a host does when it tears down the
// element holding them.
func (l *Layer) Clear() {
	l.mu.Lock()
	nodes := l.nodes
	l.nodes = make(map[*Surface]struct{})
	l.mu.Unlock()
	for s := range nodes {
		s.setAttached(false)
	}
}

// Len returns the number of attached surfaces.
func (l *Layer) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.nodes)
}

// Surfaces returns the attached surfaces ordered by position.
func (l *Layer) Surfaces() []*Surface {
	l.mu.Lock()
	out := make([]*Surface, 0, len(l.nodes))
	for s := range l.nodes {
		out = append(out, s)
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Left < out[j].Left })
	return out
}

// Composite draws every attached surface onto dst with the layer origin
// shifted left by scroll layout pixels and moved down by top. Surfaces
// must share dst's scale.
func (l *Layer) Composite(dst draw.Image, scroll, top int) {
	for _, s := range l.Surfaces() {
		img := s.Snapshot()
		if img == nil {
			continue
		}
		x := (s.Left - scroll) * s.Scale
		r := image.Rect(x, top*s.Scale, x+img.Rect.Dx(), top*s.Scale+img.Rect.Dy())
		if !r.Overlaps(dst.Bounds()) {
			continue
		}
		draw.Draw(dst, r, img, image.Point{}, draw.Over)
	}
}
