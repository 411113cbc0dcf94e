package track

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/surface"
	"github.com/schollz/chunktrack/internal/viewport"
)

type countingPainter struct {
	sig      string
	painted  map[int]int
	released []int
}

func newCountingPainter(sig string) *countingPainter {
	return &countingPainter{sig: sig, painted: make(map[int]int)}
}

func (p *countingPainter) Paint(s *surface.Surface, d chunk.Descriptor) {
	p.painted[d.Index]++
	if img := s.Image(); img != nil {
		img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	}
}

func (p *countingPainter) Signature() string { return p.sig }

func (p *countingPainter) Release(s *surface.Surface, d chunk.Descriptor) {
	p.released = append(p.released, d.Index)
}

// plainPainter paints without tracking unmounts.
type plainPainter struct {
	sig     string
	painted map[int]int
}

func newPlainPainter(sig string) *plainPainter {
	return &plainPainter{sig: sig, painted: make(map[int]int)}
}

func (p *plainPainter) Paint(s *surface.Surface, d chunk.Descriptor) { p.painted[d.Index]++ }

func (p *plainPainter) Signature() string { return p.sig }

func newTestManager(p Painter) *Manager {
	return NewManager(Options{ID: "t1", TotalWidth: 12500, ChunkWidth: 1000, Height: 32}, p)
}

func TestManagerMountsVisibleChunks(t *testing.T) {
	store := viewport.NewStore()
	store.Update(5000, 800)

	p := newCountingPainter("a")
	m := newTestManager(p)
	m.Attach(store)

	assert.Equal(t, []int{3, 4, 5, 6}, m.Mounted())
	assert.Equal(t, 4, m.Layer().Len())
	for _, idx := range m.Mounted() {
		s, ok := m.Surface(idx)
		require.True(t, ok)
		assert.Equal(t, idx*1000, s.Left, "surface %d is positioned by its global offset", idx)
		assert.Equal(t, 1, p.painted[idx])
	}
}

func TestManagerIgnoresSmallScroll(t *testing.T) {
	store := viewport.NewStore()
	store.Update(5000, 800)
	p := newCountingPainter("a")
	m := newTestManager(p)
	m.Attach(store)
	paints := m.Paints()

	for _, scroll := range []float64{5040, 5080, 5060} {
		store.Update(scroll, 800)
	}
	assert.Equal(t, paints, m.Paints())
	assert.Equal(t, []int{3, 4, 5, 6}, m.Mounted())
}

func TestManagerScrollSwapsEdgeChunks(t *testing.T) {
	store := viewport.NewStore()
	store.Update(5000, 800)
	p := newCountingPainter("a")
	m := newTestManager(p)
	m.Attach(store)
	kept, _ := m.Surface(4)

	require.True(t, store.Update(5600, 800))
	assert.Equal(t, []int{4, 5, 6, 7}, m.Mounted())
	assert.Equal(t, []int{3}, p.released)

	s4, _ := m.Surface(4)
	assert.Same(t, kept, s4, "chunks that stay visible keep their surface")
	assert.Equal(t, 1, p.painted[4])
	assert.Equal(t, 1, p.painted[7])
}

func TestManagerInteriorUnmountKeepsPositions(t *testing.T) {
	p := newCountingPainter("a")
	m := newTestManager(p)
	m.Reconcile([]int{3, 4, 5})
	m.Reconcile([]int{3, 5})

	s5, ok := m.Surface(5)
	require.True(t, ok)
	assert.Equal(t, 5000, s5.Left)
	assert.Equal(t, []int{3, 5}, m.Mounted())

	surfaces := m.Layer().Surfaces()
	require.Len(t, surfaces, 2)
	assert.Equal(t, 3000, surfaces[0].Left)
	assert.Equal(t, 5000, surfaces[1].Left)
}

func TestManagerWithoutViewport(t *testing.T) {
	p := newCountingPainter("a")
	m := newTestManager(p)
	m.Attach(nil)

	assert.Len(t, m.Mounted(), 13)
	last, _ := m.Surface(12)
	assert.Equal(t, 500, last.Width)
}

func TestManagerUnmountReleasesSurface(t *testing.T) {
	p := newCountingPainter("a")
	m := newTestManager(p)
	m.Reconcile([]int{0, 1})
	s1, _ := m.Surface(1)

	m.Reconcile([]int{0})
	assert.True(t, s1.Released())
	assert.False(t, s1.Attached())
	assert.Equal(t, []int{1}, p.released)
	_, ok := m.Surface(1)
	assert.False(t, ok)
}

func TestManagerSetPainter(t *testing.T) {
	p := newPlainPainter("a")
	m := newTestManager(p)
	m.Reconcile([]int{2, 3})
	paints := m.Paints()

	same := newPlainPainter("a")
	m.SetPainter(same)
	assert.Equal(t, paints, m.Paints(), "same signature does not repaint")
	assert.Empty(t, same.painted)

	changed := newPlainPainter("b")
	m.SetPainter(changed)
	assert.Equal(t, paints+2, m.Paints())
	assert.Equal(t, map[int]int{2: 1, 3: 1}, changed.painted)
}

func TestManagerSetPainterReplacesReleaser(t *testing.T) {
	old := newCountingPainter("a")
	m := newTestManager(old)
	m.Reconcile([]int{2, 3})
	s2, _ := m.Surface(2)

	next := newCountingPainter("a")
	m.SetPainter(next)

	assert.ElementsMatch(t, []int{2, 3}, old.released, "the outgoing painter hears about every surface")
	assert.True(t, s2.Released())
	assert.False(t, s2.Attached())
	assert.Equal(t, map[int]int{2: 1, 3: 1}, next.painted, "fresh surfaces for the new painter")
	assert.Equal(t, []int{2, 3}, m.Mounted())

	fresh, _ := m.Surface(2)
	assert.NotSame(t, s2, fresh)

	m.SetPainter(next)
	assert.Equal(t, map[int]int{2: 1, 3: 1}, next.painted, "re-setting the same painter is a no-op")
}

func TestManagerPurgesExternallyDetachedSurfaces(t *testing.T) {
	p := newCountingPainter("a")
	m := newTestManager(p)
	m.Reconcile([]int{3, 4, 5})

	s4, _ := m.Surface(4)
	m.Layer().Detach(s4)
	m.Refresh()
	assert.True(t, s4.Released())
	assert.Equal(t, []int{4}, p.released)
	assert.Equal(t, []int{3, 4, 5}, m.Mounted())
	fresh, _ := m.Surface(4)
	assert.NotSame(t, s4, fresh)
	assert.True(t, fresh.Attached())
}

func TestManagerLayerCleared(t *testing.T) {
	p := newCountingPainter("a")
	m := newTestManager(p)
	m.Reconcile([]int{0, 1})

	m.Layer().Clear()
	m.Refresh()
	assert.Equal(t, []int{0, 1}, m.Mounted())
	assert.Equal(t, 2, m.Layer().Len())
}

func TestManagerSetGeometry(t *testing.T) {
	store := viewport.NewStore()
	store.Update(0, 800)
	p := newCountingPainter("a")
	m := NewManager(Options{ID: "t1", TotalWidth: 1500, ChunkWidth: 1000, Height: 32}, p)
	m.Attach(store)
	assert.Equal(t, []int{0, 1}, m.Mounted())
	s1, _ := m.Surface(1)
	assert.Equal(t, 500, s1.Width)

	m.SetGeometry(3000, 64)
	assert.Equal(t, []int{0, 1}, m.Mounted())
	s1b, _ := m.Surface(1)
	assert.Equal(t, 1000, s1b.Width)
	assert.Equal(t, 64, s1b.Height)
	assert.True(t, s1.Released())
}

func TestManagerRebuild(t *testing.T) {
	store := viewport.NewStore()
	store.Update(5000, 800)
	m := newTestManager(newCountingPainter("a"))
	m.Attach(store)

	// zooming out halves the track width; the same scroll now shows less
	zoomed := newCountingPainter("b")
	m.Rebuild(6250, 32, zoomed)
	assert.Equal(t, []int{3, 4, 5, 6}, m.Mounted())
	assert.Equal(t, map[int]int{3: 1, 4: 1, 5: 1, 6: 1}, zoomed.painted, "one paint per surface")
	assert.Equal(t, 1, store.Listeners())
	last, _ := m.Surface(6)
	assert.Equal(t, 250, last.Width)

	// the selector compares against the rebuilt geometry
	store.Update(0, 800)
	assert.Equal(t, []int{0, 1}, m.Mounted())
	store.Update(5000, 800)
	assert.Equal(t, []int{3, 4, 5, 6}, m.Mounted())
}

func TestManagerClose(t *testing.T) {
	store := viewport.NewStore()
	store.Update(0, 800)
	m := newTestManager(newCountingPainter("a"))
	m.Attach(store)
	require.Equal(t, 1, store.Listeners())

	m.Close()
	assert.Empty(t, m.Mounted())
	assert.Equal(t, 0, m.Layer().Len())
	assert.Equal(t, 0, store.Listeners())
}

func TestManagerDefaults(t *testing.T) {
	m := NewManager(Options{TotalWidth: 2500}, nil)
	assert.Equal(t, chunk.MaxWidth, m.Options().ChunkWidth)
	assert.Equal(t, 1, m.Options().Scale)

	m.Reconcile([]int{0, 1, 2})
	assert.Equal(t, 0, m.Paints())
	assert.Equal(t, []int{0, 1, 2}, m.Mounted())
}

func BenchmarkReconcileScroll(b *testing.B) {
	store := viewport.NewStore()
	store.Update(0, 800)
	m := NewManager(Options{ID: "bench", TotalWidth: 1_000_000, ChunkWidth: 1000, Height: 8}, newCountingPainter("a"))
	m.Attach(store)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Update(float64(i%900)*1000, 800)
	}
}
