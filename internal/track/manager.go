// Package track keeps the raster surfaces of one track in step with the
// visible chunk window.
package track

import (
	"log"
	"slices"
	"sort"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/surface"
	"github.com/schollz/chunktrack/internal/viewport"
)

// Painter draws one chunk into a surface using chunk-local coordinates.
type Painter interface {
	Paint(s *surface.Surface, d chunk.Descriptor)
	// Signature identifies every input that affects the pixels. Mounted
	// surfaces are repainted only when it changes.
	Signature() string
}

// Releaser is implemented by painters that hold per-chunk resources
// outside the surface, such as delegated registrations.
type Releaser interface {
	Release(s *surface.Surface, d chunk.Descriptor)
}

// Options describes the geometry of a track.
type Options struct {
	ID         string
	Channel    int
	TotalWidth int
	ChunkWidth int
	Height     int
	Scale      int
	Layer      *surface.Layer
}

// Manager mounts a surface for every visible chunk index and releases
// surfaces as soon as their chunk leaves the window. It is not safe for
// concurrent use: drive it from the goroutine that delivers viewport
// notifications.
type Manager struct {
	opts      Options
	painter   Painter
	signature string

	// mounted is sparse; only visible indices are present.
	mounted map[int]*surface.Surface
	visible []int

	store       *viewport.Store
	unsubscribe func()
	paints      int
}

// NewManager creates a manager. Nothing is mounted until Attach or Reconcile.
func NewManager(opts Options, p Painter) *Manager {
	if opts.ChunkWidth <= 0 {
		opts.ChunkWidth = chunk.MaxWidth
	}
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	if opts.Layer == nil {
		opts.Layer = surface.NewLayer(false)
	}
	m := &Manager{
		opts:    opts,
		painter: p,
		mounted: make(map[int]*surface.Surface),
	}
	m.signature = signatureOf(p)
	return m
}

// ID returns the track id.
func (m *Manager) ID() string { return m.opts.ID }

// Options returns the current geometry.
func (m *Manager) Options() Options { return m.opts }

// Layer returns the layer hosting the surfaces.
func (m *Manager) Layer() *surface.Layer { return m.opts.Layer }

// Attach subscribes to the visible chunk set of store. A nil store mounts
// every chunk. Attach replaces any previous subscription.
func (m *Manager) Attach(store *viewport.Store) {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.store = store
	m.unsubscribe = viewport.SelectFunc(store, m.selectIndices, equalIndices, m.Reconcile)
}

func equalIndices(a, b []int) bool { return slices.Equal(a, b) }

func (m *Manager) selectIndices(st *viewport.State) []int {
	return chunk.IndicesFor(m.opts.TotalWidth, m.opts.ChunkWidth, st)
}

// Reconcile mounts exactly the given chunk indices. Surfaces the host has
// detached are purged first, surfaces for indices that disappeared are
// detached and released before new ones are created, and new surfaces are
// painted before Reconcile returns.
func (m *Manager) Reconcile(indices []int) {
	m.visible = slices.Clone(indices)
	wanted := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		wanted[idx] = struct{}{}
	}

	var removed, added []int
	// drop references the host detached behind our back
	for idx, s := range m.mounted {
		if !s.Attached() {
			m.unmount(idx, s)
			removed = append(removed, idx)
		}
	}
	for idx, s := range m.mounted {
		if _, ok := wanted[idx]; !ok {
			m.opts.Layer.Detach(s)
			m.unmount(idx, s)
			removed = append(removed, idx)
		}
	}
	for _, idx := range indices {
		if _, ok := m.mounted[idx]; ok {
			continue
		}
		d := chunk.Describe(idx, m.opts.TotalWidth, m.opts.ChunkWidth)
		if d.Width <= 0 {
			continue
		}
		s := surface.New(idx, d.GlobalOffset, d.Width, m.opts.Height, m.opts.Scale)
		m.opts.Layer.Attach(s)
		m.mounted[idx] = s
		m.paint(s, d)
		added = append(added, idx)
	}

	if len(added) > 0 || len(removed) > 0 {
		sort.Ints(added)
		sort.Ints(removed)
		log.Printf("track %s: mounted %v unmounted %v (live %d)", m.opts.ID, added, removed, len(m.mounted))
	}
}

// Refresh reconciles against the last requested indices, remounting any
// surface that was purged after an external detach.
func (m *Manager) Refresh() {
	m.Reconcile(m.visible)
}

func (m *Manager) unmount(idx int, s *surface.Surface) {
	m.unmountWith(m.painter, idx, s)
}

func (m *Manager) unmountWith(p Painter, idx int, s *surface.Surface) {
	delete(m.mounted, idx)
	if r, ok := p.(Releaser); ok {
		r.Release(s, chunk.Describe(idx, m.opts.TotalWidth, m.opts.ChunkWidth))
	}
	s.Release()
}

func (m *Manager) paint(s *surface.Surface, d chunk.Descriptor) {
	if m.painter == nil {
		return
	}
	m.painter.Paint(s, d)
	m.paints++
}

// SetPainter swaps the painter. Mounted surfaces are repainted only when
// the painter's signature differs from the previous one. Replacing a
// Releaser remounts every chunk: its surfaces are released through it and
// the new painter gets fresh ones.
func (m *Manager) SetPainter(p Painter) {
	old := m.painter
	if _, ok := old.(Releaser); ok && old != p {
		for idx, s := range m.mounted {
			m.opts.Layer.Detach(s)
			m.unmountWith(old, idx, s)
		}
		m.painter = p
		m.signature = signatureOf(p)
		m.Reconcile(m.visible)
		return
	}
	m.painter = p
	sig := signatureOf(p)
	if sig == m.signature && old != nil {
		return
	}
	m.signature = sig
	m.Each(func(s *surface.Surface) {
		m.paint(s, chunk.Describe(s.Index, m.opts.TotalWidth, m.opts.ChunkWidth))
	})
}

func signatureOf(p Painter) string {
	if p == nil {
		return ""
	}
	return p.Signature()
}

// SetGeometry changes the track width or height. All surfaces are
// remounted because their sizes may differ.
func (m *Manager) SetGeometry(totalWidth, height int) {
	if totalWidth == m.opts.TotalWidth && height == m.opts.Height {
		return
	}
	m.Rebuild(totalWidth, height, m.painter)
}

// Rebuild remounts the track with new geometry and painter, as after a
// zoom. Each new surface is painted exactly once.
func (m *Manager) Rebuild(totalWidth, height int, p Painter) {
	m.Reconcile(nil)
	m.opts.TotalWidth = totalWidth
	m.opts.Height = height
	m.painter = p
	m.signature = signatureOf(p)
	if m.unsubscribe != nil {
		// resubscribe so the selector compares indices of the new geometry
		m.Attach(m.store)
		return
	}
	m.Reconcile(m.selectIndices(m.store.Snapshot()))
}

// Each calls fn for every mounted surface in ascending index order.
func (m *Manager) Each(fn func(s *surface.Surface)) {
	for _, idx := range m.Mounted() {
		if s, ok := m.mounted[idx]; ok {
			fn(s)
		}
	}
}

// Mounted returns the mounted chunk indices in ascending order.
func (m *Manager) Mounted() []int {
	indices := make([]int, 0, len(m.mounted))
	for idx := range m.mounted {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// Surface returns the surface mounted for index.
func (m *Manager) Surface(index int) (*surface.Surface, bool) {
	s, ok := m.mounted[index]
	return s, ok
}

// Paints returns the number of chunk paints performed.
func (m *Manager) Paints() int { return m.paints }

// Close unsubscribes and releases every surface.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.Reconcile(nil)
}
