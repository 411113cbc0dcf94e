package viewport

import (
	"math"
	"sync"
)

const (
	// OverscanFactor is how many container widths are kept mounted on each
	// side of the visible window. Tuned for 1000px chunks.
	OverscanFactor = 1.5

	// UpdateThreshold is the smallest scroll delta (px) that produces a new
	// state when the container width is unchanged. It never exceeds the
	// overscan of the container, so narrow containers update more often.
	UpdateThreshold = 100.0
)

// State is one measurement of a scroll container.
// States are values: a new State supersedes the previous one.
type State struct {
	ScrollOffset   float64
	ContainerWidth float64
	VisibleStart   float64
	VisibleEnd     float64
}

// Options tunes the store. Zero fields take the package defaults.
type Options struct {
	OverscanFactor  float64
	UpdateThreshold float64
}

// Store holds the viewport state for a single scroll container and
// notifies subscribers when the window meaningfully changes.
// A nil *Store is valid and means "no container": Snapshot returns nil.
type Store struct {
	mu        sync.Mutex
	opts      Options
	state     *State
	nextID    int
	listeners map[int]func()
	order     []int
}

// NewStore creates a store with the default overscan and threshold.
func NewStore() *Store {
	return NewStoreWithOptions(Options{})
}

// NewStoreWithOptions creates a store with tuned constants.
func NewStoreWithOptions(opts Options) *Store {
	if opts.OverscanFactor <= 0 {
		opts.OverscanFactor = OverscanFactor
	}
	if opts.UpdateThreshold <= 0 {
		opts.UpdateThreshold = UpdateThreshold
	}
	return &Store{
		opts:      opts,
		listeners: make(map[int]func()),
	}
}

// Compute derives the visible window for a scroll offset and container width.
func Compute(scrollOffset, containerWidth, overscanFactor float64) State {
	overscan := containerWidth * overscanFactor
	return State{
		ScrollOffset:   scrollOffset,
		ContainerWidth: containerWidth,
		VisibleStart:   math.Max(0, scrollOffset-overscan),
		VisibleEnd:     scrollOffset + containerWidth + overscan,
	}
}

// Threshold returns the scroll delta below which an update at the given
// container width is discarded: UpdateThreshold, capped at the overscan so
// the visible window never leaves the mounted one.
func (s *Store) Threshold(containerWidth float64) float64 {
	if s == nil {
		return 0
	}
	return math.Min(s.opts.UpdateThreshold, containerWidth*s.opts.OverscanFactor)
}

// Update records a new measurement. It returns false when the update was
// discarded because the scroll moved less than the threshold at the same
// container width; no subscriber is notified in that case.
func (s *Store) Update(scrollOffset, containerWidth float64) bool {
	if s == nil {
		return false
	}
	threshold := s.Threshold(containerWidth)
	s.mu.Lock()
	if prev := s.state; prev != nil &&
		prev.ContainerWidth == containerWidth &&
		math.Abs(prev.ScrollOffset-scrollOffset) < threshold {
		s.mu.Unlock()
		return false
	}
	next := Compute(scrollOffset, containerWidth, s.opts.OverscanFactor)
	if s.state != nil && *s.state == next {
		s.mu.Unlock()
		return false
	}
	s.state = &next
	listeners := make([]func(), 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return true
}

// Snapshot returns a copy of the current state, or nil when nothing has
// been measured yet or the store is nil.
func (s *Store) Snapshot() *State {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	st := *s.state
	return &st
}

// Subscribe registers fn to run after every accepted update.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	if s == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Listeners returns the number of active subscriptions.
func (s *Store) Listeners() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
