package viewport

import (
	"context"
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display refresh.
const DefaultFrameInterval = time.Second / 60

// Container is the scroll container the store measures.
type Container interface {
	ScrollOffset() float64
	ContainerWidth() float64
}

// FrameScheduler runs callbacks at the next display refresh.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// Tracker coalesces scroll and resize notifications into at most one
// measurement per frame and feeds the result to a Store.
type Tracker struct {
	store     *Store
	container Container
	sched     FrameScheduler

	mu           sync.Mutex
	pending      bool
	measurements int
}

// NewTracker binds a container to a store. It performs an initial
// measurement so the store is populated before the first scroll.
func NewTracker(store *Store, container Container, sched FrameScheduler) *Tracker {
	t := &Tracker{
		store:     store,
		container: container,
		sched:     sched,
	}
	t.measure()
	return t
}

// OnScroll is called from the container's scroll handler.
func (t *Tracker) OnScroll() {
	t.schedule()
}

// OnResize is called when the container width changes.
func (t *Tracker) OnResize() {
	t.schedule()
}

// Measurements returns how many measurements have been taken.
func (t *Tracker) Measurements() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.measurements
}

func (t *Tracker) schedule() {
	t.mu.Lock()
	if t.pending {
		t.mu.Unlock()
		return
	}
	t.pending = true
	t.mu.Unlock()
	t.sched.RequestFrame(t.frame)
}

func (t *Tracker) frame() {
	t.mu.Lock()
	t.pending = false
	t.mu.Unlock()
	t.measure()
}

func (t *Tracker) measure() {
	t.mu.Lock()
	t.measurements++
	t.mu.Unlock()
	t.store.Update(t.container.ScrollOffset(), t.container.ContainerWidth())
}

// TickerScheduler runs queued frame callbacks on a fixed interval.
type TickerScheduler struct {
	interval time.Duration

	mu    sync.Mutex
	queue []func()
}

// NewTickerScheduler creates a scheduler; interval <= 0 uses DefaultFrameInterval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TickerScheduler{interval: interval}
}

// RequestFrame queues fn for the next tick.
func (ts *TickerScheduler) RequestFrame(fn func()) {
	ts.mu.Lock()
	ts.queue = append(ts.queue, fn)
	ts.mu.Unlock()
}

// Run drains the queue once per tick until ctx is cancelled.
func (ts *TickerScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(ts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ts.flush()
		}
	}
}

func (ts *TickerScheduler) flush() {
	ts.mu.Lock()
	queue := ts.queue
	ts.queue = nil
	ts.mu.Unlock()
	for _, fn := range queue {
		fn()
	}
}

// ManualScheduler queues frames until Flush is called.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

// RequestFrame queues fn until the next Flush.
func (ms *ManualScheduler) RequestFrame(fn func()) {
	ms.mu.Lock()
	ms.queue = append(ms.queue, fn)
	ms.mu.Unlock()
}

// Pending returns the number of queued frame callbacks.
func (ms *ManualScheduler) Pending() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.queue)
}

// Flush runs every queued callback, as if a frame had been painted.
func (ms *ManualScheduler) Flush() {
	ms.mu.Lock()
	queue := ms.queue
	ms.queue = nil
	ms.mu.Unlock()
	for _, fn := range queue {
		fn()
	}
}
