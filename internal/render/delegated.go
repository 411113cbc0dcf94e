package render

import (
	"fmt"
	"log"
	"sync"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/surface"
)

// CanvasRegistry is a background drawing context that owns transferred
// surfaces. Messages for one id are handled in the order they are sent.
type CanvasRegistry interface {
	// RegisterCanvas takes ownership of c under id. The returned channel
	// yields the outcome once the context has processed the request.
	RegisterCanvas(id string, c *surface.Offscreen) <-chan error
	UnregisterCanvas(id string)
	Render(id string, d chunk.Descriptor, sp *Spectrogram)
}

// ChunkID is the registry id of one chunk of one channel of a track.
func ChunkID(trackID string, channel, index int) string {
	return fmt.Sprintf("%s-ch%d-chunk%d", trackID, channel, index)
}

type registration struct {
	id        string
	desc      chunk.Descriptor
	active    bool
	unmounted bool
	// done is closed once the id is free to be registered again.
	done chan struct{}
}

// Delegated paints spectrogram chunks on a background context. Each
// surface's control is transferred at most once; the record of attempts
// is checked before every transfer.
type Delegated struct {
	TrackID  string
	Channel  int
	Registry CanvasRegistry

	mu        sync.Mutex
	spec      *Spectrogram
	attempted map[*surface.Surface]bool
	regs      map[*surface.Surface]*registration
	tails     map[string]*registration
	wg        sync.WaitGroup
}

// NewDelegated creates a delegated painter for one channel of a track.
func NewDelegated(trackID string, channel int, registry CanvasRegistry, spec *Spectrogram) *Delegated {
	return &Delegated{
		TrackID:   trackID,
		Channel:   channel,
		Registry:  registry,
		spec:      spec,
		attempted: make(map[*surface.Surface]bool),
		regs:      make(map[*surface.Surface]*registration),
		tails:     make(map[string]*registration),
	}
}

// SetSpectrogram swaps the visual parameters. Keep the same Delegated
// across parameter changes: transfer records live here.
func (dl *Delegated) SetSpectrogram(spec *Spectrogram) {
	dl.mu.Lock()
	dl.spec = spec
	dl.mu.Unlock()
}

// Signature changes whenever the spectrogram parameters do.
func (dl *Delegated) Signature() string {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return "delegated|" + dl.spec.Signature()
}

// Paint transfers s on first sight and registers it; later calls ask the
// context to redraw. Failures are logged and the chunk is skipped.
func (dl *Delegated) Paint(s *surface.Surface, d chunk.Descriptor) {
	dl.mu.Lock()
	if dl.attempted[s] {
		reg := dl.regs[s]
		active := reg != nil && reg.active
		spec := dl.spec
		dl.mu.Unlock()
		if active {
			dl.Registry.Render(reg.id, d, spec)
		}
		return
	}
	dl.attempted[s] = true
	dl.mu.Unlock()

	id := ChunkID(dl.TrackID, dl.Channel, d.Index)
	if s.Transferred() {
		log.Printf("spectrogram %s: surface already transferred, skipping chunk", id)
		return
	}
	off, err := s.TransferControl()
	if err != nil {
		log.Printf("spectrogram %s: transfer failed, skipping chunk: %v", id, err)
		return
	}

	reg := &registration{id: id, desc: d, done: make(chan struct{})}
	dl.mu.Lock()
	prev := dl.tails[id]
	dl.tails[id] = reg
	dl.regs[s] = reg
	dl.mu.Unlock()

	dl.wg.Add(1)
	go dl.register(s, reg, prev, off)
}

func (dl *Delegated) register(s *surface.Surface, reg, prev *registration, off *surface.Offscreen) {
	defer dl.wg.Done()
	if prev != nil {
		// an earlier surface for the same chunk must be unregistered first
		<-prev.done
	}
	err := <-dl.Registry.RegisterCanvas(reg.id, off)

	dl.mu.Lock()
	if err != nil {
		log.Printf("spectrogram %s: register failed, chunk stays blank: %v", reg.id, err)
		dl.retire(s, reg)
		dl.mu.Unlock()
		return
	}
	if reg.unmounted {
		dl.mu.Unlock()
		// unregister before freeing the id so a successor queues behind it
		dl.Registry.UnregisterCanvas(reg.id)
		dl.mu.Lock()
		dl.retire(s, reg)
		dl.mu.Unlock()
		return
	}
	reg.active = true
	spec := dl.spec
	dl.mu.Unlock()
	dl.Registry.Render(reg.id, reg.desc, spec)
}

// Release unregisters the chunk's canvas. A registration still in flight
// is unregistered as soon as it resolves.
func (dl *Delegated) Release(s *surface.Surface, d chunk.Descriptor) {
	dl.mu.Lock()
	delete(dl.attempted, s)
	reg := dl.regs[s]
	if reg == nil {
		dl.mu.Unlock()
		return
	}
	reg.unmounted = true
	if !reg.active {
		dl.mu.Unlock()
		return
	}
	dl.mu.Unlock()

	dl.Registry.UnregisterCanvas(reg.id)

	dl.mu.Lock()
	dl.retire(s, reg)
	dl.mu.Unlock()
}

// retire forgets reg and frees its id. Callers hold dl.mu.
func (dl *Delegated) retire(s *surface.Surface, reg *registration) {
	if dl.regs[s] == reg {
		delete(dl.regs, s)
	}
	if dl.tails[reg.id] == reg {
		delete(dl.tails, reg.id)
	}
	reg.active = false
	close(reg.done)
}

// Pending returns the number of registrations not yet retired.
func (dl *Delegated) Pending() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return len(dl.regs)
}

// Wait blocks until every in-flight registration has resolved.
func (dl *Delegated) Wait() {
	dl.wg.Wait()
}
