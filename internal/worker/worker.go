// Package worker runs a background drawing context that owns transferred
// spectrogram surfaces and paints them on request.
package worker

import (
	"errors"
	"image"
	"log"
	"sort"
	"sync"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/render"
	"github.com/schollz/chunktrack/internal/surface"
)

var (
	// ErrClosed is returned for registrations sent after Close.
	ErrClosed = errors.New("worker: closed")
	// ErrDuplicateID is returned when an id is registered twice without
	// an unregister in between.
	ErrDuplicateID = errors.New("worker: canvas id already registered")
)

type msgKind int

const (
	msgRegister msgKind = iota
	msgUnregister
	msgRender
	msgSync
)

type message struct {
	kind   msgKind
	id     string
	canvas *surface.Offscreen
	desc   chunk.Descriptor
	spec   *render.Spectrogram
	reply  chan error
}

// Worker owns a map of canvas id to offscreen surface. All messages are
// handled by one goroutine in the order they were sent.
type Worker struct {
	msgs chan message
	quit chan struct{}
	done chan struct{}

	// sendMu keeps senders out while Close flips closed.
	sendMu sync.RWMutex
	closed bool

	mu       sync.Mutex
	canvases map[string]*surface.Offscreen
	renders  int
}

// New starts a worker. buffer is the message queue length.
func New(buffer int) *Worker {
	w := &Worker{
		msgs:     make(chan message, max(buffer, 0)),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		canvases: make(map[string]*surface.Offscreen),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.quit:
			w.drain()
			return
		case msg := <-w.msgs:
			w.handle(msg)
		}
	}
}

// drain fails the registrations still queued at shutdown.
func (w *Worker) drain() {
	for {
		select {
		case msg := <-w.msgs:
			if msg.reply != nil {
				msg.reply <- ErrClosed
			}
		default:
			return
		}
	}
}

func (w *Worker) handle(msg message) {
	switch msg.kind {
	case msgRegister:
		w.mu.Lock()
		_, exists := w.canvases[msg.id]
		if !exists {
			w.canvases[msg.id] = msg.canvas
		}
		w.mu.Unlock()
		if exists {
			msg.reply <- ErrDuplicateID
			return
		}
		msg.reply <- nil
	case msgUnregister:
		w.mu.Lock()
		delete(w.canvases, msg.id)
		w.mu.Unlock()
	case msgRender:
		w.mu.Lock()
		canvas := w.canvases[msg.id]
		w.mu.Unlock()
		if canvas == nil {
			log.Printf("worker: render for unknown canvas %s", msg.id)
			return
		}
		err := canvas.Draw(func(img *image.RGBA) {
			msg.spec.PaintImage(img, msg.desc, img.Rect.Dx()/max(msg.desc.Width, 1))
		})
		if err != nil {
			log.Printf("worker: render %s: %v", msg.id, err)
			return
		}
		w.mu.Lock()
		w.renders++
		w.mu.Unlock()
	case msgSync:
		msg.reply <- nil
	}
}

// send queues msg unless the worker has stopped.
func (w *Worker) send(msg message) bool {
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed {
		return false
	}
	w.msgs <- msg
	return true
}

// RegisterCanvas takes ownership of c under id.
func (w *Worker) RegisterCanvas(id string, c *surface.Offscreen) <-chan error {
	reply := make(chan error, 1)
	if !w.send(message{kind: msgRegister, id: id, canvas: c, reply: reply}) {
		reply <- ErrClosed
	}
	return reply
}

// UnregisterCanvas drops id. Unknown ids are ignored.
func (w *Worker) UnregisterCanvas(id string) {
	w.send(message{kind: msgUnregister, id: id})
}

// Render paints chunk d of sp into the canvas registered under id.
func (w *Worker) Render(id string, d chunk.Descriptor, sp *render.Spectrogram) {
	w.send(message{kind: msgRender, id: id, desc: d, spec: sp})
}

// Sync blocks until every message sent before it has been handled.
func (w *Worker) Sync() error {
	reply := make(chan error, 1)
	if !w.send(message{kind: msgSync, reply: reply}) {
		return ErrClosed
	}
	return <-reply
}

// Registered returns the registered ids in sorted order.
func (w *Worker) Registered() []string {
	w.mu.Lock()
	ids := make([]string, 0, len(w.canvases))
	for id := range w.canvases {
		ids = append(ids, id)
	}
	w.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Renders returns the number of completed renders.
func (w *Worker) Renders() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.renders
}

// Close stops the worker and waits for it to exit. Registrations still
// queued resolve with ErrClosed; other queued messages are dropped.
func (w *Worker) Close() {
	w.sendMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.quit)
	}
	w.sendMu.Unlock()
	<-w.done
}

var _ render.CanvasRegistry = (*Worker)(nil)
