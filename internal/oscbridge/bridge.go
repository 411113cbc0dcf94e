// Package oscbridge exposes a scroll container driven over OSC, so an
// external UI can scroll and resize the viewport and hear back which part
// of the timeline is mounted.
package oscbridge

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"github.com/schollz/chunktrack/internal/track"
	"github.com/schollz/chunktrack/internal/viewport"
)

// Addresses handled and sent by the bridge.
const (
	AddrScroll  = "/viewport/scroll"
	AddrResize  = "/viewport/resize"
	AddrSet     = "/viewport/set"
	AddrVisible = "/viewport/visible"
	AddrChunks  = "/track/chunks"
)

// Bridge is a viewport.Container whose scroll offset and width are set by
// OSC messages. Events are forwarded to a Tracker, which coalesces them.
type Bridge struct {
	mu      sync.Mutex
	scroll  float64
	width   float64
	tracker *viewport.Tracker
}

// New creates a bridge with an initial container width.
func New(width float64) *Bridge {
	return &Bridge{width: width}
}

// ScrollOffset implements viewport.Container.
func (b *Bridge) ScrollOffset() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scroll
}

// ContainerWidth implements viewport.Container.
func (b *Bridge) ContainerWidth() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width
}

// Bind sets the tracker that receives scroll and resize events.
func (b *Bridge) Bind(t *viewport.Tracker) {
	b.mu.Lock()
	b.tracker = t
	b.mu.Unlock()
}

// Register adds the bridge's handlers to d.
func (b *Bridge) Register(d *osc.StandardDispatcher) error {
	handlers := map[string]func(*osc.Message){
		AddrScroll: b.handleScroll,
		AddrResize: b.handleResize,
		AddrSet:    b.handleSet,
	}
	for addr, h := range handlers {
		if err := d.AddMsgHandler(addr, h); err != nil {
			return fmt.Errorf("register %s: %w", addr, err)
		}
	}
	return nil
}

func (b *Bridge) handleScroll(msg *osc.Message) {
	v, ok := argFloat(msg, 0)
	if !ok {
		log.Printf("osc %s: expected a number, got %v", msg.Address, msg.Arguments)
		return
	}
	b.mu.Lock()
	b.scroll = max(v, 0)
	t := b.tracker
	b.mu.Unlock()
	if t != nil {
		t.OnScroll()
	}
}

func (b *Bridge) handleResize(msg *osc.Message) {
	v, ok := argFloat(msg, 0)
	if !ok || v < 0 {
		log.Printf("osc %s: expected a width, got %v", msg.Address, msg.Arguments)
		return
	}
	b.mu.Lock()
	b.width = v
	t := b.tracker
	b.mu.Unlock()
	if t != nil {
		t.OnResize()
	}
}

// handleSet takes scroll and width in one message.
func (b *Bridge) handleSet(msg *osc.Message) {
	scroll, ok1 := argFloat(msg, 0)
	width, ok2 := argFloat(msg, 1)
	if !ok1 || !ok2 || width < 0 {
		log.Printf("osc %s: expected scroll and width, got %v", msg.Address, msg.Arguments)
		return
	}
	b.mu.Lock()
	b.scroll = max(scroll, 0)
	b.width = width
	t := b.tracker
	b.mu.Unlock()
	if t != nil {
		t.OnResize()
	}
}

func argFloat(msg *osc.Message, i int) (float64, bool) {
	if i >= len(msg.Arguments) {
		return 0, false
	}
	switch v := msg.Arguments[i].(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Serve listens for OSC on addr until ctx is done.
func Serve(ctx context.Context, addr string, d *osc.StandardDispatcher) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	server := &osc.Server{Addr: addr, Dispatcher: d}
	log.Printf("Starting OSC server on %s", conn.LocalAddr())
	err = server.Serve(conn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Sender delivers OSC packets; *osc.Client satisfies it.
type Sender interface {
	Send(packet osc.Packet) error
}

// Reporter tells a remote UI which part of the timeline is mounted.
type Reporter struct {
	sender Sender
	tracks []*track.Manager
}

// NewReporter creates a reporter for the given tracks.
func NewReporter(s Sender, tracks ...*track.Manager) *Reporter {
	return &Reporter{sender: s, tracks: tracks}
}

// Watch reports after every accepted viewport change. Subscribe it after
// the tracks are attached so their mounted sets are already current.
func (r *Reporter) Watch(store *viewport.Store) func() {
	return viewport.Select(store, func(st *viewport.State) viewport.State {
		if st == nil {
			return viewport.State{}
		}
		return *st
	}, r.Report)
}

// Report sends the visible window followed by each track's mounted chunks.
func (r *Reporter) Report(st viewport.State) {
	msg := osc.NewMessage(AddrVisible)
	msg.Append(float32(st.VisibleStart))
	msg.Append(float32(st.VisibleEnd))
	if err := r.sender.Send(msg); err != nil {
		log.Printf("osc %s: %v", AddrVisible, err)
		return
	}
	for _, t := range r.tracks {
		msg := osc.NewMessage(AddrChunks)
		msg.Append(t.ID())
		for _, idx := range t.Mounted() {
			msg.Append(int32(idx))
		}
		if err := r.sender.Send(msg); err != nil {
			log.Printf("osc %s: %v", AddrChunks, err)
		}
	}
}
