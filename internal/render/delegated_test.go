package render

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/surface"
)

// fakeRegistry records the messages a delegated painter sends. With hold
// set, registrations stay pending until resolve is called.
type fakeRegistry struct {
	mu         sync.Mutex
	hold       bool
	fail       error
	pending    []func()
	registered map[string]bool
	duplicates int
	events     []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registered: make(map[string]bool)}
}

func (f *fakeRegistry) RegisterCanvas(id string, c *surface.Offscreen) <-chan error {
	ch := make(chan error, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "register "+id)
	if f.registered[id] {
		f.duplicates++
	}
	complete := func() {
		if f.fail == nil {
			f.registered[id] = true
		}
		ch <- f.fail
	}
	if f.hold {
		f.pending = append(f.pending, complete)
	} else {
		complete()
	}
	return ch
}

func (f *fakeRegistry) UnregisterCanvas(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "unregister "+id)
	delete(f.registered, id)
}

func (f *fakeRegistry) Render(id string, d chunk.Descriptor, sp *Spectrogram) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "render "+id)
}

func (f *fakeRegistry) resolve() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, complete := range f.pending {
		complete()
	}
	f.pending = nil
}

func (f *fakeRegistry) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeRegistry) isRegistered(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered[id]
}

func mountSurface(l *surface.Layer, index int) (*surface.Surface, chunk.Descriptor) {
	d := chunk.Describe(index, 5000, 1000)
	s := surface.New(index, d.GlobalOffset, d.Width, 16, 1)
	l.Attach(s)
	return s, d
}

func testSpectrogram() *Spectrogram {
	return NewSpectrogram(rampLookup(8, 4, 100), SpectrogramOptions{SamplesPerPixel: 100})
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "t1-ch0-chunk3", ChunkID("t1", 0, 3))
}

func TestDelegatedTransfersOnce(t *testing.T) {
	reg := newFakeRegistry()
	dl := NewDelegated("t1", 0, reg, testSpectrogram())
	s, d := mountSurface(surface.NewLayer(true), 2)

	dl.Paint(s, d)
	dl.Wait()
	assert.True(t, s.Transferred())
	assert.Nil(t, s.Image())
	assert.True(t, reg.isRegistered("t1-ch0-chunk2"))

	// a repaint after a parameter change reuses the registration
	dl.SetSpectrogram(NewSpectrogram(rampLookup(8, 4, 100), SpectrogramOptions{SamplesPerPixel: 50}))
	dl.Paint(s, d)
	dl.Wait()

	assert.Equal(t, 1, reg.count("register"))
	assert.Equal(t, 2, reg.count("render"))
	assert.Equal(t, 1, dl.Pending())
}

func TestDelegatedSkipsSurfaceTransferredElsewhere(t *testing.T) {
	first := newFakeRegistry()
	s, d := mountSurface(surface.NewLayer(true), 1)
	NewDelegated("t1", 0, first, testSpectrogram()).Paint(s, d)
	require.True(t, s.Transferred())

	second := newFakeRegistry()
	dl := NewDelegated("t1", 0, second, testSpectrogram())
	dl.Paint(s, d)
	dl.Wait()

	assert.Empty(t, second.events)
	assert.Equal(t, 0, dl.Pending())
}

func TestDelegatedUnsupportedHostSkipsChunk(t *testing.T) {
	reg := newFakeRegistry()
	dl := NewDelegated("t1", 0, reg, testSpectrogram())
	s, d := mountSurface(surface.NewLayer(false), 0)

	dl.Paint(s, d)
	dl.Paint(s, d)
	dl.Wait()

	assert.False(t, s.Transferred())
	assert.NotNil(t, s.Image())
	assert.Empty(t, reg.events)
	assert.Equal(t, 0, dl.Pending())

	dl.Release(s, d)
	assert.Empty(t, reg.events)
}

func TestDelegatedUnmountBeforeRegistrationResolves(t *testing.T) {
	reg := newFakeRegistry()
	reg.hold = true
	dl := NewDelegated("t1", 1, reg, testSpectrogram())
	s, d := mountSurface(surface.NewLayer(true), 4)

	dl.Paint(s, d)
	require.Eventually(t, func() bool { return reg.count("register") == 1 }, time.Second, time.Millisecond)

	dl.Release(s, d)
	s.Release()
	assert.Equal(t, 0, reg.count("unregister"), "nothing to unregister until the registration resolves")

	reg.resolve()
	dl.Wait()

	assert.Equal(t, 1, reg.count("unregister"))
	assert.Equal(t, 0, reg.count("render"))
	assert.False(t, reg.isRegistered("t1-ch1-chunk4"))
	assert.Equal(t, 0, dl.Pending())
}

func TestDelegatedRegistrationFailure(t *testing.T) {
	reg := newFakeRegistry()
	reg.fail = errors.New("context lost")
	dl := NewDelegated("t1", 0, reg, testSpectrogram())
	s, d := mountSurface(surface.NewLayer(true), 0)

	dl.Paint(s, d)
	dl.Wait()
	assert.Equal(t, 0, dl.Pending())
	assert.Equal(t, 0, reg.count("render"))

	// the failed chunk is not retried and has nothing to unregister
	dl.Paint(s, d)
	dl.Release(s, d)
	dl.Wait()
	assert.Equal(t, 1, reg.count("register"))
	assert.Equal(t, 0, reg.count("unregister"))
}

func TestDelegatedRapidRemount(t *testing.T) {
	reg := newFakeRegistry()
	reg.hold = true
	dl := NewDelegated("t1", 0, reg, testSpectrogram())
	layer := surface.NewLayer(true)

	// mount and unmount the same chunk faster than registrations resolve
	for range 3 {
		s, d := mountSurface(layer, 1)
		dl.Paint(s, d)
		layer.Detach(s)
		dl.Release(s, d)
		s.Release()
	}
	s, d := mountSurface(layer, 1)
	dl.Paint(s, d)

	require.Eventually(t, func() bool {
		reg.resolve()
		return reg.count("register") == 4 && reg.isRegistered("t1-ch0-chunk1")
	}, time.Second, time.Millisecond)
	dl.Wait()

	assert.Equal(t, 0, reg.duplicates)
	assert.Equal(t, 3, reg.count("unregister"))
	assert.Equal(t, 1, dl.Pending())

	// registrations and unregistrations for one id strictly alternate
	reg.mu.Lock()
	registered := false
	for _, e := range reg.events {
		switch {
		case strings.HasPrefix(e, "register"):
			assert.False(t, registered, "register while still registered")
			registered = true
		case strings.HasPrefix(e, "unregister"):
			assert.True(t, registered, "unregister without registration")
			registered = false
		}
	}
	reg.mu.Unlock()

	dl.Release(s, d)
	assert.False(t, reg.isRegistered("t1-ch0-chunk1"))
	assert.Equal(t, 0, dl.Pending())
}
