package worker

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/render"
	"github.com/schollz/chunktrack/internal/surface"
	"github.com/schollz/chunktrack/internal/track"
	"github.com/schollz/chunktrack/internal/viewport"
)

func solidSpectrogram(frames int) *render.Spectrogram {
	var cm render.ColorMap
	for i := range cm {
		cm[i] = color.RGBA{G: uint8(i), A: 255}
	}
	fl := &render.FrequencyLookup{SampleRate: 8000, FFTSize: 8, HopSize: 1, Colors: cm}
	for range frames {
		fl.Frames = append(fl.Frames, []float32{0, 0, 0, 0})
	}
	return render.NewSpectrogram(fl, render.SpectrogramOptions{SamplesPerPixel: 1})
}

func transferred(t *testing.T, index, width int) *surface.Offscreen {
	t.Helper()
	l := surface.NewLayer(true)
	s := surface.New(index, index*width, width, 4, 1)
	l.Attach(s)
	off, err := s.TransferControl()
	require.NoError(t, err)
	return off
}

func TestRegisterRenderUnregister(t *testing.T) {
	w := New(8)
	defer w.Close()

	off := transferred(t, 0, 10)
	require.NoError(t, <-w.RegisterCanvas("a", off))
	assert.Equal(t, []string{"a"}, w.Registered())

	w.Render("a", chunk.Descriptor{Width: 10}, solidSpectrogram(10))
	require.Eventually(t, func() bool { return w.Renders() == 1 }, time.Second, time.Millisecond)

	var got color.RGBA
	require.NoError(t, off.Draw(func(img *image.RGBA) { got = img.RGBAAt(3, 2) }))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, got)

	w.UnregisterCanvas("a")
	w.UnregisterCanvas("a")
	require.Eventually(t, func() bool { return len(w.Registered()) == 0 }, time.Second, time.Millisecond)
}

func TestDuplicateRegistration(t *testing.T) {
	w := New(0)
	defer w.Close()

	require.NoError(t, <-w.RegisterCanvas("a", transferred(t, 0, 4)))
	assert.ErrorIs(t, <-w.RegisterCanvas("a", transferred(t, 0, 4)), ErrDuplicateID)

	// messages are handled in order, so a re-registration queued behind an
	// unregister succeeds
	w.UnregisterCanvas("a")
	assert.NoError(t, <-w.RegisterCanvas("a", transferred(t, 0, 4)))
}

func TestRenderUnknownCanvas(t *testing.T) {
	w := New(1)
	defer w.Close()

	w.Render("missing", chunk.Descriptor{Width: 4}, solidSpectrogram(4))
	require.NoError(t, <-w.RegisterCanvas("sync", transferred(t, 0, 4)))
	assert.Equal(t, 0, w.Renders())
}

func TestClose(t *testing.T) {
	w := New(4)
	w.Close()
	w.Close()

	assert.ErrorIs(t, <-w.RegisterCanvas("a", transferred(t, 0, 4)), ErrClosed)
	w.UnregisterCanvas("a")
	w.Render("a", chunk.Descriptor{Width: 4}, solidSpectrogram(4))
}

func TestDelegatedTrackEndToEnd(t *testing.T) {
	w := New(16)
	defer w.Close()

	store := viewport.NewStore()
	store.Update(0, 800)

	const total = 5000
	dl := render.NewDelegated("song", 0, w, solidSpectrogram(total))
	m := track.NewManager(track.Options{
		ID:         "song",
		TotalWidth: total,
		ChunkWidth: 1000,
		Height:     4,
		Layer:      surface.NewLayer(true),
	}, dl)
	m.Attach(store)
	dl.Wait()

	assert.Equal(t, []int{0, 1}, m.Mounted())
	require.Eventually(t, func() bool {
		return len(w.Registered()) == 2 && w.Renders() == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"song-ch0-chunk0", "song-ch0-chunk1"}, w.Registered())

	dst := image.NewRGBA(image.Rect(0, 0, 1500, 4))
	m.Layer().Composite(dst, 0, 0)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, dst.RGBAAt(1200, 1))

	// scroll far right: chunks 0 and 1 go away and 3 and 4 arrive
	require.True(t, store.Update(3500, 800))
	dl.Wait()
	assert.Equal(t, []int{2, 3, 4}, m.Mounted())
	require.Eventually(t, func() bool {
		ids := w.Registered()
		return len(ids) == 3 && ids[0] == "song-ch0-chunk2"
	}, time.Second, time.Millisecond)

	m.Close()
	dl.Wait()
	require.Eventually(t, func() bool { return len(w.Registered()) == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, dl.Pending())
}

func TestSyncFlushesQueue(t *testing.T) {
	w := New(8)

	require.NoError(t, <-w.RegisterCanvas("a", transferred(t, 0, 4)))
	for range 5 {
		w.Render("a", chunk.Descriptor{Width: 4}, solidSpectrogram(4))
	}
	require.NoError(t, w.Sync())
	assert.Equal(t, 5, w.Renders(), "every render sent before Sync has run")

	w.Close()
	assert.ErrorIs(t, w.Sync(), ErrClosed)
}
