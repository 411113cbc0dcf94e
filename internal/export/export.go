// Package export renders the chunks of a recording that a viewport would
// mount and writes them as PNG files, together with a composite image and
// a gzipped manifest.
package export

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"github.com/schollz/chunktrack/internal/analysis"
	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/config"
	"github.com/schollz/chunktrack/internal/render"
	"github.com/schollz/chunktrack/internal/surface"
	"github.com/schollz/chunktrack/internal/track"
	"github.com/schollz/chunktrack/internal/viewport"
	"github.com/schollz/chunktrack/internal/worker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ManifestFile is the name of the manifest inside the output directory.
const ManifestFile = "manifest.json.gz"

// CompositeFile is the name of the stacked image of all lanes.
const CompositeFile = "composite.png"

// labelBand is the height of the label strip under the ruler.
const labelBand = 14

// Options controls an export.
type Options struct {
	Dir   string
	Theme config.Theme
	// Viewport selects the chunks to export. Nil exports every chunk.
	Viewport *viewport.State
	// Spectrogram adds a spectrogram lane painted by a background worker.
	Spectrogram bool
	// Workers bounds concurrent analysis and file writes; zero uses
	// GOMAXPROCS.
	Workers int
}

// Chunk describes one written chunk image.
type Chunk struct {
	Lane         string `json:"lane"`
	Index        int    `json:"index"`
	GlobalOffset int    `json:"globalOffset"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	File         string `json:"file"`
}

// Manifest records what was exported.
type Manifest struct {
	Source          string          `json:"source"`
	TrackID         string          `json:"trackId"`
	Duration        float64         `json:"duration"`
	SampleRate      int             `json:"sampleRate"`
	SamplesPerPixel float64         `json:"samplesPerPixel"`
	TotalWidth      int             `json:"totalWidth"`
	ChunkWidth      int             `json:"chunkWidth"`
	PixelRatio      int             `json:"pixelRatio"`
	Viewport        *viewport.State `json:"viewport,omitempty"`
	Indices         []int           `json:"indices"`
	StartTime       float64         `json:"startTime"`
	EndTime         float64         `json:"endTime"`
	Chunks          []Chunk         `json:"chunks"`
	Composite       string          `json:"composite,omitempty"`
}

type lane struct {
	name string
	mgr  *track.Manager
}

// Run renders a and writes the result to opts.Dir.
func Run(ctx context.Context, a *analysis.Audio, source string, opts Options) (*Manifest, error) {
	th := opts.Theme
	if err := th.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", opts.Dir, err)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	spp := th.SamplesPerPixel
	pps := th.PixelsPerSecond(a.SampleRate)
	total := int(math.Ceil(float64(a.Frames()) / spp))
	trackID := config.NewTrackID()

	var store *viewport.Store
	if opts.Viewport != nil {
		store = viewport.NewStore()
		store.Update(opts.Viewport.ScrollOffset, opts.Viewport.ContainerWidth)
	}

	newLane := func(name string, height int, layer *surface.Layer, p track.Painter) lane {
		return lane{name: name, mgr: track.NewManager(track.Options{
			ID:         trackID + "-" + name,
			TotalWidth: total,
			ChunkWidth: th.ChunkWidth,
			Height:     height,
			Scale:      th.PixelRatio,
			Layer:      layer,
		}, p)}
	}

	ruler := th.Ruler(a.Duration(), pps)
	lanes := []lane{newLane("wave", th.TrackHeight, nil, th.Bars(analysis.Peaks(a, 0, spp)))}

	var (
		w  *worker.Worker
		dl *render.Delegated
	)
	if opts.Spectrogram {
		colors, err := th.Colors()
		if err != nil {
			return nil, err
		}
		lookup, err := analysis.STFT(ctx, a.Channel(0), a.SampleRate, analysis.STFTOptions{
			FFTSize: th.FFTSize,
			HopSize: th.HopSize,
			Colors:  colors,
			Workers: workers,
		})
		if err != nil {
			return nil, fmt.Errorf("analyse %s: %w", source, err)
		}
		w = worker.New(16)
		defer w.Close()
		dl = render.NewDelegated(trackID, 0, w, render.NewSpectrogram(lookup, th.SpectrogramOptions()))
		lanes = append(lanes, newLane("spectrogram", th.TrackHeight, surface.NewLayer(true), dl))
	}
	lanes = append(lanes, newLane("ruler", th.RulerHeight, nil, ruler))

	for _, l := range lanes {
		l.mgr.Attach(store)
		defer l.mgr.Close()
	}
	if dl != nil {
		dl.Wait()
		if err := w.Sync(); err != nil {
			return nil, err
		}
	}

	indices := lanes[0].mgr.Mounted()
	start, end, _ := chunk.Span(indices, total, th.ChunkWidth)
	m := &Manifest{
		Source:          source,
		TrackID:         trackID,
		Duration:        a.Duration(),
		SampleRate:      a.SampleRate,
		SamplesPerPixel: spp,
		TotalWidth:      total,
		ChunkWidth:      th.ChunkWidth,
		PixelRatio:      th.PixelRatio,
		Viewport:        store.Snapshot(),
		Indices:         indices,
		StartTime:       float64(start) / pps,
		EndTime:         float64(end) / pps,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, l := range lanes {
		l.mgr.Each(func(s *surface.Surface) {
			c := Chunk{
				Lane:         l.name,
				Index:        s.Index,
				GlobalOffset: s.Left,
				Width:        s.Width,
				Height:       s.Height,
				File:         fmt.Sprintf("%s-%04d.png", l.name, s.Index),
			}
			m.Chunks = append(m.Chunks, c)
			img := snapshotOrBlank(l.name, s)
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return writePNG(filepath.Join(opts.Dir, c.File), img)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(indices) > 0 {
		img := composite(lanes, ruler.Scale, th, start, end)
		if err := writePNG(filepath.Join(opts.Dir, CompositeFile), img); err != nil {
			return nil, err
		}
		m.Composite = CompositeFile
	}

	if err := writeManifest(filepath.Join(opts.Dir, ManifestFile), m); err != nil {
		return nil, err
	}
	log.Printf("export: %d chunk images for %v of %s to %s", len(m.Chunks), indices, source, opts.Dir)
	return m, nil
}

// composite stacks every lane over [start, end) and adds the ruler labels.
func composite(lanes []lane, ts *render.TimeScale, th config.Theme, start, end int) *image.RGBA {
	scale := th.PixelRatio
	height := labelBand
	for _, l := range lanes {
		height += l.mgr.Options().Height
	}
	dst := image.NewRGBA(image.Rect(0, 0, (end-start)*scale, height*scale))
	bg, _ := config.ParseColor(th.Background)
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	top := 0
	for _, l := range lanes {
		l.mgr.Layer().Composite(dst, start, top)
		top += l.mgr.Options().Height
	}

	labelColor, _ := config.ParseColor(th.LabelColor)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
	}
	ruler := lanes[len(lanes)-1].mgr
	for _, l := range ts.VisibleLabels(ruler.Mounted(), ruler.Options().ChunkWidth) {
		x := (l.Position-start)*scale + 2
		d.Dot = fixed.P(x, top*scale+11)
		d.DrawString(l.Text)
	}
	return dst
}

// snapshotOrBlank returns the chunk's pixels, or a transparent image of
// the chunk's size when the surface has none left.
func snapshotOrBlank(lane string, s *surface.Surface) *image.RGBA {
	if img := s.Snapshot(); img != nil {
		return img
	}
	log.Printf("export %s: chunk %d has no pixels, writing a blank %dx%d image",
		lane, s.Index, s.Width*s.Scale, s.Height*s.Scale)
	return image.NewRGBA(image.Rect(0, 0, s.Width*s.Scale, s.Height*s.Scale))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func writeManifest(path string, m *Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return f.Close()
}

// ReadManifest loads a manifest written by Run.
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	defer gz.Close()

	var m Manifest
	if err := json.NewDecoder(gz).Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}
