package render

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/surface"
)

// FrequencyLookup is the immutable output of one analysis pass: dB
// magnitudes per frame and bin plus the colour table used to show them.
type FrequencyLookup struct {
	Frames     [][]float32
	SampleRate int
	FFTSize    int
	HopSize    int
	Colors     ColorMap
}

// Bins returns the number of frequency bins per frame.
func (fl *FrequencyLookup) Bins() int {
	if len(fl.Frames) == 0 {
		return 0
	}
	return len(fl.Frames[0])
}

// SpectrogramOptions are the visual parameters of a spectrogram track.
type SpectrogramOptions struct {
	SamplesPerPixel float64
	RangeDB         float64
	GainDB          float64
	Scale           FrequencyScale
}

// Spectrogram paints a frequency heatmap. It is immutable once created and
// may be shared with a background drawing context.
type Spectrogram struct {
	lookup    *FrequencyLookup
	opts      SpectrogramOptions
	positions []float64
}

// NewSpectrogram prepares a painter. RangeDB defaults to 80.
func NewSpectrogram(lookup *FrequencyLookup, opts SpectrogramOptions) *Spectrogram {
	if opts.RangeDB <= 0 {
		opts.RangeDB = 80
	}
	sp := &Spectrogram{lookup: lookup, opts: opts}
	if opts.Scale != Linear && lookup != nil && lookup.SampleRate > 0 {
		sp.positions = opts.Scale.BinPositions(lookup.Bins(), float64(lookup.SampleRate)/2)
	}
	return sp
}

// Options returns the visual parameters.
func (sp *Spectrogram) Options() SpectrogramOptions { return sp.opts }

// Signature covers every input that changes the pixels.
func (sp *Spectrogram) Signature() string {
	return fmt.Sprintf("spectrogram|%p|%g|%g|%g|%s",
		sp.lookup, sp.opts.SamplesPerPixel, sp.opts.RangeDB, sp.opts.GainDB, sp.opts.Scale)
}

// Paint draws chunk d into a locally owned surface.
func (sp *Spectrogram) Paint(s *surface.Surface, d chunk.Descriptor) {
	img := s.Image()
	if img == nil {
		return
	}
	sp.PaintImage(img, d, s.Scale)
}

// PaintImage fills img, a raster for chunk d at the given pixel scale.
// Pixels whose frame lies outside the analysis are left transparent.
func (sp *Spectrogram) PaintImage(img *image.RGBA, d chunk.Descriptor, scale int) {
	clear(img.Pix)
	fl := sp.lookup
	if fl == nil || fl.HopSize <= 0 || fl.Bins() == 0 {
		return
	}
	scale = max(scale, 1)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rows := sp.rowBins(h)

	for x := range w {
		global := float64(d.GlobalOffset) + float64(x)/float64(scale)
		frame := int(math.Floor(global * sp.opts.SamplesPerPixel / float64(fl.HopSize)))
		if frame < 0 || frame >= len(fl.Frames) {
			continue
		}
		mags := fl.Frames[frame]
		for y, bin := range rows {
			if bin < 0 || bin >= len(mags) {
				continue
			}
			v := (float64(mags[bin]) + sp.opts.RangeDB + sp.opts.GainDB) / sp.opts.RangeDB
			c := fl.Colors[quantize(v)]
			off := y*img.Stride + x*4
			img.Pix[off+0] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = c.A
		}
	}
}

// rowBins maps each pixel row to a frequency bin, low frequencies at the
// bottom.
func (sp *Spectrogram) rowBins(h int) []int {
	bins := sp.lookup.Bins()
	rows := make([]int, h)
	for y := range rows {
		normY := 1 - float64(y)/float64(h)
		if sp.positions == nil {
			rows[y] = min(int(normY*float64(bins)), bins-1)
			continue
		}
		// the warp has no closed-form inverse, so search the bin table
		i := sort.SearchFloat64s(sp.positions, normY)
		rows[y] = min(i, bins-1)
	}
	return rows
}
