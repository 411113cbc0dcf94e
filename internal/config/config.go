// Package config holds the visual theme and track geometry shared by the
// commands. Values come from defaults, an optional JSON theme file and
// CHUNKTRACK_* environment variables, in that order.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/schollz/chunktrack/internal/chunk"
	"github.com/schollz/chunktrack/internal/render"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Theme describes how tracks look.
type Theme struct {
	WaveColor  string `json:"waveColor"`
	MaskColor  string `json:"maskColor"`
	TickColor  string `json:"tickColor"`
	LabelColor string `json:"labelColor"`
	Background string `json:"background"`

	BarWidth int    `json:"barWidth"`
	BarGap   int    `json:"barGap"`
	DrawMode string `json:"drawMode"`

	ColorMap       string   `json:"colorMap"`
	ColorStops     []string `json:"colorStops,omitempty"`
	FrequencyScale string   `json:"frequencyScale"`
	RangeDB        float64  `json:"rangeDb"`
	GainDB         float64  `json:"gainDb"`
	FFTSize        int      `json:"fftSize"`
	HopSize        int      `json:"hopSize"`

	TrackHeight     int     `json:"trackHeight"`
	RulerHeight     int     `json:"rulerHeight"`
	PixelRatio      int     `json:"pixelRatio"`
	ChunkWidth      int     `json:"chunkWidth"`
	SamplesPerPixel float64 `json:"samplesPerPixel"`
}

// Default returns the built-in theme.
func Default() Theme {
	return Theme{
		WaveColor:       "#f2a65a",
		MaskColor:       "#1d1f21",
		TickColor:       "#c5c8c6",
		LabelColor:      "#e0e0e0",
		Background:      "#1d1f21",
		BarWidth:        1,
		BarGap:          0,
		DrawMode:        "normal",
		ColorMap:        "magma",
		FrequencyScale:  "linear",
		RangeDB:         80,
		GainDB:          0,
		FFTSize:         1024,
		HopSize:         256,
		TrackHeight:     64,
		RulerHeight:     20,
		PixelRatio:      1,
		ChunkWidth:      chunk.MaxWidth,
		SamplesPerPixel: 256,
	}
}

// Load returns the default theme overlaid with the JSON file at path, if
// path is not empty, and then with environment overrides.
func Load(path string) (Theme, error) {
	t := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return t, fmt.Errorf("read theme: %w", err)
		}
		if err := json.Unmarshal(data, &t); err != nil {
			return t, fmt.Errorf("parse theme %s: %w", path, err)
		}
	}
	t = t.withEnv()
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t Theme) withEnv() Theme {
	t.WaveColor = envStr("CHUNKTRACK_WAVE_COLOR", t.WaveColor)
	t.MaskColor = envStr("CHUNKTRACK_MASK_COLOR", t.MaskColor)
	t.DrawMode = envStr("CHUNKTRACK_DRAW_MODE", t.DrawMode)
	t.ColorMap = envStr("CHUNKTRACK_COLOR_MAP", t.ColorMap)
	t.FrequencyScale = envStr("CHUNKTRACK_FREQUENCY_SCALE", t.FrequencyScale)
	t.BarWidth = envInt("CHUNKTRACK_BAR_WIDTH", t.BarWidth)
	t.BarGap = envInt("CHUNKTRACK_BAR_GAP", t.BarGap)
	t.TrackHeight = envInt("CHUNKTRACK_TRACK_HEIGHT", t.TrackHeight)
	t.PixelRatio = envInt("CHUNKTRACK_PIXEL_RATIO", t.PixelRatio)
	t.ChunkWidth = envInt("CHUNKTRACK_CHUNK_WIDTH", t.ChunkWidth)
	t.SamplesPerPixel = envFloat("CHUNKTRACK_SAMPLES_PER_PIXEL", t.SamplesPerPixel)
	t.RangeDB = envFloat("CHUNKTRACK_RANGE_DB", t.RangeDB)
	t.GainDB = envFloat("CHUNKTRACK_GAIN_DB", t.GainDB)
	return t
}

// Validate checks value ranges and that every name and colour parses.
func (t Theme) Validate() error {
	for _, c := range []string{t.WaveColor, t.MaskColor, t.TickColor, t.LabelColor, t.Background} {
		if _, err := ParseColor(c); err != nil {
			return err
		}
	}
	if _, err := render.ParseDrawMode(t.DrawMode); err != nil {
		return err
	}
	if _, err := render.ParseFrequencyScale(t.FrequencyScale); err != nil {
		return err
	}
	if _, err := t.Colors(); err != nil {
		return err
	}
	switch {
	case t.BarWidth < 1:
		return fmt.Errorf("barWidth must be at least 1, got %d", t.BarWidth)
	case t.BarGap < 0:
		return fmt.Errorf("barGap must not be negative, got %d", t.BarGap)
	case t.TrackHeight < 1 || t.RulerHeight < 1:
		return fmt.Errorf("track and ruler heights must be positive")
	case t.PixelRatio < 1:
		return fmt.Errorf("pixelRatio must be at least 1, got %d", t.PixelRatio)
	case t.ChunkWidth < 1 || t.ChunkWidth > chunk.MaxWidth:
		return fmt.Errorf("chunkWidth must be in 1..%d, got %d", chunk.MaxWidth, t.ChunkWidth)
	case t.SamplesPerPixel <= 0:
		return fmt.Errorf("samplesPerPixel must be positive")
	case t.RangeDB <= 0:
		return fmt.Errorf("rangeDb must be positive")
	case t.FFTSize < 2 || t.FFTSize%2 != 0 || t.HopSize < 1:
		return fmt.Errorf("invalid fft size %d / hop size %d", t.FFTSize, t.HopSize)
	}
	return nil
}

// Save writes the theme as indented JSON.
func (t Theme) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ParseColor parses "#rrggbb" into an opaque colour.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colour %q: %w", hex, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func mustColor(hex string) color.RGBA {
	c, _ := ParseColor(hex)
	return c
}

// Colors returns the spectrogram colour table: custom stops when given,
// the named map otherwise.
func (t Theme) Colors() (render.ColorMap, error) {
	if len(t.ColorStops) > 0 {
		return render.ColorMapFromHex(t.ColorStops...)
	}
	return render.NamedColorMap(t.ColorMap)
}

// Bars builds a bar painter for peaks. The theme must be valid.
func (t Theme) Bars(peaks render.Peaks) *render.Bars {
	mode, _ := render.ParseDrawMode(t.DrawMode)
	return &render.Bars{
		Peaks:     peaks,
		BarWidth:  t.BarWidth,
		BarGap:    t.BarGap,
		Mode:      mode,
		WaveColor: mustColor(t.WaveColor),
		MaskColor: mustColor(t.MaskColor),
	}
}

// SpectrogramOptions returns the visual spectrogram parameters.
func (t Theme) SpectrogramOptions() render.SpectrogramOptions {
	scale, _ := render.ParseFrequencyScale(t.FrequencyScale)
	return render.SpectrogramOptions{
		SamplesPerPixel: t.SamplesPerPixel,
		RangeDB:         t.RangeDB,
		GainDB:          t.GainDB,
		Scale:           scale,
	}
}

// PixelsPerSecond is the horizontal scale at the theme's zoom level.
func (t Theme) PixelsPerSecond(sampleRate int) float64 {
	return float64(sampleRate) / t.SamplesPerPixel
}

// Ruler builds a ruler painter for a recording of duration seconds.
func (t Theme) Ruler(duration, pixelsPerSecond float64) *render.Ruler {
	return &render.Ruler{
		Scale:     render.NewTimeScale(duration, pixelsPerSecond, t.RulerHeight),
		TickColor: mustColor(t.TickColor),
	}
}

// NewTrackID returns a fresh id for tracks that were not given one.
func NewTrackID() string {
	return uuid.NewString()
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
