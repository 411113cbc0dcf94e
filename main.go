package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"

	"github.com/schollz/chunktrack/internal/analysis"
	"github.com/schollz/chunktrack/internal/config"
	"github.com/schollz/chunktrack/internal/export"
	"github.com/schollz/chunktrack/internal/oscbridge"
	"github.com/schollz/chunktrack/internal/render"
	"github.com/schollz/chunktrack/internal/surface"
	"github.com/schollz/chunktrack/internal/track"
	"github.com/schollz/chunktrack/internal/viewport"
	"github.com/schollz/chunktrack/internal/worker"
)

var (
	Version = "dev"

	// Command-line configuration
	flags struct {
		theme       string
		debug       string
		spectrogram bool
		workers     int

		// render
		out    string
		scroll float64
		width  float64

		// listen
		port  int
		reply string

		// browse
		dump string
	}
)

var rootCmd = &cobra.Command{
	Use:   "chunktrack",
	Short: "Chunked waveform, spectrogram and ruler tracks for long audio",
	Long: `chunktrack renders time-aligned tracks for long recordings in fixed-width
chunks and only keeps the chunks near the visible window alive.

Commands:
• render: write the chunks a viewport would mount as PNG files
• browse: scroll and zoom through a recording in the terminal
• listen: drive a scroll container over OSC and report mounted chunks`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var renderCmd = &cobra.Command{
	Use:   "render FILE.wav",
	Short: "Export mounted chunks, a composite and a manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var browseCmd = &cobra.Command{
	Use:   "browse FILE.wav",
	Short: "Browse a recording in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrowse,
}

var listenCmd = &cobra.Command{
	Use:   "listen FILE.wav",
	Short: "Follow an OSC scroll container",
	Args:  cobra.ExactArgs(1),
	RunE:  runListen,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.theme, "theme", "t", "",
		"JSON theme file (empty uses the defaults)")
	rootCmd.PersistentFlags().StringVarP(&flags.debug, "log", "l", "",
		"Write debug logs to specified file (empty disables)")
	rootCmd.PersistentFlags().BoolVarP(&flags.spectrogram, "spectrogram", "s", false,
		"Add a spectrogram track")
	rootCmd.PersistentFlags().IntVarP(&flags.workers, "workers", "w", 0,
		"Goroutines for analysis and file writes (0 uses all CPUs)")

	renderCmd.Flags().StringVarP(&flags.out, "out", "o", "chunks",
		"Output directory")
	renderCmd.Flags().Float64Var(&flags.scroll, "scroll", 0,
		"Scroll offset of the viewport in pixels")
	renderCmd.Flags().Float64Var(&flags.width, "width", 0,
		"Viewport width in pixels (0 exports every chunk)")

	listenCmd.Flags().IntVar(&flags.port, "port", 57130,
		"UDP port to receive viewport messages on")
	listenCmd.Flags().StringVar(&flags.reply, "reply", "127.0.0.1:57131",
		"host:port that receives visible range and chunk reports")
	listenCmd.Flags().Float64Var(&flags.width, "width", 800,
		"Initial container width in pixels")

	browseCmd.Flags().StringVarP(&flags.dump, "dump", "d", "",
		"Write terminal frames to specified file every 10 seconds (empty disables)")

	rootCmd.AddCommand(renderCmd, browseCmd, listenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging sends logs to the --log file, or discards them. The
// returned function closes the file.
func setupLogging() (func(), error) {
	if flags.debug == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(flags.debug, "debug")
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", flags.debug, err)
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	return func() { f.Close() }, nil
}

// load reads the theme and decodes the recording.
func load(path string) (config.Theme, *analysis.Audio, error) {
	th, err := config.Load(flags.theme)
	if err != nil {
		return th, nil, err
	}
	a, err := analysis.DecodeWAV(path)
	if err != nil {
		return th, nil, err
	}
	log.Printf("loaded %s: %d Hz, %d channels, %.2fs", path, a.SampleRate, a.Channels, a.Duration())
	return th, a, nil
}

func lookupFor(ctx context.Context, th config.Theme, a *analysis.Audio) (*render.FrequencyLookup, error) {
	colors, err := th.Colors()
	if err != nil {
		return nil, err
	}
	return analysis.STFT(ctx, a.Channel(0), a.SampleRate, analysis.STFTOptions{
		FFTSize: th.FFTSize,
		HopSize: th.HopSize,
		Colors:  colors,
		Workers: flags.workers,
	})
}

func runRender(cmd *cobra.Command, args []string) error {
	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	th, a, err := load(args[0])
	if err != nil {
		return err
	}
	opts := export.Options{
		Dir:         flags.out,
		Theme:       th,
		Spectrogram: flags.spectrogram,
		Workers:     flags.workers,
	}
	if flags.width > 0 {
		vp := viewport.Compute(flags.scroll, flags.width, viewport.OverscanFactor)
		opts.Viewport = &vp
	}
	m, err := export.Run(cmd.Context(), a, args[0], opts)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d chunk images for chunks %v (%.2fs - %.2fs) to %s\n",
		len(m.Chunks), m.Indices, m.StartTime, m.EndTime, flags.out)
	return nil
}

func runListen(cmd *cobra.Command, args []string) error {
	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	th, a, err := load(args[0])
	if err != nil {
		return err
	}

	total := int(math.Ceil(float64(a.Frames()) / th.SamplesPerPixel))
	id := config.NewTrackID()
	newTrack := func(suffix string, height int, layer *surface.Layer, p track.Painter) *track.Manager {
		return track.NewManager(track.Options{
			ID:         id + suffix,
			TotalWidth: total,
			ChunkWidth: th.ChunkWidth,
			Height:     height,
			Scale:      th.PixelRatio,
			Layer:      layer,
		}, p)
	}
	tracks := []*track.Manager{
		newTrack("", th.TrackHeight, nil, th.Bars(analysis.Peaks(a, 0, th.SamplesPerPixel))),
	}
	if flags.spectrogram {
		lookup, err := lookupFor(ctx, th, a)
		if err != nil {
			return err
		}
		w := worker.New(64)
		defer w.Close()
		dl := render.NewDelegated(id, 0, w, render.NewSpectrogram(lookup, th.SpectrogramOptions()))
		tracks = append(tracks, newTrack("-spec", th.TrackHeight, surface.NewLayer(true), dl))
	}
	tracks = append(tracks, newTrack("-ruler", th.RulerHeight, nil,
		th.Ruler(a.Duration(), th.PixelsPerSecond(a.SampleRate))))

	store := viewport.NewStore()
	sched := viewport.NewTickerScheduler(viewport.DefaultFrameInterval)
	bridge := oscbridge.New(flags.width)
	bridge.Bind(viewport.NewTracker(store, bridge, sched))

	host, portStr, err := net.SplitHostPort(flags.reply)
	if err != nil {
		return fmt.Errorf("reply address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("reply port %q: %w", portStr, err)
	}
	reporter := oscbridge.NewReporter(osc.NewClient(host, port), tracks...)
	for _, t := range tracks {
		t.Attach(store)
		defer t.Close()
	}
	defer reporter.Watch(store)()

	d := osc.NewStandardDispatcher()
	if err := bridge.Register(d); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.Run(ctx)
	}()
	err = oscbridge.Serve(ctx, fmt.Sprintf(":%d", flags.port), d)
	// frames run on the scheduler goroutine; stop it before the tracks close
	stop()
	<-done
	return err
}
