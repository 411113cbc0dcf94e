package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/schollz/chunktrack/internal/analysis"
	"github.com/schollz/chunktrack/internal/input"
	"github.com/schollz/chunktrack/internal/model"
	"github.com/schollz/chunktrack/internal/render"
	"github.com/schollz/chunktrack/internal/views"
)

// overviewWidth is the resolution of the whole-file summary row.
const overviewWidth = 1024

// DumpTickMsg triggers periodic dumps to file
type DumpTickMsg struct{}

// BrowserModel wraps the model and implements the tea.Model interface
type BrowserModel struct {
	model    *model.Model
	help     help.Model
	dumpFile *os.File
}

func runBrowse(cmd *cobra.Command, args []string) error {
	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	file := args[0]
	th, a, err := load(file)
	if err != nil {
		return err
	}
	var lookup *render.FrequencyLookup
	if flags.spectrogram {
		if lookup, err = lookupFor(cmd.Context(), th, a); err != nil {
			return err
		}
	}

	bm := &BrowserModel{
		model: model.New(file, a, th, lookup),
		help:  help.New(),
	}
	defer bm.model.Close()

	if peaks, _, err := analysis.Overview(file, overviewWidth); err != nil {
		log.Printf("Warning: no overview for %s: %v", file, err)
	} else {
		bm.model.Overview = peaks
	}

	if flags.dump != "" {
		f, err := os.Create(flags.dump)
		if err != nil {
			log.Printf("Error opening dump file %s: %v", flags.dump, err)
		} else {
			bm.dumpFile = f
			defer f.Close()
			log.Printf("Terminal dump enabled: writing to %s every 10 seconds", flags.dump)
		}
	}

	p := tea.NewProgram(bm, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

// tickDump schedules the next DumpTickMsg for periodic dumps
func tickDump() tea.Cmd {
	return tea.Tick(10*time.Second, func(time.Time) tea.Msg {
		return DumpTickMsg{}
	})
}

func (bm *BrowserModel) Init() tea.Cmd {
	if bm.dumpFile != nil {
		return tickDump()
	}
	return nil
}

func (bm *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return bm, input.HandleResize(bm.model, msg)

	case input.FrameMsg:
		// viewport measurements queued by scroll, zoom and resize
		return bm, input.HandleFrame(bm.model)

	case tea.KeyMsg:
		return bm, input.HandleKey(bm.model, msg)

	case tea.MouseMsg:
		return bm, input.HandleMouse(bm.model, msg)

	case DumpTickMsg:
		if bm.dumpFile != nil {
			timestamp := time.Now().Format("2006-01-02 15:04:05")
			fmt.Fprintf(bm.dumpFile, "\n=== Frame at %s ===\n", timestamp)
			fmt.Fprintf(bm.dumpFile, "%s\n", bm.View())
			bm.dumpFile.Sync()
		}
		return bm, tickDump()
	}
	return bm, nil
}

func (bm *BrowserModel) View() string {
	return views.Render(bm.model, bm.help, input.Keys)
}
