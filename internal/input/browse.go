package input

import (
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/schollz/chunktrack/internal/model"
	"github.com/schollz/chunktrack/internal/viewport"
)

// FrameMsg asks the browser to run queued viewport measurements.
type FrameMsg time.Time

// FrameCmd schedules the next frame when measurements are queued.
func FrameCmd(m *model.Model) tea.Cmd {
	if m.Frames.Pending() == 0 {
		return nil
	}
	return tea.Tick(viewport.DefaultFrameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// HandleFrame runs the queued measurements, which may mount and unmount
// chunks.
func HandleFrame(m *model.Model) tea.Cmd {
	m.Frames.Flush()
	return FrameCmd(m)
}

// HandleKey handles input for the browser.
func HandleKey(m *model.Model, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, Keys.Quit):
		return tea.Quit
	case key.Matches(msg, Keys.Help):
		m.ShowHelp = !m.ShowHelp
		return nil
	case key.Matches(msg, Keys.Left):
		m.Jog(-1, false)
	case key.Matches(msg, Keys.Right):
		m.Jog(1, false)
	case key.Matches(msg, Keys.FastLeft):
		m.Jog(-1, true)
	case key.Matches(msg, Keys.FastRight):
		m.Jog(1, true)
	case key.Matches(msg, Keys.ZoomIn):
		m.Zoom(true)
	case key.Matches(msg, Keys.ZoomOut):
		m.Zoom(false)
	case key.Matches(msg, Keys.Home):
		m.ShowAll()
	default:
		return nil
	}
	return FrameCmd(m)
}

// HandleMouse scrolls with the horizontal wheel and zooms with the
// vertical one.
func HandleMouse(m *model.Model, msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelLeft:
		m.Jog(-1, false)
	case tea.MouseButtonWheelRight:
		m.Jog(1, false)
	case tea.MouseButtonWheelUp:
		m.Zoom(true)
	case tea.MouseButtonWheelDown:
		m.Zoom(false)
	default:
		return nil
	}
	return FrameCmd(m)
}

// HandleResize adapts the lanes to the terminal.
func HandleResize(m *model.Model, msg tea.WindowSizeMsg) tea.Cmd {
	m.Resize(msg.Width, msg.Height)
	log.Printf("resize: %dx%d -> %+v", msg.Width, msg.Height, m.Layout())
	return FrameCmd(m)
}
