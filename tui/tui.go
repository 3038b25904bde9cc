package tui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the operator console: live logs, pipeline stats, and a command
// prompt feeding the main loop.
type TUI struct {
	app         *tview.Application
	logsView    *tview.TextView
	statsView   *tview.TextView
	headerView  *tview.TextView
	inputField  *tview.InputField
	commandChan chan string
	mu          sync.Mutex
	logBuffer   []string
	maxLogLines int
}

// New creates a new TUI instance
func New() *TUI {
	t := &TUI{
		app:         tview.NewApplication(),
		commandChan: make(chan string, 10),
		logBuffer:   make([]string, 0),
		maxLogLines: 1000,
	}

	t.headerView = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("[::b]SAGA[::-] - Butterfly-Effect Consequence Engine").
		SetDynamicColors(true)
	t.headerView.SetBorder(true).SetBorderColor(tcell.ColorNames["blue"])

	t.statsView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	t.statsView.SetBorder(true).
		SetTitle(" Cascade Statistics ").
		SetBorderColor(tcell.ColorNames["green"])
	t.UpdateStats(0, 0, 0)

	t.logsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			t.app.Draw()
		})
	t.logsView.SetBorder(true).
		SetTitle(" Logs ").
		SetBorderColor(tcell.ColorNames["yellow"])

	t.inputField = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0).
		SetDoneFunc(func(key tcell.Key) {
			if key == tcell.KeyEnter {
				command := t.inputField.GetText()
				if command != "" {
					t.commandChan <- command
					t.inputField.SetText("")
				}
			}
		})
	t.inputField.SetBorder(true).
		SetTitle(" Command Input (Press Enter to submit, Ctrl+C to quit) ").
		SetBorderColor(tcell.ColorNames["cyan"])

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.headerView, 3, 0, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexColumn).
			AddItem(t.logsView, 0, 3, false).
			AddItem(t.statsView, 40, 0, false),
			0, 1, false).
		AddItem(t.inputField, 3, 0, true)

	t.app.SetRoot(mainFlex, true).SetFocus(t.inputField)

	return t
}

// Start starts the TUI application
func (t *TUI) Start() error {
	return t.app.Run()
}

// Stop stops the TUI application
func (t *TUI) Stop() {
	t.app.Stop()
}

// GetCommandChannel returns the channel for receiving commands
func (t *TUI) GetCommandChannel() <-chan string {
	return t.commandChan
}

// Log adds a log message to the logs view
func (t *TUI) Log(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logBuffer = append(t.logBuffer, message)
	if len(t.logBuffer) > t.maxLogLines {
		t.logBuffer = t.logBuffer[len(t.logBuffer)-t.maxLogLines:]
	}

	t.app.QueueUpdateDraw(func() {
		t.logsView.Clear()
		for _, line := range t.logBuffer {
			fmt.Fprintln(t.logsView, line)
		}
		t.logsView.ScrollToEnd()
	})
}

// UpdateStats updates the statistics display
func (t *TUI) UpdateStats(actions, effects, clients int) {
	t.app.QueueUpdateDraw(func() {
		t.statsView.Clear()
		fmt.Fprintf(t.statsView, "[green::b]Actions:[-:-:-] %d\n", actions)
		fmt.Fprintf(t.statsView, "[yellow::b]Effects:[-:-:-] %d\n", effects)
		fmt.Fprintf(t.statsView, "[blue::b]Clients:[-:-:-] %d\n", clients)
		fmt.Fprintf(t.statsView, "\n[cyan]Status:[-] Running\n")
		fmt.Fprintf(t.statsView, "\n[white::b]Available Commands:[-:-:-]\n")
		fmt.Fprintln(t.statsView, "[gray]act <description>[-]")
		fmt.Fprintln(t.statsView, "[gray]history, show <id>[-]")
		fmt.Fprintln(t.statsView, "[gray]systems, regions[-]")
		fmt.Fprintln(t.statsView, "[gray]config, exit[-]")
	})
}

// SetHeader updates the header text
func (t *TUI) SetHeader(text string) {
	t.app.QueueUpdateDraw(func() {
		t.headerView.SetText(text)
	})
}

// Writer implements io.Writer for the TUI
type Writer struct {
	tui *TUI
}

// NewWriter creates a new TUI writer
func (t *TUI) NewWriter() *Writer {
	return &Writer{tui: t}
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (n int, err error) {
	message := string(p)
	if len(message) > 0 && message[len(message)-1] == '\n' {
		message = message[:len(message)-1]
	}
	w.tui.Log(message)
	return len(p), nil
}
