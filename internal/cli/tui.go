package cli

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/geminstall"
)

const tuiLogLines = 5

var (
	tuiPendingStyle = lipgloss.NewStyle().Foreground(colorDim)
	tuiActiveStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	tuiDoneStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	tuiLogStyle     = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Messages
// =============================================================================

type (
	startMsg struct{ gems []cookbook.GemRequirement }
	gemMsg   struct {
		installing    bool
		name, version string
	}
	logMsg  string
	doneMsg struct{ err error }
	tickMsg time.Time
)

// =============================================================================
// InstallModel - live install progress
// =============================================================================

type gemState int

const (
	gemPending gemState = iota
	gemInstalling
	gemInstalled
	gemUsed
)

type gemRow struct {
	name    string
	version string
	state   gemState
}

// InstallModel is the bubbletea model showing per-gem progress of one run.
type InstallModel struct {
	Source    string
	Rows      []gemRow
	Log       []string
	Err       error
	Done      bool
	Cancelled bool

	frame   int
	started time.Time
	cancel  func()
}

// NewInstallModel creates a model. cancel is called when the user quits
// before the install has finished.
func NewInstallModel(source string, cancel func()) InstallModel {
	return InstallModel{Source: source, started: time.Now(), cancel: cancel}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m InstallModel) Init() tea.Cmd {
	return tick()
}

func (m InstallModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.Done {
				m.Cancelled = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		}
	case startMsg:
		m.Rows = nil
		seen := map[string]bool{}
		for _, g := range msg.gems {
			if seen[g.Name] {
				continue
			}
			seen[g.Name] = true
			m.Rows = append(m.Rows, gemRow{name: g.Name, version: strings.Join(g.Constraints, ", ")})
		}
	case gemMsg:
		m = m.markGem(msg)
	case logMsg:
		m.Log = append(m.Log, string(msg))
		if len(m.Log) > tuiLogLines {
			m.Log = m.Log[len(m.Log)-tuiLogLines:]
		}
	case doneMsg:
		if msg.err == nil {
			m = m.settle()
		}
		m.Done = true
		m.Err = msg.err
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

// markGem updates the row for a gem. Gems pulled in as dependencies are
// appended since they were not part of the declared list.
func (m InstallModel) markGem(msg gemMsg) InstallModel {
	m = m.settle()
	state := gemUsed
	if msg.installing {
		state = gemInstalling
	}
	for i := range m.Rows {
		if m.Rows[i].name == msg.name {
			m.Rows[i].state = state
			m.Rows[i].version = msg.version
			return m
		}
	}
	m.Rows = append(m.Rows, gemRow{name: msg.name, version: msg.version, state: state})
	return m
}

// settle marks the gem being installed as done. Bundler reports only the
// start of each install, so a gem is finished when the next one begins.
func (m InstallModel) settle() InstallModel {
	for i := range m.Rows {
		if m.Rows[i].state == gemInstalling {
			m.Rows[i].state = gemInstalled
		}
	}
	return m
}

func (m InstallModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("cookgems install"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.Source))
	b.WriteString("\n\n")

	frame := spinnerFrames[m.frame%len(spinnerFrames)]
	for _, r := range m.Rows {
		var icon string
		style := tuiPendingStyle
		switch r.state {
		case gemPending:
			icon = " "
		case gemInstalling:
			icon = styleIconSpinner.Render(frame)
			style = tuiActiveStyle
		case gemInstalled:
			icon = iconInstall
			style = tuiDoneStyle
		case gemUsed:
			icon = iconUsing
		}
		fmt.Fprintf(&b, "  %s %s\n", icon, style.Render(fmt.Sprintf("%-30s %s", r.name, r.version)))
	}

	if len(m.Log) > 0 {
		b.WriteString("\n")
		for _, l := range m.Log {
			b.WriteString("  " + tuiLogStyle.Render(l) + "\n")
		}
	}

	b.WriteString("\n")
	elapsed := time.Since(m.started).Round(time.Second)
	switch {
	case m.Cancelled:
		b.WriteString(StyleWarning.Render("Cancelled"))
	case m.Done && m.Err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + errors.UserMessage(m.Err))
	case m.Done:
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf("Done in %s", elapsed))
	default:
		b.WriteString(StyleDim.Render(fmt.Sprintf("%s  q quit", elapsed)))
	}
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// Program bridge
// =============================================================================

// sender is the part of *tea.Program used by the bridge.
type sender interface {
	Send(msg tea.Msg)
}

// tuiSink forwards installer events to a running program.
type tuiSink struct {
	p sender
}

func (s tuiSink) Start(gems []cookbook.GemRequirement) {
	s.p.Send(startMsg{gems: gems})
}
func (s tuiSink) Installing(name, version string) {
	s.p.Send(gemMsg{installing: true, name: name, version: version})
}
func (s tuiSink) Using(name, version string) {
	s.p.Send(gemMsg{name: name, version: version})
}
func (s tuiSink) Finished()        {}
func (s tuiSink) Failed(err error) {}

var _ geminstall.EventSink = tuiSink{}

// tuiWriter turns log output into logMsg lines so the logger does not draw
// over the program.
type tuiWriter struct {
	p   sender
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *tuiWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(b)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Keep the partial line for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			return len(b), nil
		}
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			w.p.Send(logMsg(line))
		}
	}
}
