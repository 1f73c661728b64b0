// Package ui provides the interactive terminal surface for a conversion.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/srtaudio/internal/audio"
	"github.com/dgnsrekt/srtaudio/internal/job"
)

// Deps are the collaborators the TUI drives.
type Deps struct {
	// NewJob creates the job started by the start key. Each start gets a
	// fresh job, so a failed run can be resumed from the TUI.
	NewJob func() (*job.Job, error)

	// Player previews the output. Nil disables preview.
	Player audio.Output
}

// state is the top-level application state.
type state int

const (
	stateReady state = iota
	stateRunning
	stateDone
	stateFailed
)

func (s state) String() string {
	return map[state]string{
		stateReady:   "ready",
		stateRunning: "running",
		stateDone:    "done",
		stateFailed:  "failed",
	}[s]
}

const (
	headerHeight = 2
	footerHeight = 6
)

type model struct {
	cfg  Config
	deps Deps

	state  state
	width  int
	height int

	spinner  spinner.Model
	progress progress.Model
	logView  viewport.Model
	lines    []string
	status   *statusDisplay

	cancel    context.CancelFunc
	output    string
	result    job.Result
	err       error
	resumable bool
	playing   bool
	quitting  bool
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, deps Deps) *tea.Program {
	log.Debug("Starting srtaudio TUI", "input", cfg.Input, "engine", cfg.Engine)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(newModel(cfg, deps), opts...)
}

func newModel(cfg Config, deps Deps) model {
	if cfg.LogLines <= 0 {
		cfg.LogLines = 200
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = successStyle

	return model{
		cfg:      cfg,
		deps:     deps,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		logView:  viewport.New(80, 10),
		status:   newStatusDisplay(),
	}
}

func (m model) Init() tea.Cmd {
	if m.cfg.AutoStart {
		return startJob(m.deps.NewJob)
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = max(10, msg.Width-4)
		m.logView.Width = msg.Width
		m.logView.Height = max(3, msg.Height-headerHeight-footerHeight)
		m.logView.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case jobStartedMsg:
		m.state = stateRunning
		m.cancel = msg.cancel
		m.err = nil
		m.resumable = false
		m.status = newStatusDisplay()
		m.appendLine(fmt.Sprintf("run %s started", msg.job.RunID()[:8]))
		return m, tea.Batch(runJob(msg.ctx, msg.job), waitForEvent(msg.events), m.spinner.Tick)

	case jobErrorMsg:
		m.state = stateFailed
		m.err = msg.err
		m.appendLine(errorStyle.Render(msg.Error()))
		return m, nil

	case jobEventMsg:
		m.handleEvent(msg.event)
		return m, waitForEvent(msg.events)

	case eventsClosedMsg:
		return m, nil

	case jobFinishedMsg:
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.result = msg.result
		if msg.err != nil {
			m.state = stateFailed
			m.err = msg.err
		} else {
			m.state = stateDone
			m.output = msg.result.Output
		}
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil

	case playbackFinishedMsg:
		m.playing = false
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.appendLine(errorStyle.Render("playback: " + msg.err.Error()))
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if m.state == stateRunning && m.cancel != nil {
			// wait for the job to stop at a checkpoint
			m.quitting = true
			m.cancel()
			m.appendLine(warningStyle.Render("stopping after the current cue…"))
			return m, nil
		}
		if m.deps.Player != nil {
			_ = m.deps.Player.Close()
		}
		return m, tea.Quit

	case "enter", "s":
		if m.state == stateRunning || m.deps.NewJob == nil {
			return m, nil
		}
		return m, startJob(m.deps.NewJob)

	case "p", " ":
		return m.togglePlayback()
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m model) togglePlayback() (tea.Model, tea.Cmd) {
	player := m.deps.Player
	if player == nil || m.state != stateDone || m.output == "" {
		return m, nil
	}
	if m.playing {
		switch player.State() {
		case audio.StatePlaying:
			_ = player.Pause()
		case audio.StatePaused:
			_ = player.Resume()
		}
		return m, nil
	}
	m.playing = true
	return m, playOutput(player, m.output, os.ReadFile)
}

func (m *model) handleEvent(ev job.Event) {
	m.status.update(ev)

	switch ev.Type {
	case job.EventCue:
		c := ev.Cue
		line := fmt.Sprintf("▶ [%d/%d] %s → %s  speed=%.2f", c.Position+1, c.Total,
			formatDuration(c.Start), formatDuration(c.End), c.Speed)
		if c.Silent {
			line += helpStyle.Render("  (silent)")
		}
		if c.Factor > 1 {
			line += warningStyle.Render(fmt.Sprintf("  fit ×%.2f", c.Factor))
		}
		m.appendLine(line)
	case job.EventWarning:
		m.appendLine(warningStyle.Render("⚠ " + ev.Message))
	case job.EventDone:
		if ev.Skipped {
			m.appendLine(successStyle.Render("output already exists: " + ev.Output))
		} else {
			m.appendLine(successStyle.Render(fmt.Sprintf("🎯 saved %s (%s)", ev.Output, formatDuration(ev.Duration))))
		}
	case job.EventFailed:
		m.resumable = ev.Resumable
		msg := "✗ " + ev.Err.Error()
		if ev.Resumable {
			msg += " (progress saved, start again to resume)"
		}
		m.appendLine(errorStyle.Render(msg))
	}
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if over := len(m.lines) - m.cfg.LogLines; over > 0 {
		m.lines = m.lines[over:]
	}
	m.logView.SetContent(strings.Join(m.lines, "\n"))
	m.logView.GotoBottom()
}

func (m model) View() string {
	var b strings.Builder

	title := titleStyle.Render("srtaudio")
	name := filepath.Base(m.cfg.Input)
	fmt.Fprintf(&b, "%s %s %s\n\n", title, name, helpStyle.Render(m.cfg.Engine))

	b.WriteString(m.logView.View())
	b.WriteString("\n\n")

	switch m.state {
	case stateRunning:
		b.WriteString(m.spinner.View() + " " + m.status.compactStatus())
	default:
		b.WriteString(m.status.compactStatus())
	}
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(m.status.progress()))
	b.WriteString("\n")
	if detail := m.status.detailedStatus(m.width); detail != "" {
		b.WriteString(helpStyle.Render(strings.ReplaceAll(detail, "\n", " · ")))
		b.WriteString("\n")
	}
	b.WriteString(m.helpView())
	return b.String()
}

func (m model) helpView() string {
	var keys []string
	switch m.state {
	case stateReady:
		keys = append(keys, "enter start")
	case stateFailed:
		if m.resumable {
			keys = append(keys, "enter resume")
		} else {
			keys = append(keys, "enter retry")
		}
	case stateDone:
		if m.deps.Player != nil {
			keys = append(keys, "p play/pause")
		}
		if fi, err := os.Stat(m.output); err == nil {
			keys = append(keys, humanize.Bytes(uint64(fi.Size())))
		}
	}
	keys = append(keys, "q quit")
	return helpStyle.Render(strings.Join(keys, " • "))
}
