package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/srtaudio/internal/job"
)

// statusDisplay summarizes job progress for the status bar.
type statusDisplay struct {
	state    job.State
	position int
	total    int
	speed    float64
	factor   float64
	timeline time.Duration
	warnings int
	err      string
}

func newStatusDisplay() *statusDisplay {
	return &statusDisplay{state: job.StateIdle, position: -1}
}

// update applies a job event.
func (s *statusDisplay) update(ev job.Event) {
	switch ev.Type {
	case job.EventState:
		s.state = ev.State
	case job.EventCue:
		s.position = ev.Cue.Position
		s.total = ev.Cue.Total
		s.speed = ev.Cue.Speed
		s.factor = ev.Cue.Factor
		s.timeline = ev.Cue.Timeline
	case job.EventWarning:
		s.warnings++
	case job.EventDone:
		s.state = job.StateDone
		if ev.Duration > 0 {
			s.timeline = ev.Duration
		}
	case job.EventFailed:
		s.state = job.StateFailed
		if ev.Err != nil {
			s.err = ev.Err.Error()
		}
	}
}

// progress returns the share of committed cues.
func (s *statusDisplay) progress() float64 {
	if s.state == job.StateDone {
		return 1
	}
	if s.total <= 0 {
		return 0
	}
	return float64(s.position+1) / float64(s.total)
}

// compactStatus returns a one-line status for the status bar.
func (s *statusDisplay) compactStatus() string {
	if s.state == job.StateIdle {
		return ""
	}

	style := lipgloss.NewStyle().Foreground(s.color())
	status := style.Render(fmt.Sprintf("%s %s", s.icon(), s.state))

	if s.total > 0 {
		counter := lipgloss.NewStyle().Foreground(grayColor)
		status += counter.Render(fmt.Sprintf(" %d/%d", s.position+1, s.total))
	}
	if s.warnings > 0 {
		warn := lipgloss.NewStyle().Foreground(yellowColor)
		status += warn.Render(fmt.Sprintf(" ⚠ %d", s.warnings))
	}
	return status
}

// detailedStatus returns the multi-line status panel.
func (s *statusDisplay) detailedStatus(width int) string {
	var lines []string

	if s.total > 0 {
		lines = append(lines, fmt.Sprintf("Cue %d of %d", s.position+1, s.total))
		lines = append(lines, fmt.Sprintf("Speed %.2f×  Fit %.2f×", s.speed, s.factor))
	}
	if s.timeline > 0 {
		lines = append(lines, "Timeline "+formatDuration(s.timeline))
	}
	if s.err != "" {
		msg := s.err
		if width > 10 && len(msg) > width-9 {
			msg = msg[:width-10] + ellipsis
		}
		lines = append(lines, errorStyle.Render("Error: "+msg))
	}
	return strings.Join(lines, "\n")
}

func (s *statusDisplay) icon() string {
	switch s.state {
	case job.StateLoading:
		return "⟳"
	case job.StateSynthesizing, job.StateAssembling, job.StateCheckpointing:
		return "▶"
	case job.StateFinalizing:
		return "■"
	case job.StateDone:
		return "✓"
	case job.StateFailed:
		return "✗"
	default:
		return "·"
	}
}

func (s *statusDisplay) color() lipgloss.Color {
	switch s.state {
	case job.StateLoading, job.StateFinalizing:
		return blueColor
	case job.StateSynthesizing, job.StateAssembling, job.StateCheckpointing:
		return greenColor
	case job.StateDone:
		return greenColor
	case job.StateFailed:
		return redColor
	default:
		return grayColor
	}
}

// formatDuration renders d as m:ss.mmm.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Millisecond)
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%d:%02d.%03d", m, s, d/time.Millisecond)
}
