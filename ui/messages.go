package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/srtaudio/internal/audio"
	"github.com/dgnsrekt/srtaudio/internal/job"
)

// jobStartedMsg carries a freshly created job.
type jobStartedMsg struct {
	job    *job.Job
	events <-chan job.Event
	ctx    context.Context
	cancel context.CancelFunc
}

// jobEventMsg forwards one progress event.
type jobEventMsg struct {
	event  job.Event
	events <-chan job.Event
}

// eventsClosedMsg indicates the event stream ended.
type eventsClosedMsg struct{}

// jobFinishedMsg is sent when Run returns.
type jobFinishedMsg struct {
	result job.Result
	err    error
}

// jobErrorMsg reports a job that could not be created.
type jobErrorMsg struct{ err error }

func (e jobErrorMsg) Error() string { return e.err.Error() }

// playbackFinishedMsg is sent when the preview ends.
type playbackFinishedMsg struct{ err error }

func startJob(newJob func() (*job.Job, error)) tea.Cmd {
	return func() tea.Msg {
		j, err := newJob()
		if err != nil {
			return jobErrorMsg{err}
		}
		ctx, cancel := context.WithCancel(context.Background())
		return jobStartedMsg{job: j, events: j.Events(), ctx: ctx, cancel: cancel}
	}
}

func runJob(ctx context.Context, j *job.Job) tea.Cmd {
	return func() tea.Msg {
		res, err := j.Run(ctx)
		return jobFinishedMsg{result: res, err: err}
	}
}

func waitForEvent(events <-chan job.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return jobEventMsg{event: ev, events: events}
	}
}

func playOutput(player audio.Output, path string, read func(string) ([]byte, error)) tea.Cmd {
	return func() tea.Msg {
		data, err := read(path)
		if err != nil {
			return playbackFinishedMsg{err}
		}
		tl, err := audio.DecodeTimeline(data)
		if err != nil {
			return playbackFinishedMsg{err}
		}
		return playbackFinishedMsg{player.Play(context.Background(), tl.Streamer())}
	}
}
