package job

import (
	"time"
)

// EventType identifies the kind of an Event.
type EventType int

const (
	EventState EventType = iota
	EventCue
	EventWarning
	EventDone
	EventFailed
)

func (t EventType) String() string {
	switch t {
	case EventState:
		return "state"
	case EventCue:
		return "cue"
	case EventWarning:
		return "warning"
	case EventDone:
		return "done"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports job progress. Only the fields of its Type are set.
type Event struct {
	RunID string
	Type  EventType
	Time  time.Time

	// EventState
	State State
	Prev  State

	// EventCue
	Cue *CueProgress

	// EventWarning
	Message string

	// EventDone
	Output   string
	Duration time.Duration
	// Skipped is set when the output already existed.
	Skipped bool

	// EventFailed
	Err error
	// Resumable is set when a checkpoint was left for the next run.
	Resumable bool
}

// CueProgress describes a committed cue.
type CueProgress struct {
	// Position is the zero-based position in the file; Total the cue count.
	Position int
	Total    int
	Index    int
	Start    time.Duration
	End      time.Duration
	Text     string

	Speed  float64
	Factor float64
	Gap    time.Duration
	Drift  time.Duration

	// Silent is set for cues without spoken text.
	Silent bool
	// Timeline is the timeline length after the cue.
	Timeline time.Duration
}

// Fraction returns the share of cues committed.
func (p CueProgress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Position+1) / float64(p.Total)
}
