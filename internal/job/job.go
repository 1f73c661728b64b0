package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/dgnsrekt/srtaudio/internal/audio"
	"github.com/dgnsrekt/srtaudio/internal/checkpoint"
	"github.com/dgnsrekt/srtaudio/internal/queue"
	"github.com/dgnsrekt/srtaudio/internal/subtitle"
	"github.com/dgnsrekt/srtaudio/internal/tts"
)

// ErrAlreadyRun is returned when Run is called twice.
var ErrAlreadyRun = errors.New("job already ran")

// Job converts one subtitle file.
type Job struct {
	cfg   Config
	synth tts.Synthesizer
	runID string

	sm    *StateMachine
	state atomic.Int32
	ran   atomic.Bool

	mu     sync.Mutex
	events chan Event

	logger *log.Logger
}

// Result summarizes a finished run.
type Result struct {
	Output   string
	Duration time.Duration
	Cues     int
	// Start is the position the run resumed from.
	Start int
	// Reset is set when a corrupt checkpoint was discarded.
	Reset bool
	// Skipped is set when the output existed and nothing was done.
	Skipped bool
}

// synthesized is a decoded clip ready for assembly. A nil clip marks a cue
// without spoken text.
type synthesized struct {
	clip  *audio.Clip
	speed float64
}

// New creates a job. synth is used for every cue and is not closed by the
// job.
func New(cfg Config, synth tts.Synthesizer) (*Job, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if synth == nil {
		return nil, tts.ErrNoEngineConfigured
	}

	j := &Job{
		cfg:   cfg,
		synth: synth,
		runID: uuid.NewString(),
	}
	j.logger = log.WithPrefix("job").With("run", j.runID[:8])
	j.sm = NewStateMachine(j.entered)
	return j, nil
}

// RunID identifies this run in events and log lines.
func (j *Job) RunID() string {
	return j.runID
}

// Config returns the validated config.
func (j *Job) Config() Config {
	return j.cfg
}

// State returns the current state. Safe for concurrent use.
func (j *Job) State() State {
	return State(j.state.Load())
}

// Events returns the progress stream. It must be requested before Run and
// drained until closed; it is closed when Run returns.
func (j *Job) Events() <-chan Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.events == nil {
		j.events = make(chan Event, eventBuffer)
	}
	return j.events
}

func (j *Job) emit(ev Event) {
	j.mu.Lock()
	ch := j.events
	j.mu.Unlock()
	if ch == nil {
		return
	}

	ev.RunID = j.runID
	ev.Time = time.Now()
	if ev.Type == EventDone || ev.Type == EventFailed {
		ch <- ev
		return
	}
	select {
	case ch <- ev:
	default:
		j.logger.Debug("event dropped", "type", ev.Type)
	}
}

func (j *Job) entered(from, to State) {
	j.state.Store(int32(to))
	j.emit(Event{Type: EventState, State: to, Prev: from})
}

func (j *Job) warn(msg string, keyvals ...any) {
	j.logger.Warn(msg, keyvals...)
	j.emit(Event{Type: EventWarning, Message: fmt.Sprintf("%s %s", msg, formatKeyvals(keyvals))})
}

// Run performs the conversion. It resumes from an existing checkpoint and
// commits after every cue, so a canceled or failed run can be resumed by a
// new Job on the same input.
func (j *Job) Run(ctx context.Context) (Result, error) {
	if !j.ran.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRun
	}
	defer func() {
		j.mu.Lock()
		if j.events != nil {
			close(j.events)
		}
		j.mu.Unlock()
	}()

	if err := j.sm.Transition(StateLoading); err != nil {
		return Result{}, err
	}

	cues, err := subtitle.ParseFile(j.cfg.Input)
	if err != nil {
		return j.fail(nil, err)
	}

	cp, err := checkpoint.Open(j.cfg.Dir, j.cfg.Names)
	if err != nil {
		return j.fail(nil, err)
	}
	defer func() {
		if err := cp.Close(); err != nil {
			j.logger.Warn("unable to release lock", "err", err)
		}
	}()

	if cp.OutputExists() && !cp.HasArtifacts() && !j.cfg.Overwrite {
		j.logger.Info("output already exists, skipping", "output", cp.OutputPath())
		if err := j.sm.Transition(StateDone); err != nil {
			return Result{}, err
		}
		res := Result{Output: cp.OutputPath(), Cues: len(cues), Start: len(cues), Skipped: true}
		j.emit(Event{Type: EventDone, Output: res.Output, Skipped: true})
		return res, nil
	}

	loaded, err := cp.Load(len(cues))
	if err != nil {
		return j.fail(cp, err)
	}
	if loaded.Reset {
		j.warn("checkpoint discarded, starting over", "reason", loaded.Reason)
	}

	res := Result{Output: cp.OutputPath(), Cues: len(cues), Start: loaded.Next, Reset: loaded.Reset}
	j.logger.Info("starting", "input", j.cfg.Input, "cues", len(cues), "from", loaded.Next,
		"engine", j.synth.Name(), "lookahead", j.cfg.Lookahead)

	tl := loaded.Timeline
	if loaded.Next < len(cues) {
		if err := j.process(ctx, cp, cues, loaded.Next, tl); err != nil {
			return j.fail(cp, err)
		}
	}

	if err := j.sm.Transition(StateFinalizing); err != nil {
		return j.fail(cp, err)
	}
	if err := cp.Finalize(tl); err != nil {
		return j.fail(cp, err)
	}
	if err := j.sm.Transition(StateDone); err != nil {
		return res, err
	}

	res.Duration = tl.Duration()
	j.logger.Info("finished", "output", res.Output, "duration", res.Duration.Round(time.Millisecond))
	j.emit(Event{Type: EventDone, Output: res.Output, Duration: res.Duration})
	return res, nil
}

// process synthesizes and commits cues[start:] in order.
func (j *Job) process(ctx context.Context, cp *checkpoint.Manager, cues []subtitle.Cue, start int, tl *audio.Timeline) error {
	q := queue.NewLookahead[*synthesized](ctx, j.cfg.Lookahead)
	defer q.Close() //nolint:errcheck

	total := len(cues)
	submitted := start
	for pos := start; pos < total; pos++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.sm.Transition(StateSynthesizing); err != nil {
			return err
		}

		for submitted < total && !q.Full() {
			if err := q.Enqueue(j.synthesize(cues[submitted])); err != nil {
				return err
			}
			submitted++
		}

		cue := cues[pos]
		s, err := q.Next(ctx)
		if err != nil {
			return fmt.Errorf("cue %d: %w", cue.Index, err)
		}

		progress := &CueProgress{
			Position: pos,
			Total:    total,
			Index:    cue.Index,
			Start:    cue.Start,
			End:      cue.End,
			Text:     cue.SpokenText(),
			Speed:    s.speed,
			Factor:   1,
			Silent:   s.clip == nil,
		}

		if s.clip != nil {
			if err := j.sm.Transition(StateAssembling); err != nil {
				return err
			}
			p := tl.Place(s.clip, cue.Start, cue.End)
			progress.Factor, progress.Gap, progress.Drift = p.Factor, p.Gap, p.Drift
			if p.Drift > 0 && p.Drift >= j.cfg.DriftWarning {
				j.warn("cue starts late", "cue", cue.Index, "drift", p.Drift.Round(time.Millisecond))
			}
		}

		if err := j.sm.Transition(StateCheckpointing); err != nil {
			return err
		}
		if err := cp.Commit(tl, pos+1); err != nil {
			return err
		}

		progress.Timeline = tl.Duration()
		j.logger.Info(fmt.Sprintf("[%d/%d] %s → %s", pos+1, total,
			subtitle.FormatTimestamp(cue.Start), subtitle.FormatTimestamp(cue.End)),
			"speed", fmt.Sprintf("%.2f", s.speed), "factor", fmt.Sprintf("%.2f", progress.Factor),
			"gap", progress.Gap)
		j.emit(Event{Type: EventCue, Cue: progress})
	}

	stats := q.GetStats()
	j.logger.Debug("synthesis queue drained", "tasks", humanize.Comma(stats.TotalDequeued), "peak", stats.PeakSize)
	return nil
}

// synthesize returns the task producing the clip for cue.
func (j *Job) synthesize(cue subtitle.Cue) queue.Task[*synthesized] {
	return func(ctx context.Context) (*synthesized, error) {
		text := cue.SpokenText()
		if text == "" {
			return &synthesized{speed: 1}, nil
		}

		speed, err := tts.EstimateSpeed(text, cue.WindowMS(), j.cfg.MaxSpeed)
		if err != nil {
			return nil, err
		}

		clip, err := j.synth.Synthesize(ctx, tts.Request{Text: text, Speed: speed})
		if err != nil {
			return nil, err
		}
		decoded, err := audio.Decode(clip)
		if err != nil {
			return nil, err
		}
		return &synthesized{clip: decoded, speed: speed}, nil
	}
}

// fail moves the job to StateFailed and reports err.
func (j *Job) fail(cp *checkpoint.Manager, err error) (Result, error) {
	if !j.sm.Current().Terminal() {
		_ = j.sm.Transition(StateFailed)
	}
	resumable := cp != nil && cp.HasArtifacts()
	j.logger.Error("job failed", "err", err, "resumable", resumable)
	j.emit(Event{Type: EventFailed, Err: err, Resumable: resumable})
	return Result{}, err
}

func formatKeyvals(keyvals []any) string {
	out := ""
	for i := 0; i+1 < len(keyvals); i += 2 {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%v=%v", keyvals[i], keyvals[i+1])
	}
	return out
}
