package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/srtaudio/internal/audio"
	"github.com/dgnsrekt/srtaudio/internal/checkpoint"
	"github.com/dgnsrekt/srtaudio/internal/tts"
	"github.com/dgnsrekt/srtaudio/internal/tts/engines/mock"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:02,000
Hello world

2
00:00:02,500 --> 00:00:03,000
This is a much longer line of text

3
00:00:03,000 --> 00:00:04,000
<i></i>

4
00:00:05,000 --> 00:00:06,000
Goodbye
`

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "input.srt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newJob(t *testing.T, cfg Config, synth tts.Synthesizer) *Job {
	t.Helper()
	j, err := New(cfg, synth)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return j
}

// near allows for resampling the mock's 22.05 kHz output.
func near(got, want time.Duration) bool {
	d := got - want
	return d > -2*time.Millisecond && d < 2*time.Millisecond
}

// collect drains the event stream in the background.
func collect(j *Job) <-chan []Event {
	out := make(chan []Event, 1)
	events := j.Events()
	go func() {
		var all []Event
		for ev := range events {
			all = append(all, ev)
		}
		out <- all
	}()
	return out
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, sampleSRT)
	engine := mock.New(mock.Config{})

	j := newJob(t, DefaultConfig(input), engine)
	events := collect(j)

	res, err := j.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	all := <-events

	if j.State() != StateDone {
		t.Errorf("state = %v, want done", j.State())
	}
	if engine.Calls() != 3 {
		t.Errorf("engine called %d times, want 3 (silent cue skipped)", engine.Calls())
	}
	if res.Cues != 4 || res.Start != 0 || res.Skipped {
		t.Errorf("unexpected result %+v", res)
	}

	st, err := checkpoint.Inspect(dir, checkpoint.Names{})
	if err != nil {
		t.Fatal(err)
	}
	if st.PartialExists || st.ProgressExists || !st.OutputExists {
		t.Errorf("unexpected artifacts after success: %+v", st)
	}

	// "Goodbye" is one word: 400ms at speed 1 after the 5s gap
	if want := 5400 * time.Millisecond; !near(res.Duration, want) {
		t.Errorf("Duration = %v, want %v", res.Duration, want)
	}

	var cues, silent, compressed int
	for _, ev := range all {
		if ev.RunID != j.RunID() {
			t.Errorf("event with foreign run id %q", ev.RunID)
		}
		if ev.Type == EventCue {
			cues++
			if ev.Cue.Silent {
				silent++
			}
			if ev.Cue.Factor > 1 {
				compressed++
			}
		}
	}
	if cues != 4 || silent != 1 || compressed != 1 {
		t.Errorf("cue events = %d (silent %d, compressed %d), want 4 (1, 1)", cues, silent, compressed)
	}
	if last := all[len(all)-1]; last.Type != EventDone || last.Output != res.Output {
		t.Errorf("last event = %+v, want done", last)
	}
}

func TestRunResumeMatchesUninterrupted(t *testing.T) {
	reference := t.TempDir()
	refJob := newJob(t, DefaultConfig(writeInput(t, reference, sampleSRT)), mock.New(mock.Config{}))
	if _, err := refJob.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want, err := os.ReadFile(filepath.Join(reference, checkpoint.DefaultNames().Output))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	input := writeInput(t, dir, sampleSRT)

	failing := newJob(t, DefaultConfig(input), mock.New(mock.Config{FailOn: mock.FailAtCall(2)}))
	events := collect(failing)
	_, err = failing.Run(context.Background())
	if !errors.Is(err, mock.ErrInjected) || !errors.Is(err, tts.ErrBackend) {
		t.Fatalf("Run() error = %v, want injected backend error", err)
	}
	all := <-events
	if last := all[len(all)-1]; last.Type != EventFailed || !last.Resumable {
		t.Errorf("last event = %+v, want resumable failure", last)
	}
	if failing.State() != StateFailed {
		t.Errorf("state = %v, want failed", failing.State())
	}

	st, err := checkpoint.Inspect(dir, checkpoint.Names{})
	if err != nil {
		t.Fatal(err)
	}
	if !st.Resumable() || st.Next != 1 {
		t.Fatalf("checkpoint after failure: %+v", st)
	}

	engine := mock.New(mock.Config{})
	resumed := newJob(t, DefaultConfig(input), engine)
	res, err := resumed.Run(context.Background())
	if err != nil {
		t.Fatalf("resumed Run() error = %v", err)
	}
	if res.Start != 1 {
		t.Errorf("resumed from %d, want 1", res.Start)
	}
	if engine.Calls() != 2 {
		t.Errorf("resumed run made %d calls, want 2", engine.Calls())
	}

	got, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Errorf("resumed output is %d bytes, uninterrupted is %d", len(got), len(want))
	}
}

func TestRunFinalizesCompleteCheckpoint(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, sampleSRT)

	cp, err := checkpoint.Open(dir, checkpoint.Names{})
	if err != nil {
		t.Fatal(err)
	}
	tl := audio.NewTimeline()
	tl.AppendSilence(2 * time.Second)
	if err := cp.Commit(tl, 4); err != nil {
		t.Fatal(err)
	}
	if err := cp.Close(); err != nil {
		t.Fatal(err)
	}

	engine := mock.New(mock.Config{})
	j := newJob(t, DefaultConfig(input), engine)
	res, err := j.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if engine.Calls() != 0 {
		t.Errorf("finalizing a complete checkpoint made %d calls", engine.Calls())
	}
	if res.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", res.Duration)
	}
}

func TestRunOverwrite(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, sampleSRT)
	output := filepath.Join(dir, checkpoint.DefaultNames().Output)
	if err := os.WriteFile(output, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := mock.New(mock.Config{})
	j := newJob(t, DefaultConfig(input), engine)
	res, err := j.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || engine.Calls() != 0 || j.State() != StateDone {
		t.Errorf("existing output should be kept: %+v, %d calls", res, engine.Calls())
	}

	cfg := DefaultConfig(input)
	cfg.Overwrite = true
	j = newJob(t, cfg, engine)
	if res, err = j.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if res.Skipped || engine.Calls() != 3 {
		t.Errorf("overwrite should rerun: %+v, %d calls", res, engine.Calls())
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "existing" {
		t.Error("output was not replaced")
	}
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, sampleSRT)

	j := newJob(t, DefaultConfig(input), mock.New(mock.Config{Delay: 20 * time.Millisecond}))
	events := j.Events()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := j.Run(ctx)
		done <- err
	}()

	var failed *Event
	for ev := range events {
		if ev.Type == EventCue {
			cancel()
		}
		if ev.Type == EventFailed {
			ev := ev
			failed = &ev
		}
	}

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want canceled", err)
	}
	if failed == nil || !failed.Resumable {
		t.Errorf("expected a resumable failure event, got %+v", failed)
	}

	st, err := checkpoint.Inspect(dir, checkpoint.Names{})
	if err != nil {
		t.Fatal(err)
	}
	if !st.Resumable() || st.Next < 1 {
		t.Errorf("cancellation should leave a valid checkpoint: %+v", st)
	}
}

func TestRunLookahead(t *testing.T) {
	sequential := t.TempDir()
	seq := newJob(t, DefaultConfig(writeInput(t, sequential, sampleSRT)), mock.New(mock.Config{}))
	seqRes, err := seq.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	parallel := t.TempDir()
	cfg := DefaultConfig(writeInput(t, parallel, sampleSRT))
	cfg.Lookahead = 3
	par := newJob(t, cfg, mock.New(mock.Config{Delay: 5 * time.Millisecond}))
	parRes, err := par.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	a, err := os.ReadFile(seqRes.Output)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(parRes.Output)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("prefetching changed the output")
	}
}

func TestRunDriftWarning(t *testing.T) {
	const overlapping = `1
00:00:00,000 --> 00:00:00,000
one two three four five

2
00:00:00,500 --> 00:00:01,000
six
`
	dir := t.TempDir()
	j := newJob(t, DefaultConfig(writeInput(t, dir, overlapping)), mock.New(mock.Config{}))
	events := collect(j)
	if _, err := j.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	warnings := 0
	for _, ev := range <-events {
		if ev.Type == EventWarning {
			warnings++
		}
		if ev.Type == EventCue && ev.Cue.Position == 1 && !near(ev.Cue.Drift, 1500*time.Millisecond) {
			t.Errorf("drift = %v, want 1.5s", ev.Cue.Drift)
		}
	}
	if warnings != 1 {
		t.Errorf("got %d warnings, want 1", warnings)
	}
}

func TestRunErrors(t *testing.T) {
	t.Run("parse error", func(t *testing.T) {
		dir := t.TempDir()
		j := newJob(t, DefaultConfig(writeInput(t, dir, "1\nnot a timing line\ntext\n")), mock.New(mock.Config{}))
		_, err := j.Run(context.Background())
		if err == nil || j.State() != StateFailed {
			t.Errorf("Run() error = %v, state %v", err, j.State())
		}
	})

	t.Run("locked directory", func(t *testing.T) {
		dir := t.TempDir()
		input := writeInput(t, dir, sampleSRT)
		cp, err := checkpoint.Open(dir, checkpoint.Names{})
		if err != nil {
			t.Fatal(err)
		}
		defer cp.Close()

		j := newJob(t, DefaultConfig(input), mock.New(mock.Config{}))
		if _, err := j.Run(context.Background()); !errors.Is(err, checkpoint.ErrLocked) {
			t.Errorf("Run() error = %v, want ErrLocked", err)
		}
	})

	t.Run("run twice", func(t *testing.T) {
		dir := t.TempDir()
		j := newJob(t, DefaultConfig(writeInput(t, dir, sampleSRT)), mock.New(mock.Config{}))
		if _, err := j.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		if _, err := j.Run(context.Background()); !errors.Is(err, ErrAlreadyRun) {
			t.Errorf("second Run() error = %v", err)
		}
	})
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		synth   tts.Synthesizer
		wantErr error
	}{
		{"no input", Config{MaxSpeed: 1.5}, mock.New(mock.Config{}), tts.ErrConfig},
		{"max speed below one", Config{Input: "a.srt", MaxSpeed: 0.5}, mock.New(mock.Config{}), tts.ErrConfig},
		{"negative lookahead", Config{Input: "a.srt", MaxSpeed: 1.5, Lookahead: -1}, mock.New(mock.Config{}), tts.ErrConfig},
		{"no synthesizer", DefaultConfig("a.srt"), nil, tts.ErrNoEngineConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tt.synth); !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	j := newJob(t, Config{Input: "/tmp/x/a.srt", MaxSpeed: 2}, mock.New(mock.Config{}))
	if cfg := j.Config(); cfg.Dir != "/tmp/x" || cfg.Lookahead != DefaultLookahead {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
