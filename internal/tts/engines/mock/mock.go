// Package mock provides a deterministic in-process TTS backend. It produces
// sine tones instead of speech, which is enough to exercise the timeline and
// checkpoint logic without a network or external binaries.
package mock

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/dgnsrekt/srtaudio/internal/tts"
)

// SampleRate of generated clips.
const SampleRate = 22050

// ErrInjected is returned for calls selected by Config.FailOn.
var ErrInjected = errors.New("injected failure")

// Config controls the generated audio and failure injection.
type Config struct {
	// Duration returns the clip length for a request. Nil uses the natural
	// speaking estimate (words / 2.5 seconds) divided by the requested speed.
	Duration func(req tts.Request) time.Duration

	// FailOn returns a non-nil error to fail a call. call is 1-based.
	FailOn func(call int, req tts.Request) error

	// Delay simulates network latency.
	Delay time.Duration

	// Frequency of the tone in Hz (defaults to 440).
	Frequency float64
}

// Engine is the mock backend.
type Engine struct {
	cfg Config

	mu       sync.Mutex
	calls    int
	requests []tts.Request
}

// New creates a mock backend.
func New(cfg Config) *Engine {
	if cfg.Frequency == 0 {
		cfg.Frequency = 440
	}
	return &Engine{cfg: cfg}
}

// FixedDuration makes every clip d long.
func FixedDuration(d time.Duration) func(tts.Request) time.Duration {
	return func(tts.Request) time.Duration { return d }
}

// FailAtCall fails exactly the n-th call with a non-retryable backend error.
func FailAtCall(n int) func(int, tts.Request) error {
	return func(call int, _ tts.Request) error {
		if call == n {
			return &tts.BackendError{Backend: "mock", Status: 400, Message: "injected", Cause: ErrInjected}
		}
		return nil
	}
}

// Name implements tts.Synthesizer.
func (e *Engine) Name() string {
	return "mock"
}

// Synthesize implements tts.Synthesizer.
func (e *Engine) Synthesize(ctx context.Context, req tts.Request) (*tts.Clip, error) {
	e.mu.Lock()
	e.calls++
	call := e.calls
	e.requests = append(e.requests, req)
	e.mu.Unlock()

	if e.cfg.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, tts.NewBackendError("mock", "canceled", ctx.Err())
		case <-time.After(e.cfg.Delay):
		}
	}
	if e.cfg.FailOn != nil {
		if err := e.cfg.FailOn(call, req); err != nil {
			return nil, err
		}
	}

	return &tts.Clip{
		Audio:      Tone(e.duration(req), e.cfg.Frequency),
		Format:     tts.FormatPCM,
		SampleRate: SampleRate,
		Channels:   1,
	}, nil
}

func (e *Engine) duration(req tts.Request) time.Duration {
	if e.cfg.Duration != nil {
		return e.cfg.Duration(req)
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}
	ms := tts.EstimateDuration(req.Text) / speed
	return time.Duration(ms * float64(time.Millisecond))
}

// Calls returns how many requests were made.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Requests returns a copy of every request received.
func (e *Engine) Requests() []tts.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tts.Request(nil), e.requests...)
}

// Close implements tts.Synthesizer.
func (e *Engine) Close() error {
	return nil
}

// Tone renders a 16-bit mono sine wave of length d at SampleRate.
func Tone(d time.Duration, freq float64) []byte {
	n := int(math.Round(d.Seconds() * SampleRate))
	if n < 0 {
		n = 0
	}
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := 0.3 * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return out
}

var _ tts.Synthesizer = (*Engine)(nil)
