package tts

import (
	"context"
)

// Synthesizer is the contract every TTS backend fulfils.
// A Synthesizer is created once per job and reused for every cue.
type Synthesizer interface {
	// Name identifies the backend and voice, e.g. "gtts:en/co.uk".
	// It is part of the synthesis cache key.
	Name() string

	// Synthesize converts one request into encoded audio.
	// Failures are reported as *BackendError.
	Synthesize(ctx context.Context, req Request) (*Clip, error)

	// Close releases any resources held by the backend.
	Close() error
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(ctx context.Context, req Request) (*Clip, error)

// Name implements Synthesizer.
func (f SynthesizerFunc) Name() string { return "func" }

// Synthesize implements Synthesizer.
func (f SynthesizerFunc) Synthesize(ctx context.Context, req Request) (*Clip, error) {
	return f(ctx, req)
}

// Close implements Synthesizer.
func (f SynthesizerFunc) Close() error { return nil }

var _ Synthesizer = SynthesizerFunc(nil)
