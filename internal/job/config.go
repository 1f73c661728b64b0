package job

import (
	"math"
	"path/filepath"
	"time"

	"github.com/dgnsrekt/srtaudio/internal/checkpoint"
	"github.com/dgnsrekt/srtaudio/internal/tts"
)

// Defaults.
const (
	DefaultMaxSpeed  = 1.5
	DefaultLookahead = 1
	eventBuffer      = 256
)

// Config describes one conversion. It is resolved by the caller; the job
// never reads configuration storage.
type Config struct {
	// Input is the SRT file.
	Input string

	// Dir holds the checkpoint and output. Defaults to the input's directory.
	Dir string

	// Names overrides the artifact file names.
	Names checkpoint.Names

	// MaxSpeed caps the requested speech rate.
	MaxSpeed float64

	// Lookahead is how many cues may be synthesized ahead of assembly.
	Lookahead int

	// Overwrite reruns a job whose output already exists.
	Overwrite bool

	// DriftWarning is the smallest drift reported as a warning.
	DriftWarning time.Duration
}

// DefaultConfig returns a config for input with default settings.
func DefaultConfig(input string) Config {
	return Config{
		Input:     input,
		MaxSpeed:  DefaultMaxSpeed,
		Lookahead: DefaultLookahead,
	}
}

// Validate checks the config and fills defaults.
func (c *Config) Validate() error {
	if c.Input == "" {
		return tts.NewConfigError("input", "no subtitle file given")
	}
	if math.IsNaN(c.MaxSpeed) || c.MaxSpeed < 1 {
		return tts.NewConfigError("max_speed", "must be a number of at least 1, got %v", c.MaxSpeed)
	}
	if c.Lookahead < 0 {
		return tts.NewConfigError("lookahead", "must not be negative, got %d", c.Lookahead)
	}
	if c.Lookahead == 0 {
		c.Lookahead = DefaultLookahead
	}
	if c.DriftWarning < 0 {
		return tts.NewConfigError("drift_warning", "must not be negative, got %v", c.DriftWarning)
	}
	if c.Dir == "" {
		c.Dir = filepath.Dir(c.Input)
	}
	return nil
}
