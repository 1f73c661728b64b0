package engines

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgnsrekt/srtaudio/internal/tts"
)

// Piper synthesizes speech offline with the Piper binary. A fresh process is
// started per cue with stdin configured before start.
type Piper struct {
	binary     string
	modelPath  string
	speakerID  int
	sampleRate int
	timeout    time.Duration
}

// PiperConfig holds configuration for the Piper backend.
type PiperConfig struct {
	// Binary is the piper executable (defaults to "piper")
	Binary string

	// ModelPath is the .onnx voice model (required)
	ModelPath string

	// SpeakerID selects a speaker in multi-speaker models (-1 for default)
	SpeakerID int

	// SampleRate of the model output (defaults to 22050)
	SampleRate int

	// Timeout per call (defaults to tts.DefaultTimeout)
	Timeout time.Duration
}

// NewPiper creates a Piper backend.
func NewPiper(cfg PiperConfig) (*Piper, error) {
	if cfg.ModelPath == "" {
		return nil, tts.NewConfigError("piper.model_path", "model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, tts.NewConfigError("piper.model_path", "model file not accessible: %v", err)
	}
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 22050
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = tts.DefaultTimeout
	}

	return &Piper{
		binary:     cfg.Binary,
		modelPath:  cfg.ModelPath,
		speakerID:  cfg.SpeakerID,
		sampleRate: cfg.SampleRate,
		timeout:    cfg.Timeout,
	}, nil
}

// Name implements tts.Synthesizer.
func (e *Piper) Name() string {
	return fmt.Sprintf("piper:%s#%d", e.modelPath, e.speakerID)
}

// Synthesize returns raw 16-bit mono PCM at the model's sample rate.
func (e *Piper) Synthesize(ctx context.Context, req tts.Request) (*tts.Clip, error) {
	if req.Text == "" {
		return nil, tts.NewBackendError("piper", "empty request", tts.ErrEmptyText)
	}
	if req.Speed <= 0 {
		return nil, tts.NewBackendError("piper", "invalid speed", errors.New("speed must be positive"))
	}

	out, err := runCommand(ctx, e.timeout, req.Text, e.binary, e.args(req.Speed)...)
	if err != nil {
		return nil, tts.NewBackendError("piper", "", err)
	}
	return &tts.Clip{
		Audio:      out,
		Format:     tts.FormatPCM,
		SampleRate: e.sampleRate,
		Channels:   1,
	}, nil
}

// args maps speed onto Piper's length scale: 2.0 speed is 0.5 length.
func (e *Piper) args(speed float64) []string {
	args := []string{
		"--model", e.modelPath,
		"--output-raw",
		"--length_scale", strconv.FormatFloat(1/speed, 'f', 3, 64),
	}
	if e.speakerID >= 0 {
		args = append(args, "--speaker", strconv.Itoa(e.speakerID))
	}
	return args
}

// Close implements tts.Synthesizer.
func (e *Piper) Close() error {
	return nil
}

var _ tts.Synthesizer = (*Piper)(nil)
