package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/dgnsrekt/srtaudio/internal/tts"
)

// GTTS synthesizes speech with gTTS (Google Translate TTS) through gtts-cli.
// It is free and needs no API key, but has no speaking-rate control.
type GTTS struct {
	binary   string
	language string
	tld      string
	timeout  time.Duration
}

// GTTSConfig holds configuration for the gTTS backend.
type GTTSConfig struct {
	// Binary is the gtts-cli executable (defaults to "gtts-cli")
	Binary string

	// Language code (e.g., "en", "es", "fr") - defaults to "en"
	Language string

	// TLD selects the regional accent, e.g. "co.uk" or "com.au" - defaults to "com"
	TLD string

	// Timeout per call (defaults to tts.DefaultTimeout)
	Timeout time.Duration
}

// NewGTTS creates a gTTS backend.
func NewGTTS(cfg GTTSConfig) (*GTTS, error) {
	if cfg.Binary == "" {
		cfg.Binary = "gtts-cli"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.TLD == "" {
		cfg.TLD = "com"
	}
	timeout, err := networkTimeout(cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &GTTS{
		binary:   cfg.Binary,
		language: cfg.Language,
		tld:      cfg.TLD,
		timeout:  timeout,
	}, nil
}

// Name implements tts.Synthesizer.
func (e *GTTS) Name() string {
	return fmt.Sprintf("gtts:%s/%s", e.language, e.tld)
}

// Synthesize returns MP3 audio. The requested speed is ignored; overruns
// are handled by time compression on the timeline.
func (e *GTTS) Synthesize(ctx context.Context, req tts.Request) (*tts.Clip, error) {
	if req.Text == "" {
		return nil, tts.NewBackendError("gtts", "empty request", tts.ErrEmptyText)
	}

	out, err := runCommand(ctx, e.timeout, req.Text, e.binary, e.args()...)
	if err != nil {
		return nil, tts.NewBackendError("gtts", "", err)
	}
	return &tts.Clip{Audio: out, Format: tts.FormatMP3}, nil
}

// args reads the text from stdin ("-") and writes MP3 to stdout.
func (e *GTTS) args() []string {
	return []string{"-", "--lang", e.language, "--tld", e.tld, "--output", "-"}
}

// Close implements tts.Synthesizer.
func (e *GTTS) Close() error {
	return nil
}

var _ tts.Synthesizer = (*GTTS)(nil)
