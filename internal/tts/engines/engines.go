package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/srtaudio/internal/cache"
	"github.com/dgnsrekt/srtaudio/internal/tts"
	"github.com/dgnsrekt/srtaudio/internal/tts/engines/mock"
)

// Config selects and configures one backend plus its decorators.
type Config struct {
	Engine tts.EngineType

	GTTS       GTTSConfig
	ElevenLabs ElevenLabsConfig
	Piper      PiperConfig
	Google     GoogleConfig
	Mock       mock.Config

	// RequestsPerMinute limits online backends. Zero uses the default.
	RequestsPerMinute int

	// Cache enables the synthesis cache when non-nil.
	Cache *cache.Config

	// Retry repeats retryable failures. The zero value never retries.
	Retry tts.RetryPolicy
}

// New creates the configured backend. Online backends are rate limited,
// and results are cached when a cache is configured.
func New(ctx context.Context, cfg Config) (tts.Synthesizer, error) {
	var (
		s   tts.Synthesizer
		err error
	)

	switch cfg.Engine {
	case tts.EngineGTTS:
		s, err = NewGTTS(cfg.GTTS)
	case tts.EngineElevenLabs:
		s, err = NewElevenLabs(cfg.ElevenLabs)
	case tts.EnginePiper:
		s, err = NewPiper(cfg.Piper)
	case tts.EngineGoogle:
		s, err = NewGoogleCloud(ctx, cfg.Google)
	case tts.EngineMock:
		s = mock.New(cfg.Mock)
	case tts.EngineNone:
		return nil, tts.ErrNoEngineConfigured
	default:
		return nil, fmt.Errorf("%w: %s", tts.ErrInvalidEngine, cfg.Engine)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Engine.Online() {
		s = NewRateLimited(s, cfg.RequestsPerMinute)
	}
	s = tts.Retrying(s, cfg.Retry)

	if cfg.Cache != nil {
		store, err := cache.NewManager(*cfg.Cache)
		if err != nil {
			s.Close() //nolint:errcheck
			return nil, fmt.Errorf("unable to open synthesis cache: %w", err)
		}
		s = NewCached(s, store)
	}

	log.Debug("speech backend ready", "backend", s.Name())
	return s, nil
}

// networkTimeout applies the default and rejects values below the minimum.
func networkTimeout(d time.Duration) (time.Duration, error) {
	if d == 0 {
		return tts.DefaultTimeout, nil
	}
	if d < tts.MinNetworkTimeout {
		return 0, tts.NewConfigError("timeout", "must be at least %v, got %v", tts.MinNetworkTimeout, d)
	}
	return d, nil
}
