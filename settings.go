package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/srtaudio/internal/cache"
	"github.com/dgnsrekt/srtaudio/internal/checkpoint"
	"github.com/dgnsrekt/srtaudio/internal/job"
	"github.com/dgnsrekt/srtaudio/internal/tts"
	"github.com/dgnsrekt/srtaudio/internal/tts/engines"
	"github.com/dgnsrekt/srtaudio/utils"
)

// settings mirrors the configuration file.
type settings struct {
	Engine       tts.EngineType `mapstructure:"engine"`
	MaxSpeed     float64        `mapstructure:"max_speed"`
	Lookahead    int            `mapstructure:"lookahead"`
	Overwrite    bool           `mapstructure:"overwrite"`
	DriftWarning time.Duration  `mapstructure:"drift_warning"`

	Output struct {
		Dir      string `mapstructure:"dir"`
		Name     string `mapstructure:"name"`
		Partial  string `mapstructure:"partial"`
		Progress string `mapstructure:"progress"`
	} `mapstructure:"output"`

	Retry struct {
		Max     int           `mapstructure:"max"`
		Backoff time.Duration `mapstructure:"backoff"`
	} `mapstructure:"retry"`

	RequestsPerMinute int `mapstructure:"requests_per_minute"`

	Cache struct {
		Enabled bool          `mapstructure:"enabled"`
		Dir     string        `mapstructure:"dir"`
		MaxSize int64         `mapstructure:"max_size"`
		MaxAge  time.Duration `mapstructure:"max_age"`
	} `mapstructure:"cache"`

	GTTS struct {
		Binary   string        `mapstructure:"binary"`
		Language string        `mapstructure:"language"`
		TLD      string        `mapstructure:"tld"`
		Timeout  time.Duration `mapstructure:"timeout"`
	} `mapstructure:"gtts"`

	ElevenLabs struct {
		VoiceID         string        `mapstructure:"voice_id"`
		ModelID         string        `mapstructure:"model_id"`
		BaseURL         string        `mapstructure:"base_url"`
		Stability       float64       `mapstructure:"stability"`
		SimilarityBoost float64       `mapstructure:"similarity_boost"`
		Style           float64       `mapstructure:"style"`
		SpeakerBoost    bool          `mapstructure:"speaker_boost"`
		Timeout         time.Duration `mapstructure:"timeout"`
	} `mapstructure:"elevenlabs"`

	Piper struct {
		Binary     string        `mapstructure:"binary"`
		Model      string        `mapstructure:"model"`
		SpeakerID  int           `mapstructure:"speaker_id"`
		SampleRate int           `mapstructure:"sample_rate"`
		Timeout    time.Duration `mapstructure:"timeout"`
	} `mapstructure:"piper"`

	Google struct {
		LanguageCode string        `mapstructure:"language_code"`
		VoiceName    string        `mapstructure:"voice_name"`
		Timeout      time.Duration `mapstructure:"timeout"`
	} `mapstructure:"google"`
}

// credentials come from the environment only.
type credentials struct {
	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY"`
	GoogleCredentials string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

func setDefaults(v *viper.Viper) {
	el := engines.DefaultElevenLabsConfig()

	v.SetDefault("engine", string(tts.EngineGTTS))
	v.SetDefault("max_speed", job.DefaultMaxSpeed)
	v.SetDefault("lookahead", job.DefaultLookahead)
	v.SetDefault("overwrite", false)
	v.SetDefault("drift_warning", "250ms")

	names := checkpoint.DefaultNames()
	v.SetDefault("output.dir", "")
	v.SetDefault("output.name", names.Output)
	v.SetDefault("output.partial", names.Partial)
	v.SetDefault("output.progress", names.Progress)

	v.SetDefault("retry.max", 0)
	v.SetDefault("retry.backoff", "2s")
	v.SetDefault("requests_per_minute", 0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.max_size", 1024)
	v.SetDefault("cache.max_age", "720h")

	v.SetDefault("gtts.binary", "gtts-cli")
	v.SetDefault("gtts.language", "en")
	v.SetDefault("gtts.tld", "com")
	v.SetDefault("gtts.timeout", tts.DefaultTimeout.String())

	v.SetDefault("elevenlabs.voice_id", "")
	v.SetDefault("elevenlabs.model_id", el.ModelID)
	v.SetDefault("elevenlabs.base_url", el.BaseURL)
	v.SetDefault("elevenlabs.stability", el.Stability)
	v.SetDefault("elevenlabs.similarity_boost", el.SimilarityBoost)
	v.SetDefault("elevenlabs.style", el.Style)
	v.SetDefault("elevenlabs.speaker_boost", el.SpeakerBoost)
	v.SetDefault("elevenlabs.timeout", el.Timeout.String())

	v.SetDefault("piper.binary", "piper")
	v.SetDefault("piper.model", "")
	v.SetDefault("piper.speaker_id", -1)
	v.SetDefault("piper.sample_rate", 22050)
	v.SetDefault("piper.timeout", tts.DefaultTimeout.String())

	v.SetDefault("google.language_code", "en-US")
	v.SetDefault("google.voice_name", "")
	v.SetDefault("google.timeout", tts.DefaultTimeout.String())
}

// engineHook decodes backend names and aliases into tts.EngineType.
func engineHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(tts.EngineType("")) {
			return data, nil
		}
		return tts.ValidateEngineSelection("", data.(string))
	}
}

// loadSettings decodes v. A max speed that is not a number is a config
// error rather than a decode failure.
func loadSettings(v *viper.Viper) (settings, error) {
	var s settings
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		engineHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&s, hook); err != nil {
		var ce *tts.ConfigError
		if errors.As(err, &ce) || errors.Is(err, tts.ErrInvalidEngine) || errors.Is(err, tts.ErrNoEngineConfigured) {
			return s, err
		}
		return s, tts.NewConfigError("config", "%v", err)
	}

	s.Output.Dir = utils.ExpandPath(s.Output.Dir)
	s.Cache.Dir = utils.ExpandPath(s.Cache.Dir)
	s.Piper.Model = utils.ExpandPath(s.Piper.Model)
	return s, nil
}

// jobConfig resolves the job for input.
func (s settings) jobConfig(input string) (job.Config, error) {
	cfg := job.DefaultConfig(utils.ExpandPath(input))
	cfg.Dir = s.Output.Dir
	cfg.MaxSpeed = s.MaxSpeed
	cfg.Lookahead = s.Lookahead
	cfg.Overwrite = s.Overwrite
	cfg.DriftWarning = s.DriftWarning
	cfg.Names = s.names()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s settings) names() checkpoint.Names {
	n := checkpoint.DefaultNames()
	if s.Output.Name != "" {
		n.Output = s.Output.Name
	}
	if s.Output.Partial != "" {
		n.Partial = s.Output.Partial
	}
	if s.Output.Progress != "" {
		n.Progress = s.Output.Progress
	}
	return n
}

// engineConfig resolves the backend and its decorators.
func (s settings) engineConfig(creds credentials) (engines.Config, error) {
	cfg := engines.Config{
		Engine: s.Engine,
		GTTS: engines.GTTSConfig{
			Binary:   s.GTTS.Binary,
			Language: s.GTTS.Language,
			TLD:      s.GTTS.TLD,
			Timeout:  s.GTTS.Timeout,
		},
		ElevenLabs: engines.ElevenLabsConfig{
			APIKey:          creds.ElevenLabsAPIKey,
			VoiceID:         s.ElevenLabs.VoiceID,
			ModelID:         s.ElevenLabs.ModelID,
			BaseURL:         s.ElevenLabs.BaseURL,
			Stability:       s.ElevenLabs.Stability,
			SimilarityBoost: s.ElevenLabs.SimilarityBoost,
			Style:           s.ElevenLabs.Style,
			SpeakerBoost:    s.ElevenLabs.SpeakerBoost,
			Timeout:         s.ElevenLabs.Timeout,
		},
		Piper: engines.PiperConfig{
			Binary:     s.Piper.Binary,
			ModelPath:  s.Piper.Model,
			SpeakerID:  s.Piper.SpeakerID,
			SampleRate: s.Piper.SampleRate,
			Timeout:    s.Piper.Timeout,
		},
		Google: engines.GoogleConfig{
			LanguageCode:    s.Google.LanguageCode,
			VoiceName:       s.Google.VoiceName,
			CredentialsFile: utils.ExpandPath(creds.GoogleCredentials),
			Timeout:         s.Google.Timeout,
		},
		RequestsPerMinute: s.RequestsPerMinute,
		Retry:             tts.NewRetryPolicy(s.Retry.Max, s.Retry.Backoff),
	}

	if s.Retry.Max < 0 {
		return cfg, tts.NewConfigError("retry.max", "must not be negative, got %d", s.Retry.Max)
	}
	if s.Engine == tts.EngineElevenLabs {
		if err := cfg.ElevenLabs.Validate(); err != nil {
			return cfg, err
		}
	}

	if s.Cache.Enabled {
		dir := s.Cache.Dir
		if dir == "" {
			d, err := gap.NewScope(gap.User, appName).CacheDir()
			if err != nil {
				return cfg, fmt.Errorf("unable to find cache directory: %w", err)
			}
			dir = filepath.Join(d, "speech")
		}
		c := cache.DefaultConfig(dir)
		if s.Cache.MaxSize > 0 {
			c.DiskCapacity = s.Cache.MaxSize * 1024 * 1024
		}
		c.MaxAge = s.Cache.MaxAge
		cfg.Cache = &c
	}
	return cfg, nil
}

// loadCredentials reads .env files from dirs, without overriding variables
// already set, then parses the environment.
func loadCredentials(dirs ...string) (credentials, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, ".env")
		if err := godotenv.Load(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn("Could not read environment file", "path", path, "error", err)
			}
			continue
		}
		log.Debug("Loaded environment file", "path", path)
	}

	creds, err := env.ParseAs[credentials]()
	if err != nil {
		return creds, fmt.Errorf("unable to parse environment: %w", err)
	}
	return creds, nil
}
