package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/dgnsrekt/srtaudio/internal/job"
	"github.com/dgnsrekt/srtaudio/internal/tts"
)

func newTestViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
			t.Fatalf("failed to read config: %v", err)
		}
	}
	return v
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := loadSettings(newTestViper(t, ""))
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.Engine != tts.EngineGTTS {
		t.Errorf("engine = %q, want gtts", s.Engine)
	}
	if s.MaxSpeed != job.DefaultMaxSpeed {
		t.Errorf("max speed = %v, want %v", s.MaxSpeed, job.DefaultMaxSpeed)
	}
	if s.Retry.Max != 0 {
		t.Errorf("retry max = %d, want 0 so a failed cue stops the run", s.Retry.Max)
	}
	if s.DriftWarning != 250*time.Millisecond {
		t.Errorf("drift warning = %v", s.DriftWarning)
	}
	if s.GTTS.TLD != "com" || s.GTTS.Timeout != tts.DefaultTimeout {
		t.Errorf("gtts = %+v", s.GTTS)
	}
	if s.ElevenLabs.Stability != 0.5 || s.ElevenLabs.SimilarityBoost != 0.75 || !s.ElevenLabs.SpeakerBoost {
		t.Errorf("voice settings = %+v", s.ElevenLabs)
	}
}

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, s settings)
	}{
		{
			name: "engine alias",
			yaml: "engine: premium\n",
			check: func(t *testing.T, s settings) {
				if s.Engine != tts.EngineElevenLabs {
					t.Errorf("engine = %q", s.Engine)
				}
			},
		},
		{
			name: "durations and accent",
			yaml: "gtts:\n  tld: co.uk\n  timeout: 90s\nretry:\n  backoff: 500ms\n",
			check: func(t *testing.T, s settings) {
				if s.GTTS.TLD != "co.uk" || s.GTTS.Timeout != 90*time.Second || s.Retry.Backoff != 500*time.Millisecond {
					t.Errorf("settings = %+v %+v", s.GTTS, s.Retry)
				}
			},
		},
		{
			name: "custom names",
			yaml: "output:\n  name: episode.wav\n",
			check: func(t *testing.T, s settings) {
				n := s.names()
				if n.Output != "episode.wav" || n.Partial != "output_partial.wav" {
					t.Errorf("names = %+v", n)
				}
			},
		},
		{name: "unknown engine", yaml: "engine: festival\n", wantErr: true},
		{name: "max speed not a number", yaml: "max_speed: fast\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := loadSettings(newTestViper(t, tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestJobConfig(t *testing.T) {
	s, err := loadSettings(newTestViper(t, "max_speed: 2\nlookahead: 3\n"))
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := s.jobConfig("/subs/talk.srt")
	if err != nil {
		t.Fatalf("jobConfig: %v", err)
	}
	if cfg.Dir != "/subs" || cfg.MaxSpeed != 2 || cfg.Lookahead != 3 {
		t.Errorf("config = %+v", cfg)
	}

	s.MaxSpeed = 0.5
	_, err = s.jobConfig("/subs/talk.srt")
	var ce *tts.ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for max speed below 1, got %v", err)
	}
}

func TestEngineConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("elevenlabs requires a key", func(t *testing.T) {
		s, err := loadSettings(newTestViper(t, "engine: elevenlabs\nelevenlabs:\n  voice_id: abc\n"))
		if err != nil {
			t.Fatal(err)
		}
		_, err = s.engineConfig(credentials{})
		var ce *tts.ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("expected ConfigError, got %v", err)
		}

		cfg, err := s.engineConfig(credentials{ElevenLabsAPIKey: "key"})
		if err != nil {
			t.Fatalf("engineConfig: %v", err)
		}
		if cfg.ElevenLabs.APIKey != "key" || cfg.ElevenLabs.VoiceID != "abc" {
			t.Errorf("elevenlabs = %+v", cfg.ElevenLabs)
		}
	})

	t.Run("cache", func(t *testing.T) {
		s, err := loadSettings(newTestViper(t, "cache:\n  dir: "+dir+"\n  max_size: 10\n"))
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := s.engineConfig(credentials{})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Cache == nil || cfg.Cache.Dir != dir || cfg.Cache.DiskCapacity != 10*1024*1024 {
			t.Errorf("cache = %+v", cfg.Cache)
		}

		s.Cache.Enabled = false
		cfg, _ = s.engineConfig(credentials{})
		if cfg.Cache != nil {
			t.Error("cache should be disabled")
		}
	})

	t.Run("no retry by default", func(t *testing.T) {
		s, _ := loadSettings(newTestViper(t, ""))
		cfg, err := s.engineConfig(credentials{})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Retry.MaxRetries != 0 {
			t.Errorf("retry = %+v, want no retries", cfg.Retry)
		}
	})

	t.Run("retry", func(t *testing.T) {
		s, _ := loadSettings(newTestViper(t, "retry:\n  max: 4\n"))
		cfg, err := s.engineConfig(credentials{})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Retry.MaxRetries != 4 || cfg.Retry.Backoff != 2*time.Second {
			t.Errorf("retry = %+v", cfg.Retry)
		}
	})
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ELEVENLABS_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("from env file", func(t *testing.T) {
		t.Setenv("ELEVENLABS_API_KEY", "")
		os.Unsetenv("ELEVENLABS_API_KEY") //nolint:errcheck
		creds, err := loadCredentials(dir, filepath.Join(dir, "missing"))
		if err != nil {
			t.Fatal(err)
		}
		if creds.ElevenLabsAPIKey != "from-file" {
			t.Errorf("key = %q, want from-file", creds.ElevenLabsAPIKey)
		}
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("ELEVENLABS_API_KEY", "from-env")
		creds, err := loadCredentials(dir)
		if err != nil {
			t.Fatal(err)
		}
		if creds.ElevenLabsAPIKey != "from-env" {
			t.Errorf("key = %q, want from-env", creds.ElevenLabsAPIKey)
		}
	})
}

func TestPrepare(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "talk.srt")
	if err := os.WriteFile(input, []byte("1\n00:00:00,000 --> 00:00:01,000\nHi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("mock backend", func(t *testing.T) {
		conv, err := prepare(newTestViper(t, "engine: mock\ncache:\n  enabled: false\n"), input)
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if conv.job.Input != input || conv.engine.Engine != tts.EngineMock {
			t.Errorf("conversion = %+v", conv)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := prepare(newTestViper(t, "engine: mock\n"), filepath.Join(dir, "nope.srt"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})
}
