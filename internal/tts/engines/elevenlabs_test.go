package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgnsrekt/srtaudio/internal/tts"
)

func newTestElevenLabs(t *testing.T, handler http.HandlerFunc) *ElevenLabs {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultElevenLabsConfig()
	cfg.APIKey = "secret"
	cfg.VoiceID = "voice123"
	cfg.BaseURL = srv.URL

	engine, err := NewElevenLabs(cfg)
	if err != nil {
		t.Fatalf("NewElevenLabs() error = %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestElevenLabsRequest(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		wantText string
		wantSSML bool
	}{
		{"natural speed", 1.0, "Hello there", false},
		{"faster", 1.5, "<speak><prosody rate='150%'>Hello there</prosody></speak>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got elevenLabsRequest
			engine := newTestElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s", r.Method)
				}
				if r.URL.Path != "/v1/text-to-speech/voice123/stream" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.Header.Get("xi-api-key") != "secret" {
					t.Errorf("missing api key header")
				}
				if r.Header.Get("Accept") != "audio/mpeg" {
					t.Errorf("Accept = %q", r.Header.Get("Accept"))
				}
				body, _ := io.ReadAll(r.Body)
				if err := json.Unmarshal(body, &got); err != nil {
					t.Errorf("bad request body: %v", err)
				}
				w.Header().Set("Content-Type", "audio/mpeg")
				_, _ = w.Write([]byte("ID3fake"))
			})

			clip, err := engine.Synthesize(context.Background(), tts.Request{Text: "Hello there", Speed: tt.speed})
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			if string(clip.Audio) != "ID3fake" || clip.Format != tts.FormatMP3 {
				t.Errorf("unexpected clip %+v", clip)
			}
			if got.Text != tt.wantText || got.SSML != tt.wantSSML {
				t.Errorf("text = %q ssml = %v", got.Text, got.SSML)
			}
			if got.ModelID != DefaultElevenLabsModel {
				t.Errorf("model = %q", got.ModelID)
			}
			want := voiceSettings{Stability: 0.5, SimilarityBoost: 0.75, Style: 0, UseSpeakerBoost: true}
			if got.VoiceSettings != want {
				t.Errorf("voice settings = %+v", got.VoiceSettings)
			}
		})
	}
}

func TestElevenLabsErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"detail":"nope"}`, tt.status)
			})

			_, err := engine.Synthesize(context.Background(), tts.Request{Text: "Hi", Speed: 1})
			var be *tts.BackendError
			if !errors.As(err, &be) {
				t.Fatalf("expected *BackendError, got %v", err)
			}
			if be.Status != tt.status || be.Message != `{"detail":"nope"}` {
				t.Errorf("unexpected error %+v", be)
			}
			if be.Retryable() != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", be.Retryable(), tt.retryable)
			}
		})
	}
}

func TestElevenLabsOversizedAudio(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", 64, false},
		{"over limit", 65, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestElevenLabs(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "audio/mpeg")
				_, _ = w.Write(bytes.Repeat([]byte{0xff}, tt.size))
			})
			engine.maxAudio = 64

			clip, err := engine.Synthesize(context.Background(), tts.Request{Text: "Hi", Speed: 1})
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Synthesize() error = %v", err)
				}
				if len(clip.Audio) != tt.size {
					t.Errorf("got %d bytes, want %d", len(clip.Audio), tt.size)
				}
				return
			}
			var be *tts.BackendError
			if !errors.As(err, &be) {
				t.Fatalf("expected *BackendError for a truncated body, got %v (clip %v)", err, clip != nil)
			}
		})
	}
}

func TestElevenLabsConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ElevenLabsConfig)
	}{
		{"missing key", func(c *ElevenLabsConfig) { c.APIKey = "" }},
		{"missing voice", func(c *ElevenLabsConfig) { c.VoiceID = " " }},
		{"short timeout", func(c *ElevenLabsConfig) { c.Timeout = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultElevenLabsConfig()
			cfg.APIKey = "k"
			cfg.VoiceID = "v"
			tt.mutate(&cfg)
			if _, err := NewElevenLabs(cfg); !errors.Is(err, tts.ErrConfig) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestElevenLabsCanceled(t *testing.T) {
	engine := newTestElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Synthesize(ctx, tts.Request{Text: "Hi", Speed: 1}); !errors.Is(err, tts.ErrBackend) {
		t.Errorf("expected backend error, got %v", err)
	}
}
