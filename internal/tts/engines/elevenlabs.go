package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/srtaudio/internal/tts"
)

// DefaultElevenLabsURL is the public API endpoint.
const DefaultElevenLabsURL = "https://api.elevenlabs.io"

// DefaultElevenLabsModel is used when no model is configured.
const DefaultElevenLabsModel = "eleven_flash_v2_5"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// ElevenLabs synthesizes speech with the ElevenLabs streaming endpoint.
type ElevenLabs struct {
	cfg    ElevenLabsConfig
	client *http.Client

	// maxAudio bounds the response body.
	maxAudio int64
}

// ElevenLabsConfig holds configuration for the premium backend.
type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string

	// BaseURL overrides the API endpoint (tests, proxies)
	BaseURL string

	// Voice settings sent with every request
	Stability       float64
	SimilarityBoost float64
	Style           float64
	SpeakerBoost    bool

	// Timeout per call (defaults to tts.DefaultTimeout, minimum tts.MinNetworkTimeout)
	Timeout time.Duration
}

// DefaultElevenLabsConfig returns the stock voice settings.
func DefaultElevenLabsConfig() ElevenLabsConfig {
	return ElevenLabsConfig{
		ModelID:         DefaultElevenLabsModel,
		BaseURL:         DefaultElevenLabsURL,
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0,
		SpeakerBoost:    true,
		Timeout:         tts.DefaultTimeout,
	}
}

// Validate reports missing credentials or voice selection.
func (c ElevenLabsConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.APIKey) == "":
		return tts.NewConfigError("elevenlabs.api_key", "API key is required (set ELEVENLABS_API_KEY)")
	case strings.TrimSpace(c.VoiceID) == "":
		return tts.NewConfigError("elevenlabs.voice_id", "voice ID is required")
	case strings.TrimSpace(c.ModelID) == "":
		return tts.NewConfigError("elevenlabs.model_id", "model ID is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return tts.NewConfigError("elevenlabs.base_url", "%v", err)
	}
	return nil
}

// NewElevenLabs creates the premium backend.
func NewElevenLabs(cfg ElevenLabsConfig) (*ElevenLabs, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultElevenLabsURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultElevenLabsModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := networkTimeout(cfg.Timeout)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout

	return &ElevenLabs{
		cfg:      cfg,
		client:   &http.Client{Timeout: timeout},
		maxAudio: maxOutputSize,
	}, nil
}

// Name implements tts.Synthesizer.
func (e *ElevenLabs) Name() string {
	return fmt.Sprintf("elevenlabs:%s/%s", e.cfg.VoiceID, e.cfg.ModelID)
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
	SSML          bool          `json:"ssml,omitempty"`
}

func (e *ElevenLabs) payload(req tts.Request) elevenLabsRequest {
	body := elevenLabsRequest{
		Text:    req.Text,
		ModelID: e.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       e.cfg.Stability,
			SimilarityBoost: e.cfg.SimilarityBoost,
			Style:           e.cfg.Style,
			UseSpeakerBoost: e.cfg.SpeakerBoost,
		},
	}
	if req.Speed != 0 && req.Speed != 1.0 {
		body.Text = tts.WrapProsody(req.Text, req.Speed)
		body.SSML = true
	}
	return body
}

// Synthesize posts one request and returns the MP3 body.
func (e *ElevenLabs) Synthesize(ctx context.Context, req tts.Request) (*tts.Clip, error) {
	if req.Text == "" {
		return nil, tts.NewBackendError("elevenlabs", "empty request", tts.ErrEmptyText)
	}

	body, err := json.Marshal(e.payload(req))
	if err != nil {
		return nil, tts.NewBackendError("elevenlabs", "encode request", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream",
		strings.TrimRight(e.cfg.BaseURL, "/"), url.PathEscape(e.cfg.VoiceID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, tts.NewBackendError("elevenlabs", "build request", err)
	}
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.cfg.APIKey)

	started := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, tts.NewBackendError("elevenlabs", "request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &tts.BackendError{
			Backend: "elevenlabs",
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, e.maxAudio+1))
	if err != nil {
		return nil, tts.NewBackendError("elevenlabs", "read response", err)
	}
	if int64(len(audio)) > e.maxAudio {
		return nil, tts.NewBackendError("elevenlabs", fmt.Sprintf("audio response too large (max %d bytes)", e.maxAudio), nil)
	}
	if len(audio) == 0 {
		return nil, tts.NewBackendError("elevenlabs", "empty audio response", nil)
	}

	log.Debug("elevenlabs synthesis", "bytes", len(audio), "took", time.Since(started), "ssml", req.Speed != 1.0)
	return &tts.Clip{Audio: audio, Format: tts.FormatMP3}, nil
}

// Close implements tts.Synthesizer.
func (e *ElevenLabs) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

var _ tts.Synthesizer = (*ElevenLabs)(nil)
