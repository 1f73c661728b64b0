package tts

import (
	"fmt"
	"strings"
	"time"
)

// EngineType represents the TTS backend selection
type EngineType string

const (
	// EngineGTTS is the free Google Translate voice driven through gtts-cli
	EngineGTTS EngineType = "gtts"

	// EngineElevenLabs is the premium ElevenLabs streaming API
	EngineElevenLabs EngineType = "elevenlabs"

	// EnginePiper is the local Piper voice
	EnginePiper EngineType = "piper"

	// EngineGoogle is Google Cloud Text-to-Speech
	EngineGoogle EngineType = "google"

	// EngineMock generates tones instead of speech
	EngineMock EngineType = "mock"

	// EngineNone represents no engine selected
	EngineNone EngineType = ""
)

// Engines lists every selectable backend in display order.
var Engines = []EngineType{EngineGTTS, EngineElevenLabs, EnginePiper, EngineGoogle, EngineMock}

// ParseEngineType normalizes a user supplied backend name.
func ParseEngineType(name string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return EngineNone, ErrNoEngineConfigured
	case "gtts", "free":
		return EngineGTTS, nil
	case "elevenlabs", "eleven", "premium":
		return EngineElevenLabs, nil
	case "piper", "local":
		return EnginePiper, nil
	case "google", "gcloud":
		return EngineGoogle, nil
	case "mock":
		return EngineMock, nil
	default:
		return EngineNone, fmt.Errorf("%w: %q", ErrInvalidEngine, name)
	}
}

// Online reports whether the backend needs network access.
func (e EngineType) Online() bool {
	switch e {
	case EngineGTTS, EngineElevenLabs, EngineGoogle:
		return true
	default:
		return false
	}
}

// AudioFormat identifies how Clip.Audio is encoded.
type AudioFormat string

const (
	// FormatMP3 is an MPEG layer 3 stream
	FormatMP3 AudioFormat = "mp3"

	// FormatWAV is a RIFF/WAVE container
	FormatWAV AudioFormat = "wav"

	// FormatPCM is headerless signed 16-bit little-endian samples
	FormatPCM AudioFormat = "pcm_s16le"
)

// Request is a single synthesis call.
type Request struct {
	// Text is the spoken text of one cue.
	Text string

	// Speed is the requested speaking rate multiplier, 1.0 or more.
	Speed float64
}

// Clip is encoded speech returned by a backend.
type Clip struct {
	Audio  []byte
	Format AudioFormat

	// SampleRate and Channels describe FormatPCM payloads. They are ignored
	// for self-describing containers.
	SampleRate int
	Channels   int
}

// Size returns the encoded payload size in bytes.
func (c *Clip) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Audio)
}

const (
	// DefaultTimeout bounds a single synthesis call.
	DefaultTimeout = 120 * time.Second

	// MinNetworkTimeout is the smallest per-call timeout accepted for
	// network backends.
	MinNetworkTimeout = 60 * time.Second
)
