package tts

import (
	"fmt"
	"os/exec"
	"strings"
)

// ValidateEngineSelection resolves the backend to use. The CLI argument takes
// precedence over the configured value and one of them must be set.
func ValidateEngineSelection(cliArg, configured string) (EngineType, error) {
	name := strings.TrimSpace(cliArg)
	if name == "" {
		name = strings.TrimSpace(configured)
	}

	engine, err := ParseEngineType(name)
	if err != nil {
		return EngineNone, fmt.Errorf("%w\n\nSupported engines:\n  - gtts (free, online)\n  - elevenlabs (premium, API key)\n  - piper (local, offline)\n  - google (Google Cloud, credentials file)", err)
	}
	return engine, nil
}

// QuickValidation performs a fast availability check for backends that run
// an external program. Network backends are checked by their own config
// validation instead.
func QuickValidation(engine EngineType, binary string) error {
	switch engine {
	case EngineGTTS:
		if binary == "" {
			binary = "gtts-cli"
		}
		if _, err := exec.LookPath(binary); err != nil {
			return fmt.Errorf("gTTS not found: %w\n\n%s", err, Guidance(engine))
		}
		return nil

	case EnginePiper:
		if binary == "" {
			binary = "piper"
		}
		if _, err := exec.LookPath(binary); err != nil {
			return fmt.Errorf("Piper not found: %w\n\n%s", err, Guidance(engine))
		}
		return nil

	case EngineElevenLabs, EngineGoogle, EngineMock:
		return nil

	default:
		return ErrInvalidEngine
	}
}

// Guidance returns setup instructions for a backend.
func Guidance(engine EngineType) string {
	switch engine {
	case EngineGTTS:
		return `gTTS (Google Translate TTS) is not installed. To install:

   pip install gtts
   # or
   pipx install gtts

No API key is required, but an internet connection is.`

	case EnginePiper:
		return `Piper is not installed. Download a release from
https://github.com/rhasspy/piper/releases and a voice model from
https://github.com/rhasspy/piper/blob/master/VOICES.md, then set:

   piper:
     model_path: ~/.local/share/piper/models/en_US-amy-medium.onnx`

	case EngineElevenLabs:
		return `ElevenLabs needs an API key and a voice:

   export ELEVENLABS_API_KEY=...
   elevenlabs:
     voice_id: <voice id>
     model_id: eleven_multilingual_v2`

	case EngineGoogle:
		return `Google Cloud TTS needs application default credentials:

   export GOOGLE_APPLICATION_CREDENTIALS=~/keys/tts.json`

	default:
		return "Supported engines: gtts, elevenlabs, piper, google"
	}
}
