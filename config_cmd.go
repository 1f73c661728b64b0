package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speech backend: gtts, elevenlabs, piper, google or mock
engine: "gtts"
# fastest speech rate requested from the backend (at least 1.0)
max_speed: 1.5
# cues synthesized ahead of assembly
lookahead: 1
# convert again even if the output exists
overwrite: false
# report cues that start this much later than their subtitle
drift_warning: "250ms"

output:
  # directory for the output and checkpoint (default: beside the input)
  dir: ""
  name: "output_audio.wav"
  partial: "output_partial.wav"
  progress: "progress.txt"

# retry transient backend failures (0 stops the run at the first failed cue)
retry:
  max: 0
  backoff: "2s"

# requests per minute for online backends (0 uses the default)
requests_per_minute: 0

# synthesized cues are cached so re-runs are not billed twice
cache:
  enabled: true
  # dir: "~/.cache/srtaudio/speech"
  # size in MB
  max_size: 1024
  max_age: "720h"

# free Google Translate voice (gtts-cli)
gtts:
  binary: "gtts-cli"
  language: "en"
  # regional accent, e.g. "co.uk", "com.au", "co.in"
  tld: "com"
  timeout: "2m"

# ElevenLabs; the API key is read from ELEVENLABS_API_KEY
elevenlabs:
  voice_id: ""
  model_id: "eleven_flash_v2_5"
  stability: 0.5
  similarity_boost: 0.75
  style: 0.0
  speaker_boost: true
  timeout: "2m"

# local Piper voice
piper:
  binary: "piper"
  # model: "~/voices/en_US-lessac-medium.onnx"
  speaker_id: -1
  sample_rate: 22050
  timeout: "2m"

# Google Cloud; credentials from GOOGLE_APPLICATION_CREDENTIALS
google:
  language_code: "en-US"
  # voice_name: "en-US-Neural2-C"
  timeout: "2m"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the srtaudio config file",
	Long:    paragraph(fmt.Sprintf("\n%s the srtaudio config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("srtaudio config\nsrtaudio config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("srtaudio", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
