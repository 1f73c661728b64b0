package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Input is the subtitle file being converted.
	Input string

	// Engine is the display name of the synthesis backend.
	Engine string

	// AutoStart begins the conversion without waiting for a key press.
	AutoStart bool

	// LogLines is how many log lines the activity view keeps.
	LogLines int `env:"SRTAUDIO_LOG_LINES" envDefault:"200"`

	// AltScreen runs the TUI in the alternate screen buffer.
	AltScreen bool `env:"SRTAUDIO_ALT_SCREEN" envDefault:"true"`
}
