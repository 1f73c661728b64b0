// Package main provides the entry point for the srtaudio CLI application.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "srtaudio"

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	verbose    bool
	noTUI      bool

	rootCmd = &cobra.Command{
		Use:   "srtaudio [file.srt]",
		Short: "Turn subtitles into a timed voice-over track",
		Long: paragraph(
			fmt.Sprintf("\nTurn an SRT file into %s that lines up with the subtitle timeline. Interrupted runs resume where they stopped.", keyword("one narrated WAV track")),
		),
		Example:          paragraph("srtaudio talk.srt\nsrtaudio convert --engine elevenlabs talk.srt\nsrtaudio status talk.srt"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"srt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runConvert(cmd, args[0])
		},
	}
)

// validateOptions applies flags that must take effect before a command runs.
func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", configFile)
	}
	if verbose {
		logToStderr()
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also log to stderr")
	rootCmd.PersistentFlags().StringP("engine", "e", "", "speech backend: gtts, elevenlabs, piper, google or mock")
	rootCmd.PersistentFlags().Float64("max-speed", 0, "fastest speech rate requested from the backend")
	rootCmd.PersistentFlags().Int("lookahead", 0, "cues synthesized ahead of assembly")
	rootCmd.PersistentFlags().StringP("dir", "o", "", "directory for the output and checkpoint (default: beside the input)")
	rootCmd.PersistentFlags().Bool("overwrite", false, "convert again even if the output exists")
	rootCmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "print progress instead of running the TUI")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("max_speed", rootCmd.PersistentFlags().Lookup("max-speed"))
	_ = viper.BindPFlag("lookahead", rootCmd.PersistentFlags().Lookup("lookahead"))
	_ = viper.BindPFlag("output.dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("overwrite", rootCmd.PersistentFlags().Lookup("overwrite"))

	setDefaults(viper.GetViper())

	rootCmd.AddCommand(convertCmd, statusCmd, resetCmd, playCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	if c := os.Getenv("SRTAUDIO_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(appName)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	configFile = filepath.Join(dirs[0], appName+".yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
		return
	}
	viper.SetConfigFile(configFile)
	_ = viper.ReadInConfig()
}
