package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/srtaudio/internal/audio"
)

var playVolume float64

var playCmd = &cobra.Command{
	Use:     "play file.srt|output.wav",
	Short:   "Play a finished conversion",
	Example: paragraph("srtaudio play talk.srt\nsrtaudio play ./episode-01/output_audio.wav"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveOutput(viper.GetViper(), args[0])
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to read output: %w", err)
		}
		tl, err := audio.DecodeTimeline(data)
		if err != nil {
			return fmt.Errorf("unable to decode %s: %w", path, err)
		}

		cfg := audio.DefaultPlayerConfig()
		cfg.Volume = playVolume
		player, err := audio.NewPlayer(cfg)
		if err != nil {
			return err //nolint:wrapcheck
		}
		defer player.Close() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		log.Debug("Playing", "path", path, "duration", tl.Duration())
		fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (%s)\n", filepath.Base(path), formatClock(tl.Duration()))
		if err := player.Play(ctx, tl.Streamer()); err != nil && ctx.Err() == nil {
			return err //nolint:wrapcheck
		}
		return nil
	},
}

// resolveOutput maps a subtitle file or directory to its output file.
func resolveOutput(v *viper.Viper, arg string) (string, error) {
	if strings.EqualFold(filepath.Ext(arg), ".wav") {
		return arg, nil
	}
	t, err := resolveTarget(v, arg)
	if err != nil {
		return "", err
	}
	return filepath.Join(t.dir, t.names.Output), nil
}

func init() {
	playCmd.Flags().Float64Var(&playVolume, "volume", 1.0, "playback volume between 0 and 1")
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
