package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/srtaudio/internal/checkpoint"
)

var resetOutput bool

var resetCmd = &cobra.Command{
	Use:     "reset file.srt|dir",
	Short:   "Discard the checkpoint so the next run starts from the first cue",
	Example: paragraph("srtaudio reset talk.srt\nsrtaudio reset --output talk.srt"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resolveTarget(viper.GetViper(), args[0])
		if err != nil {
			return err
		}

		m, err := checkpoint.Open(t.dir, t.names)
		if errors.Is(err, checkpoint.ErrLocked) {
			return fmt.Errorf("a conversion is running in %s", t.dir)
		}
		if err != nil {
			return err //nolint:wrapcheck
		}
		defer m.Close() //nolint:errcheck

		if err := m.Reset(); err != nil {
			return err //nolint:wrapcheck
		}
		if resetOutput {
			if err := os.Remove(m.OutputPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("unable to remove output: %w", err)
			}
		}

		log.Info("Checkpoint reset", "dir", t.dir, "output", resetOutput)
		fmt.Fprintln(cmd.OutOrStdout(), "Checkpoint removed from", t.dir)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetOutput, "output", false, "also remove the finished output")
}
