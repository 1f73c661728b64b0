package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/srtaudio/internal/checkpoint"
	"github.com/dgnsrekt/srtaudio/internal/subtitle"
	"github.com/dgnsrekt/srtaudio/utils"
)

var statusCmd = &cobra.Command{
	Use:     "status file.srt|dir",
	Short:   "Show the checkpoint and output of a conversion",
	Example: paragraph("srtaudio status talk.srt\nsrtaudio status ./episode-01"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resolveTarget(viper.GetViper(), args[0])
		if err != nil {
			return err
		}
		st, err := checkpoint.Inspect(t.dir, t.names)
		if err != nil {
			return fmt.Errorf("unable to inspect %s: %w", t.dir, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderStatus(st, t.cues()))
		return nil
	},
}

// target is the job directory a command acts on.
type target struct {
	input string
	dir   string
	names checkpoint.Names
}

// resolveTarget accepts a subtitle file or a job directory.
func resolveTarget(v *viper.Viper, arg string) (target, error) {
	s, err := loadSettings(v)
	if err != nil {
		return target{}, err
	}
	path := utils.ExpandPath(arg)
	fi, err := os.Stat(path)
	if err != nil {
		return target{}, fmt.Errorf("unable to open %s: %w", arg, err)
	}

	t := target{names: s.names()}
	switch {
	case fi.IsDir():
		t.dir = path
	case s.Output.Dir != "":
		t.input, t.dir = path, s.Output.Dir
	default:
		t.input, t.dir = path, filepath.Dir(path)
	}
	return t, nil
}

// cues returns the cue count of the input, or -1 if unknown.
func (t target) cues() int {
	if t.input == "" {
		return -1
	}
	cues, err := subtitle.ParseFile(t.input)
	if err != nil {
		return -1
	}
	return len(cues)
}

func renderStatus(st checkpoint.Status, total int) string {
	progress := "-"
	switch {
	case st.ProgressExists && st.Next < 0:
		progress = "unreadable"
	case st.ProgressExists && total >= 0:
		progress = fmt.Sprintf("%d/%d cues", st.Next, total)
	case st.ProgressExists:
		progress = strconv.Itoa(st.Next) + " cues"
	}

	partial := "-"
	if st.PartialExists {
		partial = humanize.Bytes(uint64(st.PartialSize)) //nolint:gosec
		if st.PartialDuration > 0 {
			partial += " · " + st.PartialDuration.Round(time.Millisecond).String()
		}
	}
	output := "-"
	if st.OutputExists {
		output = humanize.Bytes(uint64(st.OutputSize)) //nolint:gosec
	}

	state := "idle"
	switch {
	case st.Locked:
		state = "running"
	case st.OutputExists && !st.PartialExists:
		state = "done"
	case st.Resumable():
		state = "resumable"
	case st.PartialExists || st.ProgressExists:
		state = "corrupt checkpoint"
	}

	rows := [][]string{
		{"Directory", st.Dir},
		{"State", state},
		{"Progress", progress},
		{"Partial", partial},
		{"Output", output},
	}
	return renderTable([]string{"", "Value"}, rows)
}
