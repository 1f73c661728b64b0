package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/srtaudio/internal/audio"
	"github.com/dgnsrekt/srtaudio/internal/checkpoint"
	"github.com/dgnsrekt/srtaudio/internal/job"
	"github.com/dgnsrekt/srtaudio/internal/tts"
	"github.com/dgnsrekt/srtaudio/internal/tts/engines"
	"github.com/dgnsrekt/srtaudio/ui"
	"github.com/dgnsrekt/srtaudio/utils"
)

const resumeHint = "progress saved, re-run to resume"

var convertCmd = &cobra.Command{
	Use:     "convert file.srt",
	Short:   "Convert a subtitle file into a narrated WAV track",
	Long:    paragraph(fmt.Sprintf("\n%s every cue and place it at its subtitle time. The track is checkpointed after each cue, so running the same command again resumes an interrupted conversion.", keyword("Synthesize"))),
	Example: paragraph("srtaudio convert talk.srt\nsrtaudio convert --engine piper --no-tui talk.srt"),
	Args:    cobra.ExactArgs(1),
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"srt"}, cobra.ShellCompDirectiveFilterFileExt
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args[0])
	},
}

// conversion is a fully resolved run.
type conversion struct {
	job    job.Config
	engine engines.Config
}

// prepare resolves and validates everything before any work starts.
func prepare(v *viper.Viper, input string) (conversion, error) {
	s, err := loadSettings(v)
	if err != nil {
		return conversion{}, err
	}
	jcfg, err := s.jobConfig(input)
	if err != nil {
		return conversion{}, err
	}
	if _, err := os.Stat(jcfg.Input); err != nil {
		return conversion{}, fmt.Errorf("unable to open subtitle file: %w", err)
	}
	if !utils.IsSubtitleFile(jcfg.Input) {
		log.Warn("Input does not have an .srt extension", "path", jcfg.Input)
	}

	creds, err := loadCredentials(filepath.Dir(jcfg.Input), ".")
	if err != nil {
		return conversion{}, err
	}
	ecfg, err := s.engineConfig(creds)
	if err != nil {
		return conversion{}, err
	}
	if err := tts.QuickValidation(ecfg.Engine, backendBinary(ecfg)); err != nil {
		return conversion{}, err
	}
	return conversion{job: jcfg, engine: ecfg}, nil
}

func backendBinary(cfg engines.Config) string {
	switch cfg.Engine {
	case tts.EngineGTTS:
		return cfg.GTTS.Binary
	case tts.EnginePiper:
		return cfg.Piper.Binary
	default:
		return ""
	}
}

func runConvert(cmd *cobra.Command, input string) error {
	conv, err := prepare(viper.GetViper(), input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	synth, err := engines.New(ctx, conv.engine)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer synth.Close() //nolint:errcheck

	log.Info("Starting conversion", "input", conv.job.Input, "backend", synth.Name())

	if term.IsTerminal(int(os.Stdout.Fd())) && !noTUI {
		return runTUI(conv, synth, cmd.ErrOrStderr())
	}
	return runPlain(ctx, conv.job, synth, cmd.ErrOrStderr())
}

func runTUI(conv conversion, synth tts.Synthesizer, w io.Writer) error {
	// Read environment to get display settings
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.Input = conv.job.Input
	cfg.Engine = synth.Name()
	cfg.AutoStart = true

	deps := ui.Deps{
		NewJob: func() (*job.Job, error) { return job.New(conv.job, synth) },
	}
	if player, err := audio.NewPlayer(audio.DefaultPlayerConfig()); err == nil {
		deps.Player = player
		defer player.Close() //nolint:errcheck
	} else {
		log.Debug("Audio preview disabled", "error", err)
	}

	if _, err := ui.NewProgram(cfg, deps).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	if st, err := checkpoint.Inspect(conv.job.Dir, conv.job.Names); err == nil && st.Resumable() && !st.OutputExists {
		fmt.Fprintln(w, resumeHint)
	}
	return nil
}

// runPlain logs progress events instead of drawing the TUI.
func runPlain(ctx context.Context, cfg job.Config, synth tts.Synthesizer, w io.Writer) error {
	j, err := job.New(cfg, synth)
	if err != nil {
		return err //nolint:wrapcheck
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          appName,
	})

	var resumable bool
	done := make(chan struct{})
	events := j.Events()
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Type == job.EventFailed {
				resumable = ev.Resumable
			}
			logEvent(logger, ev)
		}
	}()

	res, err := j.Run(ctx)
	<-done

	if err != nil {
		if resumable {
			fmt.Fprintln(w, resumeHint)
		}
		if errors.Is(err, context.Canceled) {
			return errors.New("conversion interrupted")
		}
		return err //nolint:wrapcheck
	}

	if res.Skipped {
		logger.Info("Output already exists, use --overwrite to convert again", "output", res.Output)
		return nil
	}
	size := ""
	if fi, err := os.Stat(res.Output); err == nil {
		size = humanize.Bytes(uint64(fi.Size())) //nolint:gosec
	}
	logger.Info("Saved", "output", res.Output, "duration", res.Duration.Round(time.Millisecond), "size", size)
	return nil
}

func logEvent(logger *log.Logger, ev job.Event) {
	switch ev.Type {
	case job.EventState:
		logger.Debug("State", "from", ev.Prev, "to", ev.State)
	case job.EventCue:
		c := ev.Cue
		kv := []any{
			"cue", fmt.Sprintf("%d/%d", c.Position+1, c.Total),
			"start", c.Start,
			"speed", fmt.Sprintf("%.2f", c.Speed),
		}
		if c.Factor > 1 {
			kv = append(kv, "fit", fmt.Sprintf("%.2f", c.Factor))
		}
		if c.Silent {
			kv = append(kv, "silent", true)
		}
		logger.Info("Cue", kv...)
	case job.EventWarning:
		logger.Warn(ev.Message)
	case job.EventFailed:
		logger.Error("Failed", "error", ev.Err)
	}
}
