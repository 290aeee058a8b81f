// Command replay analyses recorded sessions offline. A recording is the JSON
// document accepted by POST /analyses with raw estimator samples; the analysis
// is written to stdout and logs go to stderr.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/posecoach/internal/adapters/enrich"
	"github.com/okian/posecoach/internal/adapters/replay"
	app "github.com/okian/posecoach/internal/app"
	"github.com/okian/posecoach/internal/config"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/transcript"
	"github.com/okian/posecoach/internal/sampler"
	"github.com/okian/posecoach/pkg/logger"
)

const modeFrames = "frames"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	verbose bool
	mode    string
	speed   float64
	enrich  bool
	pretty  bool
}

func newRootCmd() *cobra.Command {
	var o options
	root := &cobra.Command{
		Use:          "replay",
		Short:        "Analyse recorded presentation sessions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithWriter(cmd.ErrOrStderr()); err != nil {
				return err
			}
			if o.verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	analyze := &cobra.Command{
		Use:   "analyze <recording.json>",
		Short: "Run the analysis over a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args[0], o)
		},
	}
	analyze.Flags().StringVar(&o.mode, "mode", "auto", "auto, seek, realtime or frames")
	analyze.Flags().Float64Var(&o.speed, "speed", 1, "playback speed in realtime mode")
	analyze.Flags().BoolVar(&o.enrich, "enrich", false, "request narrative feedback when a key is configured")
	analyze.Flags().BoolVar(&o.pretty, "pretty", true, "indent the JSON output")

	var duration float64
	beats := &cobra.Command{
		Use:   "beats <transcript.txt>",
		Short: "Print transcript lines with the timecode they align to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return printBeats(cmd.OutOrStdout(), string(raw), duration)
		},
	}
	beats.Flags().Float64Var(&duration, "duration", 0, "session length in seconds")
	_ = beats.MarkFlagRequired("duration")

	root.AddCommand(analyze, beats)
	return root
}

func runAnalyze(ctx context.Context, out io.Writer, path string, o options) error {
	log := logger.Get().Named("replay")

	if _, err := config.LoadDotEnv(); err != nil {
		log.Warn(ctx, "dotenv ignored", logger.Error(err))
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	rec, err := replay.Load(path)
	if err != nil {
		return err
	}

	opts, err := serviceOptions(cfg, o)
	if err != nil {
		return err
	}
	if o.enrich && cfg.EnrichEnabled() {
		e, err := enrich.NewOpenAI(
			enrich.WithAPIKey(cfg.EnrichAPIKey),
			enrich.WithBaseURL(cfg.EnrichBaseURL),
			enrich.WithModel(cfg.EnrichModel),
			enrich.WithMaxTokens(cfg.EnrichMaxTokens),
			enrich.WithTranscriptBudget(cfg.EnrichTranscriptBudget),
			enrich.WithLogger(log.Named("enrich")),
		)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithEnricher(e, cfg.EnrichTimeout()))
	} else if o.enrich {
		log.Warn(ctx, "enrichment requested without an API key")
	}
	svc := app.New(opts...)

	log.Info(ctx, "analysing recording",
		logger.String("path", path),
		logger.String("mode", o.mode),
		logger.Int("samples", len(rec.Samples)),
		logger.Float64("duration", rec.DurationSeconds),
	)

	var a model.Analysis
	if o.mode == modeFrames {
		a, err = svc.AnalyzeSession(ctx, app.SessionRequest{
			Session:    sessionOf(rec),
			Transcript: rec.Transcript,
			Enrich:     o.enrich,
		})
	} else {
		var mopts []replay.MediaOption
		if o.mode == string(sampler.ModeRealtime) {
			mopts = append(mopts, replay.Live(o.speed))
		}
		a, err = svc.Analyze(ctx, app.MediaRequest{
			Media:      replay.NewMedia(rec, mopts...),
			Estimator:  replay.NewEstimator(rec, 0),
			Transcript: rec.Transcript,
			Enrich:     o.enrich,
		})
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if o.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(a)
}

// serviceOptions maps configuration and flags onto the analysis service.
// Realtime replays faster than wall clock need a proportionally faster
// sampling clock to keep the same density of frames per media second.
func serviceOptions(cfg *config.Config, o options) ([]app.Option, error) {
	opts := []app.Option{
		app.WithLogger(logger.Get().Named("service")),
		app.WithThresholds(cfg.Thresholds()),
		app.WithSlopes(cfg.Slopes()),
		app.WithSampleRate(cfg.SampleRate),
		app.WithMinSeconds(cfg.MinSeconds),
		app.WithDebounce(cfg.DebounceSeconds),
		app.WithTopK(cfg.TopK),
		app.WithConfidence(cfg.HandConfidence, cfg.LandmarkConfidence),
	}
	if o.mode == modeFrames {
		return opts, nil
	}
	mode, err := sampler.ParseMode(o.mode)
	if err != nil {
		return nil, err
	}
	sopts := []sampler.Option{
		sampler.WithMode(mode),
		sampler.WithMinSamples(cfg.MinSamples),
		sampler.WithSeekMargin(cfg.SeekMargin),
		sampler.WithFrameTimeout(cfg.FrameTimeout()),
	}
	if mode == sampler.ModeRealtime && o.speed > 0 {
		sopts = append(sopts, sampler.WithRate(cfg.SampleRate*o.speed))
	}
	return append(opts, app.WithSampling(sopts...)), nil
}

func sessionOf(rec *replay.Recording) model.Session {
	return model.Session{DurationSeconds: rec.DurationSeconds, Frames: rec.Frames()}
}

func printBeats(w io.Writer, text string, duration float64) error {
	lines := transcript.Split(text)
	if len(lines) == 0 {
		return fmt.Errorf("transcript has no lines")
	}
	step := duration / float64(len(lines))
	for i, line := range lines {
		if _, err := fmt.Fprintf(w, "%s  %s\n", transcript.Timecode(float64(i)*step), line); err != nil {
			return err
		}
	}
	return nil
}
