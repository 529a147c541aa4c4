package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/wfdrill/internal/config"
	"github.com/verte-zerg/wfdrill/internal/console"
	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/player"
	"github.com/verte-zerg/wfdrill/internal/review"
	"github.com/verte-zerg/wfdrill/internal/stats"
	"github.com/verte-zerg/wfdrill/internal/store"
	"github.com/verte-zerg/wfdrill/internal/table"
)

var (
	reviewData      string
	reviewOut       string
	reviewRange     string
	reviewIDs       string
	reviewWrong     bool
	reviewNoJournal bool

	statsSince       string
	statsLast        int
	statsTop         int
	statsCurveWindow int
)

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Run a dictation review session",
		Long: `Plays each selected question and grades the typed answer.
Type "repeat" to hear the question again or "exit" to stop and save.`,
		Args: cobra.NoArgs,
		RunE: runReviewCmd,
	}
	cmd.Flags().StringVar(&reviewData, "data", "", "dataset file")
	cmd.Flags().StringVar(&reviewOut, "out", "", "file to save results to (default: --data)")
	cmd.Flags().StringVar(&reviewRange, "range", "", "review question numbers A-B")
	cmd.Flags().StringVar(&reviewIDs, "ids", "", "comma-separated fingerprints to review")
	cmd.Flags().BoolVar(&reviewWrong, "wrong", false, "review questions answered wrong at least --wrong-threshold times")
	cmd.Flags().IntVar(&reviewWrongThreshold, "wrong-threshold", defaultWrongThreshold, "minimum wrong count for --wrong")
	cmd.Flags().StringVar(&playerCommand, "player", defaultPlayerCommand, "audio player command")
	cmd.Flags().StringVar(&playerArgs, "player-args", defaultPlayerArgs, "arguments passed to the player before the file")
	cmd.Flags().StringVar(&voiceFormat, "format", defaultVoiceFormat, "audio format of the cache")
	cmd.Flags().BoolVar(&reviewNoJournal, "no-journal", false, "do not record the session in the stats journal")
	_ = cmd.MarkFlagRequired("data")
	cmd.MarkFlagsMutuallyExclusive("range", "ids", "wrong")
	return cmd
}

func runReviewCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := tableOptions(cfg)
	dataPath := resolveInput(cfg, reviewData)
	outPath := dataPath
	if reviewOut != "" {
		outPath = resolveOutput(cfg, reviewOut)
	}
	ds, err := table.LoadDataset(dataPath, opts)
	if err != nil {
		return err
	}
	sel, err := reviewSelection(cfg, ds)
	if err != nil {
		return err
	}
	if missing := missingAudio(ds); len(missing) > 0 {
		logger.Warn("questions without cached audio; run wfdrill synth", zap.Int("count", len(missing)))
	}

	transcript, err := console.OpenTranscript(cfg.LogDir, time.Now())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := transcript.Close(); cerr != nil {
			logErrf("failed to close transcript: %v\n", cerr)
		}
	}()

	session := &review.Session{
		Dataset: ds,
		Player:  player.NewCommand(cfg.PlayerCommand, strings.Fields(cfg.PlayerArgs)),
		Console: console.New(os.Stdin, os.Stdout, transcript, console.IsTerminal(os.Stdout)),
		Saver: review.SaverFunc(func(ds *model.Dataset) error {
			return table.SaveDataset(outPath, ds, opts)
		}),
		Logger: logger,
		Name:   outPath,
	}
	if !reviewNoJournal {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			logger.Warn("review journal unavailable", zap.Error(err))
		} else {
			defer func() {
				if cerr := st.Close(); cerr != nil {
					logErrf("failed to close db: %v\n", cerr)
				}
			}()
			session.Journal = store.Journal{Store: st}
		}
	}

	result, err := session.Run(cmd.Context(), sel)
	if err != nil {
		return err
	}
	logger.Debug("review finished",
		zap.String("session", result.ID),
		zap.Int("graded", result.Graded),
		zap.Int("correct", result.Correct),
		zap.Bool("terminated", result.Terminated),
	)
	return nil
}

func reviewSelection(cfg model.Config, ds *model.Dataset) (review.Selection, error) {
	switch {
	case reviewRange != "":
		sel, err := review.ParseRange(reviewRange)
		if err != nil {
			return review.Selection{}, fmt.Errorf("invalid --range value: %w", err)
		}
		return sel, nil
	case reviewIDs != "":
		var fps []string
		for _, fp := range strings.Split(reviewIDs, ",") {
			if fp = strings.TrimSpace(fp); fp != "" {
				fps = append(fps, fp)
			}
		}
		if len(fps) == 0 {
			return review.Selection{}, fmt.Errorf("--ids must list at least one fingerprint")
		}
		return review.Fingerprints(fps...), nil
	case reviewWrong:
		return review.WrongAtLeast(ds, cfg.WrongThreshold), nil
	default:
		return review.All(), nil
	}
}

// missingAudio reports records whose cached audio file is absent.
func missingAudio(ds *model.Dataset) []string {
	var missing []string
	for _, rec := range ds.Records {
		if _, err := os.Stat(rec.AudioRef); errors.Is(err, os.ErrNotExist) {
			missing = append(missing, rec.Fingerprint)
		}
	}
	return missing
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show review stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsTop, "top", defaultStatsTop, "number of most-missed questions to show")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 || statsTop < 0 {
		return fmt.Errorf("--last and --top must be >= 0")
	}

	cfg := model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		Top:         statsTop,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build stats: %w", err)
	}
	return report.Render(cmd.OutOrStdout(), cfg.CurveWindow)
}
