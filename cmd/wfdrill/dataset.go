package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/reconcile"
	"github.com/verte-zerg/wfdrill/internal/table"
	"github.com/verte-zerg/wfdrill/internal/tts"
	"github.com/verte-zerg/wfdrill/internal/tts/openai"
	"github.com/verte-zerg/wfdrill/internal/tui"
)

const (
	apiKeyEnv  = "OPENAI_API_KEY"
	baseURLEnv = "OPENAI_BASE_URL"

	synthTimeout     = 60 * time.Second
	defaultSynthJobs = 4
)

var (
	initOut        string
	initForce      bool
	initAllowEmpty bool

	refreshData       string
	refreshOut        string
	refreshBackup     string
	refreshAllowEmpty bool

	synthData    string
	synthBaseURL string
	synthJobs    int

	listData string
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <raw-source>",
		Short: "Create a dataset from a raw question list",
		Args:  cobra.ExactArgs(1),
		RunE:  runInitCmd,
	}
	cmd.Flags().StringVar(&initOut, "out", "", "dataset file to create")
	cmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing dataset")
	cmd.Flags().BoolVar(&initAllowEmpty, "allow-empty", false, "accept a raw source without questions")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runInitCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := tableOptions(cfg)
	outPath := resolveOutput(cfg, initOut)
	if !initForce {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("%s already exists; use refresh or --force", outPath)
		}
	}
	items, err := loadRawSource(resolveInput(cfg, args[0]), opts, initAllowEmpty)
	if err != nil {
		return err
	}
	result := reconcile.Reconcile(&model.Dataset{}, items, opts.AudioRef)
	if err := table.SaveDataset(outPath, result.Dataset, opts); err != nil {
		return err
	}
	return printReconcile(cmd.OutOrStdout(), outPath, result)
}

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh <raw-source>",
		Short: "Rebuild a dataset from an updated raw list, keeping review history",
		Args:  cobra.ExactArgs(1),
		RunE:  runRefreshCmd,
	}
	cmd.Flags().StringVar(&refreshData, "data", "", "current dataset file")
	cmd.Flags().StringVar(&refreshOut, "out", "", "dataset file to write (default: --data)")
	cmd.Flags().StringVar(&refreshBackup, "backup", "", "write the current dataset here before refreshing")
	cmd.Flags().BoolVar(&refreshAllowEmpty, "allow-empty", false, "accept a raw source without questions (drops every record)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runRefreshCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := tableOptions(cfg)
	dataPath := resolveInput(cfg, refreshData)
	outPath := dataPath
	if refreshOut != "" {
		outPath = resolveOutput(cfg, refreshOut)
	}

	current, err := table.LoadDataset(dataPath, opts)
	if err != nil {
		return err
	}
	items, err := loadRawSource(resolveInput(cfg, args[0]), opts, refreshAllowEmpty)
	if err != nil {
		return err
	}
	if refreshBackup != "" {
		backupPath := resolveOutput(cfg, refreshBackup)
		if err := table.SaveDataset(backupPath, current, opts); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
		logger.Info("backup written", zap.String("path", backupPath))
	}

	result := reconcile.Reconcile(current, items, opts.AudioRef)
	if err := table.SaveDataset(outPath, result.Dataset, opts); err != nil {
		return err
	}
	return printReconcile(cmd.OutOrStdout(), outPath, result)
}

func loadRawSource(path string, opts table.Options, allowEmpty bool) ([]model.RawItem, error) {
	items, err := table.LoadRawItems(path, opts)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && !allowEmpty {
		return nil, fmt.Errorf("%s has no questions; pass --allow-empty to accept it", path)
	}
	return items, nil
}

func printReconcile(w io.Writer, path string, result reconcile.Result) error {
	lines := []string{
		fmt.Sprintf("Saved %d questions to %s", result.Dataset.Len(), path),
		fmt.Sprintf("Kept %d, added %d, dropped %d", result.Kept, result.Added, result.Dropped),
	}
	if len(result.Duplicates) > 0 {
		lines = append(lines, fmt.Sprintf("Skipped %d duplicate questions: %s", len(result.Duplicates), strings.Join(result.Duplicates, ", ")))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newSynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize audio for questions missing from the cache",
		Args:  cobra.NoArgs,
		RunE:  runSynthCmd,
	}
	cmd.Flags().StringVar(&synthData, "data", "", "dataset file")
	cmd.Flags().StringVar(&synthBaseURL, "base-url", "", "speech API base URL (default: $"+baseURLEnv+" or the OpenAI API)")
	cmd.Flags().IntVar(&synthJobs, "jobs", defaultSynthJobs, "concurrent synthesis requests")
	addVoiceFlags(cmd)
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func addVoiceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&voiceModel, "model", defaultVoiceModel, "speech model")
	cmd.Flags().StringVar(&voiceName, "voice", defaultVoice, "speech voice")
	cmd.Flags().StringVar(&voiceLanguage, "language", defaultVoiceLanguage, "speech language")
	cmd.Flags().StringVar(&voiceFormat, "format", defaultVoiceFormat, "audio format")
	cmd.Flags().Float64Var(&voiceSpeed, "speed", defaultVoiceSpeed, "speaking rate (0.25-4.0)")
}

func runSynthCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if synthJobs < 1 {
		return fmt.Errorf("--jobs must be >= 1")
	}
	apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv))
	if apiKey == "" {
		return fmt.Errorf("%s is not set", apiKeyEnv)
	}
	baseURL := synthBaseURL
	if baseURL == "" {
		baseURL = os.Getenv(baseURLEnv)
	}
	synth, err := openai.New(apiKey, openai.WithBaseURL(baseURL), openai.WithTimeout(synthTimeout))
	if err != nil {
		return err
	}

	opts := tableOptions(cfg)
	ds, err := table.LoadDataset(resolveInput(cfg, synthData), opts)
	if err != nil {
		return err
	}
	report, err := tts.SynthesizeMissing(cmd.Context(), ds, synth, cfg.Voice, synthJobs, logger)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Generated %d audio files, %d already cached\n", report.Generated, report.Skipped); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Failures) == 0 {
		return nil
	}
	for _, f := range report.Failures {
		logErrf("failed %s: %v\n", f.Fingerprint, f.Err)
	}
	return fmt.Errorf("%d questions could not be synthesized", len(report.Failures))
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse a dataset",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().StringVar(&listData, "data", "", "dataset file")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := resolveInput(cfg, listData)
	ds, err := table.LoadDataset(path, tableOptions(cfg))
	if err != nil {
		return err
	}
	program := tea.NewProgram(tui.NewModel(path, ds), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
