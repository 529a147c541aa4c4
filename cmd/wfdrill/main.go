// Package main provides the CLI entrypoint for wfdrill.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/wfdrill/internal/config"
	"github.com/verte-zerg/wfdrill/internal/logging"
	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/question"
	"github.com/verte-zerg/wfdrill/internal/table"
	"github.com/verte-zerg/wfdrill/internal/tts"
)

const (
	defaultInputDir        = "./input"
	defaultOutputDir       = "./output"
	defaultAudioDir        = "./wfd_mp3"
	defaultLogDir          = "./wfd_logs"
	defaultIngestDelimiter = "|"
	defaultVoiceModel      = "tts-1"
	defaultVoice           = "alloy"
	defaultVoiceLanguage   = "en-US"
	defaultVoiceFormat     = "mp3"
	defaultVoiceSpeed      = 1.2
	defaultPlayerCommand   = "ffplay"
	defaultPlayerArgs      = "-autoexit -nodisp -loglevel quiet"
	defaultWrongThreshold  = 1
	defaultCurveWindow     = 5
	defaultStatsTop        = 10

	minVoiceSpeed = 0.25
	maxVoiceSpeed = 4.0
)

var (
	logLevel string

	pathInputDir  string
	pathOutputDir string
	pathAudioDir  string
	pathLogDir    string

	tableContentColumn   string
	tableIngestDelimiter string
	tableEncoding        string

	voiceModel    = defaultVoiceModel
	voiceName     = defaultVoice
	voiceLanguage = defaultVoiceLanguage
	voiceFormat   = defaultVoiceFormat
	voiceSpeed    = defaultVoiceSpeed

	playerCommand = defaultPlayerCommand
	playerArgs    = defaultPlayerArgs

	reviewWrongThreshold = defaultWrongThreshold

	logger = zap.NewNop()
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wfdrill",
		Short:         "Write From Dictation practice trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			l, err := logging.NewStderr(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			// Stderr sync fails on some terminals; nothing to recover.
			_ = logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", logging.DefaultLevel, "diagnostics log level (debug, info, warn, error)")
	flags.StringVar(&pathInputDir, "input-dir", defaultInputDir, "directory for raw sources and datasets given by bare name")
	flags.StringVar(&pathOutputDir, "output-dir", defaultOutputDir, "directory for outputs given by bare name")
	flags.StringVar(&pathAudioDir, "audio-dir", defaultAudioDir, "audio cache directory")
	flags.StringVar(&pathLogDir, "log-dir", defaultLogDir, "session transcript directory")
	flags.StringVar(&tableContentColumn, "content-column", table.DefaultContentColumn, "header of the question text column")
	flags.StringVar(&tableIngestDelimiter, "ingest-delimiter", defaultIngestDelimiter, "field delimiter of raw sources")
	flags.StringVar(&tableEncoding, "encoding", table.EncodingUTF8, "file encoding (utf-8 or gbk)")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newSynthCmd())
	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadConfig merges the config file into flag values that were not set on
// the command line and returns the validated settings.
func loadConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "input-dir", &pathInputDir, fileCfg.Paths.InputDir)
	applyStringConfig(cmd, "output-dir", &pathOutputDir, fileCfg.Paths.OutputDir)
	applyStringConfig(cmd, "audio-dir", &pathAudioDir, fileCfg.Paths.AudioDir)
	applyStringConfig(cmd, "log-dir", &pathLogDir, fileCfg.Paths.LogDir)
	applyStringConfig(cmd, "content-column", &tableContentColumn, fileCfg.Table.ContentColumn)
	applyStringConfig(cmd, "ingest-delimiter", &tableIngestDelimiter, fileCfg.Table.IngestDelimiter)
	applyStringConfig(cmd, "encoding", &tableEncoding, fileCfg.Table.Encoding)
	applyStringConfig(cmd, "model", &voiceModel, fileCfg.Voice.Model)
	applyStringConfig(cmd, "voice", &voiceName, fileCfg.Voice.Voice)
	applyStringConfig(cmd, "language", &voiceLanguage, fileCfg.Voice.Language)
	applyStringConfig(cmd, "format", &voiceFormat, fileCfg.Voice.Format)
	applyFloatConfig(cmd, "speed", &voiceSpeed, fileCfg.Voice.Speed)
	applyStringConfig(cmd, "player", &playerCommand, fileCfg.Player.Command)
	applyStringConfig(cmd, "player-args", &playerArgs, fileCfg.Player.Args)
	applyIntConfig(cmd, "wrong-threshold", &reviewWrongThreshold, fileCfg.Review.WrongThreshold)

	cfg := model.Config{
		InputDir:        pathInputDir,
		OutputDir:       pathOutputDir,
		AudioDir:        pathAudioDir,
		LogDir:          pathLogDir,
		ContentColumn:   tableContentColumn,
		IngestDelimiter: tableIngestDelimiter,
		Encoding:        tableEncoding,
		Voice: model.VoiceConfig{
			Model:    voiceModel,
			Voice:    voiceName,
			Language: voiceLanguage,
			Format:   voiceFormat,
			Speed:    voiceSpeed,
		},
		PlayerCommand:  playerCommand,
		PlayerArgs:     playerArgs,
		WrongThreshold: reviewWrongThreshold,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func tableOptions(cfg model.Config) table.Options {
	delim, _ := utf8.DecodeRuneInString(cfg.IngestDelimiter)
	return table.Options{
		ContentColumn:   cfg.ContentColumn,
		IngestDelimiter: delim,
		Encoding:        cfg.Encoding,
		AudioRef:        question.AudioRefIn(cfg.AudioDir, cfg.Voice.Format),
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# wfdrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[paths]
# input-dir = %q        # Raw sources and datasets given by bare name
# output-dir = %q      # Outputs given by bare name
# audio-dir = %q      # Audio cache
# log-dir = %q       # Session transcripts

[table]
# content-column = %q
# ingest-delimiter = %q          # Field delimiter of raw sources
# encoding = %q              # utf-8 or gbk

[voice]
# model = %q
# voice = %q
# language = %q
# format = %q                  # mp3, opus, aac, flac, wav or pcm
# speed = %.1f                     # %.2f to %.1f

[player]
# command = %q
# args = %q

[review]
# wrong-threshold = %d             # Minimum wrong count reviewed by --wrong
`,
		defaultInputDir,
		defaultOutputDir,
		defaultAudioDir,
		defaultLogDir,
		table.DefaultContentColumn,
		defaultIngestDelimiter,
		table.EncodingUTF8,
		defaultVoiceModel,
		defaultVoice,
		defaultVoiceLanguage,
		defaultVoiceFormat,
		defaultVoiceSpeed,
		minVoiceSpeed,
		maxVoiceSpeed,
		defaultPlayerCommand,
		defaultPlayerArgs,
		defaultWrongThreshold,
	)
}

func validateConfig(cfg model.Config) error {
	if utf8.RuneCountInString(cfg.IngestDelimiter) != 1 {
		return fmt.Errorf("--ingest-delimiter must be a single character")
	}
	if strings.TrimSpace(cfg.PlayerCommand) == "" {
		return fmt.Errorf("--player must not be empty")
	}
	if !table.ValidEncoding(cfg.Encoding) {
		return fmt.Errorf("--encoding must be %s or %s", table.EncodingUTF8, table.EncodingGBK)
	}
	if strings.TrimSpace(cfg.ContentColumn) == "" {
		return fmt.Errorf("--content-column must not be empty")
	}
	if cfg.Voice.Speed < minVoiceSpeed || cfg.Voice.Speed > maxVoiceSpeed {
		return fmt.Errorf("--speed must be between %.2f and %.1f", minVoiceSpeed, maxVoiceSpeed)
	}
	if !tts.ValidFormat(cfg.Voice.Format) {
		return fmt.Errorf("--format must be one of %s", strings.Join(tts.Formats, ", "))
	}
	if cfg.WrongThreshold < 1 {
		return fmt.Errorf("--wrong-threshold must be >= 1")
	}
	return nil
}

func resolveInput(cfg model.Config, name string) string {
	return config.ResolvePath(cfg.InputDir, name)
}

func resolveOutput(cfg model.Config, name string) string {
	return config.ResolvePath(cfg.OutputDir, name)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
