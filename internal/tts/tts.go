// Package tts renders question audio through a speech-synthesis backend and
// caches the result on disk.
package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/wfdrill/internal/model"
)

// Synthesizer turns text into encoded audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice model.VoiceConfig) ([]byte, error)
}

// Formats lists the recognized output encodings.
var Formats = []string{"mp3", "opus", "aac", "flac", "wav", "pcm"}

// ValidFormat reports whether format is a recognized output encoding.
func ValidFormat(format string) bool {
	for _, f := range Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// Failure records a record whose audio could not be produced.
type Failure struct {
	Fingerprint string
	Err         error
}

// Report summarizes a synthesis pass.
type Report struct {
	Generated int
	Skipped   int
	Failures  []Failure
}

// SynthesizeMissing renders audio for every record whose audio file does not
// exist yet, running up to jobs requests at once. Records with cached audio
// are skipped. A failing record is logged and left without audio so the next
// pass retries it. Failures are reported in dataset order.
func SynthesizeMissing(ctx context.Context, ds *model.Dataset, synth Synthesizer, voice model.VoiceConfig, jobs int, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if jobs < 1 {
		jobs = 1
	}
	var report Report
	var pending []*model.QuestionRecord
	for _, rec := range ds.Records {
		if rec.AudioRef == "" {
			report.Failures = append(report.Failures, Failure{Fingerprint: rec.Fingerprint, Err: errors.New("record has no audio reference")})
			continue
		}
		if _, err := os.Stat(rec.AudioRef); err == nil {
			report.Skipped++
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return report, fmt.Errorf("failed to stat audio %s: %w", rec.AudioRef, err)
		}
		pending = append(pending, rec)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	errs := make([]error, len(pending))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, rec := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := synthesizeOne(gctx, rec, synth, voice)
			if err != nil {
				logger.Warn("synthesis failed", zap.String("fingerprint", rec.Fingerprint), zap.Error(err))
				errs[i] = err
				return nil
			}
			logger.Info("audio generated", zap.String("fingerprint", rec.Fingerprint), zap.String("content", rec.Content))
			mu.Lock()
			report.Generated++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	for i, err := range errs {
		if err != nil {
			report.Failures = append(report.Failures, Failure{Fingerprint: pending[i].Fingerprint, Err: err})
		}
	}
	return report, nil
}

func synthesizeOne(ctx context.Context, rec *model.QuestionRecord, synth Synthesizer, voice model.VoiceConfig) error {
	audio, err := synth.Synthesize(ctx, rec.Content, voice)
	if err != nil {
		return err
	}
	if len(audio) == 0 {
		return errors.New("empty audio response")
	}
	return writeAudio(rec.AudioRef, audio)
}

func writeAudio(path string, audio []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create audio dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "audio-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp audio: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(audio); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close audio: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move audio into cache: %w", err)
	}
	return nil
}
