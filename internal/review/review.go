// Package review runs interactive dictation sessions over a dataset.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/wfdrill/internal/grading"
	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/player"
)

// Reserved answers. They are matched exactly and never graded.
const (
	SentinelExit   = "exit"
	SentinelRepeat = "repeat"
)

// DateLayout is the format of recorded wrong dates.
const DateLayout = "2006-01-02"

const (
	answerPrompt   = "Enter Sentence You heard: "
	continuePrompt = "Press Enter to Continue"
)

// Console is the interactive terminal used by a session.
type Console interface {
	ReadLine(prompt string) (string, error)
	Printf(format string, args ...any)
	Println(args ...any)
	Header(format string, args ...any)
	Wrong(format string, args ...any)
	Right(format string, args ...any)
}

// Saver persists the whole dataset.
type Saver interface {
	Save(ds *model.Dataset) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ds *model.Dataset) error

// Save implements Saver.
func (f SaverFunc) Save(ds *model.Dataset) error {
	return f(ds)
}

// Journal stores finished sessions and their attempts.
type Journal interface {
	InsertSession(ctx context.Context, stats model.SessionStats, attempts []model.AttemptStats) error
}

// Session holds everything a review run mutates or talks to.
type Session struct {
	Dataset *model.Dataset
	Player  player.Player
	Console Console
	Saver   Saver
	// Journal is optional; failures to write it are logged only.
	Journal Journal
	Logger  *zap.Logger
	// Name labels the dataset in the journal and in the save message.
	Name string
	Now  func() time.Time
}

// Result summarizes a finished session.
type Result struct {
	ID string
	// Graded counts graded attempts; repeats and an aborted question are not counted.
	Graded     int
	Correct    int
	Terminated bool
}

// Run reviews the selected records. The dataset is saved when the selection
// is exhausted or the user exits, and also when input fails.
func (s *Session) Run(ctx context.Context, sel Selection) (Result, error) {
	targets, err := sel.Resolve(s.Dataset)
	if err != nil {
		return Result{}, err
	}
	logger := s.logger()
	now := s.clock()

	result := Result{ID: uuid.NewString()}
	startedAt := now()
	var attempts []model.AttemptStats
	var runErr error

	for _, rec := range targets {
		if ctx.Err() != nil {
			result.Terminated = true
			break
		}
		s.Console.Header("WFD Question Number %d", rec.DisplayIndex)
		answer, exit, err := s.ask(ctx, rec)
		if err != nil {
			result.Terminated = true
			if !errors.Is(err, io.EOF) {
				runErr = fmt.Errorf("failed to read answer: %w", err)
			}
			break
		}
		if exit {
			result.Terminated = true
			break
		}

		attemptedAt := now()
		verdict := grading.Grade(rec.Content, answer)
		Apply(rec, verdict, attemptedAt.Format(DateLayout))
		result.Graded++
		attempts = append(attempts, model.AttemptStats{
			Fingerprint: rec.Fingerprint,
			Content:     rec.Content,
			AttemptedAt: attemptedAt,
			Correct:     verdict.Correct,
			Input:       verdict.Input,
		})
		if verdict.Correct {
			result.Correct++
			s.Console.Right("Correct")
			continue
		}
		s.Console.Println(verdict.Input)
		s.Console.Wrong("Wrong Answer, answer is: %s", rec.Content)
		if len(verdict.Missing) > 0 {
			s.Console.Printf("Missing: %s\n", strings.Join(verdict.Missing, " "))
		}
		for _, m := range verdict.Misspelled {
			s.Console.Printf("Check spelling: %s (you typed %s)\n", m.Want, m.Got)
		}
		if _, err := s.Console.ReadLine(continuePrompt); err != nil {
			result.Terminated = true
			if !errors.Is(err, io.EOF) {
				runErr = fmt.Errorf("failed to read acknowledgment: %w", err)
			}
			break
		}
	}

	if err := s.Saver.Save(s.Dataset); err != nil {
		return result, fmt.Errorf("failed to save results: %w", err)
	}
	if s.Name != "" {
		s.Console.Printf("Result Saved to %s\n", s.Name)
	}
	s.Console.Printf("Reviewed %d Questions\n", result.Graded)

	if s.Journal != nil {
		stats := model.SessionStats{
			ID:         result.ID,
			StartedAt:  startedAt,
			EndedAt:    now(),
			Dataset:    s.Name,
			Mode:       sel.String(),
			Graded:     result.Graded,
			Correct:    result.Correct,
			Terminated: result.Terminated,
		}
		if err := s.Journal.InsertSession(context.WithoutCancel(ctx), stats, attempts); err != nil {
			logger.Warn("failed to write review journal", zap.Error(err))
		}
	}
	return result, runErr
}

// ask plays the question and reads an answer, replaying on "repeat".
func (s *Session) ask(ctx context.Context, rec *model.QuestionRecord) (answer string, exit bool, err error) {
	for {
		s.play(ctx, rec)
		line, err := s.Console.ReadLine(answerPrompt)
		if err != nil {
			return "", false, err
		}
		switch line {
		case SentinelExit:
			return "", true, nil
		case SentinelRepeat:
			continue
		default:
			return line, false, nil
		}
	}
}

func (s *Session) play(ctx context.Context, rec *model.QuestionRecord) {
	if s.Player == nil {
		return
	}
	if err := s.Player.Play(ctx, rec.AudioRef); err != nil {
		s.Console.Wrong("Error playing audio: %v", err)
		s.logger().Warn("playback failed", zap.String("fingerprint", rec.Fingerprint), zap.Error(err))
	}
}

func (s *Session) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Session) clock() func() time.Time {
	if s.Now == nil {
		return time.Now
	}
	return s.Now
}

// Apply records a graded attempt on rec.
func Apply(rec *model.QuestionRecord, verdict grading.Verdict, date string) {
	rec.ReviewedCount++
	if verdict.Correct {
		return
	}
	rec.WrongCount++
	rec.WrongDates = append(rec.WrongDates, date)
	rec.WrongRecords = append(rec.WrongRecords, verdict.Input)
}
