// Package stats contains review journal calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/wfdrill/internal/model"
)

const sparkChars = " .:-=+*#%@"

const contentColumnWidth = 60

// SessionAccuracy returns the fraction of graded attempts answered correctly.
func SessionAccuracy(s model.SessionStats) float64 {
	if s.Graded <= 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Graded)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[(len(sparkChars)-1)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals over the journal sessions.
func RenderSummary(w io.Writer, sessions []model.SessionStats) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var graded, correct, terminated int
	best := 0.0
	for _, s := range sessions {
		graded += s.Graded
		correct += s.Correct
		if s.Terminated {
			terminated++
		}
		if s.Graded > 0 {
			if acc := SessionAccuracy(s); acc > best {
				best = acc
			}
		}
	}
	overall := 0.0
	if graded > 0 {
		overall = float64(correct) / float64(graded)
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d (%d exited early)", len(sessions), terminated),
		fmt.Sprintf("Questions Reviewed: %d", graded),
		fmt.Sprintf("Correct: %d", correct),
		fmt.Sprintf("Accuracy: %.2f%%", overall*100),
		fmt.Sprintf("Best Session: %.2f%%", best*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurve prints the per-session accuracy as a smoothed sparkline.
func RenderCurve(w io.Writer, sessions []model.SessionStats, window int) error {
	if len(sessions) == 0 {
		return nil
	}
	accs := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		if s.Graded == 0 {
			continue
		}
		accs = append(accs, SessionAccuracy(s)*100)
	}
	if len(accs) == 0 {
		return nil
	}
	accs = MovingAverage(accs, window)
	if _, err := fmt.Fprintln(w, "Accuracy Curve"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[%s] %.0f%% -> %.0f%%\n\n", Sparkline(accs), accs[0], accs[len(accs)-1]); err != nil {
		return err
	}
	return nil
}

// RenderMissedTable prints the most-missed questions.
func RenderMissedTable(w io.Writer, aggs []model.QuestionAggregate, top int) error {
	missed := TopMissed(aggs, top)
	if len(missed) == 0 {
		_, err := fmt.Fprintln(w, "No missed questions found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Most Missed"); err != nil {
		return err
	}
	table := newTextTable(
		column{header: "Wrong", right: true},
		column{header: "Attempts", right: true},
		column{header: "Accuracy", right: true},
		column{header: "Fingerprint"},
		column{header: "Content", max: contentColumnWidth},
	)
	for _, agg := range missed {
		acc := 0.0
		if agg.Attempts > 0 {
			acc = float64(agg.Attempts-agg.Wrong) / float64(agg.Attempts)
		}
		fp := agg.Fingerprint
		if len(fp) > 8 {
			fp = fp[:8]
		}
		table.add(
			fmt.Sprintf("%d", agg.Wrong),
			fmt.Sprintf("%d", agg.Attempts),
			fmt.Sprintf("%.2f%%", acc*100),
			fp,
			agg.Content,
		)
	}
	return table.writeTo(w)
}
