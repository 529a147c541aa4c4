// Package grading scores dictation answers with a word-coverage rule.
package grading

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/verte-zerg/wfdrill/internal/question"
)

// similarThreshold is the Jaro-Winkler score above which an extra answer word
// is reported as a likely misspelling of a missing word.
const similarThreshold = 0.85

// WordCounts is a word multiset.
type WordCounts map[string]int

// Count normalizes text and returns its word multiset.
// Punctuation is removed and case folded before splitting on whitespace.
func Count(text string) WordCounts {
	counts := WordCounts{}
	normalized := strings.ToLower(question.StripPunctuation(text))
	for _, word := range strings.Fields(normalized) {
		counts[word]++
	}
	return counts
}

// Verdict is the result of grading one answer.
type Verdict struct {
	Correct bool
	// Input is the raw answer as typed.
	Input string
	// Missing lists reference words the answer did not cover, sorted.
	Missing []string
	// Misspelled pairs missing words with similar extra words from the answer.
	// It is informational and never affects Correct.
	Misspelled []Misspelling
}

// Misspelling is a missing reference word and the answer word closest to it.
type Misspelling struct {
	Want string
	Got  string
}

// Grade reports whether transcription covers every word of reference at
// least as many times as it occurs there. Extra words are allowed.
func Grade(reference, transcription string) Verdict {
	want := Count(reference)
	got := Count(transcription)
	var missing []string
	for word, n := range want {
		if got[word] < n {
			missing = append(missing, word)
		}
	}
	sort.Strings(missing)
	return Verdict{
		Correct:    len(missing) == 0,
		Input:      transcription,
		Missing:    missing,
		Misspelled: misspellings(missing, want, got),
	}
}

func misspellings(missing []string, want, got WordCounts) []Misspelling {
	if len(missing) == 0 {
		return nil
	}
	var extra []string
	for word, n := range got {
		if n > want[word] {
			extra = append(extra, word)
		}
	}
	sort.Strings(extra)
	var out []Misspelling
	used := map[string]bool{}
	for _, word := range missing {
		best, bestScore := "", 0.0
		for _, candidate := range extra {
			if used[candidate] {
				continue
			}
			if score := matchr.JaroWinkler(word, candidate, false); score > bestScore {
				best, bestScore = candidate, score
			}
		}
		if best != "" && bestScore >= similarThreshold {
			used[best] = true
			out = append(out, Misspelling{Want: word, Got: best})
		}
	}
	return out
}
