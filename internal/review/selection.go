package review

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/wfdrill/internal/model"
)

// ErrFingerprintNotFound is returned when a selected fingerprint is not in the dataset.
var ErrFingerprintNotFound = errors.New("fingerprint not found")

// ErrRangeOutOfBounds is returned for ranges outside 1..N.
var ErrRangeOutOfBounds = errors.New("range out of bounds")

type selectionKind int

const (
	selectAll selectionKind = iota
	selectRange
	selectFingerprints
)

// Selection picks which records a session reviews, and in which order.
type Selection struct {
	kind         selectionKind
	start, end   int
	fingerprints []string
	label        string
}

// All selects every record in display order.
func All() Selection {
	return Selection{kind: selectAll}
}

// Range selects display indices start..end, both inclusive.
func Range(start, end int) Selection {
	return Selection{kind: selectRange, start: start, end: end}
}

// Fingerprints selects records by fingerprint in the given order.
func Fingerprints(fps ...string) Selection {
	return Selection{kind: selectFingerprints, fingerprints: append([]string(nil), fps...)}
}

// WrongAtLeast selects records answered wrong at least threshold times,
// in their current dataset order.
func WrongAtLeast(ds *model.Dataset, threshold int) Selection {
	var fps []string
	for _, rec := range ds.Records {
		if rec.WrongCount >= threshold {
			fps = append(fps, rec.Fingerprint)
		}
	}
	sel := Fingerprints(fps...)
	sel.label = fmt.Sprintf("wrong>=%d", threshold)
	return sel
}

// ParseRange parses "A-B" or a single index "A".
func ParseRange(value string) (Selection, error) {
	value = strings.TrimSpace(value)
	startText, endText, found := strings.Cut(value, "-")
	if !found {
		endText = startText
	}
	start, err := strconv.Atoi(strings.TrimSpace(startText))
	if err != nil {
		return Selection{}, fmt.Errorf("invalid range start %q", startText)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endText))
	if err != nil {
		return Selection{}, fmt.Errorf("invalid range end %q", endText)
	}
	return Range(start, end), nil
}

// String names the selection mode for journals and logs.
func (s Selection) String() string {
	if s.label != "" {
		return s.label
	}
	switch s.kind {
	case selectRange:
		return fmt.Sprintf("range %d-%d", s.start, s.end)
	case selectFingerprints:
		return fmt.Sprintf("ids(%d)", len(s.fingerprints))
	default:
		return "all"
	}
}

// Resolve returns the selected records. It fails before any review starts
// if the range or a fingerprint is invalid.
func (s Selection) Resolve(ds *model.Dataset) ([]*model.QuestionRecord, error) {
	switch s.kind {
	case selectRange:
		n := ds.Len()
		if s.start < 1 || s.end < s.start || s.end > n {
			return nil, fmt.Errorf("%w: %d-%d (dataset has %d questions)", ErrRangeOutOfBounds, s.start, s.end, n)
		}
		return append([]*model.QuestionRecord(nil), ds.Records[s.start-1:s.end]...), nil
	case selectFingerprints:
		out := make([]*model.QuestionRecord, 0, len(s.fingerprints))
		for _, fp := range s.fingerprints {
			rec, ok := ds.Find(fp)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrFingerprintNotFound, fp)
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		if ds == nil {
			return nil, nil
		}
		return append([]*model.QuestionRecord(nil), ds.Records...), nil
	}
}
