// Package reconcile merges a fresh question list into a tracked dataset.
package reconcile

import (
	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/question"
)

// Result describes the outcome of a reconciliation.
type Result struct {
	Dataset *model.Dataset
	Kept    int
	Added   int
	Dropped int
	// Duplicates lists fingerprints that occurred more than once in the
	// source. Only the first occurrence is used.
	Duplicates []string
}

// Reconcile returns a new dataset containing the records of current whose
// fingerprint appears in items, followed by records for the new items.
// Retained records keep their history untouched. current is not modified
// apart from the DisplayIndex of retained records.
func Reconcile(current *model.Dataset, items []model.RawItem, audioRef question.AudioRefFunc) Result {
	incoming := make(map[string]struct{}, len(items))
	fresh := make([]model.RawItem, 0, len(items))
	freshPrints := make([]string, 0, len(items))
	var duplicates []string
	for _, item := range items {
		fp := question.Fingerprint(item.Content)
		if _, seen := incoming[fp]; seen {
			duplicates = append(duplicates, fp)
			continue
		}
		incoming[fp] = struct{}{}
		fresh = append(fresh, item)
		freshPrints = append(freshPrints, fp)
	}

	result := Result{Duplicates: duplicates}
	out := &model.Dataset{Records: make([]*model.QuestionRecord, 0, len(fresh))}
	existing := map[string]struct{}{}
	if current != nil {
		for _, rec := range current.Records {
			if _, ok := incoming[rec.Fingerprint]; !ok {
				result.Dropped++
				continue
			}
			if _, ok := existing[rec.Fingerprint]; ok {
				result.Dropped++
				continue
			}
			existing[rec.Fingerprint] = struct{}{}
			out.Records = append(out.Records, rec)
			result.Kept++
		}
	}

	for i, item := range fresh {
		fp := freshPrints[i]
		if _, ok := existing[fp]; ok {
			continue
		}
		out.Records = append(out.Records, NewRecord(item.Content, fp, audioRef))
		result.Added++
	}

	out.Renumber()
	result.Dataset = out
	return result
}

// NewRecord builds a record with empty history.
func NewRecord(content, fingerprint string, audioRef question.AudioRefFunc) *model.QuestionRecord {
	rec := &model.QuestionRecord{
		Content:      content,
		Fingerprint:  fingerprint,
		WrongDates:   []string{},
		WrongRecords: []string{},
	}
	if audioRef != nil {
		rec.AudioRef = audioRef(fingerprint)
	}
	return rec
}
