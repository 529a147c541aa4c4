package reconcile

import (
	"reflect"
	"testing"

	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/question"
)

func items(contents ...string) []model.RawItem {
	out := make([]model.RawItem, len(contents))
	for i, c := range contents {
		out[i] = model.RawItem{Content: c}
	}
	return out
}

func TestReconcileFromEmpty(t *testing.T) {
	res := Reconcile(nil, items("One.", "Two!"), question.AudioRefIn("audio", "mp3"))
	if res.Added != 2 || res.Kept != 0 || res.Dropped != 0 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	recs := res.Dataset.Records
	if recs[0].Content != "One." || recs[1].Content != "Two!" {
		t.Fatalf("unexpected order")
	}
	for i, rec := range recs {
		if rec.DisplayIndex != i+1 {
			t.Fatalf("expected display index %d, got %d", i+1, rec.DisplayIndex)
		}
		if rec.WrongCount != 0 || rec.ReviewedCount != 0 || len(rec.WrongDates) != 0 || len(rec.WrongRecords) != 0 {
			t.Fatalf("expected empty history: %+v", rec)
		}
		if rec.AudioRef == "" || rec.Fingerprint != question.Fingerprint(rec.Content) {
			t.Fatalf("expected derived fingerprint and audio ref: %+v", rec)
		}
	}
}

func TestReconcilePreservesHistoryAndDropsMissing(t *testing.T) {
	first := Reconcile(nil, items("Alpha beta.", "Gamma delta.", "Epsilon."), nil).Dataset
	first.Records[0].ReviewedCount = 3
	first.Records[0].WrongCount = 1
	first.Records[0].WrongDates = []string{"2026-01-01"}
	first.Records[0].WrongRecords = []string{"alpha"}
	first.Records[2].ReviewedCount = 5

	res := Reconcile(first, items("New one.", "Epsilon", "alpha beta", "Alpha, beta!"), nil)
	if res.Kept != 2 || res.Dropped != 1 || res.Added != 2 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	got := res.Dataset.Records
	if len(got) != 4 {
		t.Fatalf("expected 4 records, got %d", len(got))
	}
	// Retained first in their old order, then new ones in source order.
	if got[0].Content != "Alpha beta." || got[1].Content != "Epsilon." {
		t.Fatalf("unexpected retained order: %q %q", got[0].Content, got[1].Content)
	}
	if got[2].Content != "New one." || got[3].Content != "alpha beta" {
		t.Fatalf("unexpected new order: %q %q", got[2].Content, got[3].Content)
	}
	if got[0].WrongCount != 1 || got[0].ReviewedCount != 3 ||
		!reflect.DeepEqual(got[0].WrongDates, []string{"2026-01-01"}) ||
		!reflect.DeepEqual(got[0].WrongRecords, []string{"alpha"}) {
		t.Fatalf("history not preserved: %+v", got[0])
	}
	if got[1].ReviewedCount != 5 {
		t.Fatalf("history not preserved: %+v", got[1])
	}
	for i, rec := range got {
		if rec.DisplayIndex != i+1 {
			t.Fatalf("expected display index %d, got %d", i+1, rec.DisplayIndex)
		}
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	src := items("One.", "Two.", "Three.")
	first := Reconcile(nil, src, question.AudioRefIn("a", "mp3")).Dataset
	first.Records[1].WrongCount = 1
	first.Records[1].ReviewedCount = 2
	first.Records[1].WrongDates = []string{"2026-02-02"}
	first.Records[1].WrongRecords = []string{"to"}

	snapshot := make([]model.QuestionRecord, len(first.Records))
	for i, rec := range first.Records {
		snapshot[i] = *rec
	}

	second := Reconcile(first, src, question.AudioRefIn("a", "mp3"))
	if second.Added != 0 || second.Dropped != 0 || second.Kept != 3 {
		t.Fatalf("unexpected counts: %+v", second)
	}
	for i, rec := range second.Dataset.Records {
		if !reflect.DeepEqual(*rec, snapshot[i]) {
			t.Fatalf("record %d changed: %+v vs %+v", i, *rec, snapshot[i])
		}
	}
}

func TestReconcileKeepsFirstDuplicate(t *testing.T) {
	res := Reconcile(nil, items("Same text.", "Same text!", "Other."), nil)
	if len(res.Dataset.Records) != 2 {
		t.Fatalf("expected duplicates to collapse, got %d records", len(res.Dataset.Records))
	}
	if res.Dataset.Records[0].Content != "Same text." {
		t.Fatalf("expected first occurrence to win, got %q", res.Dataset.Records[0].Content)
	}
	if len(res.Duplicates) != 1 || res.Duplicates[0] != question.Fingerprint("Same text") {
		t.Fatalf("unexpected duplicates: %v", res.Duplicates)
	}
}

func TestReconcileEmptySourceDropsEverything(t *testing.T) {
	first := Reconcile(nil, items("One.", "Two."), nil).Dataset
	res := Reconcile(first, nil, nil)
	if res.Dataset.Len() != 0 || res.Dropped != 2 {
		t.Fatalf("expected empty dataset, got %+v", res)
	}
	if first.Len() != 2 {
		t.Fatalf("expected input dataset membership to be untouched")
	}
}
