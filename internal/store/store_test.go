package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/wfdrill/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "wfdrill.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return s
}

func session(id string, ended time.Time, graded, correct int) model.SessionStats {
	return model.SessionStats{
		ID:        id,
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
		Dataset:   "wfd.csv",
		Mode:      "all",
		Graded:    graded,
		Correct:   correct,
	}
}

func TestInsertAndListSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	first := session("a", base, 2, 1)
	first.Terminated = true
	attempts := []model.AttemptStats{
		{Fingerprint: "fp1", Content: "One.", AttemptedAt: base, Correct: true, Input: "one"},
		{Fingerprint: "fp2", Content: "Two.", AttemptedAt: base, Correct: false, Input: "too"},
	}
	if err := s.InsertSession(ctx, first, attempts); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertSession(ctx, session("b", base.Add(24*time.Hour), 1, 0), []model.AttemptStats{
		{Fingerprint: "fp2", Content: "Two.", AttemptedAt: base, Correct: false, Input: "to"},
	}); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	sessions, err := s.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "a" || sessions[1].ID != "b" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
	if !sessions[0].Terminated || sessions[0].Graded != 2 || !sessions[0].EndedAt.Equal(base) {
		t.Fatalf("unexpected first session: %+v", sessions[0])
	}

	since := base.Add(time.Hour)
	sessions, err = s.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil || len(sessions) != 1 || sessions[0].ID != "b" {
		t.Fatalf("unexpected since filter: %+v (%v)", sessions, err)
	}
	sessions, err = s.ListSessions(ctx, model.StatsConfig{Last: 1})
	if err != nil || len(sessions) != 1 || sessions[0].ID != "b" {
		t.Fatalf("unexpected last filter: %+v (%v)", sessions, err)
	}

	aggs, err := s.ListQuestionAggregates(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 2 || aggs[0].Fingerprint != "fp2" || aggs[0].Wrong != 2 || aggs[0].Attempts != 2 {
		t.Fatalf("unexpected aggregates: %+v", aggs)
	}
	if aggs[1].Fingerprint != "fp1" || aggs[1].Wrong != 0 || aggs[1].Content != "One." {
		t.Fatalf("unexpected second aggregate: %+v", aggs[1])
	}
}

func TestDuplicateSessionRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	if err := s.InsertSession(ctx, session("a", base, 0, 0), nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.InsertSession(ctx, session("a", base, 1, 1), []model.AttemptStats{{Fingerprint: "fp", AttemptedAt: base}})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
	aggs, err := s.ListQuestionAggregates(ctx, []string{"a"})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 0 {
		t.Fatalf("expected rolled back attempts, got %+v", aggs)
	}
}

func TestJournalAdapter(t *testing.T) {
	s := openTestStore(t)
	j := Journal{Store: s}
	if err := j.InsertSession(context.Background(), session("x", time.Now().UTC(), 0, 0), nil); err != nil {
		t.Fatalf("journal insert: %v", err)
	}
}
