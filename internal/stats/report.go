package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.SessionStats
	Missed   []model.QuestionAggregate
}

// BuildReport loads journal sessions and per-question aggregates.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	aggs, err := st.ListQuestionAggregates(ctx, sessionIDs(sessions))
	if err != nil {
		return Report{}, err
	}
	return Report{
		Sessions: sessions,
		Missed:   TopMissed(aggs, cfg.Top),
	}, nil
}

// Render writes the full stats report.
func (r Report) Render(w io.Writer, window int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderCurve(w, r.Sessions, window); err != nil {
		return err
	}
	return RenderMissedTable(w, r.Missed, 0)
}

func sessionIDs(sessions []model.SessionStats) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
