package stats

import (
	"sort"

	"github.com/verte-zerg/wfdrill/internal/model"
)

// TopMissed returns up to n questions that were answered wrong at least once,
// most wrong answers first. n <= 0 means no limit.
func TopMissed(aggs []model.QuestionAggregate, n int) []model.QuestionAggregate {
	items := make([]model.QuestionAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Wrong > 0 {
			items = append(items, agg)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Wrong == items[j].Wrong {
			if items[i].Attempts == items[j].Attempts {
				return items[i].Fingerprint < items[j].Fingerprint
			}
			return items[i].Attempts > items[j].Attempts
		}
		return items[i].Wrong > items[j].Wrong
	})
	if n > 0 && n < len(items) {
		items = items[:n]
	}
	return items
}
