// Package truerecord computes all-play ("true") records: every team is
// scored as if it had played every other team every week.
//
// Both entry points are pure. They never touch the cache or the network;
// callers fetch weekly scores first and persist the results afterwards.
package truerecord

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/truerecord/internal/domain/model"
)

type teamScore struct {
	teamID string
	points float64
}

// CompareWeek returns the all-play record of every scored team for one week.
//
// A team beats every team with a strictly lower score, loses to every team
// with a strictly higher score and ties the rest. NaN scores are skipped.
// Runs in O(n log n): after a descending sort, the number of strictly higher
// scores is the start index of the team's equal-score run.
func CompareWeek(scores model.WeeklyScoreMap) map[string]model.WeeklyRecord {
	ranked := make([]teamScore, 0, len(scores))
	for id, pts := range scores {
		if math.IsNaN(pts) {
			continue
		}
		ranked = append(ranked, teamScore{teamID: id, points: pts})
	}

	out := make(map[string]model.WeeklyRecord, len(ranked))
	if len(ranked) == 0 {
		return out
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].points != ranked[j].points {
			return ranked[i].points > ranked[j].points
		}
		return ranked[i].teamID < ranked[j].teamID
	})

	n := len(ranked)
	for start := 0; start < n; {
		end := start + 1
		for end < n && ranked[end].points == ranked[start].points {
			end++
		}
		rec := model.WeeklyRecord{
			Wins:   n - end,
			Losses: start,
			Ties:   end - start - 1,
		}
		for i := start; i < end; i++ {
			out[ranked[i].teamID] = rec
		}
		start = end
	}
	return out
}

// AggregateSeason folds weekly all-play records into one TrueRecord per team.
//
// Weeks may arrive in any order. A team that is missing from a week has no
// entry for that week, and a team missing from every week is absent from the
// result. Week numbers must be positive and unique; the whole input is
// rejected otherwise, so a partial aggregate is never returned.
func AggregateSeason(weeks []model.WeekScores) (map[string]model.TrueRecord, error) {
	seen := make(map[int]struct{}, len(weeks))
	for _, w := range weeks {
		if w.Week <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidWeek, w.Week)
		}
		if _, dup := seen[w.Week]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateWeek, w.Week)
		}
		seen[w.Week] = struct{}{}
	}

	out := make(map[string]model.TrueRecord)
	for _, w := range weeks {
		for teamID, rec := range CompareWeek(w.Scores) {
			tr, ok := out[teamID]
			if !ok {
				tr = model.TrueRecord{TeamID: teamID, WeeklyRecords: make(map[int]model.WeeklyRecord)}
			}
			tr.Wins += rec.Wins
			tr.Losses += rec.Losses
			tr.Ties += rec.Ties
			tr.WeeklyRecords[w.Week] = rec
			out[teamID] = tr
		}
	}
	return out, nil
}
