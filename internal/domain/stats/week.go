package stats

import (
	"math"
	"sort"

	"github.com/okian/truerecord/internal/domain/model"
	"github.com/okian/truerecord/internal/domain/truerecord"
)

// WeekSummary describes the score distribution of one week.
type WeekSummary struct {
	Teams    int
	High     float64
	HighTeam string
	Low      float64
	LowTeam  string
	Mean     float64
	Median   float64
}

// SummarizeWeek reduces a week's scores. Equal extremes resolve to the
// alphabetically first team. The zero value is returned for an empty week.
func SummarizeWeek(scores model.WeeklyScoreMap) WeekSummary {
	ids := make([]string, 0, len(scores))
	for id, pts := range scores {
		if !math.IsNaN(pts) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return WeekSummary{}
	}
	sort.Strings(ids)

	pts := make([]float64, 0, len(ids))
	s := WeekSummary{Teams: len(ids), High: scores[ids[0]], HighTeam: ids[0], Low: scores[ids[0]], LowTeam: ids[0]}
	for _, id := range ids {
		p := scores[id]
		pts = append(pts, p)
		if p > s.High {
			s.High, s.HighTeam = p, id
		}
		if p < s.Low {
			s.Low, s.LowTeam = p, id
		}
	}
	s.Mean = AveragePoints(pts)

	sort.Float64s(pts)
	mid := len(pts) / 2
	if len(pts)%2 == 1 {
		s.Median = pts[mid]
	} else {
		s.Median = (pts[mid-1] + pts[mid]) / 2
	}
	return s
}

// ScoreRanks returns the 1-based competition rank of each score in a week:
// equal scores share a rank and the next rank skips accordingly.
func ScoreRanks(scores model.WeeklyScoreMap) map[string]int {
	out := make(map[string]int, len(scores))
	for id, rec := range truerecord.CompareWeek(scores) {
		out[id] = rec.Losses + 1
	}
	return out
}

// HeadToHead counts the weeks one team outscored the other.
type HeadToHead struct {
	TeamA string
	TeamB string
	AWins int
	BWins int
	Ties  int
	Weeks []int
}

// HeadToHeadOf compares two teams over every week both have a score in.
func HeadToHeadOf(weeks []model.WeekScores, teamA, teamB string) HeadToHead {
	h := HeadToHead{TeamA: teamA, TeamB: teamB, Weeks: []int{}}
	for _, w := range weeks {
		a, okA := w.Scores[teamA]
		b, okB := w.Scores[teamB]
		if !okA || !okB || math.IsNaN(a) || math.IsNaN(b) {
			continue
		}
		h.Weeks = append(h.Weeks, w.Week)
		switch {
		case a > b:
			h.AWins++
		case b > a:
			h.BWins++
		default:
			h.Ties++
		}
	}
	sort.Ints(h.Weeks)
	return h
}
