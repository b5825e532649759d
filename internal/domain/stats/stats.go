// Package stats holds the pure reducers derived from true records and raw
// weekly scores: win percentages, averages, consistency, ranking and luck.
package stats

import (
	"math"
	"sort"

	"github.com/okian/truerecord/internal/domain/model"
)

// WinPct returns wins / (wins + losses), or 0 when no games were decided.
func WinPct(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses)
}

// TrueWinPct is WinPct of an all-play record.
func TrueWinPct(tr model.TrueRecord) float64 {
	return WinPct(tr.Wins, tr.Losses)
}

// Games is the number of head-to-head games behind an actual standing.
func Games(s model.ActualStanding) int {
	return s.Wins + s.Losses + s.Ties
}

// ActualWinPct counts a tie as half a win: (w + t/2) / (w + l + t).
func ActualWinPct(s model.ActualStanding) float64 {
	games := Games(s)
	if games == 0 {
		return 0
	}
	return (float64(s.Wins) + float64(s.Ties)/2) / float64(games)
}

// AveragePoints is the mean of the scored weeks; NaN entries are ignored.
func AveragePoints(points []float64) float64 {
	sum, n := 0.0, 0
	for _, p := range points {
		if math.IsNaN(p) {
			continue
		}
		sum += p
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Consistency is the population standard deviation of the scored weeks.
// Lower is more consistent.
func Consistency(points []float64) float64 {
	mean := AveragePoints(points)
	sq, n := 0.0, 0
	for _, p := range points {
		if math.IsNaN(p) {
			continue
		}
		d := p - mean
		sq += d * d
		n++
	}
	if n < 2 {
		return 0
	}
	return math.Sqrt(sq / float64(n))
}

// PointsByTeam collects each team's scores in ascending week order.
func PointsByTeam(weeks []model.WeekScores) map[string][]float64 {
	ordered := make([]model.WeekScores, len(weeks))
	copy(ordered, weeks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Week < ordered[j].Week })

	out := make(map[string][]float64)
	for _, w := range ordered {
		for teamID, pts := range w.Scores {
			if math.IsNaN(pts) {
				continue
			}
			out[teamID] = append(out[teamID], pts)
		}
	}
	return out
}

// Ranked is one row of the all-play standings.
type Ranked struct {
	Rank          int
	TeamID        string
	Record        model.TrueRecord
	WinPct        float64
	AveragePoints float64
}

// Rank orders teams by win percentage, then total wins, then average points
// (all descending) and finally by team id. Ranks are 1-based and never shared.
// avgPoints may be nil.
func Rank(records map[string]model.TrueRecord, avgPoints map[string]float64) []Ranked {
	rows := make([]Ranked, 0, len(records))
	for teamID, tr := range records {
		rows = append(rows, Ranked{
			TeamID:        teamID,
			Record:        tr,
			WinPct:        TrueWinPct(tr),
			AveragePoints: avgPoints[teamID],
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.WinPct != b.WinPct:
			return a.WinPct > b.WinPct
		case a.Record.Wins != b.Record.Wins:
			return a.Record.Wins > b.Record.Wins
		case a.AveragePoints != b.AveragePoints:
			return a.AveragePoints > b.AveragePoints
		}
		return a.TeamID < b.TeamID
	})

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
