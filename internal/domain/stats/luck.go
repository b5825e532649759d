package stats

import (
	"sort"

	"github.com/okian/truerecord/internal/domain/model"
)

// Luck compares a team's actual record with its all-play record.
// A positive Differential means the schedule helped.
type Luck struct {
	TeamID       string  `json:"team_id"`
	ActualWinPct float64 `json:"actual_win_pct"`
	TrueWinPct   float64 `json:"true_win_pct"`
	Differential float64 `json:"differential"`
}

// LuckDifferentials returns one entry per team that has both a played
// actual standing and a true record, ordered by team id. A 0-0-0 standing
// counts as missing.
func LuckDifferentials(actual []model.ActualStanding, records map[string]model.TrueRecord) []Luck {
	out := make([]Luck, 0, len(actual))
	for _, s := range actual {
		tr, ok := records[s.TeamID]
		if !ok || Games(s) == 0 {
			continue
		}
		a, t := ActualWinPct(s), TrueWinPct(tr)
		out = append(out, Luck{TeamID: s.TeamID, ActualWinPct: a, TrueWinPct: t, Differential: a - t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// LuckExtremes picks the maximum and minimum differential. Equal
// differentials resolve to the alphabetically first team. Both are nil for
// empty input.
func LuckExtremes(diffs []Luck) (luckiest, unluckiest *Luck) {
	for i := range diffs {
		d := &diffs[i]
		if luckiest == nil || d.Differential > luckiest.Differential ||
			(d.Differential == luckiest.Differential && d.TeamID < luckiest.TeamID) {
			luckiest = d
		}
		if unluckiest == nil || d.Differential < unluckiest.Differential ||
			(d.Differential == unluckiest.Differential && d.TeamID < unluckiest.TeamID) {
			unluckiest = d
		}
	}
	return luckiest, unluckiest
}
