package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/truerecord/internal/adapters/repository"
	"github.com/okian/truerecord/internal/domain/model"
	"github.com/okian/truerecord/internal/domain/stats"
	"github.com/okian/truerecord/internal/domain/truerecord"
	"github.com/okian/truerecord/internal/domain/types"
)

// season is a cached league season with the derived values every read needs.
type season struct {
	leagueID string
	season   int
	snap     repository.Snapshot
	scores   []model.WeekScores
	points   map[string][]float64
	ranked   []stats.Ranked
	actual   map[string]model.ActualStanding
}

func (s *Service) loadSeason(ctx context.Context, leagueID string, seasonYear int) (*season, error) {
	leagueID, seasonYear, err := s.Resolve(leagueID, seasonYear)
	if err != nil {
		return nil, err
	}
	snap, err := s.repo.LoadSnapshot(ctx, leagueID, seasonYear)
	if err != nil {
		return nil, fmt.Errorf("load season: %w", err)
	}
	if len(snap.Records) == 0 {
		return nil, fmt.Errorf("%w: no true records for league %s season %d", ErrNotFound, leagueID, seasonYear)
	}

	// Cached weeks outside the last aggregation (a narrowed week range, for
	// one) must not feed averages next to records that exclude them.
	aggregated := map[int]struct{}{}
	for _, tr := range snap.Records {
		for w := range tr.WeeklyRecords {
			aggregated[w] = struct{}{}
		}
	}
	kept := make([]model.WeekData, 0, len(snap.Weeks))
	for _, w := range snap.Weeks {
		if _, ok := aggregated[w.Week]; ok {
			kept = append(kept, w)
		}
	}
	snap.Weeks = kept

	ss := &season{leagueID: leagueID, season: seasonYear, snap: snap}
	ss.scores = make([]model.WeekScores, 0, len(snap.Weeks))
	for _, w := range snap.Weeks {
		ss.scores = append(ss.scores, model.WeekScores{Week: w.Week, Scores: w.Scores})
	}
	ss.points = stats.PointsByTeam(ss.scores)

	avg := make(map[string]float64, len(ss.points))
	for id, pts := range ss.points {
		avg[id] = stats.AveragePoints(pts)
	}
	ss.ranked = stats.Rank(snap.Records, avg)

	ss.actual = make(map[string]model.ActualStanding, len(snap.Standings))
	for _, st := range snap.Standings {
		ss.actual[st.TeamID] = st
	}
	return ss, nil
}

func (ss *season) team(id string) types.Team {
	meta, ok := ss.snap.Teams[id]
	if !ok || meta.Name == "" {
		return types.Team{ID: id, Name: "Team " + id}
	}
	return types.Team{ID: id, Name: meta.Name, Owner: meta.Owner, Abbrev: meta.Abbrev}
}

func (ss *season) weekData(week int) (model.WeekData, bool) {
	for _, w := range ss.snap.Weeks {
		if w.Week == week {
			return w, true
		}
	}
	return model.WeekData{}, false
}

// actualFor returns the actual record, actual pct and luck differential of
// a team, all nil when the team has no played actual standing.
func (ss *season) actualFor(id string, tr model.TrueRecord) (*types.Record, *float64, *float64) {
	st, ok := ss.actual[id]
	if !ok || stats.Games(st) == 0 {
		return nil, nil, nil
	}
	rec := &types.Record{Wins: st.Wins, Losses: st.Losses, Ties: st.Ties}
	pct := stats.ActualWinPct(st)
	diff := pct - stats.TrueWinPct(tr)
	return rec, &pct, &diff
}

func recordOf(tr model.TrueRecord) types.Record {
	return types.Record{Wins: tr.Wins, Losses: tr.Losses, Ties: tr.Ties}
}

// Standings returns the all-play standings of a league season.
func (s *Service) Standings(ctx context.Context, leagueID string, seasonYear int) (types.Standings, error) {
	ss, err := s.loadSeason(ctx, leagueID, seasonYear)
	if err != nil {
		return types.Standings{}, err
	}

	out := types.Standings{
		LeagueID:  ss.leagueID,
		Season:    ss.season,
		Rows:      make([]types.StandingsRow, 0, len(ss.ranked)),
		UpdatedAt: ss.snap.UpdatedAt,
	}

	weekSet := map[int]struct{}{}
	for _, r := range ss.ranked {
		for w := range r.Record.WeeklyRecords {
			weekSet[w] = struct{}{}
		}
		actual, actualPct, diff := ss.actualFor(r.TeamID, r.Record)
		out.Rows = append(out.Rows, types.StandingsRow{
			Rank:             r.Rank,
			Team:             ss.team(r.TeamID),
			TrueRecord:       recordOf(r.Record),
			TrueWinPct:       r.WinPct,
			ActualRecord:     actual,
			ActualWinPct:     actualPct,
			LuckDifferential: diff,
			AveragePoints:    r.AveragePoints,
			Consistency:      stats.Consistency(ss.points[r.TeamID]),
		})
	}
	out.Weeks = make([]int, 0, len(weekSet))
	for w := range weekSet {
		out.Weeks = append(out.Weeks, w)
	}
	sort.Ints(out.Weeks)

	luckiest, unluckiest := stats.LuckExtremes(stats.LuckDifferentials(ss.snap.Standings, ss.snap.Records))
	if luckiest != nil {
		out.Luckiest = &types.LuckEntry{Team: ss.team(luckiest.TeamID), Differential: luckiest.Differential}
	}
	if unluckiest != nil {
		out.Unluckiest = &types.LuckEntry{Team: ss.team(unluckiest.TeamID), Differential: unluckiest.Differential}
	}
	return out, nil
}

// Team returns one team's season detail and weekly trend.
func (s *Service) Team(ctx context.Context, leagueID string, seasonYear int, teamID string) (types.TeamDetail, error) {
	ss, err := s.loadSeason(ctx, leagueID, seasonYear)
	if err != nil {
		return types.TeamDetail{}, err
	}
	tr, ok := ss.snap.Records[teamID]
	if !ok {
		return types.TeamDetail{}, fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}

	out := types.TeamDetail{
		LeagueID:    ss.leagueID,
		Season:      ss.season,
		Team:        ss.team(teamID),
		TrueRecord:  recordOf(tr),
		TrueWinPct:  stats.TrueWinPct(tr),
		Consistency: stats.Consistency(ss.points[teamID]),
		Trend:       make([]types.WeekTrend, 0, len(tr.WeeklyRecords)),
	}
	out.ActualRecord, out.ActualWinPct, out.LuckDifferential = ss.actualFor(teamID, tr)
	for _, r := range ss.ranked {
		if r.TeamID == teamID {
			out.Rank = r.Rank
			out.AveragePoints = r.AveragePoints
			break
		}
	}

	weeks := make([]int, 0, len(tr.WeeklyRecords))
	for w := range tr.WeeklyRecords {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	for _, w := range weeks {
		wr := tr.WeeklyRecords[w]
		trend := types.WeekTrend{
			Week:   w,
			Wins:   wr.Wins,
			Losses: wr.Losses,
			Ties:   wr.Ties,
			WinPct: stats.WinPct(wr.Wins, wr.Losses),
		}
		if data, ok := ss.weekData(w); ok {
			if pts, ok := data.Scores[teamID]; ok && !math.IsNaN(pts) {
				trend.Points = pts
				// Weeks ascend, so strict comparison keeps the earliest on ties.
				if out.BestWeek == nil || pts > out.BestWeek.Points {
					out.BestWeek = &types.WeekPoints{Week: w, Points: pts}
				}
				if out.WorstWeek == nil || pts < out.WorstWeek.Points {
					out.WorstWeek = &types.WeekPoints{Week: w, Points: pts}
				}
			}
			trend.ActualResult, _ = matchupResult(data.Matchups, teamID)
		}
		out.Trend = append(out.Trend, trend)
	}
	return out, nil
}

// matchupResult finds the team's matchup and returns its result and opponent.
func matchupResult(matchups []model.Matchup, teamID string) (result, opponent string) {
	for _, m := range matchups {
		switch teamID {
		case m.HomeTeamID:
			return m.Result(teamID), m.AwayTeamID
		case m.AwayTeamID:
			return m.Result(teamID), m.HomeTeamID
		}
	}
	return "", ""
}

// Week analyses one cached week of a league season.
func (s *Service) Week(ctx context.Context, leagueID string, seasonYear, week int) (types.WeekAnalysis, error) {
	if week < 1 {
		return types.WeekAnalysis{}, fmt.Errorf("%w: week %d", ErrBadRequest, week)
	}
	ss, err := s.loadSeason(ctx, leagueID, seasonYear)
	if err != nil {
		return types.WeekAnalysis{}, err
	}
	data, ok := ss.weekData(week)
	if !ok {
		return types.WeekAnalysis{}, fmt.Errorf("%w: week %d not cached", ErrNotFound, week)
	}

	records := truerecord.CompareWeek(data.Scores)
	ranks := stats.ScoreRanks(data.Scores)
	sum := stats.SummarizeWeek(data.Scores)

	out := types.WeekAnalysis{
		LeagueID: ss.leagueID,
		Season:   ss.season,
		Week:     week,
		Summary: types.WeekSummary{
			High:     sum.High,
			HighTeam: sum.HighTeam,
			Low:      sum.Low,
			LowTeam:  sum.LowTeam,
			Mean:     sum.Mean,
			Median:   sum.Median,
		},
		Teams: make([]types.WeekTeam, 0, len(records)),
	}
	for id, rec := range records {
		pct := stats.WinPct(rec.Wins, rec.Losses)
		result, opponent := matchupResult(data.Matchups, id)
		out.Teams = append(out.Teams, types.WeekTeam{
			Team:         ss.team(id),
			Points:       data.Scores[id],
			ScoreRank:    ranks[id],
			AllPlay:      types.Record{Wins: rec.Wins, Losses: rec.Losses, Ties: rec.Ties},
			AllPlayPct:   pct,
			ActualResult: result,
			Opponent:     opponent,
			UnluckyLoss:  result == "L" && pct > 0.5,
			LuckyWin:     result == "W" && pct < 0.5,
		})
	}
	sort.Slice(out.Teams, func(i, j int) bool {
		a, b := out.Teams[i], out.Teams[j]
		if a.ScoreRank != b.ScoreRank {
			return a.ScoreRank < b.ScoreRank
		}
		return a.Team.ID < b.Team.ID
	})
	return out, nil
}

// HeadToHead compares two teams' scores in every week both played.
func (s *Service) HeadToHead(ctx context.Context, leagueID string, seasonYear int, teamA, teamB string) (types.HeadToHead, error) {
	if teamA == "" || teamB == "" || teamA == teamB {
		return types.HeadToHead{}, fmt.Errorf("%w: need two different teams", ErrBadRequest)
	}
	ss, err := s.loadSeason(ctx, leagueID, seasonYear)
	if err != nil {
		return types.HeadToHead{}, err
	}
	for _, id := range []string{teamA, teamB} {
		if _, ok := ss.snap.Records[id]; !ok {
			return types.HeadToHead{}, fmt.Errorf("%w: team %s", ErrNotFound, id)
		}
	}

	h := stats.HeadToHeadOf(ss.scores, teamA, teamB)
	return types.HeadToHead{
		LeagueID: ss.leagueID,
		Season:   ss.season,
		TeamA:    ss.team(teamA),
		TeamB:    ss.team(teamB),
		AWins:    h.AWins,
		BWins:    h.BWins,
		Ties:     h.Ties,
		Weeks:    h.Weeks,
	}, nil
}
