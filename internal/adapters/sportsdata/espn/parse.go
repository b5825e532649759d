package espn

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/truerecord/internal/domain/model"
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}

// parseWeek validates a schedule payload and extracts week's scores.
// Bye entries (no away side) contribute the home score only.
func parseWeek(resp leagueResponse, week int) (model.WeekData, error) {
	out := model.WeekData{Week: week, Scores: model.WeeklyScoreMap{}}
	found := false

	for _, m := range resp.Schedule {
		if m.MatchupPeriodID != week {
			continue
		}
		found = true
		if m.Home == nil {
			return model.WeekData{}, malformed("matchup %d has no home team", m.ID)
		}

		home, homePts, err := side(m.Home)
		if err != nil {
			return model.WeekData{}, fmt.Errorf("matchup %d home: %w", m.ID, err)
		}
		if err := addScore(out.Scores, home, homePts); err != nil {
			return model.WeekData{}, err
		}
		mu := model.Matchup{HomeTeamID: home, HomePoints: homePts, Winner: winner(m.Winner)}

		if m.Away != nil {
			away, awayPts, err := side(m.Away)
			if err != nil {
				return model.WeekData{}, fmt.Errorf("matchup %d away: %w", m.ID, err)
			}
			if err := addScore(out.Scores, away, awayPts); err != nil {
				return model.WeekData{}, err
			}
			mu.AwayTeamID, mu.AwayPoints = away, awayPts
		}
		out.Matchups = append(out.Matchups, mu)
	}

	if !found {
		return model.WeekData{}, malformed("no matchups for week %d", week)
	}
	sort.Slice(out.Matchups, func(i, j int) bool { return out.Matchups[i].HomeTeamID < out.Matchups[j].HomeTeamID })
	return out, nil
}

func side(s *teamScore) (string, float64, error) {
	if s.TeamID <= 0 {
		return "", 0, malformed("team id %d", s.TeamID)
	}
	if s.TotalPoints == nil {
		return "", 0, malformed("team %d has no totalPoints", s.TeamID)
	}
	pts := *s.TotalPoints
	if math.IsNaN(pts) || math.IsInf(pts, 0) || pts < 0 {
		return "", 0, malformed("team %d points %v", s.TeamID, pts)
	}
	return strconv.Itoa(s.TeamID), pts, nil
}

func addScore(scores model.WeeklyScoreMap, teamID string, pts float64) error {
	if _, dup := scores[teamID]; dup {
		return malformed("team %s appears twice", teamID)
	}
	scores[teamID] = pts
	return nil
}

func winner(w string) string {
	switch strings.ToUpper(w) {
	case model.WinnerHome:
		return model.WinnerHome
	case model.WinnerAway:
		return model.WinnerAway
	case model.WinnerTie:
		return model.WinnerTie
	}
	return model.WinnerUndecided
}

// parseLeague validates the team payload into metadata and actual standings.
func parseLeague(resp leagueResponse) (model.LeagueData, error) {
	if len(resp.Teams) == 0 {
		return model.LeagueData{}, malformed("league has no teams")
	}

	members := make(map[string]member, len(resp.Members))
	for _, m := range resp.Members {
		members[m.ID] = m
	}

	out := model.LeagueData{
		Teams:       make([]model.TeamMetadata, 0, len(resp.Teams)),
		Standings:   make([]model.ActualStanding, 0, len(resp.Teams)),
		CurrentWeek: resp.Status.CurrentMatchupPeriod,

		RegularSeasonWeeks: resp.Settings.ScheduleSettings.MatchupPeriodCount,
	}
	seen := make(map[int]struct{}, len(resp.Teams))
	for _, t := range resp.Teams {
		if t.ID <= 0 {
			return model.LeagueData{}, malformed("team id %d", t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return model.LeagueData{}, malformed("team %d listed twice", t.ID)
		}
		seen[t.ID] = struct{}{}

		id := strconv.Itoa(t.ID)
		out.Teams = append(out.Teams, model.TeamMetadata{
			TeamID: id,
			Name:   teamName(t),
			Owner:  ownerName(t, members),
			Abbrev: t.Abbrev,
		})

		// Without a record the caller tallies standings from matchups.
		if t.Record == nil {
			continue
		}
		rec := t.Record.Overall
		if rec.Wins < 0 || rec.Losses < 0 || rec.Ties < 0 {
			return model.LeagueData{}, malformed("team %d has a negative record", t.ID)
		}
		out.Standings = append(out.Standings, model.ActualStanding{
			TeamID: id, Wins: rec.Wins, Losses: rec.Losses, Ties: rec.Ties,
		})
	}
	if out.CurrentWeek < 0 {
		return model.LeagueData{}, malformed("current matchup period %d", out.CurrentWeek)
	}
	if out.RegularSeasonWeeks < 0 {
		return model.LeagueData{}, malformed("matchup period count %d", out.RegularSeasonWeeks)
	}
	return out, nil
}

// Older seasons carry location + nickname instead of name.
func teamName(t team) string {
	if n := strings.TrimSpace(t.Name); n != "" {
		return n
	}
	if n := strings.TrimSpace(t.Location + " " + t.Nickname); n != "" {
		return n
	}
	return "Team " + strconv.Itoa(t.ID)
}

func ownerName(t team, members map[string]member) string {
	ownerID := t.PrimaryOwner
	if ownerID == "" && len(t.Owners) > 0 {
		ownerID = t.Owners[0]
	}
	m, ok := members[ownerID]
	if !ok {
		return ""
	}
	if full := strings.TrimSpace(m.FirstName + " " + m.LastName); full != "" {
		return full
	}
	return m.DisplayName
}
