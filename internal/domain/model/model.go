// Package model contains domain models passed between layers.
package model

import "time"

// WeeklyScoreMap maps team id to the points that team scored in one week.
// A NaN value marks a team without a score; it is excluded from comparison.
type WeeklyScoreMap map[string]float64

// WeeklyRecord is one team's all-play result for one week.
// Wins + Losses + Ties equals the number of other scored teams that week.
type WeeklyRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// TrueRecord is a team's season-long all-play record.
// Wins, Losses and Ties always equal the sums over WeeklyRecords.
type TrueRecord struct {
	TeamID        string               `json:"team_id"`
	Wins          int                  `json:"wins"`
	Losses        int                  `json:"losses"`
	Ties          int                  `json:"ties"`
	WeeklyRecords map[int]WeeklyRecord `json:"weekly_records"`
}

// WeekScores is one week of scores handed to the season aggregator.
type WeekScores struct {
	Week   int
	Scores WeeklyScoreMap
}

// ActualStanding is a team's record from real head-to-head matchups.
type ActualStanding struct {
	TeamID string `json:"team_id"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Ties   int    `json:"ties"`
}

// TeamMetadata is display information about a team.
type TeamMetadata struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
	Owner  string `json:"owner,omitempty"`
	Abbrev string `json:"abbrev,omitempty"`
}

// Matchup results.
const (
	WinnerHome      = "HOME"
	WinnerAway      = "AWAY"
	WinnerTie       = "TIE"
	WinnerUndecided = "UNDECIDED"
)

// Matchup is one scheduled head-to-head game. AwayTeamID is empty for a bye.
type Matchup struct {
	HomeTeamID string  `json:"home_team_id"`
	HomePoints float64 `json:"home_points"`
	AwayTeamID string  `json:"away_team_id,omitempty"`
	AwayPoints float64 `json:"away_points,omitempty"`
	Winner     string  `json:"winner"`
}

// Result returns "W", "L", "T" or "" for teamID in this matchup.
func (m Matchup) Result(teamID string) string {
	switch {
	case m.AwayTeamID == "" || m.Winner == WinnerUndecided || m.Winner == "":
		return ""
	case m.Winner == WinnerTie:
		if teamID == m.HomeTeamID || teamID == m.AwayTeamID {
			return "T"
		}
		return ""
	case teamID == m.HomeTeamID:
		if m.Winner == WinnerHome {
			return "W"
		}
		return "L"
	case teamID == m.AwayTeamID:
		if m.Winner == WinnerAway {
			return "W"
		}
		return "L"
	}
	return ""
}

// WeekData is the validated upstream payload for one week.
type WeekData struct {
	Week     int            `json:"week"`
	Scores   WeeklyScoreMap `json:"scores"`
	Matchups []Matchup      `json:"matchups,omitempty"`
}

// LeagueData is the validated season-level upstream payload.
type LeagueData struct {
	Teams       []TeamMetadata   `json:"teams"`
	Standings   []ActualStanding `json:"standings"`
	CurrentWeek int              `json:"current_week"`
	// RegularSeasonWeeks is the number of regular-season matchup periods,
	// 0 when unknown.
	RegularSeasonWeeks int `json:"regular_season_weeks,omitempty"`
}

// RefreshResult summarizes one season refresh.
type RefreshResult struct {
	LeagueID     string    `json:"league_id"`
	Season       int       `json:"season"`
	WeeksFetched []int     `json:"weeks_fetched"`
	WeeksFailed  []int     `json:"weeks_failed"`
	WeeksCached  []int     `json:"weeks_cached"`
	Teams        int       `json:"teams"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Refresh job statuses.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// RefreshJob is an asynchronous season refresh request and its outcome.
type RefreshJob struct {
	ID         string         `json:"id"`
	LeagueID   string         `json:"league_id"`
	Season     int            `json:"season"`
	Source     string         `json:"source"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Result     *RefreshResult `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Finished reports whether the job reached a terminal status.
func (j RefreshJob) Finished() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}
