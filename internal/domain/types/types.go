// Package types contains the JSON shapes served by the HTTP API.
package types

import (
	"time"
)

// Record is a wins/losses/ties triple.
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// Team identifies a team for display.
type Team struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Owner  string `json:"owner,omitempty"`
	Abbrev string `json:"abbrev,omitempty"`
}

// StandingsRow is one team in the all-play standings.
type StandingsRow struct {
	Rank             int      `json:"rank"`
	Team             Team     `json:"team"`
	TrueRecord       Record   `json:"true_record"`
	TrueWinPct       float64  `json:"true_win_pct"`
	ActualRecord     *Record  `json:"actual_record,omitempty"`
	ActualWinPct     *float64 `json:"actual_win_pct,omitempty"`
	LuckDifferential *float64 `json:"luck_differential,omitempty"`
	AveragePoints    float64  `json:"average_points"`
	Consistency      float64  `json:"consistency"`
}

// LuckEntry names a team at one end of the luck table.
type LuckEntry struct {
	Team         Team    `json:"team"`
	Differential float64 `json:"differential"`
}

// Standings is the response of GET /api/v1/standings.
type Standings struct {
	LeagueID   string         `json:"league_id"`
	Season     int            `json:"season"`
	Weeks      []int          `json:"weeks"`
	Rows       []StandingsRow `json:"standings"`
	Luckiest   *LuckEntry     `json:"luckiest,omitempty"`
	Unluckiest *LuckEntry     `json:"unluckiest,omitempty"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
}

// WeekTrend is one week of a team's season.
type WeekTrend struct {
	Week         int     `json:"week"`
	Points       float64 `json:"points"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Ties         int     `json:"ties"`
	WinPct       float64 `json:"win_pct"`
	ActualResult string  `json:"actual_result,omitempty"`
}

// WeekPoints names a week and the points scored in it.
type WeekPoints struct {
	Week   int     `json:"week"`
	Points float64 `json:"points"`
}

// TeamDetail is the response of GET /api/v1/teams/{teamID}.
type TeamDetail struct {
	LeagueID         string      `json:"league_id"`
	Season           int         `json:"season"`
	Team             Team        `json:"team"`
	Rank             int         `json:"rank"`
	TrueRecord       Record      `json:"true_record"`
	TrueWinPct       float64     `json:"true_win_pct"`
	ActualRecord     *Record     `json:"actual_record,omitempty"`
	ActualWinPct     *float64    `json:"actual_win_pct,omitempty"`
	LuckDifferential *float64    `json:"luck_differential,omitempty"`
	AveragePoints    float64     `json:"average_points"`
	Consistency      float64     `json:"consistency"`
	BestWeek         *WeekPoints `json:"best_week,omitempty"`
	WorstWeek        *WeekPoints `json:"worst_week,omitempty"`
	Trend            []WeekTrend `json:"trend"`
}

// WeekTeam is one team's line in a week analysis.
type WeekTeam struct {
	Team         Team    `json:"team"`
	Points       float64 `json:"points"`
	ScoreRank    int     `json:"score_rank"`
	AllPlay      Record  `json:"all_play"`
	AllPlayPct   float64 `json:"all_play_pct"`
	ActualResult string  `json:"actual_result,omitempty"`
	Opponent     string  `json:"opponent,omitempty"`
	UnluckyLoss  bool    `json:"unlucky_loss"`
	LuckyWin     bool    `json:"lucky_win"`
}

// WeekSummary describes the score distribution of a week.
type WeekSummary struct {
	High     float64 `json:"high"`
	HighTeam string  `json:"high_team"`
	Low      float64 `json:"low"`
	LowTeam  string  `json:"low_team"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
}

// WeekAnalysis is the response of GET /api/v1/weeks/{week}.
type WeekAnalysis struct {
	LeagueID string      `json:"league_id"`
	Season   int         `json:"season"`
	Week     int         `json:"week"`
	Summary  WeekSummary `json:"summary"`
	Teams    []WeekTeam  `json:"teams"`
}

// HeadToHead is the response of GET /api/v1/h2h/{teamA}/{teamB}.
type HeadToHead struct {
	LeagueID string `json:"league_id"`
	Season   int    `json:"season"`
	TeamA    Team   `json:"team_a"`
	TeamB    Team   `json:"team_b"`
	AWins    int    `json:"a_wins"`
	BWins    int    `json:"b_wins"`
	Ties     int    `json:"ties"`
	Weeks    []int  `json:"weeks"`
}
