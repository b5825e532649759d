package repository

import (
	"fmt"
	"strconv"
	"strings"
)

const keyNamespace = "truerecord"

// SeasonPrefix is the common prefix of every key for one league season.
func SeasonPrefix(leagueID string, season int) string {
	return fmt.Sprintf("%s:%s:%d:", keyNamespace, leagueID, season)
}

// WeekKey holds one week's scores and matchups.
func WeekKey(leagueID string, season, week int) string {
	return SeasonPrefix(leagueID, season) + "week:" + strconv.Itoa(week)
}

// RecordKey holds one team's TrueRecord.
func RecordKey(leagueID string, season int, teamID string) string {
	return SeasonPrefix(leagueID, season) + "record:" + teamID
}

// StandingsKey holds the actual standings.
func StandingsKey(leagueID string, season int) string {
	return SeasonPrefix(leagueID, season) + "standings"
}

// TeamsKey holds team metadata.
func TeamsKey(leagueID string, season int) string {
	return SeasonPrefix(leagueID, season) + "teams"
}

// UpdatedAtKey holds the RFC3339 time of the last refresh.
func UpdatedAtKey(leagueID string, season int) string {
	return SeasonPrefix(leagueID, season) + "updated_at"
}

// JobKey holds a refresh job.
func JobKey(jobID string) string {
	return keyNamespace + ":job:" + jobID
}

func weekPrefix(leagueID string, season int) string {
	return SeasonPrefix(leagueID, season) + "week:"
}

func recordPrefix(leagueID string, season int) string {
	return SeasonPrefix(leagueID, season) + "record:"
}

// suffixAfter returns the part of key after prefix.
func suffixAfter(key, prefix string) (string, bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return key[len(prefix):], true
}
