package espn

// Raw fantasy football v3 response shapes. Only the fields the service reads
// are declared; everything else in the payload is ignored.

type leagueResponse struct {
	ID              int          `json:"id"`
	SeasonID        int          `json:"seasonId"`
	ScoringPeriodID int          `json:"scoringPeriodId"`
	Status          leagueStatus `json:"status"`
	Settings        settings     `json:"settings"`
	Teams           []team       `json:"teams"`
	Members         []member     `json:"members"`
	Schedule        []matchup    `json:"schedule"`
}

type leagueStatus struct {
	CurrentMatchupPeriod int  `json:"currentMatchupPeriod"`
	FinalScoringPeriod   int  `json:"finalScoringPeriod"`
	IsActive             bool `json:"isActive"`
}

type settings struct {
	ScheduleSettings scheduleSettings `json:"scheduleSettings"`
}

// matchupPeriodCount covers the regular season only; playoff periods follow.
type scheduleSettings struct {
	MatchupPeriodCount int `json:"matchupPeriodCount"`
}

type team struct {
	ID           int      `json:"id"`
	Abbrev       string   `json:"abbrev"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	Nickname     string   `json:"nickname"`
	PrimaryOwner string   `json:"primaryOwner"`
	Owners       []string `json:"owners"`
	Record       *record  `json:"record"`
}

type record struct {
	Overall recordDetails `json:"overall"`
}

type recordDetails struct {
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	Percentage    float64 `json:"percentage"`
	PointsFor     float64 `json:"pointsFor"`
	PointsAgainst float64 `json:"pointsAgainst"`
}

type member struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

type matchup struct {
	ID              int        `json:"id"`
	MatchupPeriodID int        `json:"matchupPeriodId"`
	Home            *teamScore `json:"home"`
	Away            *teamScore `json:"away"`
	Winner          string     `json:"winner"`
}

type teamScore struct {
	TeamID      int      `json:"teamId"`
	TotalPoints *float64 `json:"totalPoints"`
}
