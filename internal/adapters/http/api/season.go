package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/truerecord/pkg/logger"
)

// SeasonDependencies defines the read operations over a cached season.
type SeasonDependencies interface {
	Standings(ctx context.Context, leagueID string, season int) (Standings, error)
	Team(ctx context.Context, leagueID string, season int, teamID string) (TeamDetail, error)
	Week(ctx context.Context, leagueID string, season, week int) (WeekAnalysis, error)
	HeadToHead(ctx context.Context, leagueID string, season int, teamA, teamB string) (HeadToHead, error)
}

// SeasonHandler handles the all-play read endpoints.
type SeasonHandler struct {
	deps   SeasonDependencies
	logger logger.Logger
}

// NewSeasonHandler creates a new season handler.
func NewSeasonHandler(deps SeasonDependencies, log logger.Logger) *SeasonHandler {
	return &SeasonHandler{deps: deps, logger: log}
}

// HandleGetStandings handles GET /api/v1/standings requests.
func (h *SeasonHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	league, season, err := seasonQuery(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	st, err := h.deps.Standings(r.Context(), league, season)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleGetTeam handles GET /api/v1/teams/{teamID} requests.
func (h *SeasonHandler) HandleGetTeam(w http.ResponseWriter, r *http.Request) {
	league, season, err := seasonQuery(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	td, err := h.deps.Team(r.Context(), league, season, chi.URLParam(r, "teamID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, td)
}

// HandleGetWeek handles GET /api/v1/weeks/{week} requests.
func (h *SeasonHandler) HandleGetWeek(w http.ResponseWriter, r *http.Request) {
	league, season, err := seasonQuery(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || week < 1 {
		writeServiceError(w, r, h.logger, badRequest("week must be a positive integer"))
		return
	}
	wa, err := h.deps.Week(r.Context(), league, season, week)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wa)
}

// HandleGetHeadToHead handles GET /api/v1/h2h/{teamA}/{teamB} requests.
func (h *SeasonHandler) HandleGetHeadToHead(w http.ResponseWriter, r *http.Request) {
	league, season, err := seasonQuery(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	res, err := h.deps.HeadToHead(r.Context(), league, season, chi.URLParam(r, "teamA"), chi.URLParam(r, "teamB"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
