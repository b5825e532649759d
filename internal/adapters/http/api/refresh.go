package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/okian/truerecord/pkg/logger"
)

const maxRefreshBody = 4 << 10

// RefreshDependencies defines the refresh job operations.
type RefreshDependencies interface {
	SubmitRefresh(ctx context.Context, leagueID string, season int, source string) (RefreshJob, error)
	Job(ctx context.Context, jobID string) (RefreshJob, error)
}

// refreshRequest mirrors the OpenAPI schema for POST /api/v1/refresh.
// Query parameters win over body fields.
type refreshRequest struct {
	League string `json:"league"`
	Season int    `json:"season"`
}

// RefreshHandler handles refresh job requests.
type RefreshHandler struct {
	deps   RefreshDependencies
	logger logger.Logger
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies, log logger.Logger) *RefreshHandler {
	return &RefreshHandler{deps: deps, logger: log}
}

// HandlePostRefresh handles POST /api/v1/refresh requests.
// Responds 202 with the queued job and a Location header for polling.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRefreshBody))
		if err != nil {
			writeServiceError(w, r, h.logger, badRequest("unreadable body"))
			return
		}
		if len(strings.TrimSpace(string(body))) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeServiceError(w, r, h.logger, badRequest("body must be a JSON object: "+err.Error()))
				return
			}
		}
	}
	if req.Season < 0 {
		writeServiceError(w, r, h.logger, badRequest("season must be a positive integer"))
		return
	}

	league, season, err := seasonQuery(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if league == "" {
		league = req.League
	}
	if season == 0 {
		season = req.Season
	}

	job, err := h.deps.SubmitRefresh(r.Context(), league, season, "api")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/refresh/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

// HandleGetJob handles GET /api/v1/refresh/{jobID} requests.
func (h *RefreshHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Job(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
