package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/truerecord/internal/adapters/http/api"
	service "github.com/okian/truerecord/internal/app"
	"github.com/okian/truerecord/internal/domain/model"
	"github.com/okian/truerecord/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDependencies struct {
	err       error
	healthErr error
	submitErr error

	gotLeague string
	gotSeason int
	gotWeek   int
	gotTeams  []string
	gotSource string
}

func (m *mockDependencies) Standings(_ context.Context, leagueID string, season int) (types.Standings, error) {
	m.gotLeague, m.gotSeason = leagueID, season
	if m.err != nil {
		return types.Standings{}, m.err
	}
	return types.Standings{
		LeagueID: "42",
		Season:   2024,
		Weeks:    []int{1, 2},
		Rows: []types.StandingsRow{
			{Rank: 1, Team: types.Team{ID: "2", Name: "Bravo"}, TrueRecord: types.Record{Wins: 5, Losses: 1}, TrueWinPct: 5.0 / 6.0},
		},
	}, nil
}

func (m *mockDependencies) Team(_ context.Context, leagueID string, season int, teamID string) (types.TeamDetail, error) {
	m.gotLeague, m.gotSeason, m.gotTeams = leagueID, season, []string{teamID}
	if m.err != nil {
		return types.TeamDetail{}, m.err
	}
	return types.TeamDetail{Team: types.Team{ID: teamID, Name: "Alpha"}, Rank: 2, Trend: []types.WeekTrend{}}, nil
}

func (m *mockDependencies) Week(_ context.Context, leagueID string, season, week int) (types.WeekAnalysis, error) {
	m.gotLeague, m.gotSeason, m.gotWeek = leagueID, season, week
	if m.err != nil {
		return types.WeekAnalysis{}, m.err
	}
	return types.WeekAnalysis{Week: week, Teams: []types.WeekTeam{}}, nil
}

func (m *mockDependencies) HeadToHead(_ context.Context, leagueID string, season int, teamA, teamB string) (types.HeadToHead, error) {
	m.gotLeague, m.gotSeason, m.gotTeams = leagueID, season, []string{teamA, teamB}
	if m.err != nil {
		return types.HeadToHead{}, m.err
	}
	return types.HeadToHead{TeamA: types.Team{ID: teamA}, TeamB: types.Team{ID: teamB}, AWins: 1, Weeks: []int{1}}, nil
}

func (m *mockDependencies) SubmitRefresh(_ context.Context, leagueID string, season int, source string) (model.RefreshJob, error) {
	m.gotLeague, m.gotSeason, m.gotSource = leagueID, season, source
	if m.submitErr != nil {
		return model.RefreshJob{}, m.submitErr
	}
	return model.RefreshJob{ID: "job-1", LeagueID: leagueID, Season: season, Source: source, Status: model.JobQueued}, nil
}

func (m *mockDependencies) Job(_ context.Context, jobID string) (model.RefreshJob, error) {
	if jobID != "job-1" {
		return model.RefreshJob{}, fmt.Errorf("%w: job %s", service.ErrNotFound, jobID)
	}
	return model.RefreshJob{ID: jobID, Status: model.JobSucceeded}, nil
}

func (m *mockDependencies) Health(context.Context) error { return m.healthErr }

func (m *mockDependencies) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{}
		h := api.NewServer(deps).Handler(context.Background())

		Convey("Health reports ok when the cache answers", func() {
			w := serve(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Health reports 503 when the cache is down", func() {
			deps.healthErr = errors.New("dial tcp: refused")
			w := serve(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "unavailable")
		})

		Convey("Stats are served as JSON", func() {
			w := serve(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Prometheus metrics are exposed", func() {
			serve(h, http.MethodGet, "/api/v1/standings", "")
			w := serve(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "truerecord_service_http_requests_total")
			So(w.Body.String(), ShouldContainSubstring, `endpoint="/api/v1/standings"`)
		})

		Convey("API docs are mounted", func() {
			So(serve(h, http.MethodGet, "/api-docs", "").Code, ShouldEqual, http.StatusOK)
			So(serve(h, http.MethodGet, "/openapi.yaml", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Unknown routes return a JSON 404", func() {
			w := serve(h, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})

		Convey("Wrong methods return 405", func() {
			w := serve(h, http.MethodDelete, "/api/v1/standings", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestSeasonHandlers(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{}
		h := api.NewServer(deps).Handler(context.Background())

		Convey("Standings use the service defaults without query params", func() {
			w := serve(h, http.MethodGet, "/api/v1/standings", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotLeague, ShouldEqual, "")
			So(deps.gotSeason, ShouldEqual, 0)

			var st types.Standings
			So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
			So(st.Rows[0].Team.Name, ShouldEqual, "Bravo")
			So(st.Rows[0].TrueRecord.Wins, ShouldEqual, 5)
		})

		Convey("League and season can be overridden", func() {
			w := serve(h, http.MethodGet, "/api/v1/standings?league=7&season=2023", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotLeague, ShouldEqual, "7")
			So(deps.gotSeason, ShouldEqual, 2023)
		})

		Convey("A malformed season is a bad request", func() {
			w := serve(h, http.MethodGet, "/api/v1/standings?season=last", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("Service errors map to HTTP statuses", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{fmt.Errorf("%w: team 9", service.ErrNotFound), http.StatusNotFound, "not_found"},
				{service.ErrBadRequest, http.StatusBadRequest, "bad_request"},
				{fmt.Errorf("%w: league", service.ErrUpstream), http.StatusBadGateway, "upstream_error"},
				{errors.New("redis: connection pool timeout"), http.StatusInternalServerError, "internal_error"},
			}
			for _, c := range cases {
				deps.err = c.err
				w := serve(h, http.MethodGet, "/api/v1/teams/9", "")
				So(w.Code, ShouldEqual, c.status)
				So(decodeError(w)["code"], ShouldEqual, c.code)
			}
		})

		Convey("Internal errors do not leak their message", func() {
			deps.err = errors.New("redis: secret host down")
			w := serve(h, http.MethodGet, "/api/v1/standings", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldNotContainSubstring, "secret")
		})

		Convey("Team detail reads the path parameter", func() {
			w := serve(h, http.MethodGet, "/api/v1/teams/1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotTeams, ShouldResemble, []string{"1"})
			So(w.Body.String(), ShouldContainSubstring, `"name":"Alpha"`)
		})

		Convey("Week analysis parses the week", func() {
			w := serve(h, http.MethodGet, "/api/v1/weeks/3?season=2024", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotWeek, ShouldEqual, 3)
			So(deps.gotSeason, ShouldEqual, 2024)
		})

		Convey("Week must be a positive integer", func() {
			So(serve(h, http.MethodGet, "/api/v1/weeks/zero", "").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(h, http.MethodGet, "/api/v1/weeks/0", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Head to head passes both teams in order", func() {
			w := serve(h, http.MethodGet, "/api/v1/h2h/3/4", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotTeams, ShouldResemble, []string{"3", "4"})
			So(w.Body.String(), ShouldContainSubstring, `"a_wins":1`)
		})
	})
}

func TestRefreshHandlers(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{}
		h := api.NewServer(deps).Handler(context.Background())

		Convey("POST /refresh queues a job", func() {
			w := serve(h, http.MethodPost, "/api/v1/refresh", "")
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Header().Get("Location"), ShouldEqual, "/api/v1/refresh/job-1")
			So(deps.gotSource, ShouldEqual, "api")

			var job model.RefreshJob
			So(json.Unmarshal(w.Body.Bytes(), &job), ShouldBeNil)
			So(job.Status, ShouldEqual, model.JobQueued)
		})

		Convey("The body may name the league season", func() {
			w := serve(h, http.MethodPost, "/api/v1/refresh", `{"league":"7","season":2023}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.gotLeague, ShouldEqual, "7")
			So(deps.gotSeason, ShouldEqual, 2023)
		})

		Convey("Query parameters win over the body", func() {
			w := serve(h, http.MethodPost, "/api/v1/refresh?league=8", `{"league":"7","season":2023}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.gotLeague, ShouldEqual, "8")
			So(deps.gotSeason, ShouldEqual, 2023)
		})

		Convey("A malformed body is rejected", func() {
			w := serve(h, http.MethodPost, "/api/v1/refresh", `{"league":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("An in-flight refresh conflicts", func() {
			deps.submitErr = fmt.Errorf("%w: 42:2024", service.ErrRefreshInFlight)
			w := serve(h, http.MethodPost, "/api/v1/refresh", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeError(w)["code"], ShouldEqual, "refresh_in_flight")
		})

		Convey("A full queue is backpressure", func() {
			deps.submitErr = fmt.Errorf("%w: queue is full", service.ErrBackpressure)
			w := serve(h, http.MethodPost, "/api/v1/refresh", "")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("A stopped service is unavailable", func() {
			deps.submitErr = service.ErrNotStarted
			w := serve(h, http.MethodPost, "/api/v1/refresh", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Jobs can be polled", func() {
			w := serve(h, http.MethodGet, "/api/v1/refresh/job-1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, model.JobSucceeded)

			So(serve(h, http.MethodGet, "/api/v1/refresh/nope", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
