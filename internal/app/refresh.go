package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	jobqueue "github.com/okian/truerecord/internal/adapters/mq/queue"
	"github.com/okian/truerecord/internal/adapters/repository"
	"github.com/okian/truerecord/internal/domain/model"
	"github.com/okian/truerecord/internal/domain/truerecord"
	"github.com/okian/truerecord/pkg/logger"
	"github.com/okian/truerecord/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Week fetch outcomes.
const (
	fetchOK     = "ok"
	fetchCached = "cached"
	fetchFailed = "failed"
)

type weekOutcome struct {
	week    int
	data    model.WeekData
	outcome string
}

// Refresh pulls the season from the sports-data source, recomputes every
// true record from scratch and writes the results to the cache.
// A second Refresh of the same league season while one runs fails with
// ErrRefreshInFlight.
func (s *Service) Refresh(ctx context.Context, leagueID string, season int) (model.RefreshResult, error) {
	leagueID, season, err := s.Resolve(leagueID, season)
	if err != nil {
		return model.RefreshResult{}, err
	}
	key := flightKey(leagueID, season)
	if s.running.SeenAndRecord(ctx, key) {
		return model.RefreshResult{}, fmt.Errorf("%w: %s", ErrRefreshInFlight, key)
	}
	defer s.running.Unrecord(ctx, key)

	return s.refresh(ctx, leagueID, season)
}

func (s *Service) refresh(ctx context.Context, leagueID string, season int) (model.RefreshResult, error) {
	start := time.Now()
	res := model.RefreshResult{
		LeagueID:     leagueID,
		Season:       season,
		WeeksFetched: []int{},
		WeeksFailed:  []int{},
		WeeksCached:  []int{},
	}
	log := s.logger.With(logger.String("league", leagueID), logger.Int("season", season))

	fail := func(err error) (model.RefreshResult, error) {
		metrics.RecordRefresh("failed", float64(time.Since(start).Milliseconds()))
		log.Error(ctx, "refresh failed", logger.Error(err))
		return res, err
	}

	league, err := s.source.FetchLeague(ctx, leagueID, season)
	if err != nil {
		return fail(fmt.Errorf("%w: league data: %w", ErrUpstream, err))
	}

	first, last := s.firstWeek, s.lastWeek
	if league.CurrentWeek > 0 && league.CurrentWeek < last {
		last = league.CurrentWeek
	}
	// Playoff matchup periods are not single weeks.
	if league.RegularSeasonWeeks > 0 && league.RegularSeasonWeeks < last {
		last = league.RegularSeasonWeeks
	}

	outcomes := s.fetchWeeks(ctx, leagueID, season, first, last)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	weeks := make([]model.WeekScores, 0, len(outcomes))
	available := make([]model.WeekData, 0, len(outcomes))
	for _, o := range outcomes {
		switch o.outcome {
		case fetchOK:
			res.WeeksFetched = append(res.WeeksFetched, o.week)
		case fetchCached:
			res.WeeksCached = append(res.WeeksCached, o.week)
		default:
			res.WeeksFailed = append(res.WeeksFailed, o.week)
			continue
		}
		weeks = append(weeks, model.WeekScores{Week: o.week, Scores: o.data.Scores})
		available = append(available, o.data)
	}
	if len(weeks) == 0 {
		return fail(fmt.Errorf("%w: weeks %d..%d", ErrNoWeeks, first, last))
	}

	records, err := truerecord.AggregateSeason(weeks)
	if err != nil {
		return fail(err)
	}

	standings := league.Standings
	if len(standings) == 0 {
		standings = standingsFromMatchups(available)
	}

	now := s.now().UTC()
	s.persist(ctx, log, leagueID, season, records, standings, league.Teams, now)

	res.Teams = len(records)
	res.UpdatedAt = now
	metrics.RecordRefresh("succeeded", float64(time.Since(start).Milliseconds()))
	metrics.UpdateSeasonSize(len(weeks), len(records))
	log.Info(ctx, "refresh finished",
		logger.Int("weeks_fetched", len(res.WeeksFetched)),
		logger.Int("weeks_cached", len(res.WeeksCached)),
		logger.Int("weeks_failed", len(res.WeeksFailed)),
		logger.Int("teams", res.Teams),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

// fetchWeeks fetches first..last with at most fetchConcurrency requests in
// flight. Results come back in week order.
func (s *Service) fetchWeeks(ctx context.Context, leagueID string, season, first, last int) []weekOutcome {
	if last < first {
		return nil
	}
	out := make([]weekOutcome, last-first+1)

	var g errgroup.Group
	g.SetLimit(s.fetchConcurrency)
	for w := first; w <= last; w++ {
		i, week := w-first, w
		g.Go(func() error {
			out[i] = s.fetchWeek(ctx, leagueID, season, week)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) fetchWeek(ctx context.Context, leagueID string, season, week int) weekOutcome {
	data, err := s.source.FetchWeek(ctx, leagueID, season, week)
	if err == nil {
		if serr := s.repo.SaveWeek(ctx, leagueID, season, data); serr != nil {
			s.logger.Warn(ctx, "failed to cache week", logger.Int("week", week), logger.Error(serr))
		}
		metrics.RecordWeekFetch(fetchOK)
		return weekOutcome{week: week, data: data, outcome: fetchOK}
	}

	s.logger.Warn(ctx, "week fetch failed",
		logger.String("league", leagueID),
		logger.Int("season", season),
		logger.Int("week", week),
		logger.Error(err))

	cached, cerr := s.repo.LoadWeek(ctx, leagueID, season, week)
	if cerr == nil {
		metrics.RecordWeekFetch(fetchCached)
		return weekOutcome{week: week, data: cached, outcome: fetchCached}
	}
	if !errors.Is(cerr, repository.ErrNotFound) {
		s.logger.Warn(ctx, "cached week unreadable", logger.Int("week", week), logger.Error(cerr))
	}
	metrics.RecordWeekFetch(fetchFailed)
	metrics.RecordErrorByComponent("refresh", "week_fetch")
	return weekOutcome{week: week, outcome: fetchFailed}
}

// persist writes the aggregate. Every write is best effort.
func (s *Service) persist(ctx context.Context, log logger.Logger, leagueID string, season int,
	records map[string]model.TrueRecord, standings []model.ActualStanding, teams []model.TeamMetadata, now time.Time,
) {
	if err := s.repo.SaveRecords(ctx, leagueID, season, records); err != nil {
		log.Error(ctx, "failed to save true records", logger.Error(err))
	} else if n, err := s.repo.DeleteStaleRecords(ctx, leagueID, season, records); err != nil {
		log.Warn(ctx, "failed to delete stale records", logger.Error(err))
	} else if n > 0 {
		log.Info(ctx, "deleted stale records", logger.Int("count", n))
	}
	if err := s.repo.SaveStandings(ctx, leagueID, season, standings); err != nil {
		log.Warn(ctx, "failed to save standings", logger.Error(err))
	}
	if len(teams) > 0 {
		if err := s.repo.SaveTeams(ctx, leagueID, season, teams); err != nil {
			log.Warn(ctx, "failed to save team metadata", logger.Error(err))
		}
	}
	if err := s.repo.SaveUpdatedAt(ctx, leagueID, season, now); err != nil {
		log.Warn(ctx, "failed to save refresh timestamp", logger.Error(err))
	}
}

// standingsFromMatchups tallies decided matchups when the league payload
// carries no records.
func standingsFromMatchups(weeks []model.WeekData) []model.ActualStanding {
	byTeam := map[string]*model.ActualStanding{}
	tally := func(teamID, result string) {
		st, ok := byTeam[teamID]
		if !ok {
			st = &model.ActualStanding{TeamID: teamID}
			byTeam[teamID] = st
		}
		switch result {
		case "W":
			st.Wins++
		case "L":
			st.Losses++
		case "T":
			st.Ties++
		}
	}
	for _, w := range weeks {
		for _, m := range w.Matchups {
			if m.AwayTeamID == "" {
				continue
			}
			tally(m.HomeTeamID, m.Result(m.HomeTeamID))
			tally(m.AwayTeamID, m.Result(m.AwayTeamID))
		}
	}
	out := make([]model.ActualStanding, 0, len(byTeam))
	for _, st := range byTeam {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// SubmitRefresh queues an asynchronous refresh and returns the queued job.
func (s *Service) SubmitRefresh(ctx context.Context, leagueID string, season int, source string) (model.RefreshJob, error) {
	s.mu.RLock()
	started, q := s.started, s.jobQueue
	s.mu.RUnlock()
	if !started {
		return model.RefreshJob{}, ErrNotStarted
	}

	leagueID, season, err := s.Resolve(leagueID, season)
	if err != nil {
		return model.RefreshJob{}, err
	}
	key := flightKey(leagueID, season)
	if s.running.Seen(ctx, key) || s.queued.SeenAndRecord(ctx, key) {
		return model.RefreshJob{}, fmt.Errorf("%w: %s", ErrRefreshInFlight, key)
	}

	job := model.RefreshJob{
		ID:        s.newID(),
		LeagueID:  leagueID,
		Season:    season,
		Source:    source,
		Status:    model.JobQueued,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.SaveJob(ctx, job); err != nil {
		s.queued.Unrecord(ctx, key)
		return model.RefreshJob{}, fmt.Errorf("save job: %w", err)
	}

	if err := q.Enqueue(ctx, job); err != nil {
		s.queued.Unrecord(ctx, key)
		_ = s.finishJob(ctx, job, nil, err)
		switch {
		case errors.Is(err, jobqueue.ErrFull):
			return model.RefreshJob{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		case errors.Is(err, jobqueue.ErrClosed):
			return model.RefreshJob{}, fmt.Errorf("%w: %w", ErrNotStarted, err)
		}
		return model.RefreshJob{}, err
	}

	s.logger.Debug(ctx, "refresh job queued",
		logger.String("job_id", job.ID),
		logger.String("league", leagueID),
		logger.Int("season", season),
		logger.String("source", source))
	return job, nil
}

// handleJob executes a queued refresh job on a worker.
func (s *Service) handleJob(ctx context.Context, job jobqueue.Job) error {
	key := flightKey(job.LeagueID, job.Season)
	if s.running.SeenAndRecord(ctx, key) {
		s.queued.Unrecord(ctx, key)
		return s.finishJob(ctx, job, nil, fmt.Errorf("%w: %s", ErrRefreshInFlight, key))
	}
	s.queued.Unrecord(ctx, key)
	defer s.running.Unrecord(ctx, key)

	startedAt := s.now().UTC()
	job.Status = model.JobRunning
	job.StartedAt = &startedAt
	if err := s.repo.SaveJob(ctx, job); err != nil {
		s.logger.Warn(ctx, "failed to save job status", logger.String("job_id", job.ID), logger.Error(err))
	}

	res, err := s.refresh(ctx, job.LeagueID, job.Season)
	if err != nil {
		return s.finishJob(ctx, job, nil, err)
	}
	return s.finishJob(ctx, job, &res, nil)
}

// finishJob stores the terminal state of job and returns runErr.
func (s *Service) finishJob(ctx context.Context, job model.RefreshJob, res *model.RefreshResult, runErr error) error {
	finishedAt := s.now().UTC()
	job.FinishedAt = &finishedAt
	job.Result = res
	if runErr != nil {
		job.Status = model.JobFailed
		job.Error = runErr.Error()
	} else {
		job.Status = model.JobSucceeded
	}
	if err := s.repo.SaveJob(context.WithoutCancel(ctx), job); err != nil {
		s.logger.Warn(ctx, "failed to save job status", logger.String("job_id", job.ID), logger.Error(err))
	}
	return runErr
}

// Job returns a refresh job by id.
func (s *Service) Job(ctx context.Context, jobID string) (model.RefreshJob, error) {
	job, err := s.repo.LoadJob(ctx, jobID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.RefreshJob{}, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}
	return job, err
}
