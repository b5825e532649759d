package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/okian/truerecord/internal/domain/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SeasonRepository stores typed season data on top of a Store.
type SeasonRepository struct {
	store  Store
	ttl    time.Duration
	jobTTL time.Duration
}

// NewSeasonRepository wraps store.
func NewSeasonRepository(store Store, opts ...SeasonOption) *SeasonRepository {
	r := &SeasonRepository{store: store, jobTTL: time.Hour}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping reports cache health.
func (r *SeasonRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *SeasonRepository) put(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.store.Set(ctx, key, b, ttl)
}

func (r *SeasonRepository) get(ctx context.Context, key string, v any) error {
	b, err := r.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, key, err)
	}
	return nil
}

// SaveWeek stores one week of validated scores.
func (r *SeasonRepository) SaveWeek(ctx context.Context, leagueID string, season int, week model.WeekData) error {
	return r.put(ctx, WeekKey(leagueID, season, week.Week), week, r.ttl)
}

// LoadWeek returns ErrNotFound when the week was never cached.
func (r *SeasonRepository) LoadWeek(ctx context.Context, leagueID string, season, week int) (model.WeekData, error) {
	var w model.WeekData
	err := r.get(ctx, WeekKey(leagueID, season, week), &w)
	return w, err
}

// LoadWeeks returns every cached week ordered by week number. Corrupt
// entries are skipped and reported in the joined error alongside the data.
func (r *SeasonRepository) LoadWeeks(ctx context.Context, leagueID string, season int) ([]model.WeekData, error) {
	prefix := weekPrefix(leagueID, season)
	keys, err := r.store.ScanKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	weeks := make([]model.WeekData, 0, len(keys))
	var errs []error
	for _, k := range keys {
		suffix, _ := suffixAfter(k, prefix)
		if _, convErr := strconv.Atoi(suffix); convErr != nil {
			continue
		}
		var w model.WeekData
		if err := r.get(ctx, k, &w); err != nil {
			if !errors.Is(err, ErrNotFound) {
				errs = append(errs, err)
			}
			continue
		}
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Week < weeks[j].Week })
	return weeks, errors.Join(errs...)
}

// SaveRecords stores one key per team in a single batch.
func (r *SeasonRepository) SaveRecords(ctx context.Context, leagueID string, season int, records map[string]model.TrueRecord) error {
	entries := make(map[string][]byte, len(records))
	for teamID, tr := range records {
		b, err := json.Marshal(tr)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", teamID, err)
		}
		entries[RecordKey(leagueID, season, teamID)] = b
	}
	return r.store.SetMany(ctx, entries, r.ttl)
}

// LoadRecord returns ErrNotFound for an unknown team.
func (r *SeasonRepository) LoadRecord(ctx context.Context, leagueID string, season int, teamID string) (model.TrueRecord, error) {
	var tr model.TrueRecord
	err := r.get(ctx, RecordKey(leagueID, season, teamID), &tr)
	return tr, err
}

// LoadRecords returns every cached TrueRecord keyed by team id. A season
// with no records yields an empty map, not ErrNotFound.
func (r *SeasonRepository) LoadRecords(ctx context.Context, leagueID string, season int) (map[string]model.TrueRecord, error) {
	prefix := recordPrefix(leagueID, season)
	keys, err := r.store.ScanKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.TrueRecord, len(keys))
	var errs []error
	for _, k := range keys {
		var tr model.TrueRecord
		if err := r.get(ctx, k, &tr); err != nil {
			if !errors.Is(err, ErrNotFound) {
				errs = append(errs, err)
			}
			continue
		}
		teamID, _ := suffixAfter(k, prefix)
		out[teamID] = tr
	}
	return out, errors.Join(errs...)
}

// DeleteStaleRecords removes records of teams not in keep and returns how
// many were removed.
func (r *SeasonRepository) DeleteStaleRecords(ctx context.Context, leagueID string, season int, keep map[string]model.TrueRecord) (int, error) {
	prefix := recordPrefix(leagueID, season)
	keys, err := r.store.ScanKeys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	var stale []string
	for _, k := range keys {
		teamID, _ := suffixAfter(k, prefix)
		if _, ok := keep[teamID]; !ok {
			stale = append(stale, k)
		}
	}
	if err := r.store.Delete(ctx, stale...); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// SaveStandings stores the actual standings.
func (r *SeasonRepository) SaveStandings(ctx context.Context, leagueID string, season int, standings []model.ActualStanding) error {
	return r.put(ctx, StandingsKey(leagueID, season), standings, r.ttl)
}

// LoadStandings returns ErrNotFound when no standings are cached.
func (r *SeasonRepository) LoadStandings(ctx context.Context, leagueID string, season int) ([]model.ActualStanding, error) {
	var s []model.ActualStanding
	err := r.get(ctx, StandingsKey(leagueID, season), &s)
	return s, err
}

// SaveTeams stores team metadata.
func (r *SeasonRepository) SaveTeams(ctx context.Context, leagueID string, season int, teams []model.TeamMetadata) error {
	return r.put(ctx, TeamsKey(leagueID, season), teams, r.ttl)
}

// LoadTeams returns metadata keyed by team id.
func (r *SeasonRepository) LoadTeams(ctx context.Context, leagueID string, season int) (map[string]model.TeamMetadata, error) {
	var teams []model.TeamMetadata
	if err := r.get(ctx, TeamsKey(leagueID, season), &teams); err != nil {
		return nil, err
	}
	out := make(map[string]model.TeamMetadata, len(teams))
	for _, t := range teams {
		out[t.TeamID] = t
	}
	return out, nil
}

// SaveUpdatedAt records the time of the last successful refresh.
func (r *SeasonRepository) SaveUpdatedAt(ctx context.Context, leagueID string, season int, at time.Time) error {
	return r.store.Set(ctx, UpdatedAtKey(leagueID, season), []byte(at.UTC().Format(time.RFC3339)), r.ttl)
}

// LoadUpdatedAt returns ErrNotFound before the first refresh.
func (r *SeasonRepository) LoadUpdatedAt(ctx context.Context, leagueID string, season int) (time.Time, error) {
	b, err := r.store.Get(ctx, UpdatedAtKey(leagueID, season))
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, string(b))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: updated_at: %w", ErrCorrupt, err)
	}
	return t, nil
}

// SaveJob stores a refresh job with the job TTL.
func (r *SeasonRepository) SaveJob(ctx context.Context, job model.RefreshJob) error {
	return r.put(ctx, JobKey(job.ID), job, r.jobTTL)
}

// LoadJob returns ErrNotFound for unknown or expired jobs.
func (r *SeasonRepository) LoadJob(ctx context.Context, jobID string) (model.RefreshJob, error) {
	var j model.RefreshJob
	err := r.get(ctx, JobKey(jobID), &j)
	return j, err
}

// Snapshot is everything the read paths need for one league season.
type Snapshot struct {
	Records   map[string]model.TrueRecord
	Weeks     []model.WeekData
	Teams     map[string]model.TeamMetadata
	Standings []model.ActualStanding
	UpdatedAt *time.Time
}

// LoadSnapshot issues the independent reads concurrently and waits for all
// of them. Missing standings, teams or timestamp are not errors.
func (r *SeasonRepository) LoadSnapshot(ctx context.Context, leagueID string, season int) (Snapshot, error) {
	var (
		snap                               Snapshot
		wg                                 sync.WaitGroup
		recErr, weekErr, teamErr, standErr error
		updErr                             error
		updatedAt                          time.Time
	)

	wg.Add(5)
	go func() { defer wg.Done(); snap.Records, recErr = r.LoadRecords(ctx, leagueID, season) }()
	go func() { defer wg.Done(); snap.Weeks, weekErr = r.LoadWeeks(ctx, leagueID, season) }()
	go func() { defer wg.Done(); snap.Teams, teamErr = r.LoadTeams(ctx, leagueID, season) }()
	go func() { defer wg.Done(); snap.Standings, standErr = r.LoadStandings(ctx, leagueID, season) }()
	go func() { defer wg.Done(); updatedAt, updErr = r.LoadUpdatedAt(ctx, leagueID, season) }()
	wg.Wait()

	if updErr == nil {
		snap.UpdatedAt = &updatedAt
	}
	if snap.Teams == nil {
		snap.Teams = map[string]model.TeamMetadata{}
	}

	var errs []error
	for _, err := range []error{recErr, weekErr, teamErr, standErr, updErr} {
		if err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return snap, errors.Join(errs...)
}
