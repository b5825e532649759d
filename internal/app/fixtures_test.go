package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/okian/truerecord/internal/domain/model"
)

var errUpstreamDown = errors.New("upstream down")

// fakeSource serves a fixed four-team league.
type fakeSource struct {
	mu        sync.Mutex
	league    model.LeagueData
	weeks     map[int]model.WeekData
	failWeeks map[int]bool
	leagueErr error

	// gate, when set, blocks FetchLeague until closed; entered receives
	// one value per blocked call.
	gate    chan struct{}
	entered chan struct{}

	leagueCalls atomic.Int32
	weekCalls   atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		league: model.LeagueData{
			Teams: []model.TeamMetadata{
				{TeamID: "1", Name: "Alpha", Owner: "Ann"},
				{TeamID: "2", Name: "Bravo", Owner: "Bob"},
				{TeamID: "3", Name: "Charlie", Owner: "Cat"},
				{TeamID: "4", Name: "Delta", Owner: "Dan"},
			},
			Standings: []model.ActualStanding{
				{TeamID: "1", Wins: 1, Losses: 1},
				{TeamID: "2", Wins: 1, Losses: 1},
				{TeamID: "3", Wins: 2},
				{TeamID: "4", Losses: 2},
			},
			CurrentWeek: 2,
		},
		weeks: map[int]model.WeekData{
			1: {
				Week:   1,
				Scores: model.WeeklyScoreMap{"1": 100, "2": 90, "3": 80, "4": 70},
				Matchups: []model.Matchup{
					{HomeTeamID: "1", HomePoints: 100, AwayTeamID: "2", AwayPoints: 90, Winner: model.WinnerHome},
					{HomeTeamID: "3", HomePoints: 80, AwayTeamID: "4", AwayPoints: 70, Winner: model.WinnerHome},
				},
			},
			2: {
				Week:   2,
				Scores: model.WeeklyScoreMap{"1": 60, "2": 110, "3": 95, "4": 95},
				Matchups: []model.Matchup{
					{HomeTeamID: "1", HomePoints: 60, AwayTeamID: "3", AwayPoints: 95, Winner: model.WinnerAway},
					{HomeTeamID: "2", HomePoints: 110, AwayTeamID: "4", AwayPoints: 95, Winner: model.WinnerHome},
				},
			},
		},
		failWeeks: map[int]bool{},
	}
}

func (f *fakeSource) FetchLeague(ctx context.Context, _ string, _ int) (model.LeagueData, error) {
	f.leagueCalls.Add(1)
	if f.gate != nil {
		f.entered <- struct{}{}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return model.LeagueData{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leagueErr != nil {
		return model.LeagueData{}, f.leagueErr
	}
	return f.league, nil
}

func (f *fakeSource) FetchWeek(_ context.Context, _ string, _ int, week int) (model.WeekData, error) {
	f.weekCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWeeks[week] {
		return model.WeekData{}, errUpstreamDown
	}
	w, ok := f.weeks[week]
	if !ok {
		return model.WeekData{}, errUpstreamDown
	}
	return w, nil
}

func (f *fakeSource) failWeek(week int) {
	f.mu.Lock()
	f.failWeeks[week] = true
	f.mu.Unlock()
}

func (f *fakeSource) dropTeam(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for w, data := range f.weeks {
		scores := model.WeeklyScoreMap{}
		for k, v := range data.Scores {
			if k != id {
				scores[k] = v
			}
		}
		data.Scores = scores
		f.weeks[w] = data
	}
}

func (f *fakeSource) block() {
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 16)
}
