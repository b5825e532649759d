// Package espn fetches league and weekly matchup data from the ESPN fantasy
// football v3 API and converts it into validated domain values.
package espn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/okian/truerecord/internal/domain/model"
	"github.com/okian/truerecord/pkg/logger"
	"github.com/okian/truerecord/pkg/metrics"
)

const (
	// DefaultBaseURL is the public read host of the fantasy football API.
	DefaultBaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"

	maxBodyBytes = 8 << 20
	userAgent    = "truerecord/1.0"
)

var errTransient = errors.New("transient")

// Client is an ESPN fantasy football API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	espnS2     string
	swid       string
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// New creates a client with a 10s timeout and two retries.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// FetchWeek returns the scores and matchups of one matchup period. The
// request names the scoring period of the same number, which lines up with
// the matchup period through the regular season only. Playoff matchups can
// span several scoring periods and their totalPoints cover all of them, so
// callers stop at LeagueData.RegularSeasonWeeks.
func (c *Client) FetchWeek(ctx context.Context, leagueID string, season, week int) (model.WeekData, error) {
	if week <= 0 {
		return model.WeekData{}, fmt.Errorf("%w: week %d", ErrInvalidArgument, week)
	}
	q := url.Values{}
	q.Add("view", "mMatchupScore")
	q.Set("scoringPeriodId", strconv.Itoa(week))

	var resp leagueResponse
	if err := c.get(ctx, "week", leagueID, season, q, &resp); err != nil {
		return model.WeekData{}, err
	}
	w, err := parseWeek(resp, week)
	if err != nil {
		metrics.RecordUpstreamError("malformed")
		return model.WeekData{}, fmt.Errorf("league %s season %d week %d: %w", leagueID, season, week, err)
	}
	return w, nil
}

// FetchLeague returns team metadata, actual standings and the current week.
func (c *Client) FetchLeague(ctx context.Context, leagueID string, season int) (model.LeagueData, error) {
	q := url.Values{}
	q.Add("view", "mTeam")
	q.Add("view", "mSettings")

	var resp leagueResponse
	if err := c.get(ctx, "league", leagueID, season, q, &resp); err != nil {
		return model.LeagueData{}, err
	}
	ld, err := parseLeague(resp)
	if err != nil {
		metrics.RecordUpstreamError("malformed")
		return model.LeagueData{}, fmt.Errorf("league %s season %d: %w", leagueID, season, err)
	}
	return ld, nil
}

func (c *Client) get(ctx context.Context, endpoint, leagueID string, season int, q url.Values, target any) error {
	if leagueID == "" || season <= 0 {
		return fmt.Errorf("%w: league %q season %d", ErrInvalidArgument, leagueID, season)
	}
	fullURL := fmt.Sprintf("%s/seasons/%d/segments/0/leagues/%s?%s",
		c.baseURL, season, url.PathEscape(leagueID), q.Encode())

	start := time.Now()
	raw, err := c.execute(ctx, fullURL)
	metrics.RecordUpstreamLatency(endpoint, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordUpstreamError("transport")
		c.log.Warn(ctx, "espn request failed",
			logger.String("endpoint", endpoint),
			logger.String("league", leagueID),
			logger.Int("season", season),
			logger.Error(err))
		return err
	}

	if err := jsoniter.Unmarshal(raw, target); err != nil {
		metrics.RecordUpstreamError("decode")
		return fmt.Errorf("%w: decode %s: %w", ErrMalformedPayload, endpoint, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.do(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !errors.Is(err, errTransient) || attempt == c.maxRetries {
			break
		}

		timer := time.NewTimer(time.Duration(attempt+1) * c.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %w", ErrUpstream, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.espnS2 != "" && c.swid != "" {
		req.AddCookie(&http.Cookie{Name: "espn_s2", Value: c.espnS2})
		req.AddCookie(&http.Cookie{Name: "SWID", Value: c.swid})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		return nil, fmt.Errorf("%w: %w: send request: %w", ErrUpstream, errTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: read body: %w", ErrUpstream, errTransient, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	if isRetryableStatus(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %w: status=%d body=%s", ErrUpstream, errTransient, resp.StatusCode, abbreviateBody(raw))
	}
	return nil, fmt.Errorf("%w: status=%d body=%s", ErrUpstream, resp.StatusCode, abbreviateBody(raw))
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func abbreviateBody(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
