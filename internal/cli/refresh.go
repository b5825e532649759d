package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	service "github.com/okian/truerecord/internal/app"
	"github.com/okian/truerecord/internal/domain/model"
	"github.com/okian/truerecord/internal/domain/types"
	"github.com/okian/truerecord/pkg/logger"
)

// RefreshConfig holds the refresh command flags.
type RefreshConfig struct {
	League  string        // League id override
	Season  int           // Season override
	Timeout time.Duration // Overall deadline
	Print   bool          // Print standings after refresh
}

// Refresher is what the refresh command needs from the service.
type Refresher interface {
	Refresh(ctx context.Context, leagueID string, season int) (model.RefreshResult, error)
	Standings(ctx context.Context, leagueID string, season int) (types.Standings, error)
}

// RunRefresh refreshes one league season and optionally prints its standings.
func RunRefresh(ctx context.Context, svc Refresher, rc RefreshConfig, out io.Writer, log logger.Logger) error {
	if rc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.Timeout)
		defer cancel()
	}

	res, err := svc.Refresh(ctx, rc.League, rc.Season)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	log.Info(ctx, "season refreshed",
		logger.String("league", res.LeagueID),
		logger.Int("season", res.Season),
		logger.Int("teams", res.Teams),
		logger.Any("weeks_failed", res.WeeksFailed),
	)
	if !rc.Print {
		return nil
	}

	st, err := svc.Standings(ctx, res.LeagueID, res.Season)
	if err != nil {
		return fmt.Errorf("standings: %w", err)
	}
	return PrintStandings(out, st)
}

// PrintStandings writes a plain-text standings table.
func PrintStandings(out io.Writer, st types.Standings) error {
	if _, err := fmt.Fprintf(out, "League %s, season %d, weeks %v\n\n", st.LeagueID, st.Season, st.Weeks); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEAM\tTRUE\tPCT\tACTUAL\tLUCK\tAVG\tSTDDEV")
	for _, row := range st.Rows {
		actual, luck := "-", "-"
		if row.ActualRecord != nil {
			actual = recordString(*row.ActualRecord)
		}
		if row.LuckDifferential != nil {
			luck = fmt.Sprintf("%+.3f", *row.LuckDifferential)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t%s\t%s\t%.2f\t%.2f\n",
			row.Rank, row.Team.Name, recordString(row.TrueRecord), row.TrueWinPct,
			actual, luck, row.AveragePoints, row.Consistency)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if st.Luckiest != nil && st.Unluckiest != nil {
		_, err := fmt.Fprintf(out, "\nLuckiest: %s (%+.3f)  Unluckiest: %s (%+.3f)\n",
			st.Luckiest.Team.Name, st.Luckiest.Differential,
			st.Unluckiest.Team.Name, st.Unluckiest.Differential)
		return err
	}
	return nil
}

func recordString(r types.Record) string {
	if r.Ties > 0 {
		return fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Ties)
	}
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

var _ Refresher = (*service.Service)(nil)
