package feeds

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/briangreenhill/fpldash/pkg/fpl"
)

// LeagueFeed renders a classic league table with live gameweek points.
type LeagueFeed struct{ deps Deps }

func (f *LeagueFeed) Name() string { return "league" }

func (f *LeagueFeed) Latest(ctx context.Context) (string, error) {
	if f.deps.LeagueID == 0 {
		return "No league configured. Set FPL_LEAGUE_ID or ask for a league by id.\n", nil
	}
	return f.render(ctx, f.deps.LeagueID)
}

func (f *LeagueFeed) Get(ctx context.Context, id string) (string, error) {
	league, err := parseID(id)
	if err != nil {
		return "", err
	}
	return f.render(ctx, league)
}

func (f *LeagueFeed) render(ctx context.Context, league int) (string, error) {
	ls, err := f.deps.FPL.ClassicLeague(ctx, league, 1)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	rows := fpl.SortStandings(ls.Standings.Results)
	live := f.livePoints(ctx, rows)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", ls.League.Name)
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\t\tTeam\tManager\tGW\tLive\tTotal")
	for _, r := range rows {
		lp := "-"
		if p, ok := live[r.Entry]; ok {
			lp = fmt.Sprint(p)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%d\n",
			r.Rank, arrow(r.Movement()), r.EntryName, r.PlayerName, r.EventTotal, lp, r.Total)
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	if ls.Standings.HasNext {
		sb.WriteString("(first page only)\n")
	}
	return sb.String(), nil
}

// livePoints computes each entry's live score for the current gameweek.
// Any failure leaves the column empty rather than failing the feed.
func (f *LeagueFeed) livePoints(ctx context.Context, rows []fpl.StandingRow) map[int]int {
	out := map[int]int{}
	if len(rows) == 0 {
		return out
	}
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		f.deps.Log.Debug().Err(err).Msg("league live points skipped")
		return out
	}
	ev, ok := fpl.CurrentEvent(b.Events)
	if !ok {
		return out
	}
	live, err := f.deps.FPL.Live(ctx, ev.ID)
	if err != nil {
		f.deps.Log.Debug().Err(err).Msg("league live points skipped")
		return out
	}

	entries := make([]int, len(rows))
	for i, r := range rows {
		entries[i] = r.Entry
	}
	picks, errs := f.deps.FPL.ManyPicks(ctx, entries, ev.ID)
	for id, err := range errs {
		f.deps.Log.Debug().Err(err).Int("entry", id).Msg("picks unavailable")
	}
	for id, p := range picks {
		out[id] = fpl.LivePoints(p, live)
	}
	return out
}

func arrow(movement int) string {
	switch {
	case movement > 0:
		return "▲"
	case movement < 0:
		return "▼"
	default:
		return "="
	}
}
