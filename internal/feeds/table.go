package feeds

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
)

// TableFeed renders the league table from football-data.org. Get takes the
// season's starting year.
type TableFeed struct{ deps Deps }

func (f *TableFeed) Name() string { return "table" }

func (f *TableFeed) Latest(ctx context.Context) (string, error) {
	return f.render(ctx, 0)
}

func (f *TableFeed) Get(ctx context.Context, id string) (string, error) {
	season, err := parseID(id)
	if err != nil {
		return "", err
	}
	return f.render(ctx, season)
}

func (f *TableFeed) render(ctx context.Context, season int) (string, error) {
	t, err := f.deps.FootballData.Standings(ctx, f.deps.Competition, season)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Pos\tTeam\tP\tW\tD\tL\tGD\tPts\t")
	for _, r := range t.Table {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%+d\t%d\t\n",
			r.Position, r.Team.TLA, r.PlayedGames, r.Won, r.Draw, r.Lost, r.GoalDifference, r.Points)
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
