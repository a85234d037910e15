package feeds

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/briangreenhill/fpldash/pkg/fpl"
)

// DeadlineFeed shows the countdown to the next transfer deadline.
type DeadlineFeed struct{ deps Deps }

func (f *DeadlineFeed) Name() string { return "deadline" }

func (f *DeadlineFeed) Latest(ctx context.Context) (string, error) {
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	ev, ok := fpl.NextEvent(b.Events)
	if !ok {
		return "No upcoming deadline. The season is over.\n", nil
	}
	return f.render(ev), nil
}

func (f *DeadlineFeed) Get(ctx context.Context, id string) (string, error) {
	gw, err := parseID(id)
	if err != nil {
		return "", err
	}
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	for _, ev := range b.Events {
		if ev.ID == gw {
			return f.render(ev), nil
		}
	}
	return "", fmt.Errorf("%w: no gameweek %d", ErrBadID, gw)
}

func (f *DeadlineFeed) render(ev fpl.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s deadline: %s\n", ev.Name, ev.DeadlineTime.UTC().Format("Mon 2 Jan 15:04 MST"))
	r := fpl.Countdown(ev.DeadlineTime, f.deps.Now())
	if r.Passed() {
		sb.WriteString("Deadline passed.\n")
	} else {
		fmt.Fprintf(&sb, "Time left: %dd %dh %dm %ds\n", r.Days, r.Hours, r.Minutes, r.Seconds)
	}
	return sb.String()
}

// LiveFeed lists the top live scorers of a gameweek.
type LiveFeed struct{ deps Deps }

const liveTop = 10

func (f *LiveFeed) Name() string { return "live" }

func (f *LiveFeed) Latest(ctx context.Context) (string, error) {
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	ev, ok := fpl.CurrentEvent(b.Events)
	if !ok {
		return "No gameweek in progress.\n", nil
	}
	return f.render(ctx, b, ev.ID)
}

func (f *LiveFeed) Get(ctx context.Context, id string) (string, error) {
	gw, err := parseID(id)
	if err != nil {
		return "", err
	}
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	return f.render(ctx, b, gw)
}

func (f *LiveFeed) render(ctx context.Context, b *fpl.Bootstrap, gw int) (string, error) {
	live, err := f.deps.FPL.Live(ctx, gw)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	els := append([]fpl.LiveElement(nil), live.Elements...)
	sort.SliceStable(els, func(i, j int) bool {
		if els[i].Stats.TotalPoints != els[j].Stats.TotalPoints {
			return els[i].Stats.TotalPoints > els[j].Stats.TotalPoints
		}
		return els[i].ID < els[j].ID
	})
	if len(els) > liveTop {
		els = els[:liveTop]
	}

	l := newLookup(b)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Gameweek %d live top scorers\n", gw)
	if len(els) == 0 {
		sb.WriteString("  no points yet\n")
	}
	for _, e := range els {
		fmt.Fprintf(&sb, "  %3d  %-24s %2d'  %dG %dA  bps %d\n",
			e.Stats.TotalPoints, l.player(e.ID), e.Stats.Minutes, e.Stats.GoalsScored, e.Stats.Assists, e.Stats.BPS)
	}
	return sb.String(), nil
}

// BonusFeed shows provisional bonus points for started fixtures.
type BonusFeed struct{ deps Deps }

func (f *BonusFeed) Name() string { return "bonus" }

func (f *BonusFeed) Latest(ctx context.Context) (string, error) {
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	ev, ok := fpl.CurrentEvent(b.Events)
	if !ok {
		return "No gameweek in progress.\n", nil
	}
	return f.render(ctx, b, ev.ID)
}

func (f *BonusFeed) Get(ctx context.Context, id string) (string, error) {
	gw, err := parseID(id)
	if err != nil {
		return "", err
	}
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	return f.render(ctx, b, gw)
}

func (f *BonusFeed) render(ctx context.Context, b *fpl.Bootstrap, gw int) (string, error) {
	fixtures, err := f.deps.FPL.Fixtures(ctx, gw)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}

	l := newLookup(b)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Gameweek %d provisional bonus\n", gw)
	shown := 0
	for _, fx := range fixtures {
		if fx.Started == nil || !*fx.Started {
			continue
		}
		shown++
		fmt.Fprintf(&sb, "%s %s-%s %s (%s)\n",
			l.team(fx.TeamH), score(fx.TeamHScore), score(fx.TeamAScore), l.team(fx.TeamA), status(fx))
		bonus := fpl.ProvisionalBonus(fx)
		if len(bonus) == 0 {
			sb.WriteString("  no bps data yet\n")
		}
		for _, bn := range bonus {
			fmt.Fprintf(&sb, "  +%d  %-24s bps %d\n", bn.Points, l.player(bn.Element), bn.BPS)
		}
	}
	if shown == 0 {
		sb.WriteString("  no fixtures have started\n")
	}
	return sb.String(), nil
}

func score(s *int) string {
	if s == nil {
		return "?"
	}
	return fmt.Sprint(*s)
}

func status(fx fpl.Fixture) string {
	if fx.Finished {
		return "FT"
	}
	return fmt.Sprintf("%d'", fx.Minutes)
}

// PricesFeed lists this gameweek's price risers and fallers.
type PricesFeed struct{ deps Deps }

func (f *PricesFeed) Name() string { return "prices" }

func (f *PricesFeed) Latest(ctx context.Context) (string, error) {
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	risers, fallers := fpl.PriceChanges(b.Elements)
	l := newLookup(b)

	var sb strings.Builder
	section := func(title string, pcs []fpl.PriceChange) {
		sb.WriteString(title + "\n")
		if len(pcs) == 0 {
			sb.WriteString("  none\n")
		}
		for _, pc := range pcs {
			fmt.Fprintf(&sb, "  %-24s £%.1fm %+.1f  net %+d\n", l.player(pc.Element), pc.Price, pc.Change, pc.NetXfer)
		}
	}
	section("Risers", risers)
	section("Fallers", fallers)
	return sb.String(), nil
}

func (f *PricesFeed) Get(context.Context, string) (string, error) {
	return "", ErrUnsupported
}

// FixturesFeed ranks teams by the difficulty of their next fixtures.
type FixturesFeed struct{ deps Deps }

const fixtureHorizon = 5

func (f *FixturesFeed) Name() string { return "fixtures" }

func (f *FixturesFeed) Latest(ctx context.Context) (string, error) {
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	ev, ok := fpl.NextEvent(b.Events)
	if !ok {
		return "Season complete.\n", nil
	}
	return f.render(ctx, b, ev.ID)
}

// Get renders the run starting at gameweek id.
func (f *FixturesFeed) Get(ctx context.Context, id string) (string, error) {
	gw, err := parseID(id)
	if err != nil {
		return "", err
	}
	b, err := f.deps.FPL.Bootstrap(ctx)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	return f.render(ctx, b, gw)
}

func (f *FixturesFeed) render(ctx context.Context, b *fpl.Bootstrap, from int) (string, error) {
	fixtures, err := f.deps.FPL.Fixtures(ctx, 0)
	if err != nil {
		return degrade(f.deps.Log, f.Name(), err)
	}
	runs := fpl.FixtureDifficulty(b.Teams, fixtures, from, fixtureHorizon)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Fixture difficulty GW%d-%d (home in capitals)\n", from, from+fixtureHorizon-1)
	for _, run := range runs {
		opps := make([]string, len(run.Opponents))
		for i, o := range run.Opponents {
			name := strings.ToLower(o.ShortName)
			if o.Home {
				name = strings.ToUpper(o.ShortName)
			}
			opps[i] = fmt.Sprintf("%s(%d)", name, o.Difficulty)
		}
		fmt.Fprintf(&sb, "  %-4s %3d  %s\n", run.Team.ShortName, run.Total, strings.Join(opps, " "))
	}
	return sb.String(), nil
}
