package fpl

import (
	"sort"
	"time"
)

// CurrentEvent returns the gameweek flagged as current, if any.
func CurrentEvent(events []Event) (Event, bool) {
	for _, e := range events {
		if e.IsCurrent {
			return e, true
		}
	}
	return Event{}, false
}

// NextEvent returns the gameweek flagged as next. Before the first flag is
// set by the game it falls back to the earliest unfinished event.
func NextEvent(events []Event) (Event, bool) {
	for _, e := range events {
		if e.IsNext {
			return e, true
		}
	}
	var best Event
	found := false
	for _, e := range events {
		if e.Finished || e.IsCurrent {
			continue
		}
		if !found || e.DeadlineTime.Before(best.DeadlineTime) {
			best, found = e, true
		}
	}
	return best, found
}

// Remaining is a split-up duration until a deadline.
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Passed reports whether the deadline has been reached.
func (r Remaining) Passed() bool {
	return r == Remaining{}
}

// Countdown returns the time left until deadline, clamped at zero.
func Countdown(deadline, now time.Time) Remaining {
	d := deadline.Sub(now)
	if d <= 0 {
		return Remaining{}
	}
	s := int(d / time.Second)
	return Remaining{
		Days:    s / 86400,
		Hours:   s % 86400 / 3600,
		Minutes: s % 3600 / 60,
		Seconds: s % 60,
	}
}

// PriceChange is one player's price movement in the current gameweek.
type PriceChange struct {
	Element int     `json:"element"`
	Name    string  `json:"name"`
	Team    int     `json:"team"`
	Price   float64 `json:"price"`
	Change  float64 `json:"change"`
	NetXfer int     `json:"net_transfers"`
}

// PriceChanges splits players whose price moved this gameweek into risers
// and fallers, biggest movement first, ties broken by transfer activity.
func PriceChanges(elements []Element) (risers, fallers []PriceChange) {
	for _, e := range elements {
		if e.CostChangeEvent == 0 {
			continue
		}
		pc := PriceChange{
			Element: e.ID,
			Name:    e.WebName,
			Team:    e.Team,
			Price:   float64(e.NowCost) / 10,
			Change:  float64(e.CostChangeEvent) / 10,
			NetXfer: e.NetTransfers(),
		}
		if e.CostChangeEvent > 0 {
			risers = append(risers, pc)
		} else {
			fallers = append(fallers, pc)
		}
	}

	sort.SliceStable(risers, func(i, j int) bool {
		if risers[i].Change != risers[j].Change {
			return risers[i].Change > risers[j].Change
		}
		return risers[i].NetXfer > risers[j].NetXfer
	})
	sort.SliceStable(fallers, func(i, j int) bool {
		if fallers[i].Change != fallers[j].Change {
			return fallers[i].Change < fallers[j].Change
		}
		return fallers[i].NetXfer < fallers[j].NetXfer
	})
	return risers, fallers
}

// Bonus is a provisional bonus award for one player in a fixture.
type Bonus struct {
	Element int `json:"element"`
	BPS     int `json:"bps"`
	Points  int `json:"points"`
}

// ProvisionalBonus ranks both sides of a fixture by BPS. A player's rank is
// one plus the number of players with a strictly higher score; ranks 1 to 3
// earn 3, 2 and 1 points. Fixtures without bps stats yield nil.
func ProvisionalBonus(f Fixture) []Bonus {
	stat, ok := f.Stat("bps")
	if !ok {
		return nil
	}
	all := make([]StatValue, 0, len(stat.H)+len(stat.A))
	all = append(all, stat.H...)
	all = append(all, stat.A...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Value > all[j].Value })

	var out []Bonus
	rank := 0
	for i, v := range all {
		if i == 0 || v.Value != all[i-1].Value {
			rank = i + 1
		}
		if rank > 3 {
			break
		}
		out = append(out, Bonus{Element: v.Element, BPS: v.Value, Points: 4 - rank})
	}
	return out
}

// LivePoints is the manager's gameweek score from live element totals,
// applying pick multipliers and deducting the transfer cost.
func LivePoints(p *Picks, live *LiveEvent) int {
	if p == nil || live == nil {
		return 0
	}
	byID := make(map[int]int, len(live.Elements))
	for _, e := range live.Elements {
		byID[e.ID] = e.Stats.TotalPoints
	}
	total := 0
	for _, pick := range p.Picks {
		total += byID[pick.Element] * pick.Multiplier
	}
	return total - p.EntryHistory.EventTransfersCost
}

// Opponent is one upcoming fixture from a team's point of view.
type Opponent struct {
	Event      int    `json:"event"`
	Team       int    `json:"team"`
	ShortName  string `json:"short_name"`
	Home       bool   `json:"home"`
	Difficulty int    `json:"difficulty"`
}

// TeamRun is a team's next fixtures and their summed difficulty.
type TeamRun struct {
	Team      Team       `json:"team"`
	Opponents []Opponent `json:"opponents"`
	Total     int        `json:"total"`
}

// FixtureDifficulty lists each team's fixtures in gameweeks [from, from+n),
// easiest run first. Unscheduled fixtures are ignored.
func FixtureDifficulty(teams []Team, fixtures []Fixture, from, n int) []TeamRun {
	short := make(map[int]string, len(teams))
	for _, t := range teams {
		short[t.ID] = t.ShortName
	}

	upcoming := make([]Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if f.Event == nil || *f.Event < from || *f.Event >= from+n {
			continue
		}
		upcoming = append(upcoming, f)
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return *upcoming[i].Event < *upcoming[j].Event })

	runs := make([]TeamRun, 0, len(teams))
	for _, t := range teams {
		run := TeamRun{Team: t}
		for _, f := range upcoming {
			var o Opponent
			switch t.ID {
			case f.TeamH:
				o = Opponent{Event: *f.Event, Team: f.TeamA, Home: true, Difficulty: f.TeamHDifficulty}
			case f.TeamA:
				o = Opponent{Event: *f.Event, Team: f.TeamH, Difficulty: f.TeamADifficulty}
			default:
				continue
			}
			o.ShortName = short[o.Team]
			run.Opponents = append(run.Opponents, o)
			run.Total += o.Difficulty
		}
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Total != runs[j].Total {
			return runs[i].Total < runs[j].Total
		}
		return runs[i].Team.Name < runs[j].Team.Name
	})
	return runs
}

// SortStandings orders rows by total points, then gameweek points, then
// entry name, and renumbers their rank. Equal points share a rank.
func SortStandings(rows []StandingRow) []StandingRow {
	out := make([]StandingRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.EventTotal != b.EventTotal {
			return a.EventTotal > b.EventTotal
		}
		return a.EntryName < b.EntryName
	})
	for i := range out {
		if i > 0 && out[i].Total == out[i-1].Total {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}
