package fpl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

func TestCurrentAndNextEvent(t *testing.T) {
	base := time.Date(2025, 8, 15, 17, 30, 0, 0, time.UTC)
	events := []Event{
		{ID: 1, Finished: true, DeadlineTime: base},
		{ID: 2, IsCurrent: true, DeadlineTime: base.Add(7 * 24 * time.Hour)},
		{ID: 3, IsNext: true, DeadlineTime: base.Add(14 * 24 * time.Hour)},
	}

	cur, ok := CurrentEvent(events)
	require.True(t, ok)
	assert.Equal(t, 2, cur.ID)

	next, ok := NextEvent(events)
	require.True(t, ok)
	assert.Equal(t, 3, next.ID)

	// pre-season: nothing flagged yet
	events[1].IsCurrent = false
	events[2].IsNext = false
	_, ok = CurrentEvent(events)
	assert.False(t, ok)
	next, ok = NextEvent(events)
	require.True(t, ok)
	assert.Equal(t, 2, next.ID)

	_, ok = NextEvent(nil)
	assert.False(t, ok)
}

func TestCountdown(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second + 900*time.Millisecond)

	r := Countdown(deadline, now)
	assert.Equal(t, Remaining{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}, r)
	assert.False(t, r.Passed())

	r = Countdown(now.Add(-time.Hour), now)
	assert.Equal(t, Remaining{}, r)
	assert.True(t, r.Passed())
}

func TestPriceChanges(t *testing.T) {
	elements := []Element{
		{ID: 1, WebName: "Salah", NowCost: 131, CostChangeEvent: 1, TransfersInEvent: 5000, TransfersOutEvent: 100},
		{ID: 2, WebName: "Haaland", NowCost: 142, CostChangeEvent: 2, TransfersInEvent: 10},
		{ID: 3, WebName: "Palmer", NowCost: 104, CostChangeEvent: 1, TransfersInEvent: 9000},
		{ID: 4, WebName: "Saka", NowCost: 99, CostChangeEvent: -1, TransfersOutEvent: 300},
		{ID: 5, WebName: "Isak", NowCost: 85},
	}

	risers, fallers := PriceChanges(elements)
	require.Len(t, risers, 3)
	assert.Equal(t, []int{2, 3, 1}, []int{risers[0].Element, risers[1].Element, risers[2].Element})
	assert.InDelta(t, 14.2, risers[0].Price, 0.001)
	assert.InDelta(t, 0.2, risers[0].Change, 0.001)

	require.Len(t, fallers, 1)
	assert.Equal(t, "Saka", fallers[0].Name)
	assert.Equal(t, -300, fallers[0].NetXfer)
}

func bpsFixture(h, a []StatValue) Fixture {
	return Fixture{Stats: []FixtureStat{
		{Identifier: "goals_scored"},
		{Identifier: "bps", H: h, A: a},
	}}
}

func points(b []Bonus) map[int]int {
	out := make(map[int]int, len(b))
	for _, x := range b {
		out[x.Element] = x.Points
	}
	return out
}

func TestProvisionalBonus(t *testing.T) {
	tests := []struct {
		name string
		h, a []StatValue
		want map[int]int
	}{
		{
			name: "distinct",
			h:    []StatValue{{Element: 1, Value: 40}, {Element: 2, Value: 20}},
			a:    []StatValue{{Element: 3, Value: 30}, {Element: 4, Value: 10}},
			want: map[int]int{1: 3, 3: 2, 2: 1},
		},
		{
			name: "tie for first consumes second",
			h:    []StatValue{{Element: 1, Value: 40}, {Element: 2, Value: 25}},
			a:    []StatValue{{Element: 3, Value: 40}, {Element: 4, Value: 10}},
			want: map[int]int{1: 3, 3: 3, 2: 1},
		},
		{
			name: "tie for second",
			h:    []StatValue{{Element: 1, Value: 40}, {Element: 2, Value: 25}},
			a:    []StatValue{{Element: 3, Value: 25}, {Element: 4, Value: 10}},
			want: map[int]int{1: 3, 2: 2, 3: 2},
		},
		{
			name: "tie for third",
			h:    []StatValue{{Element: 1, Value: 40}, {Element: 2, Value: 30}},
			a:    []StatValue{{Element: 3, Value: 20}, {Element: 4, Value: 20}},
			want: map[int]int{1: 3, 2: 2, 3: 1, 4: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, points(ProvisionalBonus(bpsFixture(tt.h, tt.a))))
		})
	}

	assert.Nil(t, ProvisionalBonus(Fixture{}))
}

func TestLivePoints(t *testing.T) {
	live := &LiveEvent{Elements: []LiveElement{
		{ID: 10, Stats: LiveStats{TotalPoints: 8}},
		{ID: 11, Stats: LiveStats{TotalPoints: 2}},
		{ID: 12, Stats: LiveStats{TotalPoints: 6}},
	}}
	picks := &Picks{
		Picks: []Pick{
			{Element: 10, Multiplier: 2, IsCaptain: true},
			{Element: 11, Multiplier: 1},
			{Element: 12, Multiplier: 0},
			{Element: 99, Multiplier: 1},
		},
		EntryHistory: EntryHistory{EventTransfersCost: 4},
	}

	assert.Equal(t, 16+2-4, LivePoints(picks, live))

	picks.Picks[0].Multiplier = 3
	assert.Equal(t, 24+2-4, LivePoints(picks, live))

	assert.Zero(t, LivePoints(nil, live))
}

func TestFixtureDifficulty(t *testing.T) {
	teams := []Team{
		{ID: 1, Name: "Arsenal", ShortName: "ARS"},
		{ID: 2, Name: "Brentford", ShortName: "BRE"},
		{ID: 3, Name: "Chelsea", ShortName: "CHE"},
	}
	fixtures := []Fixture{
		{Event: intp(5), TeamH: 1, TeamA: 2, TeamHDifficulty: 2, TeamADifficulty: 4},
		{Event: intp(4), TeamH: 3, TeamA: 1, TeamHDifficulty: 4, TeamADifficulty: 3},
		{Event: intp(6), TeamH: 2, TeamA: 3, TeamHDifficulty: 3, TeamADifficulty: 3},
		{Event: intp(9), TeamH: 1, TeamA: 3, TeamHDifficulty: 5, TeamADifficulty: 5},
		{Event: nil, TeamH: 2, TeamA: 1, TeamHDifficulty: 5, TeamADifficulty: 5},
	}

	runs := FixtureDifficulty(teams, fixtures, 4, 3)
	require.Len(t, runs, 3)

	assert.Equal(t, "Arsenal", runs[0].Team.Name)
	assert.Equal(t, 5, runs[0].Total)
	require.Len(t, runs[0].Opponents, 2)
	assert.Equal(t, Opponent{Event: 4, Team: 3, ShortName: "CHE", Home: false, Difficulty: 3}, runs[0].Opponents[0])
	assert.Equal(t, Opponent{Event: 5, Team: 2, ShortName: "BRE", Home: true, Difficulty: 2}, runs[0].Opponents[1])

	assert.Equal(t, "Brentford", runs[1].Team.Name)
	assert.Equal(t, 7, runs[1].Total)
	assert.Equal(t, "Chelsea", runs[2].Team.Name)
	assert.Equal(t, 7, runs[2].Total)
}

func TestSortStandings(t *testing.T) {
	rows := []StandingRow{
		{EntryName: "Zeta", Total: 100, EventTotal: 50},
		{EntryName: "Alpha", Total: 120, EventTotal: 40},
		{EntryName: "Beta", Total: 100, EventTotal: 50},
		{EntryName: "Gamma", Total: 100, EventTotal: 60},
	}

	got := SortStandings(rows)
	names := make([]string, len(got))
	ranks := make([]int, len(got))
	for i, r := range got {
		names[i] = r.EntryName
		ranks[i] = r.Rank
	}
	assert.Equal(t, []string{"Alpha", "Gamma", "Beta", "Zeta"}, names)
	assert.Equal(t, []int{1, 2, 2, 2}, ranks)
	assert.Equal(t, "Zeta", rows[0].EntryName, "input left untouched")
}

func TestStandingRowMovement(t *testing.T) {
	assert.Equal(t, 3, StandingRow{Rank: 2, LastRank: 5}.Movement())
	assert.Equal(t, -1, StandingRow{Rank: 6, LastRank: 5}.Movement())
	assert.Zero(t, StandingRow{Rank: 1}.Movement())
}
