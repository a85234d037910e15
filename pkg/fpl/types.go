package fpl

import "time"

// Only the fields the dashboards read are decoded; everything else in the
// upstream payloads is ignored.

type Bootstrap struct {
	Events       []Event   `json:"events"`
	Teams        []Team    `json:"teams"`
	Elements     []Element `json:"elements"`
	TotalPlayers int       `json:"total_players"`
}

type Event struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	DeadlineTime      time.Time `json:"deadline_time"`
	AverageEntryScore int       `json:"average_entry_score"`
	HighestScore      *int      `json:"highest_score"`
	Finished          bool      `json:"finished"`
	DataChecked       bool      `json:"data_checked"`
	IsPrevious        bool      `json:"is_previous"`
	IsCurrent         bool      `json:"is_current"`
	IsNext            bool      `json:"is_next"`
}

type Team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Strength  int    `json:"strength"`
}

type Element struct {
	ID                int    `json:"id"`
	WebName           string `json:"web_name"`
	Team              int    `json:"team"`
	ElementType       int    `json:"element_type"` // 1 GKP, 2 DEF, 3 MID, 4 FWD
	NowCost           int    `json:"now_cost"`     // tenths of a million
	CostChangeEvent   int    `json:"cost_change_event"`
	TransfersInEvent  int    `json:"transfers_in_event"`
	TransfersOutEvent int    `json:"transfers_out_event"`
	SelectedByPercent string `json:"selected_by_percent"`
	TotalPoints       int    `json:"total_points"`
	EventPoints       int    `json:"event_points"`
	Status            string `json:"status"`
}

// NetTransfers is transfers in minus transfers out this gameweek.
func (e Element) NetTransfers() int {
	return e.TransfersInEvent - e.TransfersOutEvent
}

type Fixture struct {
	ID              int           `json:"id"`
	Event           *int          `json:"event"`
	TeamH           int           `json:"team_h"`
	TeamA           int           `json:"team_a"`
	TeamHScore      *int          `json:"team_h_score"`
	TeamAScore      *int          `json:"team_a_score"`
	TeamHDifficulty int           `json:"team_h_difficulty"`
	TeamADifficulty int           `json:"team_a_difficulty"`
	KickoffTime     *time.Time    `json:"kickoff_time"`
	Started         *bool         `json:"started"`
	Finished        bool          `json:"finished"`
	Minutes         int           `json:"minutes"`
	Stats           []FixtureStat `json:"stats"`
}

// Stat returns the named stat block, e.g. "bps".
func (f Fixture) Stat(identifier string) (FixtureStat, bool) {
	for _, s := range f.Stats {
		if s.Identifier == identifier {
			return s, true
		}
	}
	return FixtureStat{}, false
}

type FixtureStat struct {
	Identifier string      `json:"identifier"`
	A          []StatValue `json:"a"`
	H          []StatValue `json:"h"`
}

type StatValue struct {
	Element int `json:"element"`
	Value   int `json:"value"`
}

type LiveEvent struct {
	Elements []LiveElement `json:"elements"`
}

type LiveElement struct {
	ID    int       `json:"id"`
	Stats LiveStats `json:"stats"`
}

type LiveStats struct {
	Minutes     int `json:"minutes"`
	GoalsScored int `json:"goals_scored"`
	Assists     int `json:"assists"`
	Bonus       int `json:"bonus"`
	BPS         int `json:"bps"`
	TotalPoints int `json:"total_points"`
}

type Entry struct {
	ID                   int    `json:"id"`
	Name                 string `json:"name"`
	PlayerFirstName      string `json:"player_first_name"`
	PlayerLastName       string `json:"player_last_name"`
	SummaryOverallPoints int    `json:"summary_overall_points"`
	SummaryOverallRank   *int   `json:"summary_overall_rank"`
	CurrentEvent         int    `json:"current_event"`
}

type Picks struct {
	ActiveChip   *string      `json:"active_chip"`
	Picks        []Pick       `json:"picks"`
	EntryHistory EntryHistory `json:"entry_history"`
}

type Pick struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	Multiplier    int  `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}

type EntryHistory struct {
	Event              int `json:"event"`
	Points             int `json:"points"`
	TotalPoints        int `json:"total_points"`
	EventTransfersCost int `json:"event_transfers_cost"`
	Bank               int `json:"bank"`
	Value              int `json:"value"`
}

type LeagueStandings struct {
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Standings struct {
		HasNext bool          `json:"has_next"`
		Page    int           `json:"page"`
		Results []StandingRow `json:"results"`
	} `json:"standings"`
}

type StandingRow struct {
	ID         int    `json:"id"`
	Entry      int    `json:"entry"`
	EntryName  string `json:"entry_name"`
	PlayerName string `json:"player_name"`
	Rank       int    `json:"rank"`
	LastRank   int    `json:"last_rank"`
	EventTotal int    `json:"event_total"`
	Total      int    `json:"total"`
}

// Movement is positive when the entry climbed.
func (r StandingRow) Movement() int {
	if r.LastRank == 0 {
		return 0
	}
	return r.LastRank - r.Rank
}
