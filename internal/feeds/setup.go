package feeds

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/fpldash/pkg/fetch"
	"github.com/briangreenhill/fpldash/pkg/footballdata"
	"github.com/briangreenhill/fpldash/pkg/fpl"
)

// Deps are the clients the feeds read from. FootballData may be nil, in
// which case the table feed is not registered.
type Deps struct {
	FPL          *fpl.Client
	FootballData *footballdata.Client
	Competition  string
	LeagueID     int
	Now          func() time.Time
	Log          zerolog.Logger
}

// Setup registers every feed the deps allow.
func Setup(d Deps) *Registry {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Competition == "" {
		d.Competition = "PL"
	}

	r := NewRegistry()
	r.Register(&DeadlineFeed{deps: d})
	r.Register(&LiveFeed{deps: d})
	r.Register(&BonusFeed{deps: d})
	r.Register(&PricesFeed{deps: d})
	r.Register(&FixturesFeed{deps: d})
	r.Register(&LeagueFeed{deps: d})
	if d.FootballData != nil {
		r.Register(&TableFeed{deps: d})
	}
	return r
}

// degrade turns a fetch failure into a readable notice. Other errors pass
// through.
func degrade(log zerolog.Logger, feed string, err error) (string, error) {
	if errors.Is(err, fetch.ErrDataUnavailable) || errors.Is(err, fetch.ErrMalformedResponse) {
		log.Warn().Err(err).Str("feed", feed).Msg("feed degraded")
		return "⚠️  " + fetch.UserMessage(err) + "\n", nil
	}
	return "", err
}

func parseID(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadID, id)
	}
	return n, nil
}

// lookup resolves element and team ids from a bootstrap payload.
type lookup struct {
	elements map[int]fpl.Element
	teams    map[int]string
}

func newLookup(b *fpl.Bootstrap) lookup {
	l := lookup{
		elements: make(map[int]fpl.Element, len(b.Elements)),
		teams:    make(map[int]string, len(b.Teams)),
	}
	for _, e := range b.Elements {
		l.elements[e.ID] = e
	}
	for _, t := range b.Teams {
		l.teams[t.ID] = t.ShortName
	}
	return l
}

func (l lookup) team(id int) string {
	if s, ok := l.teams[id]; ok {
		return s
	}
	return fmt.Sprintf("#%d", id)
}

// player renders "Name (TEAM)".
func (l lookup) player(id int) string {
	e, ok := l.elements[id]
	if !ok {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("%s (%s)", e.WebName, l.team(e.Team))
}
