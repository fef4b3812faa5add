package event

import (
	"cmp"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/timeutil"
)

// hashLen is the truncated hex length of the identity hash. Long enough to
// avoid accidental collisions at the scale of thousands of items per target.
const hashLen = 14

// UnknownLeague is the display name used when neither the source config nor
// the raw event carries a league.
const UnknownLeague = "Ukjent"

// Normalizer converts raw adapter events into canonical items. It is a pure
// transformation: no I/O, deterministic output for identical input.
type Normalizer struct {
	loc          *time.Location
	defaultWhere []string
}

func NewNormalizer(loc *time.Location, defaultWhere []string) *Normalizer {
	return &Normalizer{loc: loc, defaultWhere: defaultWhere}
}

// Run normalizes one raw event against its originating source config.
func (n *Normalizer) Run(raw RawEvent, src config.Source) (Item, error) {
	if raw.Start.IsZero() {
		return Item{}, fmt.Errorf("event is missing start time")
	}

	home := strings.TrimSpace(raw.Home)
	away := strings.TrimSpace(raw.Away)
	title := strings.TrimSpace(raw.Title)

	// Exactly one of (home, away) or title survives normalization.
	if home != "" && away != "" {
		title = ""
	} else {
		home, away = "", ""
		if title == "" {
			return Item{}, fmt.Errorf("event has neither matchup nor title")
		}
	}

	league := cmp.Or(strings.TrimSpace(raw.League), src.League, UnknownLeague)
	start := timeutil.FormatISO(raw.Start.In(n.loc))

	item := Item{
		ID:      stableID(src.Sport, league, src.Season, start, cmp.Or(home, title), away, src.ID),
		Sport:   src.Sport,
		League:  league,
		Season:  src.Season,
		Start:   start,
		Home:    home,
		Away:    away,
		Title:   title,
		Venue:   strings.TrimSpace(raw.Venue),
		Channel: cmp.Or(strings.TrimSpace(raw.Channel), src.DefaultChannel),
		Where:   n.ensureWhere(raw.Where),
		Status:  cmp.Or(strings.TrimSpace(raw.Status), "scheduled"),
		Source: Source{
			ID:       src.ID,
			Provider: src.Provider,
			URL:      src.URL,
		},
	}

	return item, nil
}

// ensureWhere returns the cleaned watch-location list, falling back to the
// operator-curated defaults. Never empty, never aliased to the input.
func (n *Normalizer) ensureWhere(where []string) []string {
	out := make([]string, 0, len(where))
	for _, w := range where {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), n.defaultWhere...)
	}
	return out
}

// stableID derives the deterministic item identity. Same logical event
// re-fetched from the same source always yields the same id.
func stableID(sport string, parts ...string) string {
	all := append([]string{sport}, parts...)
	sum := sha1.Sum([]byte(strings.Join(all, "|")))
	return sport + "_" + hex.EncodeToString(sum[:])[:hashLen]
}
