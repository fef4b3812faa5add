package legacy

import (
	"cmp"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/docstore"
	"github.com/grenlandlive/sportsync/app/event"
)

// Game is one fixture in the flat per-league file format the venue screens
// still consume. Field names are frozen; consumers parse them by hand.
type Game struct {
	League  string   `json:"league"`
	Home    string   `json:"home,omitempty"`
	Away    string   `json:"away,omitempty"`
	Title   string   `json:"title,omitempty"`
	Kickoff string   `json:"kickoff"`
	Channel string   `json:"channel,omitempty"`
	Where   []string `json:"where,omitempty"`
}

// File is the legacy projection file as a whole.
type File struct {
	Updated  string `json:"updated"`
	Timezone string `json:"timezone"`
	League   string `json:"league"`
	Games    []Game `json:"games"`
}

// Result describes what one projection run did.
type Result struct {
	Games        int
	KeptExisting bool
}

// Projector derives legacy per-league files from committed canonical
// documents. It never touches canonical output.
type Projector struct {
	store    *docstore.Store
	timezone string
}

func New(store *docstore.Store, timezone string) *Projector {
	return &Projector{store: store, timezone: timezone}
}

// Run projects the items matching cfg's league keywords into cfg.Out.
// Channel and venue annotations present in the previous projection but
// missing from the canonical item are carried forward, so hand-curated
// broadcast info survives upstream feeds that never mention TV.
func (p *Projector) Run(cfg config.Legacy, doc *event.Document) (Result, error) {
	prior := p.priorAnnotations(cfg.Out)

	var games []Game
	for _, item := range doc.Items {
		if !matchesKeywords(item.League, cfg.Keywords) {
			continue
		}

		game := Game{
			League:  cmp.Or(cfg.League, item.League),
			Home:    item.Home,
			Away:    item.Away,
			Title:   item.Title,
			Kickoff: item.Start,
			Channel: item.Channel,
			Where:   item.Where,
		}
		if old, ok := prior[gameKey(game)]; ok {
			game.Channel = cmp.Or(game.Channel, old.Channel)
			if len(game.Where) == 0 {
				game.Where = old.Where
			}
		}
		games = append(games, game)
	}

	if len(games) == 0 {
		if old, err := p.readFile(cfg.Out); err == nil && len(old.Games) > 0 {
			slog.Warn("Refusing to overwrite non-empty projection with empty result",
				"path", cfg.Out, "existing_games", len(old.Games))
			return Result{KeptExisting: true, Games: len(old.Games)}, nil
		}
	}

	out := File{
		Updated:  doc.Meta.GeneratedAt,
		Timezone: p.timezone,
		League:   cfg.League,
		Games:    games,
	}
	if err := p.store.WriteFile(cfg.Out, out); err != nil {
		return Result{}, fmt.Errorf("failed to write projection: %w", err)
	}
	return Result{Games: len(games)}, nil
}

func (p *Projector) readFile(path string) (File, error) {
	var f File
	err := p.store.ReadJSON(path, &f)
	return f, err
}

// priorAnnotations indexes the previous projection by (home, away, kickoff)
// so annotations can be re-attached. A missing or unreadable file is simply
// no annotations.
func (p *Projector) priorAnnotations(path string) map[string]Game {
	f, err := p.readFile(path)
	if err != nil {
		return nil
	}

	out := make(map[string]Game, len(f.Games))
	for _, g := range f.Games {
		out[gameKey(g)] = g
	}
	return out
}

func gameKey(g Game) string {
	if g.Title != "" && g.Home == "" {
		return g.Title + "|" + g.Kickoff
	}
	return g.Home + "|" + g.Away + "|" + g.Kickoff
}

// matchesKeywords reports whether a league name contains any keyword,
// case-insensitively. No keywords matches nothing.
func matchesKeywords(league string, keywords []string) bool {
	low := strings.ToLower(league)
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(low, kw) {
			return true
		}
	}
	return false
}
