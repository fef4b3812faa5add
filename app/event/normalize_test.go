package event

import (
	"testing"
	"time"

	"github.com/grenlandlive/sportsync/app/config"
)

var testWhere = []string{"Vikinghjørnet", "Gimle Pub"}

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Fatal(err)
	}
	return NewNormalizer(loc, testWhere)
}

func testSource() config.Source {
	return config.Source{
		ID:       "nff_eliteserien",
		Provider: "ics",
		URL:      "https://example.com/eliteserien.ics",
		Sport:    "football",
		League:   "Eliteserien",
		Season:   "2026",
	}
}

func TestNormalizeMatchup(t *testing.T) {
	n := testNormalizer(t)

	raw := RawEvent{
		Start: time.Date(2026, 1, 18, 18, 0, 0, 0, time.UTC),
		Home:  "Odd",
		Away:  "Brann",
		Title: "Odd - Brann", // cleared when home/away are present
	}

	item, err := n.Run(raw, testSource())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if item.Start != "2026-01-18T19:00:00+01:00" {
		t.Errorf("Expected start normalized to Oslo, got: %s", item.Start)
	}
	if item.Home != "Odd" || item.Away != "Brann" {
		t.Errorf("Expected Odd/Brann, got: %q/%q", item.Home, item.Away)
	}
	if item.Title != "" {
		t.Errorf("Expected title cleared when home/away present, got: %q", item.Title)
	}
	if item.Sport != "football" || item.League != "Eliteserien" || item.Season != "2026" {
		t.Errorf("Unexpected classification: %s/%s/%s", item.Sport, item.League, item.Season)
	}
	if item.Status != "scheduled" {
		t.Errorf("Expected default status scheduled, got: %q", item.Status)
	}
	if item.Source.ID != "nff_eliteserien" || item.Source.Provider != "ics" {
		t.Errorf("Unexpected provenance: %+v", item.Source)
	}
}

func TestNormalizeDeterministicID(t *testing.T) {
	n := testNormalizer(t)
	raw := RawEvent{
		Start: time.Date(2026, 1, 18, 18, 0, 0, 0, time.UTC),
		Home:  "Odd",
		Away:  "Brann",
	}

	a, err := n.Run(raw, testSource())
	if err != nil {
		t.Fatal(err)
	}
	b, err := n.Run(raw, testSource())
	if err != nil {
		t.Fatal(err)
	}

	if a.ID != b.ID {
		t.Errorf("Expected identical ids, got: %s vs %s", a.ID, b.ID)
	}
	if len(a.ID) != len("football_")+14 {
		t.Errorf("Expected sport-prefixed 14-hex id, got: %s", a.ID)
	}

	// Different source id must yield a different identity.
	other := testSource()
	other.ID = "other_source"
	c, err := n.Run(raw, other)
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == a.ID {
		t.Errorf("Expected source id to affect identity, both got: %s", a.ID)
	}
}

func TestNormalizeTitleOnly(t *testing.T) {
	n := testNormalizer(t)

	raw := RawEvent{
		Start: time.Date(2026, 2, 7, 14, 15, 0, 0, time.UTC),
		Title: "Sprint Women",
		Venue: "Holmenkollen",
	}
	src := testSource()
	src.Sport = "wintersport"

	item, err := n.Run(raw, src)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if item.Title != "Sprint Women" {
		t.Errorf("Expected title kept, got: %q", item.Title)
	}
	if item.Home != "" || item.Away != "" {
		t.Errorf("Expected empty matchup, got: %q/%q", item.Home, item.Away)
	}
	if item.Venue != "Holmenkollen" {
		t.Errorf("Expected venue kept, got: %q", item.Venue)
	}
}

func TestNormalizeRejectsUnusableEvents(t *testing.T) {
	n := testNormalizer(t)
	src := testSource()

	if _, err := n.Run(RawEvent{Home: "Odd", Away: "Brann"}, src); err == nil {
		t.Error("Expected error for missing start")
	}

	raw := RawEvent{Start: time.Date(2026, 1, 18, 18, 0, 0, 0, time.UTC)}
	if _, err := n.Run(raw, src); err == nil {
		t.Error("Expected error for event with neither matchup nor title")
	}

	// A lone home team is not a matchup.
	raw.Home = "Odd"
	if _, err := n.Run(raw, src); err == nil {
		t.Error("Expected error for half a matchup without title")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := testNormalizer(t)
	src := testSource()
	src.DefaultChannel = "TV 2"

	raw := RawEvent{
		Start: time.Date(2025, 9, 16, 16, 45, 0, 0, time.UTC),
		Home:  "Arsenal",
		Away:  "Spurs",
	}

	item, err := n.Run(raw, src)
	if err != nil {
		t.Fatal(err)
	}

	if len(item.Where) != 2 || item.Where[0] != "Vikinghjørnet" {
		t.Errorf("Expected default where list, got: %v", item.Where)
	}
	if item.Channel != "TV 2" {
		t.Errorf("Expected default channel, got: %q", item.Channel)
	}

	// Source-provided values win over defaults.
	raw.Where = []string{"Klubbhuset", "  "}
	raw.Channel = "NRK 1"
	item, err = n.Run(raw, src)
	if err != nil {
		t.Fatal(err)
	}
	if len(item.Where) != 1 || item.Where[0] != "Klubbhuset" {
		t.Errorf("Expected cleaned source where list, got: %v", item.Where)
	}
	if item.Channel != "NRK 1" {
		t.Errorf("Expected source channel, got: %q", item.Channel)
	}
}

func TestNormalizeLeagueFallback(t *testing.T) {
	n := testNormalizer(t)
	src := testSource()
	src.League = ""

	raw := RawEvent{
		Start:  time.Date(2026, 1, 18, 18, 0, 0, 0, time.UTC),
		Home:   "Odd",
		Away:   "Brann",
		League: "OBOS-ligaen",
	}

	item, err := n.Run(raw, src)
	if err != nil {
		t.Fatal(err)
	}
	if item.League != "OBOS-ligaen" {
		t.Errorf("Expected raw league kept, got: %q", item.League)
	}

	raw.League = ""
	item, err = n.Run(raw, src)
	if err != nil {
		t.Fatal(err)
	}
	if item.League != UnknownLeague {
		t.Errorf("Expected league fallback, got: %q", item.League)
	}
}
