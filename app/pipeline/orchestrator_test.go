package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/grenlandlive/sportsync/app/adapter"
	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/docstore"
	"github.com/grenlandlive/sportsync/app/event"
	"github.com/grenlandlive/sportsync/app/legacy"
)

const testCalendar = "BEGIN:VCALENDAR\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART:20260125T140000Z\r\n" +
	"SUMMARY:Viking - Molde\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTART:20260118T180000Z\r\n" +
	"SUMMARY:Odd - Brann\r\n" +
	"LOCATION:Skagerak Arena\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func testLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func calendarServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testCalendar))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func brokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(calURL, brokenURL string) *config.Sources {
	return &config.Sources{
		Timezone:     "Europe/Oslo",
		Season:       "2026",
		DefaultWhere: []string{"Vikinghjørnet"},
		Targets: []config.Target{
			{
				Name:  "football",
				Sport: "football",
				Out:   "data/football.json",
				Sources: []config.Source{
					{
						ID: "nff_eliteserien", Provider: "ics", URL: calURL,
						Sport: "football", League: "Eliteserien", Season: "2026",
						Enabled: true, Timeout: 5,
					},
					{
						ID: "fd_eliteserien", Provider: "jsonfeed", URL: brokenURL,
						Sport: "football", League: "Eliteserien", Season: "2026",
						Enabled: true, Timeout: 5,
					},
					{
						ID: "disabled_feed", Provider: "ics", URL: brokenURL,
						Sport: "football", League: "Eliteserien", Season: "2026",
						Enabled: false,
					},
				},
			},
		},
		Legacy: []config.Legacy{
			{
				Out:      "data/legacy/eliteserien.json",
				Target:   "football",
				League:   "Eliteserien",
				Keywords: []string{"eliteserien"},
			},
		},
	}
}

func newTestOrchestrator(t *testing.T, cfg *config.Sources, store *docstore.Store) *Orchestrator {
	t.Helper()
	loc := testLoc(t)
	o := New(cfg, adapter.NewRegistry(adapter.NewClient("test"), loc), store, loc)
	o.now = func() time.Time {
		return time.Date(2026, 1, 18, 12, 0, 0, 0, loc)
	}
	return o
}

func TestOrchestratorRun(t *testing.T) {
	cal := calendarServer(t)
	broken := brokenServer(t)
	store := docstore.New(afero.NewMemMapFs())

	o := newTestOrchestrator(t, testConfig(cal.URL, broken.URL), store)
	report := o.Run(context.Background())

	if report.LastRun != "2026-01-18T12:00:00+01:00" {
		t.Errorf("Unexpected last_run: %q", report.LastRun)
	}

	tr, ok := report.Targets["data/football.json"]
	if !ok {
		t.Fatalf("Expected report entry for target, got: %+v", report.Targets)
	}
	if !tr.Ok || tr.Items != 2 {
		t.Errorf("Expected ok target with 2 items, got: %+v", tr)
	}
	// The broken source degrades to a warning, not a target failure.
	if len(tr.Warnings) != 1 {
		t.Errorf("Expected 1 warning for the failed source, got: %v", tr.Warnings)
	}
	if report.AllFailed() {
		t.Error("Expected partial failure not to count as all-failed")
	}
	if report.Stale {
		t.Error("Expected freshly committed items to clear the stale flag")
	}

	doc, err := store.Read("data/football.json")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Meta.Name != "football" || doc.Meta.Season != "2026" {
		t.Errorf("Unexpected meta: %+v", doc.Meta)
	}
	if len(doc.Meta.SourceIDs) != 2 {
		t.Errorf("Expected only enabled sources listed, got: %v", doc.Meta.SourceIDs)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(doc.Items))
	}
	// Calendar order is Viking first; the document must be chronological.
	if doc.Items[0].Home != "Odd" || doc.Items[1].Home != "Viking" {
		t.Errorf("Expected chronological order, got: %q then %q", doc.Items[0].Home, doc.Items[1].Home)
	}
	if doc.Items[0].Start != "2026-01-18T19:00:00+01:00" {
		t.Errorf("Unexpected start: %q", doc.Items[0].Start)
	}
	if len(doc.Items[0].Where) != 1 || doc.Items[0].Where[0] != "Vikinghjørnet" {
		t.Errorf("Expected default where applied, got: %v", doc.Items[0].Where)
	}

	var proj legacy.File
	if err := store.ReadJSON("data/legacy/eliteserien.json", &proj); err != nil {
		t.Fatalf("Expected legacy projection written: %v", err)
	}
	if len(proj.Games) != 2 || proj.Games[0].Home != "Odd" {
		t.Errorf("Unexpected projection: %+v", proj.Games)
	}
}

func TestOrchestratorAllSourcesFailing(t *testing.T) {
	broken := brokenServer(t)
	store := docstore.New(afero.NewMemMapFs())

	cfg := testConfig(broken.URL, broken.URL)
	o := newTestOrchestrator(t, cfg, store)
	report := o.Run(context.Background())

	tr := report.Targets["data/football.json"]
	if !tr.Ok {
		t.Errorf("Expected target to commit an empty document, got: %+v", tr)
	}
	if tr.Items != 0 || len(tr.Warnings) != 2 {
		t.Errorf("Expected 0 items and 2 warnings, got: %+v", tr)
	}
	if !report.AllFailed() {
		t.Error("Expected zero-item run to count as all-failed")
	}
	if !report.Stale {
		t.Error("Expected zero-item run to be flagged stale")
	}
}

func TestOrchestratorKeepsPreviousDocumentOnEmptyRun(t *testing.T) {
	cal := calendarServer(t)
	broken := brokenServer(t)
	store := docstore.New(afero.NewMemMapFs())

	// First run populates the document and projection.
	o := newTestOrchestrator(t, testConfig(cal.URL, broken.URL), store)
	o.Run(context.Background())

	// Second run fetches nothing; the committed document and projection
	// must survive.
	o = newTestOrchestrator(t, testConfig(broken.URL, broken.URL), store)
	report := o.Run(context.Background())

	tr := report.Targets["data/football.json"]
	if !tr.Ok || tr.Items != 2 {
		t.Errorf("Expected kept document reported with its item count, got: %+v", tr)
	}
	if !tr.KeptExisting {
		t.Errorf("Expected kept_existing marked on the target, got: %+v", tr)
	}
	// Nothing fresh reached disk anywhere: the report flags the run as
	// stale even though every target is ok.
	if !report.Stale {
		t.Error("Expected all-kept run to be flagged stale")
	}

	doc, err := store.Read("data/football.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Items) != 2 {
		t.Errorf("Expected previous items preserved, got %d", len(doc.Items))
	}

	var proj legacy.File
	if err := store.ReadJSON("data/legacy/eliteserien.json", &proj); err != nil {
		t.Fatal(err)
	}
	if len(proj.Games) != 2 {
		t.Errorf("Expected projection preserved, got: %+v", proj.Games)
	}
}

func TestBuildDocumentMergeAndOrder(t *testing.T) {
	store := docstore.New(afero.NewMemMapFs())
	cfg := &config.Sources{Timezone: "Europe/Oslo", Season: "2026"}
	o := newTestOrchestrator(t, cfg, store)

	mk := func(id, start, channel string) event.Item {
		return event.Item{
			ID: id, Sport: "football", League: "Eliteserien", Season: "2026",
			Start: start, Home: "Odd", Away: "Brann",
			Channel: channel, Status: "scheduled",
			Source: event.Source{ID: "src"},
		}
	}

	items := []event.Item{
		// Later in UTC terms than the +01:00 item below despite sorting
		// first as a string.
		mk("football_bbb", "2026-01-18T18:30:00Z", ""),
		mk("football_aaa", "2026-01-18T19:00:00+01:00", ""),
		mk("football_bbb", "2026-01-18T18:30:00Z", "TV 2"),
	}

	target := &config.Target{Name: "football", Sport: "football", Out: "data/football.json"}
	doc := o.buildDocument(target, nil, items)

	if len(doc.Items) != 2 {
		t.Fatalf("Expected duplicate id collapsed, got %d items", len(doc.Items))
	}
	if doc.Items[0].ID != "football_aaa" {
		t.Errorf("Expected instant-ordered items, got first: %q", doc.Items[0].ID)
	}
	if doc.Items[1].Channel != "TV 2" {
		t.Errorf("Expected last occurrence to win the merge, got: %q", doc.Items[1].Channel)
	}
}

func TestReportAllFailed(t *testing.T) {
	empty := &Report{}
	if !empty.AllFailed() {
		t.Error("Expected empty report to count as all-failed")
	}

	mixed := &Report{Targets: map[string]TargetReport{
		"a.json": {Ok: false, Error: "boom"},
		"b.json": {Ok: true, Items: 3},
	}}
	if mixed.AllFailed() {
		t.Error("Expected one healthy target to clear all-failed")
	}
}
