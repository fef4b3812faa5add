package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/grenlandlive/sportsync/app/adapter"
	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/docstore"
	"github.com/grenlandlive/sportsync/app/event"
	"github.com/grenlandlive/sportsync/app/legacy"
	"github.com/grenlandlive/sportsync/app/timeutil"
)

// Orchestrator runs the full update: every target's sources are fetched,
// normalized, merged and committed, then the target's legacy projections are
// refreshed. One source failing degrades its target to a warning; a target
// only fails when nothing can be written at all.
type Orchestrator struct {
	cfg        *config.Sources
	registry   adapter.Registry
	normalizer *event.Normalizer
	store      *docstore.Store
	projector  *legacy.Projector
	loc        *time.Location

	now func() time.Time
}

func New(cfg *config.Sources, registry adapter.Registry, store *docstore.Store, loc *time.Location) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		registry:   registry,
		normalizer: event.NewNormalizer(loc, cfg.DefaultWhere),
		store:      store,
		projector:  legacy.New(store, cfg.Timezone),
		loc:        loc,
		now:        time.Now,
	}
}

// Run processes every configured target in order and returns the run
// report. It never returns an error: failures are recorded per target.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	report := &Report{
		LastRun: timeutil.FormatISO(o.now().In(o.loc)),
		Targets: make(map[string]TargetReport, len(o.cfg.Targets)),
	}

	for i := range o.cfg.Targets {
		target := &o.cfg.Targets[i]
		report.Targets[target.Out] = o.runTarget(ctx, target)
	}

	if report.noFreshItems() {
		report.Stale = true
		slog.Warn("No target committed fresh items this run")
	}

	return report
}

func (o *Orchestrator) runTarget(ctx context.Context, target *config.Target) TargetReport {
	slog.Info("Updating target", "target", target.Name, "out", target.Out)

	var (
		items    []event.Item
		warnings []string
	)
	sources := target.EnabledSources()
	for _, src := range sources {
		fetched, err := o.runSource(ctx, target, src)
		if err != nil {
			slog.Error("Source failed", "target", target.Name, "source", src.ID, "error", err)
			warnings = append(warnings, fmt.Sprintf("%s: %v", src.ID, err))
			continue
		}
		items = append(items, fetched...)
	}

	doc := o.buildDocument(target, sources, items)

	if err := event.Validate(doc); err != nil {
		slog.Error("Document failed validation", "target", target.Name, "error", err)
		return TargetReport{Error: err.Error(), Warnings: warnings}
	}

	res, err := o.store.Commit(target.Out, doc)
	if err != nil {
		slog.Error("Commit failed", "target", target.Name, "error", err)
		return TargetReport{Error: err.Error(), Warnings: warnings}
	}

	switch {
	case res.KeptExisting:
		slog.Warn("All sources came back empty, kept previous document",
			"target", target.Name, "items", res.Items)
		warnings = append(warnings, "no fresh items, kept previous document")
	case res.Written:
		slog.Info("Target updated", "target", target.Name, "items", res.Items)
	default:
		slog.Info("Target unchanged", "target", target.Name, "items", res.Items)
	}

	warnings = append(warnings, o.project(target, doc, res)...)

	return TargetReport{Ok: true, Items: res.Items, KeptExisting: res.KeptExisting, Warnings: warnings}
}

func (o *Orchestrator) runSource(ctx context.Context, target *config.Target, src config.Source) ([]event.Item, error) {
	a, err := o.registry.Get(src.Provider)
	if err != nil {
		return nil, err
	}

	raw, err := a.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	slog.Debug("Source fetched", "source", src.ID, "events", len(raw))

	items := make([]event.Item, 0, len(raw))
	skipped := 0
	for _, ev := range raw {
		item, err := o.normalizer.Run(ev, src)
		if err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	if skipped > 0 {
		slog.Debug("Skipped unnormalizable events", "source", src.ID, "count", skipped)
	}

	return items, nil
}

// buildDocument merges, orders and wraps the collected items. Duplicate ids
// collapse to the last occurrence, so sources listed later in the config
// override earlier ones for the same logical event.
func (o *Orchestrator) buildDocument(target *config.Target, sources []config.Source, items []event.Item) *event.Document {
	byID := make(map[string]int, len(items))
	merged := make([]event.Item, 0, len(items))
	for _, item := range items {
		if i, seen := byID[item.ID]; seen {
			merged[i] = item
			continue
		}
		byID[item.ID] = len(merged)
		merged = append(merged, item)
	}

	// ISO strings with mixed UTC offsets do not sort lexicographically, so
	// order by the parsed instant.
	slices.SortStableFunc(merged, func(a, b event.Item) int {
		ta, errA := timeutil.ParseISOAny(a.Start, o.loc)
		tb, errB := timeutil.ParseISOAny(b.Start, o.loc)
		if errA != nil || errB != nil {
			return cmp.Compare(a.Start, b.Start)
		}
		return ta.Compare(tb)
	})

	sourceIDs := make([]string, 0, len(sources))
	for _, src := range sources {
		sourceIDs = append(sourceIDs, src.ID)
	}

	return &event.Document{
		Meta: event.Meta{
			Season:      o.cfg.Season,
			Sport:       target.Sport,
			Name:        target.Name,
			GeneratedAt: timeutil.FormatISO(o.now().In(o.loc)),
			SourceIDs:   sourceIDs,
		},
		Items: merged,
	}
}

// project refreshes the target's legacy projections from what is actually
// on disk, so a kept-existing commit projects the kept document rather than
// the empty one.
func (o *Orchestrator) project(target *config.Target, doc *event.Document, res docstore.CommitResult) []string {
	projections := o.cfg.LegacyFor(target.Name)
	if len(projections) == 0 {
		return nil
	}

	if res.KeptExisting {
		kept, err := o.store.Read(target.Out)
		if err != nil {
			return []string{fmt.Sprintf("projection skipped: %v", err)}
		}
		doc = kept
	}

	var warnings []string
	for _, l := range projections {
		pres, err := o.projector.Run(l, doc)
		if err != nil {
			slog.Error("Projection failed", "target", target.Name, "out", l.Out, "error", err)
			warnings = append(warnings, fmt.Sprintf("projection %s: %v", l.Out, err))
			continue
		}
		slog.Info("Projection updated", "out", l.Out, "games", pres.Games, "kept_existing", pres.KeptExisting)
	}
	return warnings
}
