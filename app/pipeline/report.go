package pipeline

// Report is the machine-readable outcome of one run, written next to the
// data files so operators and cron monitoring can see what happened without
// scraping logs.
type Report struct {
	LastRun string                  `json:"last_run"`
	Targets map[string]TargetReport `json:"targets"`

	// Stale is set when no target committed freshly fetched items: every
	// document on disk is carried over from earlier runs. The run still
	// exits 0 (kept data is usable output), but operators should treat a
	// persistently stale report as total upstream breakage.
	Stale bool `json:"stale,omitempty"`
}

// TargetReport is the outcome for one output document, keyed by its path.
// Warnings carry per-source failures that did not sink the target.
type TargetReport struct {
	Ok           bool     `json:"ok"`
	Items        int      `json:"items"`
	KeptExisting bool     `json:"kept_existing,omitempty"`
	Error        string   `json:"error,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// AllFailed reports whether the run produced nothing usable: every target
// either failed outright or ended with zero items. This is the condition
// that turns into a non-zero exit code; partial failure does not.
// noFreshItems reports whether every target either failed or fell back to a
// previously committed document or ended empty — nothing this run actually
// fetched made it to disk.
func (r *Report) noFreshItems() bool {
	for _, t := range r.Targets {
		if t.Ok && !t.KeptExisting && t.Items > 0 {
			return false
		}
	}
	return len(r.Targets) > 0
}

func (r *Report) AllFailed() bool {
	if len(r.Targets) == 0 {
		return true
	}
	for _, t := range r.Targets {
		if t.Ok && t.Items > 0 {
			return false
		}
	}
	return true
}
