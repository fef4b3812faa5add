package event

import "time"

// RawEvent is an adapter's minimal, provider-specific output. It only
// exists on the adapter → normalizer handoff and is never persisted.
// Start is the only field guaranteed present; a usable event also carries
// either Home+Away or Title.
type RawEvent struct {
	Start   time.Time
	Home    string
	Away    string
	Title   string
	Venue   string
	Channel string
	League  string
	Where   []string
	Status  string
}

// Source records the provenance of an item.
type Source struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

// Item is the canonical, persisted unit. Exactly one of (Home, Away) or
// Title is set; Start is fixed-offset ISO-8601 in the reference timezone.
type Item struct {
	ID      string   `json:"id"`
	Sport   string   `json:"sport"`
	League  string   `json:"league"`
	Season  string   `json:"season"`
	Start   string   `json:"start"`
	Home    string   `json:"home,omitempty"`
	Away    string   `json:"away,omitempty"`
	Title   string   `json:"title,omitempty"`
	Venue   string   `json:"venue,omitempty"`
	Channel string   `json:"channel,omitempty"`
	Where   []string `json:"where"`
	Status  string   `json:"status"`
	Source  Source   `json:"source"`
}

// Meta describes a document as a whole.
type Meta struct {
	Season      string   `json:"season"`
	Sport       string   `json:"sport"`
	Name        string   `json:"name"`
	GeneratedAt string   `json:"generated_at"`
	SourceIDs   []string `json:"source_ids"`
}

// Document is the persisted aggregate for one target. It is produced
// fresh each run and always written as a whole.
type Document struct {
	Meta  Meta   `json:"meta"`
	Items []Item `json:"items"`
}
