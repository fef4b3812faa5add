package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/event"
)

// Adapter is the parsing strategy for one provider kind. Fetch returns the
// raw events a source currently exposes; it fails with *Error when the
// cause is abnormal (network, parse, malformed upstream) rather than
// returning an empty slice, so the orchestrator can tell "zero events
// happened" apart from "fetch failed". A single malformed record inside an
// otherwise-good fetch is skipped, never fatal.
type Adapter interface {
	Fetch(ctx context.Context, src config.Source) ([]event.RawEvent, error)
}

// ErrorKind classifies adapter failures. Parse failures are not retried.
type ErrorKind string

const (
	ErrNetwork  ErrorKind = "network"
	ErrParse    ErrorKind = "parse"
	ErrUpstream ErrorKind = "upstream"
)

// Error is an adapter failure isolated to one source.
type Error struct {
	Kind     ErrorKind
	SourceID string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.SourceID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func networkErr(src config.Source, err error) *Error {
	return &Error{Kind: ErrNetwork, SourceID: src.ID, Err: err}
}

func parseErr(src config.Source, format string, args ...any) *Error {
	return &Error{Kind: ErrParse, SourceID: src.ID, Err: fmt.Errorf(format, args...)}
}

func upstreamErr(src config.Source, format string, args ...any) *Error {
	return &Error{Kind: ErrUpstream, SourceID: src.ID, Err: fmt.Errorf(format, args...)}
}

// Registry maps provider kinds to adapter instances.
type Registry map[string]Adapter

// NewRegistry builds the registry of all known provider kinds, sharing one
// HTTP client. loc is the reference timezone floating timestamps are
// interpreted in.
func NewRegistry(client *Client, loc *time.Location) Registry {
	return Registry{
		"ics":       NewICS(client, loc),
		"jsonfeed":  NewJSONFeed(client, loc),
		"pdf":       NewPDF(client, loc),
		"sportapi":  NewSportAPI(client, loc),
		"rss":       NewRSSFeed(client, loc),
		"htmltable": NewHTMLTable(client, loc),
	}
}

// Get resolves the adapter for a provider kind.
func (r Registry) Get(kind string) (Adapter, error) {
	a, ok := r[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", kind)
	}
	return a, nil
}
