package adapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/event"
)

// RSSFeed parses RSS/Atom fixture feeds, where each entry is one fixture:
// the title carries the matchup and the entry date carries kickoff. Club
// sites tend to publish these alongside their news feeds.
type RSSFeed struct {
	client *Client
	loc    *time.Location
	parser *gofeed.Parser
}

func NewRSSFeed(client *Client, loc *time.Location) *RSSFeed {
	return &RSSFeed{client: client, loc: loc, parser: gofeed.NewParser()}
}

func (a *RSSFeed) Fetch(ctx context.Context, src config.Source) ([]event.RawEvent, error) {
	text, err := a.client.GetText(ctx, src.URL, src)
	if err != nil {
		return nil, networkErr(src, err)
	}

	feed, err := a.parser.ParseString(text)
	if err != nil {
		return nil, parseErr(src, "failed to parse feed: %w", err)
	}

	var (
		events  []event.RawEvent
		skipped int
	)
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		ev, ok := a.buildEvent(item)
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}

	if skipped > 0 {
		slog.Debug("Skipped feed entries without usable fixture data", "source", src.ID, "count", skipped)
	}

	return events, nil
}

func (a *RSSFeed) buildEvent(item *gofeed.Item) (event.RawEvent, bool) {
	var start time.Time
	switch {
	case item.PublishedParsed != nil:
		start = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		start = *item.UpdatedParsed
	default:
		return event.RawEvent{}, false
	}

	ev := event.RawEvent{Start: start}
	title := cleanText(item.Title)
	if home, away, ok := splitMatchup(title); ok {
		ev.Home, ev.Away = home, away
		return ev, true
	}
	// Entries from combined club feeds sometimes carry the matchup in the
	// description instead.
	for _, ln := range strings.Split(item.Description, "\n") {
		if home, away, ok := splitMatchup(ln); ok {
			ev.Home, ev.Away = home, away
			return ev, true
		}
	}

	if title == "" {
		return event.RawEvent{}, false
	}
	ev.Title = title
	return ev, true
}
