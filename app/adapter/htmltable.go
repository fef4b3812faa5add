package adapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/event"
)

// HTMLTable parses schedule tables on federation pages: every table row is
// run through the same cell heuristic as PDF rows. Page-specific layout
// quirks are deliberately not modeled; rows the heuristic cannot resolve
// are dropped.
type HTMLTable struct {
	client *Client
	loc    *time.Location
}

func NewHTMLTable(client *Client, loc *time.Location) *HTMLTable {
	return &HTMLTable{client: client, loc: loc}
}

func (a *HTMLTable) Fetch(ctx context.Context, src config.Source) ([]event.RawEvent, error) {
	text, err := a.client.GetText(ctx, src.URL, src)
	if err != nil {
		return nil, networkErr(src, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, parseErr(src, "failed to parse HTML: %w", err)
	}

	year := seasonYear(src.Season)

	var (
		events  []event.RawEvent
		rows    int
		skipped int
	)
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		rows++

		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cell.Text())
		})

		ev, ok := scanCells(cells, year, a.loc)
		if !ok {
			skipped++
			return
		}
		events = append(events, ev)
	})

	if rows == 0 {
		return nil, upstreamErr(src, "page contains no table rows")
	}
	if skipped > 0 {
		slog.Debug("Skipped table rows without usable fixture data", "source", src.ID, "count", skipped)
	}

	if src.SeasonFilter {
		events = filterSeasonYear(events, src.Season, a.loc)
	}

	return events, nil
}
