package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/event"
)

// Glyph-gap thresholds for reassembling table cells from positioned text.
// Rough values that work on the federation schedule PDFs; revisit with real
// sample documents if a new layout misbehaves.
const (
	cellGap = 12.0
	wordGap = 1.0
)

// PDF parses schedule PDFs (EHF match plans and similar). Row-structured
// extraction is tried first; when it yields fewer than the source's MinRows
// events the plain-text line scan is merged in, deduped on (start, matchup).
type PDF struct {
	client *Client
	loc    *time.Location
}

func NewPDF(client *Client, loc *time.Location) *PDF {
	return &PDF{client: client, loc: loc}
}

func (a *PDF) Fetch(ctx context.Context, src config.Source) ([]event.RawEvent, error) {
	body, err := a.client.GetBytes(ctx, src.URL, src)
	if err != nil {
		return nil, networkErr(src, err)
	}

	year := seasonYear(src.Season)

	rows, text, err := extractPDF(body)
	if err != nil {
		return nil, parseErr(src, "%w", err)
	}

	var events []event.RawEvent
	for _, cells := range rows {
		ev, ok := scanCells(cells, year, a.loc)
		if !ok {
			continue
		}
		events = append(events, ev)
	}

	if len(events) < src.MinRows {
		slog.Debug("Row extraction sparse, merging text scan",
			"source", src.ID, "rows", len(events), "min_rows", src.MinRows)
		lines := strings.Split(text, "\n")
		events = mergeEvents(events, scanLines(lines, year, a.loc))
	}

	if src.SeasonFilter {
		events = filterSeasonYear(events, src.Season, a.loc)
	}

	return events, nil
}

// extractPDF pulls row-grouped cells and plain text from every page. The
// underlying library panics on some malformed content streams, so the whole
// walk is fenced.
func extractPDF(body []byte) (rows [][]string, text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF extraction panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textParts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		if pageRows, err := page.GetTextByRow(); err == nil {
			for _, row := range pageRows {
				if cells := rowCells(row); len(cells) > 0 {
					rows = append(rows, cells)
				}
			}
		}

		if content, err := page.GetPlainText(nil); err == nil && strings.TrimSpace(content) != "" {
			textParts = append(textParts, content)
		}
	}

	return rows, strings.Join(textParts, "\n"), nil
}

// rowCells reassembles a positioned-text row into cells, splitting where
// the horizontal gap between glyphs exceeds cellGap.
func rowCells(row *pdf.Row) []string {
	var (
		cells []string
		cur   strings.Builder
		lastX float64
		lastW float64
		first = true
	)

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			cells = append(cells, s)
		}
		cur.Reset()
	}

	for _, t := range row.Content {
		if t.S == "" {
			continue
		}
		if !first {
			gap := t.X - (lastX + lastW)
			if gap > cellGap {
				flush()
			} else if gap > wordGap {
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		lastX, lastW = t.X, t.W
		first = false
	}
	flush()

	return cells
}

// mergeEvents combines row-extracted and text-extracted events, keeping the
// row result when both saw the same (start, home, away).
func mergeEvents(primary, secondary []event.RawEvent) []event.RawEvent {
	seen := make(map[string]bool, len(primary))
	key := func(ev event.RawEvent) string {
		return ev.Start.Format(time.RFC3339) + "|" + ev.Home + "|" + ev.Away + "|" + ev.Title
	}
	for _, ev := range primary {
		seen[key(ev)] = true
	}

	out := primary
	for _, ev := range secondary {
		if !seen[key(ev)] {
			seen[key(ev)] = true
			out = append(out, ev)
		}
	}
	return out
}

func filterSeasonYear(events []event.RawEvent, season string, loc *time.Location) []event.RawEvent {
	out := events[:0]
	for _, ev := range events {
		if inSeasonYear(ev.Start.In(loc), season) {
			out = append(out, ev)
		}
	}
	return out
}

// seasonYear extracts a usable year for implied-year date forms; zero
// disables implied-year parsing.
func seasonYear(season string) int {
	if y, err := strconv.Atoi(season); err == nil && y >= 1900 {
		return y
	}
	return time.Now().Year()
}
