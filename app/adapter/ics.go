package adapter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/event"
	"github.com/grenlandlive/sportsync/app/timeutil"
)

// ICS parses iCalendar fixture feeds (NFF league calendars, FIS event
// calendars). Only the VEVENT fields the pipeline needs are read; anything
// else in the calendar is ignored.
type ICS struct {
	client *Client
	loc    *time.Location
}

func NewICS(client *Client, loc *time.Location) *ICS {
	return &ICS{client: client, loc: loc}
}

func (a *ICS) Fetch(ctx context.Context, src config.Source) ([]event.RawEvent, error) {
	text, err := a.client.GetText(ctx, src.URL, src)
	if err != nil {
		return nil, networkErr(src, err)
	}

	if !strings.Contains(text, "BEGIN:VCALENDAR") || !strings.Contains(text, "BEGIN:VEVENT") {
		return nil, upstreamErr(src, "response is not an ICS calendar")
	}

	var (
		events  []event.RawEvent
		skipped int
		cur     map[string]string
	)

	for _, ln := range unfoldLines(text) {
		switch ln {
		case "BEGIN:VEVENT":
			cur = map[string]string{}
			continue
		case "END:VEVENT":
			if cur == nil {
				continue
			}
			ev, ok := a.buildEvent(cur, src)
			if ok {
				events = append(events, ev)
			} else {
				skipped++
			}
			cur = nil
			continue
		}
		if cur == nil {
			continue
		}

		key, val, ok := strings.Cut(ln, ":")
		if !ok {
			continue
		}
		// Strip property parameters: "DTSTART;TZID=Europe/Oslo" -> "DTSTART".
		key, _, _ = strings.Cut(key, ";")
		key = strings.ToUpper(strings.TrimSpace(key))

		switch key {
		case "DTSTART", "SUMMARY", "LOCATION", "DESCRIPTION":
			if _, seen := cur[key]; !seen {
				cur[key] = strings.TrimSpace(val)
			}
		}
	}

	if skipped > 0 {
		slog.Debug("Skipped malformed calendar events", "source", src.ID, "count", skipped)
	}

	return events, nil
}

func (a *ICS) buildEvent(fields map[string]string, src config.Source) (event.RawEvent, bool) {
	start, err := timeutil.ParseICS(fields["DTSTART"], a.loc)
	if err != nil {
		return event.RawEvent{}, false
	}
	if src.SeasonFilter && !inSeasonYear(start.In(a.loc), src.Season) {
		return event.RawEvent{}, false
	}

	ev := event.RawEvent{
		Start: start,
		Venue: fields["LOCATION"],
	}

	summary := cleanText(fields["SUMMARY"])
	if home, away, ok := splitMatchup(summary); ok {
		ev.Home, ev.Away = home, away
		return ev, true
	}

	// No separator in the summary: try the description lines before falling
	// back to the whole summary as a title.
	for _, ln := range strings.Split(fields["DESCRIPTION"], "\\n") {
		if home, away, ok := splitMatchup(ln); ok {
			ev.Home, ev.Away = home, away
			return ev, true
		}
	}

	if summary == "" {
		return event.RawEvent{}, false
	}
	ev.Title = summary
	return ev, true
}

// unfoldLines undoes iCalendar line folding: a line starting with
// whitespace continues the previous line.
func unfoldLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, ln := range raw {
		if ln == "" {
			continue
		}
		if (ln[0] == ' ' || ln[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += ln[1:]
			continue
		}
		out = append(out, ln)
	}
	return out
}

// inSeasonYear reports whether t falls in the season's year. Seasons that
// are not plain years ("2025/26") disable the filter.
func inSeasonYear(t time.Time, season string) bool {
	year, err := strconv.Atoi(season)
	if err != nil || year < 1900 {
		return true
	}
	return t.Year() == year
}
