package adapter

import (
	"bytes"
	"cmp"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/event"
	"github.com/grenlandlive/sportsync/app/timeutil"
)

// SportAPI parses XML sport-results APIs (biathlonresults-style): a
// two-stage fetch listing events for a season, then the competitions/races
// inside each event. Timestamps come back as zone-less UTC.
//
// Gender classification is a best-effort textual guess; when the
// description gives no signal the competition is kept for every bucket
// rather than dropped.
type SportAPI struct {
	client *Client
	loc    *time.Location
}

func NewSportAPI(client *Client, loc *time.Location) *SportAPI {
	return &SportAPI{client: client, loc: loc}
}

type apiEvent struct {
	EventID    string `xml:"EventId"`
	Descr      string `xml:"Description"`
	ShortDescr string `xml:"ShortDescription"`
	Organizer  string `xml:"Organizer"`
	StartDate  string `xml:"StartDate"`
}

type apiCompetition struct {
	RaceID     string `xml:"RaceId"`
	Name       string `xml:"CompetitionName"`
	ShortDescr string `xml:"ShortDescription"`
	StartTime  string `xml:"StartTime"`
	Location   string `xml:"Location"`
	CatID      string `xml:"catId"`
}

func (a *SportAPI) Fetch(ctx context.Context, src config.Source) ([]event.RawEvent, error) {
	base := strings.TrimRight(src.URL, "/")

	eventsURL := fmt.Sprintf("%s/Events?SeasonId=%d&Level=%d", base, src.SeasonID, src.Level)
	body, err := a.client.GetBytes(ctx, eventsURL, src)
	if err != nil {
		return nil, networkErr(src, err)
	}

	apiEvents, err := decodeElements[apiEvent](body, "Event")
	if err != nil {
		return nil, parseErr(src, "events list: %w", err)
	}
	if len(apiEvents) == 0 && !bytes.Contains(body, []byte("<")) {
		return nil, upstreamErr(src, "events response is not XML")
	}

	var (
		events  []event.RawEvent
		skipped int
	)
	for _, ev := range apiEvents {
		if ev.EventID == "" {
			skipped++
			continue
		}

		compsURL := fmt.Sprintf("%s/Competitions?EventId=%s", base, ev.EventID)
		compBody, err := a.client.GetBytes(ctx, compsURL, src)
		if err != nil {
			// One event's competitions failing should not sink the whole
			// season listing.
			slog.Warn("Competitions fetch failed, skipping event",
				"source", src.ID, "event_id", ev.EventID, "error", err)
			skipped++
			continue
		}

		comps, err := decodeElements[apiCompetition](compBody, "Competition")
		if err != nil {
			skipped++
			continue
		}

		for _, comp := range comps {
			raw, ok := a.buildEvent(ev, comp, src)
			if !ok {
				skipped++
				continue
			}
			events = append(events, raw)
		}
	}

	if skipped > 0 {
		slog.Debug("Skipped results-API records", "source", src.ID, "count", skipped)
	}

	return events, nil
}

func (a *SportAPI) buildEvent(ev apiEvent, comp apiCompetition, src config.Source) (event.RawEvent, bool) {
	title := cleanText(cmp.Or(comp.Name, comp.ShortDescr, ev.ShortDescr, ev.Descr))
	if title == "" || comp.StartTime == "" {
		return event.RawEvent{}, false
	}

	// API timestamps are UTC without a zone marker.
	start, err := timeutil.ParseISOAny(comp.StartTime, time.UTC)
	if err != nil {
		return event.RawEvent{}, false
	}

	if src.Bucket != "" {
		inferred := inferBucket(title + " " + comp.CatID)
		if inferred != "" && inferred != src.Bucket {
			return event.RawEvent{}, false
		}
	}

	return event.RawEvent{
		Start: start,
		Title: title,
		Venue: cleanText(cmp.Or(comp.Location, ev.Organizer)),
	}, true
}

// inferBucket guesses the gender bucket from free text. Empty means
// ambiguous: the caller keeps the event for all buckets.
func inferBucket(s string) string {
	low := " " + strings.ToLower(cleanText(s)) + " "
	for _, w := range []string{" women", " ladies", " damer", " kvinner", " sw ", " w "} {
		if strings.Contains(low, w) {
			return "women"
		}
	}
	for _, w := range []string{" men", " herrer", " menn", " sm ", " m "} {
		if strings.Contains(low, w) {
			return "men"
		}
	}
	return ""
}

// decodeElements collects every element named tag, wherever it sits in the
// tree. The APIs are not consistent about their envelope.
func decodeElements[T any](data []byte, tag string) ([]T, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []T

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != tag {
			continue
		}

		var el T
		if err := dec.DecodeElement(&el, &start); err != nil {
			return nil, fmt.Errorf("invalid <%s> element: %w", tag, err)
		}
		out = append(out, el)
	}
}
