package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/event"
	"github.com/grenlandlive/sportsync/app/timeutil"
)

// containerKeys are the wrapper keys fixture APIs nest their list under.
var containerKeys = []string{"items", "games", "matches", "fixtures", "events", "data", "response", "results"}

// Field aliases seen across fixture APIs (FixtureDownload and friends).
var (
	dateKeys    = []string{"DateUtc", "dateUtc", "date", "Date", "datetime", "kickoff", "start", "StartTime"}
	timeKeys    = []string{"time", "Time", "kickoff_time"}
	homeKeys    = []string{"HomeTeam", "homeTeam", "home", "home_name", "HomeTeamName"}
	awayKeys    = []string{"AwayTeam", "awayTeam", "away", "away_name", "AwayTeamName"}
	titleKeys   = []string{"title", "name", "EventName"}
	venueKeys   = []string{"Location", "location", "venue", "Venue", "Stadium"}
	channelKeys = []string{"channel", "tv", "broadcast"}
	leagueKeys  = []string{"league", "competition", "tournament", "RoundNumber_league"}
)

// JSONFeed parses JSON fixture feeds: a list of objects, optionally nested
// under a known container key, with alias-tolerant field lookup.
type JSONFeed struct {
	client *Client
	loc    *time.Location
}

func NewJSONFeed(client *Client, loc *time.Location) *JSONFeed {
	return &JSONFeed{client: client, loc: loc}
}

func (a *JSONFeed) Fetch(ctx context.Context, src config.Source) ([]event.RawEvent, error) {
	body, err := a.client.GetBytes(ctx, src.URL, src)
	if err != nil {
		return nil, networkErr(src, err)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, parseErr(src, "invalid JSON: %w", err)
	}

	rows, err := extractRows(payload)
	if err != nil {
		return nil, parseErr(src, "%w", err)
	}

	var (
		events  []event.RawEvent
		skipped int
	)
	for _, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		ev, ok := a.buildEvent(obj)
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}

	if skipped > 0 {
		slog.Debug("Skipped malformed feed rows", "source", src.ID, "count", skipped)
	}

	return events, nil
}

func (a *JSONFeed) buildEvent(obj map[string]any) (event.RawEvent, bool) {
	dateStr := lookupString(obj, dateKeys)
	if dateStr == "" {
		return event.RawEvent{}, false
	}
	// Some APIs split date and clock time across two fields.
	if timeStr := lookupString(obj, timeKeys); timeStr != "" && !strings.ContainsAny(dateStr, ":T") {
		dateStr = dateStr + " " + timeStr
	}

	start, err := timeutil.ParseISOAny(dateStr, a.loc)
	if err != nil {
		// Anything less regular goes through the lenient parser.
		start, err = dateparse.ParseIn(dateStr, a.loc)
		if err != nil {
			return event.RawEvent{}, false
		}
	}

	ev := event.RawEvent{
		Start:   start,
		Home:    lookupString(obj, homeKeys),
		Away:    lookupString(obj, awayKeys),
		Venue:   lookupString(obj, venueKeys),
		Channel: lookupString(obj, channelKeys),
		League:  lookupString(obj, leagueKeys),
	}
	if ev.Home == "" || ev.Away == "" {
		ev.Home, ev.Away = "", ""
		ev.Title = lookupString(obj, titleKeys)
		if ev.Title == "" {
			return event.RawEvent{}, false
		}
	}

	return ev, true
}

// extractRows accepts either a bare JSON list or an object wrapping one
// under a known container key, including one level of nesting.
func extractRows(payload any) ([]any, error) {
	if rows, ok := payload.([]any); ok {
		return rows, nil
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON list or container object")
	}
	for _, key := range containerKeys {
		if rows, ok := obj[key].([]any); ok {
			return rows, nil
		}
	}
	for _, v := range obj {
		if nested, ok := v.(map[string]any); ok {
			for _, key := range containerKeys {
				if rows, ok := nested[key].([]any); ok {
					return rows, nil
				}
			}
		}
	}

	return nil, fmt.Errorf("no event list found under known container keys")
}

func lookupString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			// Unix timestamps arrive as numbers in a few feeds.
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
