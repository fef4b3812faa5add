package adapter

// Shared scanning helpers for the schedule-shaped sources (PDF and HTML
// tables) plus the matchup splitter used by every adapter. Schedules in the
// wild mix Norwegian and English date forms, en/em dashes and NBSPs, so
// everything funnels through cleanText first.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/grenlandlive/sportsync/app/event"
)

var (
	spaceRe = regexp.MustCompile(`\s+`)

	// "Home - Away", "Home – Away", "Home vs Away", "Home v. Away".
	// Separators require surrounding whitespace so hyphenated team names
	// survive.
	matchupRe = regexp.MustCompile(`(?i)^\s*(.+?)\s+(?:-|vs\.?|v\.?)\s+(.+?)\s*$`)

	timeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

	// Date followed by time somewhere in a free-text line. The first
	// alternative keeps an implied-year trailing dot ("18.01.") with the
	// date so the separating whitespace still matches.
	dateTimeRe = regexp.MustCompile(
		`(?i)(?P<date>` +
			`\d{1,2}\.\d{1,2}(?:\.\d{4}|\.)?|` +
			`\d{1,2}/\d{1,2}/\d{4}|` +
			`\d{4}-\d{1,2}-\d{1,2}|` +
			`\d{1,2}\.?\s+[a-zæøå]+\.?(?:\s+\d{4})?` +
			`)\s+(?P<time>\d{1,2}:\d{2})`)
)

// months maps Norwegian and English month names, long and short forms.
var months = map[string]time.Month{
	"jan": 1, "januar": 1, "january": 1,
	"feb": 2, "februar": 2, "february": 2,
	"mar": 3, "mars": 3, "march": 3,
	"apr": 4, "april": 4,
	"mai": 5, "may": 5,
	"jun": 6, "juni": 6, "june": 6,
	"jul": 7, "juli": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"okt": 10, "oct": 10, "oktober": 10, "october": 10,
	"nov": 11, "november": 11,
	"des": 12, "dec": 12, "desember": 12, "december": 12,
}

// cleanText normalizes dash variants, NBSPs and whitespace runs.
func cleanText(s string) string {
	s = strings.NewReplacer("–", "-", "—", "-", " ", " ").Replace(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// splitMatchup extracts (home, away) from a "Home - Away" style string.
func splitMatchup(s string) (string, string, bool) {
	s = cleanText(s)
	if s == "" {
		return "", "", false
	}
	m := matchupRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	home, away := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	if home == "" || away == "" {
		return "", "", false
	}
	return home, away, true
}

// parseScheduleDate parses a schedule date + clock time pair. year fills in
// forms with an implied year ("18.01." style).
func parseScheduleDate(datePart, timePart string, year int, loc *time.Location) (time.Time, bool) {
	dp := strings.TrimSuffix(strings.ToLower(cleanText(datePart)), ".")
	tm := timeRe.FindStringSubmatch(cleanText(timePart))
	if tm == nil {
		return time.Time{}, false
	}
	hh, _ := strconv.Atoi(tm[1])
	mm, _ := strconv.Atoi(tm[2])
	if hh > 23 || mm > 59 {
		return time.Time{}, false
	}

	mk := func(y int, mo time.Month, d int) (time.Time, bool) {
		if d < 1 || d > 31 || mo < 1 || mo > 12 {
			return time.Time{}, false
		}
		return time.Date(y, mo, d, hh, mm, 0, 0, loc), true
	}

	for _, form := range []struct {
		re    *regexp.Regexp
		build func(m []string) (time.Time, bool)
	}{
		{regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`), func(m []string) (time.Time, bool) {
			d, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			y, _ := strconv.Atoi(m[3])
			return mk(y, time.Month(mo), d)
		}},
		{regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})$`), func(m []string) (time.Time, bool) {
			d, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			return mk(year, time.Month(mo), d)
		}},
		{regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), func(m []string) (time.Time, bool) {
			d, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			y, _ := strconv.Atoi(m[3])
			return mk(y, time.Month(mo), d)
		}},
		{regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), func(m []string) (time.Time, bool) {
			y, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			d, _ := strconv.Atoi(m[3])
			return mk(y, time.Month(mo), d)
		}},
		{regexp.MustCompile(`^(\d{1,2})\.?\s+([a-zæøå]+?)\.?(?:\s+(\d{4}))?$`), func(m []string) (time.Time, bool) {
			d, _ := strconv.Atoi(m[1])
			mo, ok := months[m[2]]
			if !ok {
				return time.Time{}, false
			}
			y := year
			if m[3] != "" {
				y, _ = strconv.Atoi(m[3])
			}
			return mk(y, mo, d)
		}},
	} {
		if m := form.re.FindStringSubmatch(dp); m != nil {
			return form.build(m)
		}
	}

	return time.Time{}, false
}

// scanLines walks free-text schedule lines looking for a date+time, then
// for a matchup on the same line or the following two lines. A timestamp
// without a resolvable matchup is discarded, not emitted with blank teams.
func scanLines(lines []string, year int, loc *time.Location) []event.RawEvent {
	var events []event.RawEvent

	for i, ln := range lines {
		ln = cleanText(ln)
		m := dateTimeRe.FindStringSubmatchIndex(ln)
		if m == nil {
			continue
		}

		datePart := ln[m[2]:m[3]]
		timePart := ln[m[4]:m[5]]
		start, ok := parseScheduleDate(datePart, timePart, year, loc)
		if !ok {
			continue
		}

		candidates := []string{strings.Trim(ln[m[1]:], " |:-")}
		for j := i + 1; j < len(lines) && j <= i+2; j++ {
			candidates = append(candidates, lines[j])
		}

		for _, cand := range candidates {
			if home, away, ok := splitMatchup(cand); ok {
				events = append(events, event.RawEvent{Start: start, Home: home, Away: away})
				break
			}
		}
	}

	return events
}

// scanCells applies the tabular heuristic to one row of cells: locate a
// clock-time cell, resolve a date cell (preferring the one just before the
// time), then a matchup either inside a single cell or in the two cells
// following the date/time pair.
func scanCells(cells []string, year int, loc *time.Location) (event.RawEvent, bool) {
	cleaned := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = cleanText(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) < 3 {
		return event.RawEvent{}, false
	}

	timeIdx := -1
	for i, c := range cleaned {
		if timeRe.MatchString(c) {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 {
		return event.RawEvent{}, false
	}

	dateIdx := -1
	var start time.Time
	candidates := make([]int, 0, len(cleaned)+1)
	if timeIdx > 0 {
		candidates = append(candidates, timeIdx-1)
	}
	for i := range cleaned {
		candidates = append(candidates, i)
	}
	for _, i := range candidates {
		if i == timeIdx {
			continue
		}
		if t, ok := parseScheduleDate(cleaned[i], cleaned[timeIdx], year, loc); ok {
			start, dateIdx = t, i
			break
		}
	}
	if dateIdx < 0 {
		return event.RawEvent{}, false
	}

	for _, c := range cleaned {
		if home, away, ok := splitMatchup(c); ok {
			return event.RawEvent{Start: start, Home: home, Away: away}, true
		}
	}

	next := max(dateIdx, timeIdx) + 1
	if next+1 < len(cleaned) {
		return event.RawEvent{Start: start, Home: cleaned[next], Away: cleaned[next+1]}, true
	}

	return event.RawEvent{}, false
}
