package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// DefaultZone is the reference timezone every stored timestamp is
// normalized to. Overridable via the sources configuration.
const DefaultZone = "Europe/Oslo"

const isoFormat = "2006-01-02T15:04:05Z07:00"

// FormatISO renders a timestamp as fixed-offset ISO-8601 with second
// precision, the only form that appears in persisted documents.
func FormatISO(t time.Time) string {
	return t.Truncate(time.Second).Format(isoFormat)
}

var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseISOAny parses the ISO-ish timestamp forms upstream feeds produce.
// A trailing "Z" or explicit offset is honored; a timestamp without any
// zone marker is assumed to already be in loc.
func ParseISOAny(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if strings.HasSuffix(s, "Z") {
		base := strings.TrimSuffix(s, "Z")
		for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
			if t, err := time.Parse(layout, base); err == nil {
				return t.In(time.UTC), nil
			}
		}
	}

	for _, layout := range isoLayouts {
		if strings.ContainsAny(layout, "Z") {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp: %q", s)
}

// ParseICS parses the DTSTART value forms found in calendar feeds:
//
//	20260118T180000Z    UTC
//	20260118T180000     floating, assumed to be in loc
//	20260118T1800       floating, minute precision
//	20260118            all-day, midnight in loc
func ParseICS(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty DTSTART")
	}

	switch {
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad UTC DTSTART %q: %w", v, err)
		}
		return t, nil
	case len(v) == 15:
		return time.ParseInLocation("20060102T150405", v, loc)
	case len(v) == 13:
		return time.ParseInLocation("20060102T1504", v, loc)
	case len(v) == 8:
		return time.ParseInLocation("20060102", v, loc)
	}

	return time.Time{}, fmt.Errorf("unrecognized DTSTART: %q", v)
}

// LoadLocation resolves a timezone name, falling back to the reference
// default when the name is empty.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	return time.LoadLocation(name)
}
