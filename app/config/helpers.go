package config

import "time"

// GetTimeout returns the per-fetch budget as time.Duration.
func (s *Source) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// EnabledSources returns the target's enabled sources in configured order.
func (t *Target) EnabledSources() []Source {
	out := make([]Source, 0, len(t.Sources))
	for _, s := range t.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// LegacyFor returns the legacy projections derived from the named target.
func (c *Sources) LegacyFor(target string) []Legacy {
	var out []Legacy
	for _, l := range c.Legacy {
		if l.Target == target {
			out = append(out, l)
		}
	}
	return out
}
