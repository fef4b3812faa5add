package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grenlandlive/sportsync/app/timeutil"
)

// Providers lists the known provider kinds a source may declare.
var Providers = map[string]bool{
	"ics":       true,
	"jsonfeed":  true,
	"pdf":       true,
	"sportapi":  true,
	"rss":       true,
	"htmltable": true,
}

// Load reads, defaults and validates the sources configuration file.
func Load(path string) (*Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var cfg Sources
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid sources config %s: %w", path, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Sources) {
	if cfg.Timezone == "" {
		cfg.Timezone = timeutil.DefaultZone
	}

	for ti := range cfg.Targets {
		t := &cfg.Targets[ti]
		for si := range t.Sources {
			s := &t.Sources[si]
			if s.Sport == "" {
				s.Sport = t.Sport
			}
			if s.Season == "" {
				s.Season = cfg.Season
			}
			if s.Timeout == 0 {
				s.Timeout = 30 // seconds
			}
			if s.MinRows == 0 {
				s.MinRows = 10
			}
		}
	}
}

func validate(cfg *Sources) error {
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("at least one target must be defined")
	}
	if _, err := timeutil.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	targetNames := make(map[string]bool, len(cfg.Targets))
	outPaths := make(map[string]bool)

	for i, t := range cfg.Targets {
		if t.Name == "" {
			return fmt.Errorf("targets[%d] is missing name", i)
		}
		if t.Sport == "" {
			return fmt.Errorf("target %q is missing sport", t.Name)
		}
		if t.Out == "" {
			return fmt.Errorf("target %q is missing out path", t.Name)
		}
		if outPaths[t.Out] {
			return fmt.Errorf("target %q reuses out path %s", t.Name, t.Out)
		}
		if len(t.Sources) == 0 {
			return fmt.Errorf("target %q has no sources", t.Name)
		}
		targetNames[t.Name] = true
		outPaths[t.Out] = true

		for j, s := range t.Sources {
			if s.ID == "" {
				return fmt.Errorf("target %q sources[%d] is missing id", t.Name, j)
			}
			if !Providers[s.Provider] {
				return fmt.Errorf("source %q has unknown provider %q", s.ID, s.Provider)
			}
			if s.URL == "" {
				return fmt.Errorf("source %q is missing url", s.ID)
			}
		}
	}

	for i, l := range cfg.Legacy {
		if l.Out == "" {
			return fmt.Errorf("legacy[%d] is missing out path", i)
		}
		if !targetNames[l.Target] {
			return fmt.Errorf("legacy %s references unknown target %q", l.Out, l.Target)
		}
		if len(l.Keywords) == 0 {
			return fmt.Errorf("legacy %s has no league keywords", l.Out)
		}
	}

	return nil
}
