package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Paths
	SourcesPath string `long:"sources" env:"SOURCES_PATH" default:"./sources.yml" description:"Path to the sources configuration file"`
	ReportPath  string `long:"report" env:"REPORT_PATH" default:"./data/status.json" description:"Path the run status report is written to"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"sportsync/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return &Cfg{
		SourcesPath: raw.SourcesPath,
		ReportPath:  raw.ReportPath,
		UserAgent:   raw.UserAgent,
		Debug:       raw.Debug,
		Version:     GetVersion(),
	}, nil
}
