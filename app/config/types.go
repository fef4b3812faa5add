package config

// Sources is the single configuration file enumerating every target and
// its upstream sources. Read once at startup, immutable for the run.
type Sources struct {
	Timezone     string   `yaml:"timezone"`
	Season       string   `yaml:"season"`
	DefaultWhere []string `yaml:"default_where"`
	Targets      []Target `yaml:"targets"`
	Legacy       []Legacy `yaml:"legacy"`
}

// Target describes one output document and the ordered sources feeding it.
type Target struct {
	Name    string   `yaml:"name"`
	Sport   string   `yaml:"sport"`
	Out     string   `yaml:"out"`
	Sources []Source `yaml:"sources"`
}

// Source describes one upstream feed.
type Source struct {
	ID             string `yaml:"id"`
	Provider       string `yaml:"provider"`
	URL            string `yaml:"url"`
	Sport          string `yaml:"sport"`
	League         string `yaml:"league"`
	Season         string `yaml:"season"`
	DefaultChannel string `yaml:"default_channel"`
	Enabled        bool   `yaml:"enabled"`

	// Bucket restricts a results-API source to one gender/category bucket
	// ("men"/"women"). Events whose bucket cannot be inferred pass through.
	Bucket string `yaml:"bucket"`
	// SeasonFilter drops events outside the season year. Used by calendar
	// and PDF sources whose feeds span multiple seasons.
	SeasonFilter bool `yaml:"season_filter"`
	// Encoding overrides response decoding ("latin1" for legacy feeds).
	Encoding string `yaml:"encoding"`
	// MinRows is the threshold below which PDF row extraction is considered
	// too sparse and the plain-text scan is merged in.
	MinRows int `yaml:"min_rows"`
	// Timeout is the per-fetch budget in seconds.
	Timeout int `yaml:"timeout"`

	// SportAPI two-stage fetch parameters.
	SeasonID int `yaml:"season_id"`
	Level    int `yaml:"level"`
}

// Legacy describes one backward-compatible per-league projection derived
// from a canonical target after it is committed.
type Legacy struct {
	Out      string   `yaml:"out"`
	Target   string   `yaml:"target"`
	League   string   `yaml:"league"`
	Keywords []string `yaml:"keywords"`
}
