package cfg

type Cfg struct {
	// Paths
	SourcesPath string
	ReportPath  string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
