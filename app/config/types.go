package config

// JournalConfig describes a single journal feed source.
type JournalConfig struct {
	Name          string `yaml:"name"` // Defaults to the filename without extension
	FeedURL       string `yaml:"feed_url"`
	FeedType      string `yaml:"feed_type"` // 'rss', 'rdf' or 'atom' (hint only, parsing auto-detects)
	Category      string `yaml:"category"`
	NeedsScraping *bool  `yaml:"needs_scraping"` // Abstract must be fetched from the article page
	Enabled       *bool  `yaml:"enabled"`
}

func (c *JournalConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c *JournalConfig) RequiresScraping() bool {
	return c.NeedsScraping != nil && *c.NeedsScraping
}
