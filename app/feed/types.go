package feed

import (
	"time"
)

// Candidate is an article parsed from a feed entry, before deduplication.
type Candidate struct {
	Title       string
	Link        string
	Abstract    string // empty when the feed carried none worth keeping
	Authors     string // comma-joined
	DOI         string
	Volume      string
	Issue       string
	PublishedAt *time.Time
}
