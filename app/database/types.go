package database

import (
	"time"
)

// JournalSeed is a journal definition taken from the configuration catalog.
type JournalSeed struct {
	Name          string
	FeedURL       string
	FeedType      string
	Category      string
	NeedsScraping bool
	IsActive      bool
}

// NewArticle carries the fields of a candidate article into the store.
type NewArticle struct {
	Title       string
	Link        string
	Abstract    string
	Authors     string
	DOI         string
	Volume      string
	Issue       string
	PublishedAt *time.Time
}

// ProfilePatch lists the mutable user profile fields. Nil fields are left
// unchanged.
type ProfilePatch struct {
	Language       *string
	EducationLevel *string
	Specialty      *string
	EducationYear  *int
	Onboarded      *bool
}
