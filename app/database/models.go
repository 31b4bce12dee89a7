package database

import (
	"time"
)

type Journal struct {
	ID            int64
	Name          string
	FeedURL       string
	FeedType      string
	Category      string
	NeedsScraping bool
	IsActive      bool
	LastCheckedAt *time.Time
	CreatedAt     time.Time
}

type User struct {
	ID             int64
	TelegramID     int64
	Username       string
	FirstName      string
	Language       string // 'en' or 'fa'
	EducationLevel string // dds_student, general_dentist, resident, specialist, faculty
	Specialty      string
	EducationYear  int // DDS students: 1-6
	Onboarded      bool
	IsAdmin        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Article struct {
	ID          int64
	JournalID   int64
	Title       string
	Link        string
	LinkHash    string
	Abstract    string // empty means unknown, eligible for enrichment
	Authors     string
	DOI         string
	Volume      string
	Issue       string
	PublishedAt *time.Time
	FetchedAt   time.Time
}

type Subscription struct {
	ID        int64
	UserID    int64
	JournalID int64
	IsActive  bool
	CreatedAt time.Time
}

type Delivery struct {
	ID        int64
	UserID    int64
	ArticleID int64
	Content   string // tailored markdown that was sent
	SentAt    time.Time
}
