package database

// UndeliveredLimit caps the backlog returned per user; users with large
// backlogs see only the most recently fetched items.
const UndeliveredLimit = 20

type JournalRepository interface {
	UpsertJournal(seed JournalSeed) (int64, error)
	GetJournalByID(id int64) (*Journal, error)
	GetJournalByName(name string) (*Journal, error)
	GetActiveJournals() ([]Journal, error)
	GetJournalsByCategory() (map[string][]Journal, error)
	UpdateLastChecked(journalID int64) error
	SetJournalActive(journalID int64, active bool) error
	GetJournalCount() (int, error)
}

type ArticleRepository interface {
	// CreateArticle stores the article unless one with the same normalized
	// link already exists. The bool reports whether a new row was created;
	// on a duplicate the existing article is returned.
	CreateArticle(journalID int64, article NewArticle) (*Article, bool, error)
	ArticleExists(link string) (bool, error)
	GetArticleByLink(link string) (*Article, error)
	GetArticleByID(id int64) (*Article, error)
	// FillAbstract sets the abstract only when it is still unknown.
	FillAbstract(articleID int64, abstract string) error
	GetLatestArticles(journalID int64, limit int) ([]Article, error)
	GetArticleCount() (int, error)
}

type UserRepository interface {
	GetOrCreateUser(telegramID int64, username, firstName string) (*User, error)
	GetUser(telegramID int64) (*User, error)
	UpdateUserProfile(telegramID int64, patch ProfilePatch) (*User, error)
	GetUserCount() (int, error)
}

type SubscriptionRepository interface {
	// ToggleSubscription flips the subscription state and reports whether
	// the user ends up subscribed.
	ToggleSubscription(userID, journalID int64) (bool, error)
	IsSubscribed(userID, journalID int64) (bool, error)
	// GetSubscribers returns users with an active subscription and a
	// completed onboarding profile.
	GetSubscribers(journalID int64) ([]User, error)
	GetUserJournals(userID int64) ([]Journal, error)
}

type DeliveryRepository interface {
	WasDelivered(userID, articleID int64) (bool, error)
	MarkDelivered(userID, articleID int64, content string) error
	// GetDelivery returns the most recent delivery for the pair.
	GetDelivery(userID, articleID int64) (*Delivery, error)
	// GetUndeliveredArticles returns articles from the user's active
	// subscriptions without a delivery record, newest-fetched first,
	// capped at UndeliveredLimit.
	GetUndeliveredArticles(userID int64) ([]Article, error)
	GetDeliveryCount() (int, error)
}
