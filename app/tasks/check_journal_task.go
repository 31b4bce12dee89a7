package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/feed"
	"github.com/dentalbrief/dentalbrief/app/tailor"
)

// CheckJournalTask fetches a journal feed, stores new articles and notifies
// subscribers. With Silent set it backfills the store without messaging
// anyone, used on the first pass after startup so a fresh database does not
// flood every chat with the feed's whole history.
type CheckJournalTask struct {
	Task
	Journal          database.Journal
	Silent           bool
	fetcher          *feed.Fetcher
	parser           *feed.Parser
	scraper          AbstractScraper
	tailorService    TailorService
	messenger        Messenger
	journalRepo      database.JournalRepository
	articleRepo      database.ArticleRepository
	subscriptionRepo database.SubscriptionRepository
	deliveryRepo     database.DeliveryRepository
}

func NewCheckJournalTask(journal database.Journal, silent bool, fetcher *feed.Fetcher, parser *feed.Parser,
	scraper AbstractScraper, tailorService TailorService, messenger Messenger,
	journalRepo database.JournalRepository, articleRepo database.ArticleRepository,
	subscriptionRepo database.SubscriptionRepository, deliveryRepo database.DeliveryRepository) *CheckJournalTask {

	task := NewTask(TaskTypeCheckJournal, journal.Name)
	// The next scheduler tick re-enqueues the journal anyway
	task.MaxRetries = 0

	return &CheckJournalTask{
		Task:             task,
		Journal:          journal,
		Silent:           silent,
		fetcher:          fetcher,
		parser:           parser,
		scraper:          scraper,
		tailorService:    tailorService,
		messenger:        messenger,
		journalRepo:      journalRepo,
		articleRepo:      articleRepo,
		subscriptionRepo: subscriptionRepo,
		deliveryRepo:     deliveryRepo,
	}
}

func (t *CheckJournalTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := t.fetcher.Fetch(ctx, t.Journal.FeedURL)
	if err != nil {
		// Leave last_checked_at untouched so the journal stays due
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	candidates, err := t.parser.Run(data)
	if err != nil {
		slog.Warn("Failed to parse feed, treating as empty", "journal", t.JournalName, "error", err)
		candidates = nil
	}

	duplicateCount := 0
	newCount := 0
	enrichedCount := 0

	for _, candidate := range candidates {
		created, enriched, err := t.processCandidate(ctx, candidate)
		if err != nil {
			slog.Warn("Failed to process article", "journal", t.JournalName, "link", candidate.Link, "error", err)
			continue
		}

		if created {
			newCount++
		} else {
			duplicateCount++
		}
		if enriched {
			enrichedCount++
		}
	}

	if err := t.journalRepo.UpdateLastChecked(t.Journal.ID); err != nil {
		return fmt.Errorf("failed to update check time: %w", err)
	}

	slog.Info("Task completed",
		"type", "CheckJournal",
		"journal", t.JournalName,
		"silent", t.Silent,
		"duration", t.GetDuration(),
		"total", len(candidates),
		"duplicates", duplicateCount,
		"enriched", enrichedCount,
		"new", newCount)

	return nil
}

func (t *CheckJournalTask) processCandidate(ctx context.Context, candidate feed.Candidate) (created bool, enriched bool, err error) {
	existing, err := t.articleRepo.GetArticleByLink(candidate.Link)
	if err != nil {
		return false, false, fmt.Errorf("failed to look up article: %w", err)
	}

	if existing != nil {
		enriched = t.enrichStored(ctx, existing, candidate)
		return false, enriched, nil
	}

	if candidate.Abstract == "" && t.Journal.NeedsScraping {
		if abstract, ok := t.scraper.ScrapeAbstract(ctx, candidate.Link); ok {
			candidate.Abstract = abstract
			enriched = true
		}
	}

	article, wasCreated, err := t.articleRepo.CreateArticle(t.Journal.ID, database.NewArticle{
		Title:       candidate.Title,
		Link:        candidate.Link,
		Abstract:    candidate.Abstract,
		Authors:     candidate.Authors,
		DOI:         candidate.DOI,
		Volume:      candidate.Volume,
		Issue:       candidate.Issue,
		PublishedAt: candidate.PublishedAt,
	})
	if err != nil {
		return false, enriched, fmt.Errorf("failed to store article: %w", err)
	}

	// A concurrent check may have stored the same link first
	if wasCreated && !t.Silent {
		t.notifySubscribers(ctx, article)
	}

	return wasCreated, enriched, nil
}

// enrichStored fills an abstract that was missing when the article was first
// seen, either from a later feed entry or from the article page.
func (t *CheckJournalTask) enrichStored(ctx context.Context, article *database.Article, candidate feed.Candidate) bool {
	if article.Abstract != "" {
		return false
	}

	abstract := candidate.Abstract
	if abstract == "" && t.Journal.NeedsScraping {
		scraped, ok := t.scraper.ScrapeAbstract(ctx, article.Link)
		if !ok {
			return false
		}
		abstract = scraped
	}
	if abstract == "" {
		return false
	}

	if err := t.articleRepo.FillAbstract(article.ID, abstract); err != nil {
		slog.Warn("Failed to fill abstract", "journal", t.JournalName, "article_id", article.ID, "error", err)
		return false
	}

	return true
}

func (t *CheckJournalTask) notifySubscribers(ctx context.Context, article *database.Article) {
	subscribers, err := t.subscriptionRepo.GetSubscribers(t.Journal.ID)
	if err != nil {
		slog.Error("Failed to load subscribers", "journal", t.JournalName, "error", err)
		return
	}

	notified := 0

	for i := range subscribers {
		user := &subscribers[i]

		delivered, err := t.deliveryRepo.WasDelivered(user.ID, article.ID)
		if err != nil {
			slog.Warn("Failed to check delivery record", "journal", t.JournalName, "user_id", user.ID, "error", err)
			continue
		}
		if delivered {
			continue
		}

		content, err := t.tailorService.TailorArticle(ctx, user, tailor.ArticleContent{
			Title:    article.Title,
			Abstract: article.Abstract,
			Link:     article.Link,
		}, t.Journal.Name)
		if err != nil {
			slog.Warn("Failed to tailor article, skipping user", "journal", t.JournalName, "user_id", user.ID, "error", err)
			continue
		}

		if err := t.messenger.SendArticle(ctx, user.TelegramID, content, article.ID); err != nil {
			slog.Warn("Failed to send article", "journal", t.JournalName, "user_id", user.ID, "error", err)
			continue
		}

		if err := t.deliveryRepo.MarkDelivered(user.ID, article.ID, content); err != nil {
			slog.Error("Failed to record delivery", "journal", t.JournalName, "user_id", user.ID, "article_id", article.ID, "error", err)
			continue
		}

		notified++
	}

	if notified > 0 {
		slog.Debug("Subscribers notified", "journal", t.JournalName, "article_id", article.ID, "count", notified)
	}
}
