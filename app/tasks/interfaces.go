package tasks

import (
	"context"

	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/tailor"
)

// TaskSchedulerInterface defines the interface for background task
// scheduling. Used by the main application and the trigger endpoints.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueCheck(journalName string, silent bool) error
}

// Messenger delivers tailored content to a chat. Implemented by the bot so
// the pipeline stays decoupled from keyboard layout and message formatting.
type Messenger interface {
	SendArticle(ctx context.Context, chatID int64, text string, articleID int64) error
}

// TailorService produces reader-specific summaries.
type TailorService interface {
	TailorArticle(ctx context.Context, user *database.User, content tailor.ArticleContent, journalName string) (string, error)
}

// AbstractScraper fills in abstracts that feeds omit.
type AbstractScraper interface {
	ScrapeAbstract(ctx context.Context, url string) (string, bool)
}
