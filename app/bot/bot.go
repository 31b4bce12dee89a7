// Package bot hosts the Telegram update loop: onboarding, subscription
// menus and on-demand article delivery.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/scrape"
	"github.com/dentalbrief/dentalbrief/app/tailor"
	"github.com/dentalbrief/dentalbrief/app/telegram"
)

const pollTimeoutSeconds = 30

// JournalChecker triggers a background journal check. Implemented by the
// task scheduler.
type JournalChecker interface {
	EnqueueCheck(journalName string, silent bool) error
}

// TailorService produces reader-specific summaries.
type TailorService interface {
	TailorArticle(ctx context.Context, user *database.User, content tailor.ArticleContent, journalName string) (string, error)
}

// PageScraper extracts title and abstract from an article page URL.
type PageScraper interface {
	ScrapePage(ctx context.Context, url string) (*scrape.Page, error)
}

type Bot struct {
	client           *telegram.Client
	tailorService    TailorService
	scraper          PageScraper
	checker          JournalChecker
	journalRepo      database.JournalRepository
	articleRepo      database.ArticleRepository
	userRepo         database.UserRepository
	subscriptionRepo database.SubscriptionRepository
	deliveryRepo     database.DeliveryRepository

	// tailored /link results kept per chat for export, never persisted
	lastCustom sync.Map
}

func New(client *telegram.Client, tailorService TailorService, scraper PageScraper, checker JournalChecker,
	journalRepo database.JournalRepository, articleRepo database.ArticleRepository,
	userRepo database.UserRepository, subscriptionRepo database.SubscriptionRepository,
	deliveryRepo database.DeliveryRepository) *Bot {

	return &Bot{
		client:           client,
		tailorService:    tailorService,
		scraper:          scraper,
		checker:          checker,
		journalRepo:      journalRepo,
		articleRepo:      articleRepo,
		userRepo:         userRepo,
		subscriptionRepo: subscriptionRepo,
		deliveryRepo:     deliveryRepo,
	}
}

// SetChecker wires in the journal checker once it exists. The checker and
// the bot reference each other, so one side is attached after construction.
func (b *Bot) SetChecker(checker JournalChecker) {
	b.checker = checker
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	if err := b.client.SetMyCommands(ctx, []telegram.BotCommand{
		{Command: "start", Description: "Set up your profile"},
		{Command: "journals", Description: "Manage journal subscriptions"},
		{Command: "latest", Description: "Get latest articles"},
		{Command: "link", Description: "Summarize an article by URL"},
		{Command: "settings", Description: "Change your preferences"},
		{Command: "help", Description: "Show help"},
	}); err != nil {
		slog.Warn("Failed to register bot commands", "error", err)
	}

	var offset int64

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset, pollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("Failed to poll updates", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.dispatchUpdate(ctx, update)
		}
	}
}

func (b *Bot) dispatchUpdate(ctx context.Context, update telegram.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *telegram.Message) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text)
		command := strings.TrimPrefix(fields[0], "/")
		if at := strings.Index(command, "@"); at != -1 {
			command = command[:at]
		}
		args := fields[1:]

		switch command {
		case "start":
			b.handleStart(ctx, message)
		case "help":
			b.handleHelp(ctx, message)
		case "settings":
			b.handleSettings(ctx, message)
		case "journals":
			b.handleJournals(ctx, message)
		case "latest":
			b.handleLatest(ctx, message)
		case "link":
			b.handleLink(ctx, message, args)
		}
		return
	}

	// Bare article URLs pasted into the chat behave like /link
	if url := findArticleURL(text); url != "" {
		b.handleLink(ctx, message, []string{url})
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	action, payload, _ := strings.Cut(query.Data, ":")

	switch action {
	case "lang":
		b.handleLanguageCallback(ctx, query, payload)
	case "edu":
		b.handleEducationCallback(ctx, query, payload)
	case "year":
		b.handleYearCallback(ctx, query, payload)
	case "spec":
		b.handleSpecialtyCallback(ctx, query, payload)
	case "setlang":
		b.handleSetLanguageCallback(ctx, query, payload)
	case "settings":
		b.handleSettingsCallback(ctx, query, payload)
	case "jcat":
		b.handleCategoryCallback(ctx, query, payload)
	case "journal":
		b.handleJournalToggleCallback(ctx, query, payload)
	case "jfetch":
		b.handleFetchCallback(ctx, query, payload)
	case "jskip":
		b.handleSkipCallback(ctx, query, payload)
	case "jback":
		b.handleBackCallback(ctx, query)
	case "jdone":
		b.handleDoneCallback(ctx, query)
	case "export":
		b.handleExportCallback(ctx, query, payload)
	default:
		b.answerCallback(ctx, query, "")
	}
}

// SendArticle delivers tailored content with the export keyboard. This is
// the delivery channel the background pipeline uses.
func (b *Bot) SendArticle(ctx context.Context, chatID int64, text string, articleID int64) error {
	_, err := b.client.SendMessage(ctx, chatID, markdownToTelegram(text), exportKeyboard(articleID))
	return err
}

func (b *Bot) answerCallback(ctx context.Context, query *telegram.CallbackQuery, text string) {
	if err := b.client.AnswerCallbackQuery(ctx, query.ID, text); err != nil {
		slog.Debug("Failed to answer callback query", "error", err)
	}
}

// resolveUser loads the profile of the interacting user, nil when the
// profile is missing or onboarding is incomplete.
func (b *Bot) resolveUser(telegramID int64) (*database.User, string) {
	user, err := b.userRepo.GetUser(telegramID)
	if err != nil {
		slog.Error("Failed to load user", "telegram_id", telegramID, "error", err)
		return nil, "en"
	}
	if user == nil {
		return nil, "en"
	}
	if !user.Onboarded {
		return nil, user.Language
	}
	return user, user.Language
}
