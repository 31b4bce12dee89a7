package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/tailor"
	"github.com/dentalbrief/dentalbrief/app/telegram"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// latestBatchLimit caps how many backlog articles a single /latest sends.
const latestBatchLimit = 5

var articleDomains = []string{
	"nature.com",
	"wiley.com",
	"sciencedirect.com",
	"sagepub.com",
	"oup.com",
	"karger.com",
	"ada.org",
	"aap.org",
	"springer.com",
	"tandfonline.com",
	"elsevier.com",
	"pubmed",
	"ncbi.nlm.nih.gov",
	"doi.org",
}

func findArticleURL(text string) string {
	url := urlPattern.FindString(text)
	if url == "" {
		return ""
	}

	urlLower := strings.ToLower(url)
	for _, domain := range articleDomains {
		if strings.Contains(urlLower, domain) {
			return url
		}
	}
	return ""
}

func detectJournalFromURL(url string) string {
	urlLower := strings.ToLower(url)

	patterns := map[string]string{
		"nature.com":        "Nature",
		"wiley.com":         "Wiley Journal",
		"sciencedirect.com": "ScienceDirect",
		"sagepub.com":       "Sage Journal",
		"oup.com":           "Oxford University Press",
		"karger.com":        "Karger",
		"ada.org":           "ADA Journal",
		"aap.org":           "AAP Journal",
	}

	for pattern, name := range patterns {
		if strings.Contains(urlLower, pattern) {
			return name
		}
	}
	return "Scientific Journal"
}

func exportKeyboard(articleID int64) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "📄 PDF", CallbackData: fmt.Sprintf("export:pdf:%d", articleID)},
				{Text: "📝 MD", CallbackData: fmt.Sprintf("export:md:%d", articleID)},
			},
		},
	}
}

func customExportKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "📄 PDF", CallbackData: "export:pdf:custom"},
				{Text: "📝 MD", CallbackData: "export:md:custom"},
			},
		},
	}
}

func languageKeyboard(prefix string) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "🇬🇧 English", CallbackData: prefix + ":en"},
				{Text: "🇮🇷 فارسی", CallbackData: prefix + ":fa"},
			},
		},
	}
}

func (b *Bot) handleStart(ctx context.Context, message *telegram.Message) {
	user, err := b.userRepo.GetOrCreateUser(message.From.ID, message.From.Username, message.From.FirstName)
	if err != nil {
		slog.Error("Failed to create user", "telegram_id", message.From.ID, "error", err)
		return
	}

	lang := user.Language
	if !user.Onboarded && message.From.LanguageCode != "" {
		lang = matchLanguage(message.From.LanguageCode)
	}

	text := getText("welcome", lang) + "\n\n" + getText("select_language", lang)
	if _, err := b.client.SendMessage(ctx, message.Chat.ID, text, languageKeyboard("lang")); err != nil {
		slog.Error("Failed to send welcome message", "chat_id", message.Chat.ID, "error", err)
	}
}

func (b *Bot) handleHelp(ctx context.Context, message *telegram.Message) {
	lang := "en"
	if user, err := b.userRepo.GetUser(message.From.ID); err == nil && user != nil {
		lang = user.Language
	}

	if _, err := b.client.SendMessage(ctx, message.Chat.ID, getText("help", lang), nil); err != nil {
		slog.Error("Failed to send help message", "chat_id", message.Chat.ID, "error", err)
	}
}

func (b *Bot) handleSettings(ctx context.Context, message *telegram.Message) {
	user, lang := b.resolveUser(message.From.ID)
	if user == nil {
		b.client.SendMessage(ctx, message.Chat.ID, getText("not_onboarded", lang), nil)
		return
	}

	var text strings.Builder
	text.WriteString(getText("settings_title", lang))
	text.WriteString("\n\n")

	if lang == "fa" {
		text.WriteString("🌐 زبان: فارسی\n")
	} else {
		text.WriteString("🌐 Language: English\n")
	}

	level := getText("not_set", lang)
	if labels, ok := educationLevelLabels[lang]; ok {
		if label, found := labels[user.EducationLevel]; found {
			level = label
		}
	}
	if lang == "fa" {
		text.WriteString("🎓 سطح: " + level + "\n")
	} else {
		text.WriteString("🎓 Level: " + level + "\n")
	}

	if user.Specialty != "" {
		if lang == "fa" {
			text.WriteString("📋 تخصص: " + user.Specialty + "\n")
		} else {
			text.WriteString("📋 Specialty: " + user.Specialty + "\n")
		}
	}
	if user.EducationYear > 0 {
		if lang == "fa" {
			text.WriteString(fmt.Sprintf("📅 سال: %d\n", user.EducationYear))
		} else {
			text.WriteString(fmt.Sprintf("📅 Year: %d\n", user.EducationYear))
		}
	}

	keyboard := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: getText("settings_language", lang), CallbackData: "settings:language"}},
			{{Text: getText("settings_education", lang), CallbackData: "settings:education"}},
			{{Text: getText("settings_journals", lang), CallbackData: "settings:journals"}},
		},
	}

	if _, err := b.client.SendMessage(ctx, message.Chat.ID, text.String(), keyboard); err != nil {
		slog.Error("Failed to send settings message", "chat_id", message.Chat.ID, "error", err)
	}
}

func (b *Bot) handleJournals(ctx context.Context, message *telegram.Message) {
	user, lang := b.resolveUser(message.From.ID)
	if user == nil {
		b.client.SendMessage(ctx, message.Chat.ID, getText("not_onboarded", lang), nil)
		return
	}

	text, keyboard, err := b.categoriesView(lang)
	if err != nil {
		slog.Error("Failed to build category view", "error", err)
		return
	}

	if _, err := b.client.SendMessage(ctx, message.Chat.ID, text, keyboard); err != nil {
		slog.Error("Failed to send journals menu", "chat_id", message.Chat.ID, "error", err)
	}
}

func (b *Bot) handleLatest(ctx context.Context, message *telegram.Message) {
	user, lang := b.resolveUser(message.From.ID)
	if user == nil {
		b.client.SendMessage(ctx, message.Chat.ID, getText("not_onboarded", lang), nil)
		return
	}

	journals, err := b.subscriptionRepo.GetUserJournals(user.ID)
	if err != nil {
		slog.Error("Failed to load subscriptions", "user_id", user.ID, "error", err)
		return
	}
	if len(journals) == 0 {
		b.client.SendMessage(ctx, message.Chat.ID, getText("no_subscriptions", lang), nil)
		return
	}

	loading, err := b.client.SendMessage(ctx, message.Chat.ID, getText("fetching_latest", lang), nil)
	if err != nil {
		slog.Error("Failed to send loading message", "chat_id", message.Chat.ID, "error", err)
		return
	}

	articles, err := b.deliveryRepo.GetUndeliveredArticles(user.ID)
	if err != nil {
		slog.Error("Failed to load backlog", "user_id", user.ID, "error", err)
		return
	}
	if len(articles) == 0 {
		b.client.EditMessageText(ctx, message.Chat.ID, loading.MessageID, getText("no_new_articles", lang), nil)
		return
	}

	if err := b.client.DeleteMessage(ctx, message.Chat.ID, loading.MessageID); err != nil {
		slog.Debug("Failed to delete loading message", "error", err)
	}

	if len(articles) > latestBatchLimit {
		articles = articles[:latestBatchLimit]
	}

	for i := range articles {
		b.deliverArticle(ctx, user, message.Chat.ID, &articles[i])
	}
}

func (b *Bot) handleLink(ctx context.Context, message *telegram.Message, args []string) {
	user, lang := b.resolveUser(message.From.ID)
	if user == nil {
		b.client.SendMessage(ctx, message.Chat.ID, getText("not_onboarded", lang), nil)
		return
	}

	if len(args) == 0 || !urlPattern.MatchString(args[0]) {
		b.client.SendMessage(ctx, message.Chat.ID, getText("link_usage", lang), nil)
		return
	}
	url := args[0]

	processing, err := b.client.SendMessage(ctx, message.Chat.ID, getText("processing_link", lang), nil)
	if err != nil {
		slog.Error("Failed to send processing message", "chat_id", message.Chat.ID, "error", err)
		return
	}

	page, err := b.scraper.ScrapePage(ctx, url)
	if err != nil {
		slog.Warn("Failed to scrape linked article", "url", url, "error", err)
		b.client.EditMessageText(ctx, message.Chat.ID, processing.MessageID, getText("article_not_found", lang), nil)
		return
	}

	tailored, err := b.tailorService.TailorArticle(ctx, user, tailor.ArticleContent{
		Title:    page.Title,
		Abstract: page.Abstract,
		Link:     url,
	}, detectJournalFromURL(url))
	if err != nil {
		slog.Warn("Failed to tailor linked article", "url", url, "error", err)
		b.client.EditMessageText(ctx, message.Chat.ID, processing.MessageID, getText("error_processing", lang), nil)
		return
	}

	if err := b.client.DeleteMessage(ctx, message.Chat.ID, processing.MessageID); err != nil {
		slog.Debug("Failed to delete processing message", "error", err)
	}

	// Ad-hoc links are never persisted, kept only for the export buttons
	b.lastCustom.Store(message.Chat.ID, tailored)

	if _, err := b.client.SendMessage(ctx, message.Chat.ID, markdownToTelegram(tailored), customExportKeyboard()); err != nil {
		slog.Error("Failed to send tailored link summary", "chat_id", message.Chat.ID, "error", err)
	}
}

// deliverArticle tailors, sends and records one article for one user.
func (b *Bot) deliverArticle(ctx context.Context, user *database.User, chatID int64, article *database.Article) {
	journalName := "Unknown"
	if journal, err := b.journalRepo.GetJournalByID(article.JournalID); err == nil && journal != nil {
		journalName = journal.Name
	}

	tailored, err := b.tailorService.TailorArticle(ctx, user, tailor.ArticleContent{
		Title:    article.Title,
		Abstract: article.Abstract,
		Link:     article.Link,
	}, journalName)
	if err != nil {
		slog.Warn("Failed to tailor article", "article_id", article.ID, "user_id", user.ID, "error", err)
		return
	}

	if err := b.SendArticle(ctx, chatID, tailored, article.ID); err != nil {
		slog.Warn("Failed to send article", "article_id", article.ID, "chat_id", chatID, "error", err)
		return
	}

	if err := b.deliveryRepo.MarkDelivered(user.ID, article.ID, tailored); err != nil {
		slog.Error("Failed to record delivery", "article_id", article.ID, "user_id", user.ID, "error", err)
	}
}
