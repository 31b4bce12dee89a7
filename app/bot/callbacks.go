package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/export"
	"github.com/dentalbrief/dentalbrief/app/telegram"
)

func stringPtr(s string) *string { return &s }
func intPtr(i int) *int          { return &i }
func boolPtr(b bool) *bool       { return &b }

func (b *Bot) userLanguage(telegramID int64) string {
	user, err := b.userRepo.GetUser(telegramID)
	if err != nil || user == nil {
		return "en"
	}
	return user.Language
}

func (b *Bot) editCallbackMessage(ctx context.Context, query *telegram.CallbackQuery, text string, keyboard *telegram.InlineKeyboardMarkup) {
	if query.Message == nil {
		return
	}
	if err := b.client.EditMessageText(ctx, query.Message.Chat.ID, query.Message.MessageID, text, keyboard); err != nil {
		slog.Warn("Failed to edit message", "chat_id", query.Message.Chat.ID, "error", err)
	}
}

// Onboarding flow

func (b *Bot) handleLanguageCallback(ctx context.Context, query *telegram.CallbackQuery, lang string) {
	b.answerCallback(ctx, query, "")

	if lang != "en" && lang != "fa" {
		return
	}

	if _, err := b.userRepo.UpdateUserProfile(query.From.ID, database.ProfilePatch{Language: stringPtr(lang)}); err != nil {
		slog.Error("Failed to update language", "telegram_id", query.From.ID, "error", err)
		return
	}

	b.showEducationSelection(ctx, query, lang, getText("language_set", lang))
}

func (b *Bot) showEducationSelection(ctx context.Context, query *telegram.CallbackQuery, lang, intro string) {
	var rows [][]telegram.InlineKeyboardButton
	for _, level := range educationLevelOrder {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: educationLevelLabels[lang][level], CallbackData: "edu:" + level},
		})
	}

	text := getText("select_education", lang)
	if intro != "" {
		text = intro + "\n\n" + text
	}

	b.editCallbackMessage(ctx, query, text, &telegram.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (b *Bot) handleEducationCallback(ctx context.Context, query *telegram.CallbackQuery, level string) {
	b.answerCallback(ctx, query, "")

	if _, ok := educationLevelLabels["en"][level]; !ok {
		return
	}

	if _, err := b.userRepo.UpdateUserProfile(query.From.ID, database.ProfilePatch{EducationLevel: stringPtr(level)}); err != nil {
		slog.Error("Failed to update education level", "telegram_id", query.From.ID, "error", err)
		return
	}

	lang := b.userLanguage(query.From.ID)

	switch level {
	case "dds_student":
		b.showYearSelection(ctx, query, lang)
	case "resident", "specialist":
		b.showSpecialtySelection(ctx, query, lang)
	default:
		b.completeOnboarding(ctx, query, lang)
	}
}

func (b *Bot) showYearSelection(ctx context.Context, query *telegram.CallbackQuery, lang string) {
	var rows [][]telegram.InlineKeyboardButton
	var row []telegram.InlineKeyboardButton

	for year := 1; year <= 6; year++ {
		label := fmt.Sprintf("Year %d", year)
		if lang == "fa" {
			label = fmt.Sprintf("سال %d", year)
		}
		row = append(row, telegram.InlineKeyboardButton{Text: label, CallbackData: fmt.Sprintf("year:%d", year)})
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	b.editCallbackMessage(ctx, query, getText("select_year", lang), &telegram.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (b *Bot) showSpecialtySelection(ctx context.Context, query *telegram.CallbackQuery, lang string) {
	var rows [][]telegram.InlineKeyboardButton
	for _, specialty := range specialties {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: specialty, CallbackData: "spec:" + specialty},
		})
	}

	b.editCallbackMessage(ctx, query, getText("select_specialty", lang), &telegram.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (b *Bot) handleYearCallback(ctx context.Context, query *telegram.CallbackQuery, payload string) {
	b.answerCallback(ctx, query, "")

	year, err := strconv.Atoi(payload)
	if err != nil || year < 1 || year > 6 {
		return
	}

	if _, err := b.userRepo.UpdateUserProfile(query.From.ID, database.ProfilePatch{EducationYear: intPtr(year)}); err != nil {
		slog.Error("Failed to update education year", "telegram_id", query.From.ID, "error", err)
		return
	}

	b.completeOnboarding(ctx, query, b.userLanguage(query.From.ID))
}

func (b *Bot) handleSpecialtyCallback(ctx context.Context, query *telegram.CallbackQuery, specialty string) {
	b.answerCallback(ctx, query, "")

	if _, err := b.userRepo.UpdateUserProfile(query.From.ID, database.ProfilePatch{Specialty: stringPtr(specialty)}); err != nil {
		slog.Error("Failed to update specialty", "telegram_id", query.From.ID, "error", err)
		return
	}

	b.completeOnboarding(ctx, query, b.userLanguage(query.From.ID))
}

func (b *Bot) completeOnboarding(ctx context.Context, query *telegram.CallbackQuery, lang string) {
	if _, err := b.userRepo.UpdateUserProfile(query.From.ID, database.ProfilePatch{Onboarded: boolPtr(true)}); err != nil {
		slog.Error("Failed to complete onboarding", "telegram_id", query.From.ID, "error", err)
		return
	}

	b.editCallbackMessage(ctx, query, getText("onboarding_complete", lang), nil)

	// Move straight into journal selection
	text, keyboard, err := b.categoriesView(lang)
	if err != nil {
		slog.Error("Failed to build category view", "error", err)
		return
	}
	if query.Message != nil {
		if _, err := b.client.SendMessage(ctx, query.Message.Chat.ID, text, keyboard); err != nil {
			slog.Error("Failed to send journals menu", "error", err)
		}
	}
}

// Settings

func (b *Bot) handleSettingsCallback(ctx context.Context, query *telegram.CallbackQuery, setting string) {
	b.answerCallback(ctx, query, "")
	lang := b.userLanguage(query.From.ID)

	switch setting {
	case "language":
		b.editCallbackMessage(ctx, query, getText("select_language_short", lang), languageKeyboard("setlang"))
	case "education":
		b.showEducationSelection(ctx, query, lang, "")
	case "journals":
		b.editCallbackMessage(ctx, query, getText("settings_use_journals", lang), nil)
	}
}

func (b *Bot) handleSetLanguageCallback(ctx context.Context, query *telegram.CallbackQuery, lang string) {
	b.answerCallback(ctx, query, "")

	if lang != "en" && lang != "fa" {
		return
	}

	if _, err := b.userRepo.UpdateUserProfile(query.From.ID, database.ProfilePatch{Language: stringPtr(lang)}); err != nil {
		slog.Error("Failed to change language", "telegram_id", query.From.ID, "error", err)
		return
	}

	b.editCallbackMessage(ctx, query, getText("language_changed", lang), nil)
}

// Journal subscription menus

func (b *Bot) categoriesView(lang string) (string, *telegram.InlineKeyboardMarkup, error) {
	categorized, err := b.journalRepo.GetJournalsByCategory()
	if err != nil {
		return "", nil, err
	}

	categories := make([]string, 0, len(categorized))
	for category := range categorized {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	rows := [][]telegram.InlineKeyboardButton{
		{{Text: getText("my_subscriptions", lang), CallbackData: "jcat:my_subs"}},
	}

	for _, category := range categories {
		label := fmt.Sprintf("%s %s (%d)", categoryIcon(category), categoryLabel(category, lang), len(categorized[category]))
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: label, CallbackData: "jcat:" + category},
		})
	}

	rows = append(rows, []telegram.InlineKeyboardButton{
		{Text: getText("done", lang), CallbackData: "jdone"},
	})

	return getText("select_category", lang), &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func (b *Bot) handleCategoryCallback(ctx context.Context, query *telegram.CallbackQuery, category string) {
	b.answerCallback(ctx, query, "")

	user, lang := b.resolveUser(query.From.ID)
	if user == nil {
		return
	}

	if category == "my_subs" {
		b.showUserSubscriptions(ctx, query, user, lang)
		return
	}

	b.showJournalsInCategory(ctx, query, user, category, lang)
}

func (b *Bot) showUserSubscriptions(ctx context.Context, query *telegram.CallbackQuery, user *database.User, lang string) {
	journals, err := b.subscriptionRepo.GetUserJournals(user.ID)
	if err != nil {
		slog.Error("Failed to load subscriptions", "user_id", user.ID, "error", err)
		return
	}

	if len(journals) == 0 {
		b.answerCallback(ctx, query, getText("no_subscriptions", lang))
		return
	}

	var rows [][]telegram.InlineKeyboardButton
	for _, journal := range journals {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: "❌ " + truncateName(journal.Name, 30), CallbackData: fmt.Sprintf("journal:%d:my_subs", journal.ID)},
		})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{
		{Text: getText("back", lang), CallbackData: "jback"},
	})

	b.editCallbackMessage(ctx, query, getText("tap_to_unsubscribe", lang), &telegram.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (b *Bot) showJournalsInCategory(ctx context.Context, query *telegram.CallbackQuery, user *database.User, category, lang string) {
	categorized, err := b.journalRepo.GetJournalsByCategory()
	if err != nil {
		slog.Error("Failed to load journals", "error", err)
		return
	}

	subscribed := make(map[int64]bool)
	if journals, err := b.subscriptionRepo.GetUserJournals(user.ID); err == nil {
		for _, journal := range journals {
			subscribed[journal.ID] = true
		}
	}

	var rows [][]telegram.InlineKeyboardButton
	for _, journal := range categorized[category] {
		prefix := "⬜ "
		if subscribed[journal.ID] {
			prefix = "✅ "
		}
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: prefix + truncateName(journal.Name, 35), CallbackData: fmt.Sprintf("journal:%d", journal.ID)},
		})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{
		{Text: getText("back", lang), CallbackData: "jback"},
		{Text: getText("done", lang), CallbackData: "jdone"},
	})

	text := fmt.Sprintf(getText("select_journals", lang), categoryLabel(category, lang))
	b.editCallbackMessage(ctx, query, text, &telegram.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (b *Bot) handleJournalToggleCallback(ctx context.Context, query *telegram.CallbackQuery, payload string) {
	idPart, view, _ := strings.Cut(payload, ":")

	journalID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		b.answerCallback(ctx, query, "")
		return
	}

	user, lang := b.resolveUser(query.From.ID)
	if user == nil {
		b.answerCallback(ctx, query, "")
		return
	}

	journal, err := b.journalRepo.GetJournalByID(journalID)
	if err != nil || journal == nil {
		b.answerCallback(ctx, query, "Journal not found")
		return
	}

	subscribedNow, err := b.subscriptionRepo.ToggleSubscription(user.ID, journalID)
	if err != nil {
		slog.Error("Failed to toggle subscription", "user_id", user.ID, "journal_id", journalID, "error", err)
		b.answerCallback(ctx, query, "")
		return
	}

	if subscribedNow {
		b.answerCallback(ctx, query, fmt.Sprintf(getText("subscribed", lang), journal.Name))
		b.showFetchPrompt(ctx, query, journal, lang)
		return
	}

	b.answerCallback(ctx, query, fmt.Sprintf(getText("unsubscribed", lang), journal.Name))

	if view == "my_subs" {
		b.showUserSubscriptions(ctx, query, user, lang)
	} else {
		b.showJournalsInCategory(ctx, query, user, journal.Category, lang)
	}
}

func (b *Bot) showFetchPrompt(ctx context.Context, query *telegram.CallbackQuery, journal *database.Journal, lang string) {
	keyboard := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: getText("yes_fetch", lang), CallbackData: fmt.Sprintf("jfetch:%d", journal.ID)},
				{Text: getText("skip_fetch", lang), CallbackData: "jskip:" + journal.Category},
			},
		},
	}

	text := fmt.Sprintf(getText("subscribed", lang), journal.Name) + "\n\n" + getText("fetch_latest_prompt", lang)
	b.editCallbackMessage(ctx, query, text, keyboard)
}

func (b *Bot) handleFetchCallback(ctx context.Context, query *telegram.CallbackQuery, payload string) {
	b.answerCallback(ctx, query, "")

	journalID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return
	}

	user, lang := b.resolveUser(query.From.ID)
	if user == nil || query.Message == nil {
		return
	}

	journal, err := b.journalRepo.GetJournalByID(journalID)
	if err != nil || journal == nil {
		return
	}

	// The button can be tapped on a stale message after unsubscribing
	if subscribed, err := b.subscriptionRepo.IsSubscribed(user.ID, journal.ID); err != nil || !subscribed {
		b.editCallbackMessage(ctx, query, getText("no_subscriptions", lang), nil)
		return
	}

	b.editCallbackMessage(ctx, query, fmt.Sprintf(getText("fetching_articles", lang), journal.Name), nil)

	// Hand the freshest stored articles to this user right away, then let
	// the pipeline pick up whatever the feed has published since.
	articles, err := b.articleRepo.GetLatestArticles(journal.ID, 3)
	if err != nil {
		slog.Error("Failed to load latest articles", "journal_id", journal.ID, "error", err)
		return
	}

	sent := 0
	for i := range articles {
		delivered, err := b.deliveryRepo.WasDelivered(user.ID, articles[i].ID)
		if err != nil || delivered {
			continue
		}
		b.deliverArticle(ctx, user, query.Message.Chat.ID, &articles[i])
		sent++
	}

	if err := b.checker.EnqueueCheck(journal.Name, false); err != nil {
		slog.Warn("Failed to enqueue journal check", "journal", journal.Name, "error", err)
	}

	if sent > 0 {
		b.editCallbackMessage(ctx, query, fmt.Sprintf(getText("articles_sent", lang), sent, journal.Name), nil)
	} else {
		b.editCallbackMessage(ctx, query, getText("no_articles", lang), nil)
	}
}

func (b *Bot) handleSkipCallback(ctx context.Context, query *telegram.CallbackQuery, category string) {
	b.answerCallback(ctx, query, "")

	user, lang := b.resolveUser(query.From.ID)
	if user == nil {
		return
	}
	if category == "" {
		category = "General Dentistry"
	}

	b.showJournalsInCategory(ctx, query, user, category, lang)
}

func (b *Bot) handleBackCallback(ctx context.Context, query *telegram.CallbackQuery) {
	b.answerCallback(ctx, query, "")

	lang := b.userLanguage(query.From.ID)
	text, keyboard, err := b.categoriesView(lang)
	if err != nil {
		slog.Error("Failed to build category view", "error", err)
		return
	}

	b.editCallbackMessage(ctx, query, text, keyboard)
}

func (b *Bot) handleDoneCallback(ctx context.Context, query *telegram.CallbackQuery) {
	b.answerCallback(ctx, query, "")

	user, lang := b.resolveUser(query.From.ID)
	if user == nil {
		return
	}

	journals, err := b.subscriptionRepo.GetUserJournals(user.ID)
	if err != nil {
		slog.Error("Failed to load subscriptions", "user_id", user.ID, "error", err)
		return
	}

	if len(journals) == 0 {
		b.editCallbackMessage(ctx, query, getText("no_subscriptions", lang), nil)
		return
	}

	byCategory := make(map[string][]string)
	for _, journal := range journals {
		category := journal.Category
		if category == "" {
			category = "General Dentistry"
		}
		byCategory[category] = append(byCategory[category], journal.Name)
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var parts []string
	for _, category := range categories {
		parts = append(parts, fmt.Sprintf("%s *%s*", categoryIcon(category), categoryLabel(category, lang)))
		for _, name := range byCategory[category] {
			parts = append(parts, "  • "+name)
		}
	}

	text := fmt.Sprintf(getText("your_subscriptions", lang), strings.Join(parts, "\n")) + getText("subscriptions_tip", lang)
	b.editCallbackMessage(ctx, query, text, nil)
}

// Export

func (b *Bot) handleExportCallback(ctx context.Context, query *telegram.CallbackQuery, payload string) {
	format, target, _ := strings.Cut(payload, ":")
	lang := b.userLanguage(query.From.ID)

	if format == "pdf" {
		b.answerCallback(ctx, query, getText("export_pdf_missing", lang))
		return
	}
	if format != "md" || query.Message == nil {
		b.answerCallback(ctx, query, "")
		return
	}

	now := time.Now()
	chatID := query.Message.Chat.ID

	var document []byte

	if target == "custom" {
		content, ok := b.lastCustom.Load(chatID)
		if !ok {
			b.answerCallback(ctx, query, getText("export_no_content", lang))
			return
		}
		document = export.RenderCustom(content.(string), now)
	} else {
		articleID, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			b.answerCallback(ctx, query, "")
			return
		}
		document = b.renderStoredExport(articleID, query, now)
		if document == nil {
			b.answerCallback(ctx, query, getText("export_no_content", lang))
			return
		}
	}

	b.answerCallback(ctx, query, "")

	if err := b.client.SendDocument(ctx, chatID, export.Filename(now), document, getText("export_md_done", lang)); err != nil {
		slog.Error("Failed to send export", "chat_id", chatID, "error", err)
		b.answerCallback(ctx, query, getText("export_failed", lang))
	}
}

func (b *Bot) renderStoredExport(articleID int64, query *telegram.CallbackQuery, now time.Time) []byte {
	user, err := b.userRepo.GetUser(query.From.ID)
	if err != nil || user == nil {
		return nil
	}

	article, err := b.articleRepo.GetArticleByID(articleID)
	if err != nil || article == nil {
		return nil
	}

	delivery, err := b.deliveryRepo.GetDelivery(user.ID, articleID)
	if err != nil {
		return nil
	}
	if delivery == nil {
		// No recorded delivery, fall back to the visible message text
		if query.Message.Text == "" {
			return nil
		}
		delivery = &database.Delivery{Content: query.Message.Text, SentAt: now}
	}

	journal, err := b.journalRepo.GetJournalByID(article.JournalID)
	if err != nil {
		journal = nil
	}

	return export.RenderMarkdown(delivery, article, journal)
}

func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	return name[:max-3] + "..."
}
