package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/tasks"
)

func NewHandler(journalRepo database.JournalRepository, articleRepo database.ArticleRepository,
	userRepo database.UserRepository, deliveryRepo database.DeliveryRepository,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		journalRepo:  journalRepo,
		articleRepo:  articleRepo,
		userRepo:     userRepo,
		deliveryRepo: deliveryRepo,
		scheduler:    scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if journalCount, err := h.journalRepo.GetJournalCount(); err == nil {
		health["journals"] = journalCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if journalCount, err := h.journalRepo.GetJournalCount(); err == nil {
		stats["journals"] = journalCount
	} else {
		slog.Error("Database error", "operation", "journal_count", "error", err)
	}

	if articleCount, err := h.articleRepo.GetArticleCount(); err == nil {
		stats["articles"] = articleCount
	} else {
		slog.Error("Database error", "operation", "article_count", "error", err)
	}

	if userCount, err := h.userRepo.GetUserCount(); err == nil {
		stats["users"] = userCount
	} else {
		slog.Error("Database error", "operation", "user_count", "error", err)
	}

	if deliveryCount, err := h.deliveryRepo.GetDeliveryCount(); err == nil {
		stats["deliveries"] = deliveryCount
	} else {
		slog.Error("Database error", "operation", "delivery_count", "error", err)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListJournals(c *gin.Context) {
	byCategory, err := h.journalRepo.GetJournalsByCategory()
	if err != nil {
		slog.Error("Database error", "operation", "list_journals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	journals := make([]map[string]interface{}, 0)
	total := 0

	for category, list := range byCategory {
		for _, journal := range list {
			journalInfo := map[string]interface{}{
				"name":           journal.Name,
				"category":       category,
				"feed_url":       journal.FeedURL,
				"feed_type":      journal.FeedType,
				"needs_scraping": journal.NeedsScraping,
				"active":         journal.IsActive,
			}

			if journal.LastCheckedAt != nil {
				journalInfo["last_checked_at"] = journal.LastCheckedAt
			}

			journals = append(journals, journalInfo)
			total++
		}
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"journals": journals,
		"total":    total,
	})
}

func (h *Handler) APIGetJournalDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing journal name parameter"})
		return
	}

	journal, err := h.journalRepo.GetJournalByName(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_journal", "journal", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
		return
	}

	details := map[string]interface{}{
		"id":             journal.ID,
		"name":           journal.Name,
		"category":       journal.Category,
		"feed_url":       journal.FeedURL,
		"feed_type":      journal.FeedType,
		"needs_scraping": journal.NeedsScraping,
		"active":         journal.IsActive,
	}

	if journal.LastCheckedAt != nil {
		details["last_checked_at"] = journal.LastCheckedAt
	}

	if articles, err := h.articleRepo.GetLatestArticles(journal.ID, 10); err == nil {
		latest := make([]map[string]interface{}, 0, len(articles))
		for _, article := range articles {
			latest = append(latest, map[string]interface{}{
				"id":         article.ID,
				"title":      article.Title,
				"link":       article.Link,
				"fetched_at": article.FetchedAt,
			})
		}
		details["latest_articles"] = latest
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APICheckJournal(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing journal name parameter"})
		return
	}

	journal, err := h.journalRepo.GetJournalByName(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_journal", "journal", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
		return
	}

	if err := h.scheduler.EnqueueCheck(journal.Name, false); err != nil {
		slog.Error("Error enqueueing check task", "journal", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue check task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Journal check enqueued",
		"journal": gin.H{
			"name":     journal.Name,
			"category": journal.Category,
			"feed_url": journal.FeedURL,
		},
	})
}
