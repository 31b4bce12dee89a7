package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dentalbrief/dentalbrief/app/api"
	"github.com/dentalbrief/dentalbrief/app/bot"
	"github.com/dentalbrief/dentalbrief/app/cfg"
	"github.com/dentalbrief/dentalbrief/app/config"
	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/feed"
	"github.com/dentalbrief/dentalbrief/app/scrape"
	"github.com/dentalbrief/dentalbrief/app/tailor"
	"github.com/dentalbrief/dentalbrief/app/tasks"
	"github.com/dentalbrief/dentalbrief/app/telegram"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting DentalBrief", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	journalRepo := database.NewJournalStore(db)
	articleRepo := database.NewArticleStore(db)
	userRepo := database.NewUserStore(db)
	subscriptionRepo := database.NewSubscriptionStore(db)
	deliveryRepo := database.NewDeliveryStore(db)

	syncJournalCatalog(appCfg.JournalsDir, journalRepo)

	// Shared client for feeds and page scraping. The Telegram client holds
	// its own because long polling keeps requests open past 30 seconds, and
	// the tailoring client manages deadlines per request.
	httpClient := &http.Client{Timeout: 30 * time.Second}
	pollClient := &http.Client{Timeout: 90 * time.Second}

	fetcher := feed.NewFetcher(httpClient, appCfg.UserAgent)
	parser := feed.NewParser()
	scraper := scrape.NewScraper(httpClient, appCfg.UserAgent)

	tailorClient := tailor.NewClient(&http.Client{Timeout: 150 * time.Second}, tailor.DefaultBaseURL, appCfg.OpenRouterKey, appCfg.OpenRouterModel)
	tailorService := tailor.NewService(tailorClient)

	telegramClient := telegram.NewClient(pollClient, appCfg.TelegramToken)

	dentalBot := bot.New(telegramClient, tailorService, scraper, nil,
		journalRepo, articleRepo, userRepo, subscriptionRepo, deliveryRepo)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(fetcher, parser, scraper, tailorService, dentalBot,
		journalRepo, articleRepo, subscriptionRepo, deliveryRepo)
	dentalBot.SetChecker(scheduler)

	scheduler.Start()
	defer scheduler.Stop()

	botCtx, botCancel := context.WithCancel(context.Background())
	defer botCancel()
	go dentalBot.Run(botCtx)

	apiHandler := api.NewHandler(journalRepo, articleRepo, userRepo, deliveryRepo, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("DentalBrief started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	botCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// syncJournalCatalog registers the configured journals in the database.
// Journals that disappear from the catalog are deactivated, not deleted,
// so stored articles and delivery history survive.
func syncJournalCatalog(journalsDir string, journalRepo database.JournalRepository) {
	loader := config.NewLoader(journalsDir)
	configs, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load journal configurations", "dir", journalsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded journal configurations", "count", len(configs), "dir", journalsDir)

	seen := make(map[string]bool, len(configs))
	registered := 0
	for file, jc := range configs {
		seed := database.JournalSeed{
			Name:          jc.Name,
			FeedURL:       jc.FeedURL,
			FeedType:      jc.FeedType,
			Category:      jc.Category,
			NeedsScraping: jc.NeedsScraping != nil && *jc.NeedsScraping,
			IsActive:      jc.IsEnabled(),
		}
		id, err := journalRepo.UpsertJournal(seed)
		if err != nil {
			slog.Warn("Failed to register journal", "file", file, "journal", jc.Name, "error", err)
			continue
		}
		seen[jc.Name] = true
		registered++
		slog.Debug("Registered journal", "journal", jc.Name, "id", id)
	}
	slog.Info("Registered journals", "registered", registered, "total", len(configs))

	active, err := journalRepo.GetActiveJournals()
	if err != nil {
		slog.Warn("Failed to list active journals", "error", err)
		return
	}
	for _, journal := range active {
		if !seen[journal.Name] {
			if err := journalRepo.SetJournalActive(journal.ID, false); err != nil {
				slog.Warn("Failed to deactivate removed journal", "journal", journal.Name, "error", err)
				continue
			}
			slog.Info("Deactivated journal missing from catalog", "journal", journal.Name)
		}
	}
}
