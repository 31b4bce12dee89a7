package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dentalbrief/dentalbrief/app/cfg"
	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	journalRepo      database.JournalRepository
	articleRepo      database.ArticleRepository
	subscriptionRepo database.SubscriptionRepository
	deliveryRepo     database.DeliveryRepository
	fetcher          *feed.Fetcher
	parser           *feed.Parser
	scraper          AbstractScraper
	tailorService    TailorService
	messenger        Messenger
	interval         time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
	inFlight         sync.Map
}

func NewScheduler(fetcher *feed.Fetcher, parser *feed.Parser, scraper AbstractScraper,
	tailorService TailorService, messenger Messenger,
	journalRepo database.JournalRepository, articleRepo database.ArticleRepository,
	subscriptionRepo database.SubscriptionRepository, deliveryRepo database.DeliveryRepository) *Scheduler {

	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		journalRepo:      journalRepo,
		articleRepo:      articleRepo,
		subscriptionRepo: subscriptionRepo,
		deliveryRepo:     deliveryRepo,
		fetcher:          fetcher,
		parser:           parser,
		scraper:          scraper,
		tailorService:    tailorService,
		messenger:        messenger,
		interval:         time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:      cfg.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueCheck schedules a single journal check, used by the trigger
// endpoint and the manual fetch button.
func (s *Scheduler) EnqueueCheck(journalName string, silent bool) error {
	journal, err := s.journalRepo.GetJournalByName(journalName)
	if err != nil {
		return fmt.Errorf("failed to get journal: %w", err)
	}
	if journal == nil {
		return fmt.Errorf("unknown journal: %s", journalName)
	}

	return s.enqueueJournal(*journal, silent)
}

// Journals never seen before are checked silently so a fresh database does
// not replay the feed's entire history into every subscribed chat.
func (s *Scheduler) enqueueStartupTasks() {
	journals, err := s.journalRepo.GetActiveJournals()
	if err != nil {
		slog.Error("Failed to load journals for startup sync", "error", err)
		return
	}

	slog.Debug("Scheduling startup sync", "count", len(journals))

	for _, journal := range journals {
		silent := journal.LastCheckedAt == nil
		if err := s.enqueueJournal(journal, silent); err != nil {
			slog.Warn("Failed to enqueue journal check", "journal", journal.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueDueTasks() {
	journals, err := s.journalRepo.GetActiveJournals()
	if err != nil {
		slog.Error("Failed to load journals for scheduling", "error", err)
		return
	}

	now := time.Now().UTC()

	for _, journal := range journals {
		if journal.LastCheckedAt != nil && journal.LastCheckedAt.Add(s.interval).After(now) {
			slog.Debug("Journal not due yet", "journal", journal.Name, "last_checked_at", journal.LastCheckedAt)
			continue
		}

		if err := s.enqueueJournal(journal, false); err != nil {
			slog.Warn("Failed to enqueue journal check", "journal", journal.Name, "error", err)
		}
	}
}

// enqueueJournal guards against overlapping checks of the same journal.
// The store's link uniqueness is the final arbiter either way.
func (s *Scheduler) enqueueJournal(journal database.Journal, silent bool) error {
	if _, loaded := s.inFlight.LoadOrStore(journal.ID, struct{}{}); loaded {
		slog.Debug("Journal check already in flight, skipping", "journal", journal.Name)
		return nil
	}

	task := NewCheckJournalTask(journal, silent, s.fetcher, s.parser, s.scraper,
		s.tailorService, s.messenger,
		s.journalRepo, s.articleRepo, s.subscriptionRepo, s.deliveryRepo)

	if err := s.EnqueueTask(task); err != nil {
		s.inFlight.Delete(journal.ID)
		return err
	}

	return nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if checkTask, ok := task.(*CheckJournalTask); ok {
		s.inFlight.Delete(checkTask.Journal.ID)
	}

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "journal", task.GetJournalName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		}
	}
}
