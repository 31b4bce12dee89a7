package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/feed"
	"github.com/dentalbrief/dentalbrief/app/tailor"
)

type mockJournalRepo struct {
	database.JournalRepository
	lastChecked []int64
}

func (m *mockJournalRepo) UpdateLastChecked(journalID int64) error {
	m.lastChecked = append(m.lastChecked, journalID)
	return nil
}

type mockArticleRepo struct {
	database.ArticleRepository
	articles map[string]*database.Article
	nextID   int64
	filled   map[int64]string
}

func newMockArticleRepo() *mockArticleRepo {
	return &mockArticleRepo{
		articles: make(map[string]*database.Article),
		filled:   make(map[int64]string),
	}
}

func (m *mockArticleRepo) GetArticleByLink(link string) (*database.Article, error) {
	return m.articles[link], nil
}

func (m *mockArticleRepo) CreateArticle(journalID int64, article database.NewArticle) (*database.Article, bool, error) {
	if existing, ok := m.articles[article.Link]; ok {
		return existing, false, nil
	}

	m.nextID++
	stored := &database.Article{
		ID:        m.nextID,
		JournalID: journalID,
		Title:     article.Title,
		Link:      article.Link,
		Abstract:  article.Abstract,
	}
	m.articles[article.Link] = stored
	return stored, true, nil
}

func (m *mockArticleRepo) FillAbstract(articleID int64, abstract string) error {
	m.filled[articleID] = abstract
	return nil
}

type mockSubscriptionRepo struct {
	database.SubscriptionRepository
	subscribers []database.User
}

func (m *mockSubscriptionRepo) GetSubscribers(journalID int64) ([]database.User, error) {
	return m.subscribers, nil
}

type mockDeliveryRepo struct {
	database.DeliveryRepository
	delivered map[string]bool
	marked    []string
}

func newMockDeliveryRepo() *mockDeliveryRepo {
	return &mockDeliveryRepo{delivered: make(map[string]bool)}
}

func deliveryKey(userID, articleID int64) string {
	return fmt.Sprintf("%d:%d", userID, articleID)
}

func (m *mockDeliveryRepo) WasDelivered(userID, articleID int64) (bool, error) {
	return m.delivered[deliveryKey(userID, articleID)], nil
}

func (m *mockDeliveryRepo) MarkDelivered(userID, articleID int64, content string) error {
	key := deliveryKey(userID, articleID)
	m.delivered[key] = true
	m.marked = append(m.marked, key)
	return nil
}

type mockScraper struct {
	abstract string
	calls    []string
}

func (m *mockScraper) ScrapeAbstract(ctx context.Context, url string) (string, bool) {
	m.calls = append(m.calls, url)
	return m.abstract, m.abstract != ""
}

type mockTailorService struct {
	err   error
	calls int
}

func (m *mockTailorService) TailorArticle(ctx context.Context, user *database.User, content tailor.ArticleContent, journalName string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "TAILORED: " + content.Title, nil
}

type mockMessenger struct {
	err   error
	sends []int64
}

func (m *mockMessenger) SendArticle(ctx context.Context, chatID int64, text string, articleID int64) error {
	if m.err != nil {
		return m.err
	}
	m.sends = append(m.sends, articleID)
	return nil
}

type taskFixture struct {
	journalRepo  *mockJournalRepo
	articleRepo  *mockArticleRepo
	subRepo      *mockSubscriptionRepo
	deliveryRepo *mockDeliveryRepo
	scraper      *mockScraper
	tailorSvc    *mockTailorService
	messenger    *mockMessenger
	server       *httptest.Server
}

func feedDocument(items string) string {
	return `<?xml version="1.0"?><rss version="2.0"><channel><title>J</title><link>https://j.example</link>` + items + `</channel></rss>`
}

func feedItem(n int, abstract string) string {
	description := ""
	if abstract != "" {
		description = "<description>" + abstract + "</description>"
	}
	return fmt.Sprintf(`<item><title>Article %d</title><link>https://j.example/a%d</link>%s</item>`, n, n, description)
}

const longAbstract = "A sufficiently long abstract describing the study design, methods and key findings in detail."

func newTaskFixture(t *testing.T, feedBody string, status int) *taskFixture {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(feedBody))
	}))
	t.Cleanup(server.Close)

	return &taskFixture{
		journalRepo:  &mockJournalRepo{},
		articleRepo:  newMockArticleRepo(),
		subRepo:      &mockSubscriptionRepo{},
		deliveryRepo: newMockDeliveryRepo(),
		scraper:      &mockScraper{},
		tailorSvc:    &mockTailorService{},
		messenger:    &mockMessenger{},
		server:       server,
	}
}

func (f *taskFixture) newTask(journal database.Journal, silent bool) *CheckJournalTask {
	journal.FeedURL = f.server.URL
	fetcher := feed.NewFetcher(f.server.Client(), "test-agent")
	return NewCheckJournalTask(journal, silent, fetcher, feed.NewParser(), f.scraper,
		f.tailorSvc, f.messenger, f.journalRepo, f.articleRepo, f.subRepo, f.deliveryRepo)
}

func TestCheckJournalStoresAndNotifies(t *testing.T) {
	body := feedDocument(feedItem(1, longAbstract) + feedItem(2, longAbstract))
	f := newTaskFixture(t, body, http.StatusOK)

	// Article 1 is already in the store
	f.articleRepo.articles["https://j.example/a1"] = &database.Article{ID: 100, Abstract: longAbstract}
	f.subRepo.subscribers = []database.User{{ID: 1, TelegramID: 501}}

	task := f.newTask(database.Journal{ID: 7, Name: "J"}, false)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(f.messenger.sends) != 1 {
		t.Fatalf("Expected 1 send for the new article only, got %d", len(f.messenger.sends))
	}
	if len(f.deliveryRepo.marked) != 1 {
		t.Errorf("Expected 1 delivery recorded, got %d", len(f.deliveryRepo.marked))
	}
	if len(f.journalRepo.lastChecked) != 1 || f.journalRepo.lastChecked[0] != 7 {
		t.Errorf("Expected check time bump for journal 7, got %v", f.journalRepo.lastChecked)
	}
}

func TestCheckJournalSilentStoresWithoutNotifying(t *testing.T) {
	body := feedDocument(feedItem(1, longAbstract))
	f := newTaskFixture(t, body, http.StatusOK)
	f.subRepo.subscribers = []database.User{{ID: 1, TelegramID: 501}}

	task := f.newTask(database.Journal{ID: 7, Name: "J"}, true)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(f.messenger.sends) != 0 {
		t.Errorf("Expected no sends in silent mode, got %d", len(f.messenger.sends))
	}
	if len(f.articleRepo.articles) != 1 {
		t.Errorf("Expected article stored, got %d", len(f.articleRepo.articles))
	}
	if len(f.journalRepo.lastChecked) != 1 {
		t.Error("Expected check time bump in silent mode")
	}
}

func TestCheckJournalFetchFailure(t *testing.T) {
	f := newTaskFixture(t, "", http.StatusInternalServerError)

	task := f.newTask(database.Journal{ID: 7, Name: "J"}, false)
	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected error on fetch failure")
	}

	if len(f.journalRepo.lastChecked) != 0 {
		t.Error("Expected no check time bump on fetch failure")
	}
}

func TestCheckJournalParseFailureStillBumpsCheckTime(t *testing.T) {
	f := newTaskFixture(t, "not xml at all", http.StatusOK)

	task := f.newTask(database.Journal{ID: 7, Name: "J"}, false)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(f.journalRepo.lastChecked) != 1 {
		t.Error("Expected check time bump on parse failure")
	}
}

func TestCheckJournalScrapesMissingAbstract(t *testing.T) {
	body := feedDocument(feedItem(1, ""))
	f := newTaskFixture(t, body, http.StatusOK)
	f.scraper.abstract = "Scraped abstract text."

	task := f.newTask(database.Journal{ID: 7, Name: "J", NeedsScraping: true}, true)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(f.scraper.calls) != 1 {
		t.Fatalf("Expected 1 scrape call, got %d", len(f.scraper.calls))
	}
	stored := f.articleRepo.articles["https://j.example/a1"]
	if stored == nil || stored.Abstract != "Scraped abstract text." {
		t.Errorf("Expected scraped abstract stored, got %+v", stored)
	}
}

func TestCheckJournalStoresDespiteScrapeFailure(t *testing.T) {
	body := feedDocument(feedItem(1, ""))
	f := newTaskFixture(t, body, http.StatusOK)

	task := f.newTask(database.Journal{ID: 7, Name: "J", NeedsScraping: true}, true)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	stored := f.articleRepo.articles["https://j.example/a1"]
	if stored == nil {
		t.Fatal("Expected article stored even without an abstract")
	}
	if stored.Abstract != "" {
		t.Errorf("Expected empty abstract, got %q", stored.Abstract)
	}
}

func TestCheckJournalEnrichesExistingArticle(t *testing.T) {
	body := feedDocument(feedItem(1, longAbstract))
	f := newTaskFixture(t, body, http.StatusOK)
	f.articleRepo.articles["https://j.example/a1"] = &database.Article{ID: 100, Abstract: ""}
	f.subRepo.subscribers = []database.User{{ID: 1, TelegramID: 501}}

	task := f.newTask(database.Journal{ID: 7, Name: "J"}, false)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if f.articleRepo.filled[100] != longAbstract {
		t.Errorf("Expected abstract filled from feed, got %q", f.articleRepo.filled[100])
	}
	if len(f.messenger.sends) != 0 {
		t.Error("Expected no notification for an already known article")
	}
}

func TestCheckJournalTailorFailureSkipsUser(t *testing.T) {
	body := feedDocument(feedItem(1, longAbstract))
	f := newTaskFixture(t, body, http.StatusOK)
	f.subRepo.subscribers = []database.User{{ID: 1, TelegramID: 501}}
	f.tailorSvc.err = errors.New("model unavailable")

	task := f.newTask(database.Journal{ID: 7, Name: "J"}, false)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(f.messenger.sends) != 0 {
		t.Error("Expected no send when tailoring fails")
	}
	if len(f.deliveryRepo.marked) != 0 {
		t.Error("Expected no delivery record when tailoring fails")
	}
	if len(f.journalRepo.lastChecked) != 1 {
		t.Error("Expected check time bump despite notification failures")
	}
}

func TestCheckJournalSendFailureLeavesNoDeliveryRecord(t *testing.T) {
	body := feedDocument(feedItem(1, longAbstract))
	f := newTaskFixture(t, body, http.StatusOK)
	f.subRepo.subscribers = []database.User{{ID: 1, TelegramID: 501}}
	f.messenger.err = errors.New("blocked by user")

	task := f.newTask(database.Journal{ID: 7, Name: "J"}, false)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(f.deliveryRepo.marked) != 0 {
		t.Error("Expected no delivery record when the send fails")
	}
}

func TestCheckJournalSkipsAlreadyDelivered(t *testing.T) {
	body := feedDocument(feedItem(1, longAbstract))
	f := newTaskFixture(t, body, http.StatusOK)
	f.subRepo.subscribers = []database.User{
		{ID: 1, TelegramID: 501},
		{ID: 2, TelegramID: 502},
	}
	// User 1 already received article 1 through an earlier path
	f.deliveryRepo.delivered[deliveryKey(1, 1)] = true

	task := f.newTask(database.Journal{ID: 7, Name: "J"}, false)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(f.messenger.sends) != 1 {
		t.Errorf("Expected single send to the remaining user, got %d", len(f.messenger.sends))
	}
	if !strings.HasPrefix(f.deliveryRepo.marked[0], "2:") {
		t.Errorf("Expected delivery recorded for user 2, got %v", f.deliveryRepo.marked)
	}
}
