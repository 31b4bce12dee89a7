package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	fetchTimeout = 30 * time.Second

	minAbstractLength        = 50
	minGenericAbstractLength = 100
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	prefixPattern     = regexp.MustCompile(`(?i)^(abstract\.?\s*|summary\.?\s*)`)
)

// Publisher pages keep abstracts in site-specific markup, so each known
// host gets its own selector chain tried in order.
var siteSelectors = []struct {
	hosts     []string
	selectors []string
}{
	{
		hosts: []string{"nature.com"},
		selectors: []string{
			`section[aria-labelledby="Abs1"] p`,
			`#Abs1-content p`,
			`.c-article-section__content p`,
			`[data-article-body] section[id*="abstract"] p`,
			`.abstract p`,
		},
	},
	{
		hosts: []string{"wiley.com", "onlinelibrary"},
		selectors: []string{
			`.article-section__content.en.main p`,
			`.abstract-group p`,
			`#abstract .article-section__content p`,
			`.abstract p`,
		},
	},
	{
		hosts: []string{"sciencedirect.com"},
		selectors: []string{
			`.abstract.author p`,
			`#abstracts .abstract p`,
			`.Abstracts p`,
			`[class*="abstract"] p`,
		},
	},
	{
		hosts: []string{"sagepub.com"},
		selectors: []string{
			`.abstractSection.abstractInFull p`,
			`.hlFld-Abstract p`,
			`#abstract p`,
		},
	},
}

var genericSelectors = []string{
	`[class*="abstract"]`,
	`#abstract`,
	`.abstract`,
	`[id*="abstract"]`,
}

// Page is the extractable content of an article landing page.
type Page struct {
	Title    string
	Abstract string
}

// Scraper pulls abstracts out of publisher article pages.
type Scraper struct {
	httpClient *http.Client
	userAgent  string
}

func NewScraper(httpClient *http.Client, userAgent string) *Scraper {
	return &Scraper{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// ScrapeAbstract fetches the article page and extracts its abstract.
// Absence is not an error: the pipeline stores the article either way.
func (s *Scraper) ScrapeAbstract(ctx context.Context, url string) (string, bool) {
	data, err := s.fetchPage(ctx, url)
	if err != nil {
		slog.Warn("Failed to fetch article page", "url", url, "error", err)
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Failed to parse article page", "url", url, "error", err)
		return "", false
	}

	abstract := scrapeForHost(url, doc)
	if abstract == "" {
		abstract = scrapeGeneric(doc)
	}
	if abstract == "" {
		abstract = extractReadable(data)
	}
	if abstract == "" {
		return "", false
	}

	return cleanAbstract(abstract), true
}

// ScrapePage extracts both the title and the abstract, for URLs the bot
// receives ad hoc rather than through a feed.
func (s *Scraper) ScrapePage(ctx context.Context, url string) (*Page, error) {
	data, err := s.fetchPage(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article page: %w", err)
	}

	page := &Page{}

	if title := doc.Find("meta[property='og:title']").AttrOr("content", ""); title != "" {
		page.Title = strings.TrimSpace(title)
	} else {
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	abstract := scrapeForHost(url, doc)
	if abstract == "" {
		abstract = scrapeGeneric(doc)
	}
	if abstract == "" {
		abstract = extractReadable(data)
	}
	if abstract == "" {
		return nil, fmt.Errorf("no abstract found on page")
	}
	page.Abstract = cleanAbstract(abstract)

	if page.Title == "" {
		return nil, fmt.Errorf("no title found on page")
	}

	return page, nil
}

func (s *Scraper) fetchPage(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func scrapeForHost(url string, doc *goquery.Document) string {
	urlLower := strings.ToLower(url)

	for _, site := range siteSelectors {
		for _, host := range site.hosts {
			if !strings.Contains(urlLower, host) {
				continue
			}
			if abstract := selectParagraphs(doc, site.selectors); abstract != "" {
				return abstract
			}
			return ""
		}
	}

	return ""
}

func selectParagraphs(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if text := strings.TrimSpace(sel.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

		abstract := strings.Join(paragraphs, " ")
		if len(abstract) > minAbstractLength {
			return abstract
		}
	}

	return ""
}

func scrapeGeneric(doc *goquery.Document) string {
	for _, selector := range genericSelectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			var text string
			if ps := sel.Find("p"); ps.Length() > 0 {
				var paragraphs []string
				ps.Each(func(_ int, p *goquery.Selection) {
					if t := strings.TrimSpace(p.Text()); t != "" {
						paragraphs = append(paragraphs, t)
					}
				})
				text = strings.Join(paragraphs, " ")
			} else {
				text = strings.TrimSpace(sel.Text())
			}

			if len(text) > minGenericAbstractLength {
				found = text
				return false
			}
			return true
		})

		if found != "" {
			return found
		}
	}

	return ""
}

func extractReadable(data []byte) string {
	article, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) <= minGenericAbstractLength {
		return ""
	}

	// Readability returns the whole article body, keep a lead excerpt only
	const maxExcerpt = 1500
	if len(text) > maxExcerpt {
		if cut := strings.LastIndex(text[:maxExcerpt], ". "); cut > minGenericAbstractLength {
			text = text[:cut+1]
		} else {
			text = text[:maxExcerpt]
		}
	}

	return text
}

func cleanAbstract(abstract string) string {
	abstract = whitespacePattern.ReplaceAllString(abstract, " ")
	abstract = strings.TrimSpace(abstract)
	abstract = prefixPattern.ReplaceAllString(abstract, "")
	return abstract
}
