package feed

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

// minAbstractLength treats shorter extracted abstracts as absent; some feeds
// carry "..." or a truncated teaser in the description field.
const minAbstractLength = 50

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	doiPattern        = regexp.MustCompile(`10\.\d{4,}/[^\s]+`)
)

// Parser normalizes RSS 2.0, RDF/RSS 1.0 and Atom feeds into candidates.
// Journal feeds use wildly inconsistent vocabularies, so every field is
// resolved through a priority-ordered fallback chain.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses feed content into candidates. Entries without a usable title or
// link are dropped; their siblings are unaffected.
func (p *Parser) Run(data []byte) ([]Candidate, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		title := cleanHTML(item.Title)
		if title == "" {
			continue
		}

		link := extractLink(item)
		if link == "" {
			continue
		}

		volume, issue := extractVolumeIssue(item)

		candidates = append(candidates, Candidate{
			Title:       title,
			Link:        link,
			Abstract:    extractAbstract(item),
			Authors:     extractAuthors(item),
			DOI:         extractDOI(item, link),
			Volume:      volume,
			Issue:       issue,
			PublishedAt: extractDate(item),
		})
	}

	return candidates, nil
}

func cleanHTML(text string) string {
	if text == "" {
		return ""
	}
	clean := tagPattern.ReplaceAllString(text, "")
	clean = html.UnescapeString(clean)
	clean = whitespacePattern.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

func extractLink(item *gofeed.Item) string {
	if item.Link != "" {
		return strings.TrimSpace(item.Link)
	}
	for _, l := range item.Links {
		if l != "" {
			return strings.TrimSpace(l)
		}
	}
	return ""
}

// extractAbstract tries summary/description first, then the content block.
// Results below minAbstractLength are discarded so the scraping path is
// triggered downstream.
func extractAbstract(item *gofeed.Item) string {
	abstract := item.Description
	if abstract == "" {
		abstract = item.Content
	}

	abstract = cleanHTML(abstract)
	if len(abstract) < minAbstractLength {
		return ""
	}
	return abstract
}

func extractAuthors(item *gofeed.Item) string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil && strings.TrimSpace(author.Name) != "" {
				authors = append(authors, strings.TrimSpace(author.Name))
			}
		}
	}

	if len(authors) == 0 && item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		authors = append(authors, strings.TrimSpace(item.Author.Name))
	}

	if len(authors) == 0 && item.DublinCoreExt != nil {
		for _, creator := range item.DublinCoreExt.Creator {
			if strings.TrimSpace(creator) != "" {
				authors = append(authors, strings.TrimSpace(creator))
			}
		}
	}

	return strings.Join(authors, ", ")
}

func extractDOI(item *gofeed.Item, link string) string {
	if doi := firstExtensionValue(item, "prism", "doi"); doi != "" {
		return doi
	}

	if item.DublinCoreExt != nil {
		for _, identifier := range item.DublinCoreExt.Identifier {
			identifier = strings.TrimSpace(identifier)
			if strings.HasPrefix(identifier, "10.") || strings.Contains(identifier, "doi.org") {
				return identifier
			}
		}
	}

	return doiPattern.FindString(link)
}

func extractDate(item *gofeed.Item) *time.Time {
	for _, parsed := range []*time.Time{item.PublishedParsed, item.UpdatedParsed} {
		if parsed != nil {
			return parsed
		}
	}

	var raw []string
	raw = append(raw, item.Published, item.Updated)
	if item.DublinCoreExt != nil {
		raw = append(raw, item.DublinCoreExt.Date...)
	}
	if v := firstExtensionValue(item, "prism", "publicationDate"); v != "" {
		raw = append(raw, v)
	}

	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if ts, err := dateparse.ParseAny(s); err == nil {
			return &ts
		}
	}

	// Never invented
	return nil
}

func extractVolumeIssue(item *gofeed.Item) (string, string) {
	volume := firstExtensionValue(item, "prism", "volume")

	issue := firstExtensionValue(item, "prism", "number")
	if issue == "" {
		issue = firstExtensionValue(item, "prism", "issue")
	}

	return volume, issue
}

func firstExtensionValue(item *gofeed.Item, prefix, name string) string {
	exts, ok := item.Extensions[prefix]
	if !ok {
		return ""
	}
	for _, e := range exts[name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}
