// Package export renders delivered articles as downloadable documents.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/dentalbrief/dentalbrief/app/database"
)

// RenderMarkdown builds a standalone Markdown document from a recorded
// delivery. The body is the tailored content exactly as it was sent.
func RenderMarkdown(delivery *database.Delivery, article *database.Article, journal *database.Journal) []byte {
	var b strings.Builder

	b.WriteString("# DentalBrief Article Summary\n\n")

	b.WriteString(fmt.Sprintf("**Article:** %s\n\n", article.Title))
	if journal != nil {
		b.WriteString(fmt.Sprintf("**Journal:** %s\n\n", journal.Name))
	}
	if article.Authors != "" {
		b.WriteString(fmt.Sprintf("**Authors:** %s\n\n", article.Authors))
	}
	if article.DOI != "" {
		b.WriteString(fmt.Sprintf("**DOI:** %s\n\n", article.DOI))
	}
	if article.Volume != "" {
		volume := article.Volume
		if article.Issue != "" {
			volume = fmt.Sprintf("%s(%s)", article.Volume, article.Issue)
		}
		b.WriteString(fmt.Sprintf("**Volume:** %s\n\n", volume))
	}
	b.WriteString(fmt.Sprintf("*Generated: %s*\n\n", delivery.SentAt.Format("2006-01-02 15:04")))

	b.WriteString("---\n\n")
	b.WriteString(delivery.Content)
	b.WriteString("\n\n---\n\n")
	b.WriteString("*Powered by DentalBrief*\n")

	return []byte(b.String())
}

// RenderCustom wraps ad-hoc tailored content that has no stored article
// behind it, such as /link summaries.
func RenderCustom(content string, now time.Time) []byte {
	var b strings.Builder

	b.WriteString("# DentalBrief Article Summary\n\n")
	b.WriteString(fmt.Sprintf("*Generated: %s*\n\n", now.Format("2006-01-02 15:04")))
	b.WriteString("---\n\n")
	b.WriteString(content)
	b.WriteString("\n\n---\n\n")
	b.WriteString("*Powered by DentalBrief*\n")

	return []byte(b.String())
}

// Filename returns a timestamped name for the exported document.
func Filename(now time.Time) string {
	return fmt.Sprintf("dental_article_%s.md", now.Format("2006-01-02_15-04-05"))
}
