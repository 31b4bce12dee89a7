package export

import (
	"strings"
	"testing"
	"time"

	"github.com/dentalbrief/dentalbrief/app/database"
)

func TestRenderMarkdown(t *testing.T) {
	delivery := &database.Delivery{
		Content: "## Summary\nA tailored body.",
		SentAt:  time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
	}
	article := &database.Article{
		Title:   "Bond strength of universal adhesives",
		Authors: "A. Tanaka, M. Rossi",
		DOI:     "10.1016/j.dental.2023.01.001",
		Volume:  "39",
		Issue:   "4",
	}
	journal := &database.Journal{Name: "Dental Materials"}

	doc := string(RenderMarkdown(delivery, article, journal))

	for _, want := range []string{
		"# DentalBrief Article Summary",
		"**Article:** Bond strength of universal adhesives",
		"**Journal:** Dental Materials",
		"**Authors:** A. Tanaka, M. Rossi",
		"**DOI:** 10.1016/j.dental.2023.01.001",
		"**Volume:** 39(4)",
		"*Generated: 2025-06-01 14:30*",
		"## Summary\nA tailored body.",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Expected document to contain %q", want)
		}
	}
}

func TestRenderMarkdownSkipsEmptyFields(t *testing.T) {
	delivery := &database.Delivery{Content: "body", SentAt: time.Now()}
	article := &database.Article{Title: "T"}

	doc := string(RenderMarkdown(delivery, article, nil))

	for _, absent := range []string{"**Journal:**", "**Authors:**", "**DOI:**", "**Volume:**"} {
		if strings.Contains(doc, absent) {
			t.Errorf("Expected %q to be omitted for empty fields", absent)
		}
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 5, 0, time.UTC)
	if got := Filename(now); got != "dental_article_2025-06-01_14-30-05.md" {
		t.Errorf("Unexpected filename: %q", got)
	}
}
