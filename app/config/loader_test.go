package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "jcp.yml", `
name: Journal of Clinical Periodontology
feed_url: https://onlinelibrary.wiley.com/feed/1600051x/most-recent
category: Periodontology
`)
	writeFile(t, dir, "ijos.yml", `
name: International Journal of Oral Science
feed_url: https://www.nature.com/ijos.rss
category: General Dentistry
`)

	loader := NewLoader(dir)
	configs, err := loader.LoadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}

	jcp := configs["Journal of Clinical Periodontology"]
	if jcp == nil {
		t.Fatal("Expected JCP config to be loaded")
	}
	if jcp.Category != "Periodontology" {
		t.Errorf("Expected category 'Periodontology', got '%s'", jcp.Category)
	}
	if jcp.RequiresScraping() {
		t.Error("Wiley journal should not require scraping by default")
	}
	if !jcp.IsEnabled() {
		t.Error("Journal should be enabled by default")
	}

	ijos := configs["International Journal of Oral Science"]
	if ijos == nil {
		t.Fatal("Expected IJOS config to be loaded")
	}
	if !ijos.RequiresScraping() {
		t.Error("Nature journal should require scraping by default")
	}
	if ijos.FeedType != "rss" {
		t.Errorf("Expected default feed type 'rss', got '%s'", ijos.FeedType)
	}
}

func TestLoadAllNameFromFilename(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dental-materials.yml", `
feed_url: https://example.com/feed
`)

	loader := NewLoader(dir)
	configs, err := loader.LoadAll()
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := configs["dental-materials"]; !ok {
		t.Error("Expected journal name derived from filename")
	}
}

func TestLoadAllMissingURL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yml", `
name: Broken Journal
`)

	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err == nil {
		t.Error("Expected error for missing feed_url")
	}
}

func TestLoadAllInvalidFeedType(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad-type.yml", `
name: Bad Type
feed_url: https://example.com/feed
feed_type: json
`)

	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err == nil {
		t.Error("Expected error for invalid feed_type")
	}
}

func TestLoadAllDuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yml", "name: Same\nfeed_url: https://example.com/a\n")
	writeFile(t, dir, "b.yml", "name: Same\nfeed_url: https://example.com/b\n")

	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err == nil {
		t.Error("Expected error for duplicate journal names")
	}
}

func TestLoadAllMissingDir(t *testing.T) {
	loader := NewLoader("/nonexistent/path")
	configs, err := loader.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 0 {
		t.Errorf("Expected empty config map, got %d entries", len(configs))
	}
}
