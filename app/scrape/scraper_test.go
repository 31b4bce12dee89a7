package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const natureHTML = `
<!DOCTYPE html>
<html>
<head><title>Salivary biomarkers | Nature</title></head>
<body>
	<nav>Site navigation</nav>
	<section aria-labelledby="Abs1">
		<h2 id="Abs1">Abstract</h2>
		<p>Salivary biomarkers offer a non-invasive route to early caries detection.</p>
		<p>This review synthesizes diagnostic performance across twenty recent cohort studies and discusses clinical translation barriers.</p>
	</section>
	<footer>Footer</footer>
</body>
</html>
`

const genericHTML = `
<!DOCTYPE html>
<html>
<head>
	<meta property="og:title" content="Bond strength of universal adhesives"/>
	<title>Some Journal Page</title>
</head>
<body>
	<div class="paper-abstract">
		<p>The bond strength of three universal adhesive systems was measured under thermocycling conditions over twelve months of artificial aging.</p>
		<p>Clinically relevant differences were observed across application modes, with etch-and-rinse outperforming self-etch on enamel substrates.</p>
	</div>
</body>
</html>
`

func newTestScraper(handler http.HandlerFunc) (*Scraper, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewScraper(server.Client(), "test-agent"), server
}

func TestScrapeAbstract_NatureSelectors(t *testing.T) {
	scraper, server := newTestScraper(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(natureHTML))
	})
	defer server.Close()

	// Host chain keys off the URL, fake a nature.com path on the test server
	abstract, ok := scraper.ScrapeAbstract(context.Background(), server.URL+"/nature.com/articles/s41368")
	if !ok {
		t.Fatal("Expected abstract to be found")
	}

	if !strings.HasPrefix(abstract, "Salivary biomarkers") {
		t.Errorf("Unexpected abstract: %q", abstract)
	}
	if !strings.Contains(abstract, "clinical translation barriers") {
		t.Errorf("Expected paragraphs to be joined, got %q", abstract)
	}
	if strings.Contains(abstract, "Site navigation") {
		t.Errorf("Expected navigation chrome to be excluded")
	}
}

func TestScrapeAbstract_GenericFallback(t *testing.T) {
	scraper, server := newTestScraper(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(genericHTML))
	})
	defer server.Close()

	abstract, ok := scraper.ScrapeAbstract(context.Background(), server.URL+"/unknown-publisher/article")
	if !ok {
		t.Fatal("Expected abstract to be found")
	}

	if !strings.HasPrefix(abstract, "The bond strength") {
		t.Errorf("Unexpected abstract: %q", abstract)
	}
}

func TestScrapeAbstract_PageFetchFailure(t *testing.T) {
	scraper, server := newTestScraper(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	if _, ok := scraper.ScrapeAbstract(context.Background(), server.URL); ok {
		t.Error("Expected no abstract on HTTP error")
	}
}

func TestScrapeAbstract_NothingUsable(t *testing.T) {
	scraper, server := newTestScraper(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Too short.</p></body></html>`))
	})
	defer server.Close()

	if _, ok := scraper.ScrapeAbstract(context.Background(), server.URL); ok {
		t.Error("Expected no abstract from a page without one")
	}
}

func TestScrapePage(t *testing.T) {
	scraper, server := newTestScraper(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(genericHTML))
	})
	defer server.Close()

	page, err := scraper.ScrapePage(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatal(err)
	}

	if page.Title != "Bond strength of universal adhesives" {
		t.Errorf("Expected og:title, got %q", page.Title)
	}
	if !strings.HasPrefix(page.Abstract, "The bond strength") {
		t.Errorf("Unexpected abstract: %q", page.Abstract)
	}
}

func TestCleanAbstract(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Abstract. The study   shows\n\tresults.", "The study shows results."},
		{"Summary. New findings", "New findings"},
		{"SUMMARY  The study", "The study"},
		{"  plain text  ", "plain text"},
	}

	for _, c := range cases {
		if got := cleanAbstract(c.in); got != c.want {
			t.Errorf("cleanAbstract(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
