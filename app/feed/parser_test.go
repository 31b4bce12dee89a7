package feed

import (
	"strings"
	"testing"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Journal of Clinical Periodontology</title>
    <link>https://onlinelibrary.wiley.com/journal/1600051x</link>
    <item>
      <title>Efficacy of &lt;i&gt;subgingival&lt;/i&gt; instrumentation</title>
      <link>https://onlinelibrary.wiley.com/doi/10.1111/jcpe.13579</link>
      <description>This randomized controlled trial evaluated the efficacy of subgingival instrumentation protocols in patients with stage III periodontitis over a 12-month follow-up period.</description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <author>smith@example.com (J. Smith)</author>
    </item>
    <item>
      <title>Short teaser entry</title>
      <link>https://onlinelibrary.wiley.com/doi/10.1111/jcpe.13580</link>
      <description>Read more...</description>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	candidates, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Title != "Efficacy of subgingival instrumentation" {
		t.Errorf("Expected cleaned title, got %q", first.Title)
	}
	if first.Link != "https://onlinelibrary.wiley.com/doi/10.1111/jcpe.13579" {
		t.Errorf("Unexpected link: %q", first.Link)
	}
	if !strings.HasPrefix(first.Abstract, "This randomized controlled trial") {
		t.Errorf("Expected feed abstract, got %q", first.Abstract)
	}
	if first.DOI != "10.1111/jcpe.13579" {
		t.Errorf("Expected DOI extracted from link, got %q", first.DOI)
	}
	if first.PublishedAt == nil {
		t.Error("Expected published date to be parsed")
	}

	// Teaser shorter than the abstract floor is treated as absent
	second := candidates[1]
	if second.Abstract != "" {
		t.Errorf("Expected short description to be discarded, got %q", second.Abstract)
	}
	if second.PublishedAt != nil {
		t.Error("Expected no published date when the entry carries none")
	}
}

func TestParseRDFWithPrismAndDublinCore(t *testing.T) {
	rdfData := `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns="http://purl.org/rss/1.0/"
         xmlns:dc="http://purl.org/dc/elements/1.1/"
         xmlns:prism="http://prismstandard.org/namespaces/basic/2.0/">
  <channel rdf:about="https://example.com/feed">
    <title>Dental Materials</title>
    <link>https://example.com</link>
    <items><rdf:Seq><rdf:li rdf:resource="https://example.com/article1"/></rdf:Seq></items>
  </channel>
  <item rdf:about="https://example.com/article1">
    <title>Bond strength of universal adhesives</title>
    <link>https://example.com/article1</link>
    <description>The bond strength of three universal adhesive systems was measured under thermocycling conditions, demonstrating clinically relevant differences across application modes.</description>
    <dc:creator>A. Tanaka</dc:creator>
    <dc:creator>M. Rossi</dc:creator>
    <dc:date>2023-07-03T10:00:00Z</dc:date>
    <prism:doi>10.1016/j.dental.2023.01.001</prism:doi>
    <prism:volume>39</prism:volume>
    <prism:number>4</prism:number>
  </item>
</rdf:RDF>`

	parser := NewParser()
	candidates, err := parser.Run([]byte(rdfData))
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Authors != "A. Tanaka, M. Rossi" {
		t.Errorf("Expected dc:creator authors comma-joined, got %q", c.Authors)
	}
	if c.DOI != "10.1016/j.dental.2023.01.001" {
		t.Errorf("Expected prism:doi, got %q", c.DOI)
	}
	if c.Volume != "39" {
		t.Errorf("Expected volume 39, got %q", c.Volume)
	}
	if c.Issue != "4" {
		t.Errorf("Expected issue 4, got %q", c.Issue)
	}
	if c.PublishedAt == nil {
		t.Error("Expected dc:date to be parsed")
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>International Journal of Oral Science</title>
  <id>https://www.nature.com/ijos</id>
  <updated>2023-07-03T10:00:00Z</updated>
  <entry>
    <title>Salivary biomarkers in early caries detection</title>
    <id>https://www.nature.com/articles/s41368-023-00001-1</id>
    <link rel="alternate" href="https://www.nature.com/articles/s41368-023-00001-1"/>
    <updated>2023-07-03T10:00:00Z</updated>
    <author><name>L. Chen</name></author>
    <summary>Salivary biomarkers offer a non-invasive route to early caries detection; this review synthesizes the diagnostic performance reported across twenty recent cohort studies.</summary>
  </entry>
</feed>`

	parser := NewParser()
	candidates, err := parser.Run([]byte(atomData))
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Link != "https://www.nature.com/articles/s41368-023-00001-1" {
		t.Errorf("Unexpected link: %q", c.Link)
	}
	if c.Authors != "L. Chen" {
		t.Errorf("Expected atom author, got %q", c.Authors)
	}
	if !strings.HasPrefix(c.Abstract, "Salivary biomarkers") {
		t.Errorf("Expected atom summary as abstract, got %q", c.Abstract)
	}
	if c.PublishedAt == nil {
		t.Error("Expected updated date to be used as a fallback")
	}
}

func TestParseDropsEntriesMissingRequiredFields(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <link>https://example.com</link>
    <item>
      <description>No title here, a long enough description that would otherwise qualify as an abstract.</description>
      <link>https://example.com/untitled</link>
    </item>
    <item>
      <title>&lt;b&gt;&lt;/b&gt;</title>
      <link>https://example.com/empty-after-strip</link>
    </item>
    <item>
      <title>No link at all</title>
    </item>
    <item>
      <title>Kept</title>
      <link>https://example.com/kept</link>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	candidates, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 1 {
		t.Fatalf("Expected only the complete entry to survive, got %d", len(candidates))
	}
	if candidates[0].Title != "Kept" {
		t.Errorf("Unexpected candidate: %+v", candidates[0])
	}
}

func TestParseMalformedFeed(t *testing.T) {
	parser := NewParser()
	if _, err := parser.Run([]byte("this is not XML")); err == nil {
		t.Error("Expected error for malformed feed")
	}
}

func TestCleanHTML(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<p>Hello   <b>World</b></p>", "Hello World"},
		{"Caries &amp; restoration", "Caries & restoration"},
		{"  \n\t ", ""},
		{"", ""},
	}

	for _, c := range cases {
		if got := cleanHTML(c.in); got != c.want {
			t.Errorf("cleanHTML(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
