package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dentalbrief/dentalbrief/app/telegram"
)

func TestMarkdownToTelegram(t *testing.T) {
	input := strings.Join([]string{
		"# Summary Title",
		"## Key Takeaways",
		"### Details",
		"- First point",
		"  - Nested point",
		"Some **bold** text and **more bold**.",
		"Plain line",
	}, "\n")

	got := markdownToTelegram(input)

	want := strings.Join([]string{
		"📌 *Summary Title*",
		"🔹 *Key Takeaways*",
		"🔸 *Details*",
		"• First point",
		"  • Nested point",
		"Some *bold* text and *more bold*.",
		"Plain line",
	}, "\n")

	if got != want {
		t.Errorf("Unexpected conversion:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestMatchLanguage(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"fa", "fa"},
		{"fa-IR", "fa"},
		{"de", "en"},
		{"", "en"},
		{"not-a-code!!", "en"},
	}

	for _, c := range cases {
		if got := matchLanguage(c.code); got != c.want {
			t.Errorf("matchLanguage(%q) = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestFindArticleURL(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"check this https://www.nature.com/articles/s41368 please", "https://www.nature.com/articles/s41368"},
		{"https://doi.org/10.1111/jcpe.13579", "https://doi.org/10.1111/jcpe.13579"},
		{"https://example.com/blog/post", ""},
		{"no links here", ""},
	}

	for _, c := range cases {
		if got := findArticleURL(c.text); got != c.want {
			t.Errorf("findArticleURL(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestDetectJournalFromURL(t *testing.T) {
	if got := detectJournalFromURL("https://www.nature.com/articles/x"); got != "Nature" {
		t.Errorf("Expected Nature, got %q", got)
	}
	if got := detectJournalFromURL("https://unknown.example/article"); got != "Scientific Journal" {
		t.Errorf("Expected generic name, got %q", got)
	}
}

func TestGetTextFallsBackToEnglish(t *testing.T) {
	if got := getText("help", "de"); got != texts["en"]["help"] {
		t.Error("Expected English fallback for unsupported language")
	}
	if got := getText("no_such_key", "en"); got != "no_such_key" {
		t.Errorf("Expected key echo for unknown key, got %q", got)
	}
}

func TestSendArticleConvertsAndAttachesExportButtons(t *testing.T) {
	var captured struct {
		Text        string                         `json:"text"`
		ReplyMarkup *telegram.InlineKeyboardMarkup `json:"reply_markup"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"ok": true, "result": {"message_id": 1, "chat": {"id": 100}}}`))
	}))
	defer server.Close()

	client := telegram.NewClient(server.Client(), "token", telegram.WithBaseURL(server.URL))
	b := New(client, nil, nil, nil, nil, nil, nil, nil, nil)

	if err := b.SendArticle(context.Background(), 100, "# Title\n**bold**", 42); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(captured.Text, "📌 *Title*") {
		t.Errorf("Expected converted markdown, got %q", captured.Text)
	}

	if captured.ReplyMarkup == nil || len(captured.ReplyMarkup.InlineKeyboard) != 1 {
		t.Fatal("Expected export keyboard")
	}
	buttons := captured.ReplyMarkup.InlineKeyboard[0]
	if len(buttons) != 2 || buttons[1].CallbackData != "export:md:42" {
		t.Errorf("Unexpected export buttons: %+v", buttons)
	}
}

func TestTruncateName(t *testing.T) {
	if got := truncateName("short", 30); got != "short" {
		t.Errorf("Expected unchanged name, got %q", got)
	}
	long := strings.Repeat("a", 40)
	got := truncateName(long, 30)
	if len(got) != 30 || !strings.HasSuffix(got, "...") {
		t.Errorf("Expected 30-char truncation with ellipsis, got %q (len %d)", got, len(got))
	}
}
