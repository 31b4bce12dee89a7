package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.Client(), "test-token", WithBaseURL(server.URL))
	return client, server
}

func TestSendMessage(t *testing.T) {
	var captured sendMessageRequest

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"ok": true, "result": {"message_id": 42, "chat": {"id": 100}}}`))
	})
	defer server.Close()

	keyboard := &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: "Button", CallbackData: "data"}},
		},
	}

	message, err := client.SendMessage(context.Background(), 100, "*hello*", keyboard)
	if err != nil {
		t.Fatal(err)
	}

	if message.MessageID != 42 {
		t.Errorf("Expected message_id 42, got %d", message.MessageID)
	}
	if captured.ParseMode != "Markdown" {
		t.Errorf("Expected Markdown parse mode, got %q", captured.ParseMode)
	}
	if captured.ReplyMarkup == nil || len(captured.ReplyMarkup.InlineKeyboard) != 1 {
		t.Error("Expected keyboard to be forwarded")
	}
}

func TestSendMessagePlainTextFallback(t *testing.T) {
	var parseModes []string

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var request sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatal(err)
		}
		parseModes = append(parseModes, request.ParseMode)

		if request.ParseMode == "Markdown" {
			w.Write([]byte(`{"ok": false, "error_code": 400, "description": "can't parse entities"}`))
			return
		}
		w.Write([]byte(`{"ok": true, "result": {"message_id": 1, "chat": {"id": 100}}}`))
	})
	defer server.Close()

	if _, err := client.SendMessage(context.Background(), 100, "broken *markdown", nil); err != nil {
		t.Fatal(err)
	}

	if len(parseModes) != 2 || parseModes[0] != "Markdown" || parseModes[1] != "" {
		t.Errorf("Expected Markdown attempt then plain retry, got %v", parseModes)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "error_code": 403, "description": "bot was blocked by the user"}`))
	})
	defer server.Close()

	_, err := client.SendMessage(context.Background(), 100, "hello", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Code != 403 {
		t.Errorf("Unexpected error code: %d", apiErr.Code)
	}
	if apiErr.Description != "bot was blocked by the user" {
		t.Errorf("Unexpected description: %q", apiErr.Description)
	}
}

func TestGetUpdates(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var request getUpdatesRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatal(err)
		}
		if request.Offset != 7 {
			t.Errorf("Expected offset 7, got %d", request.Offset)
		}
		w.Write([]byte(`{"ok": true, "result": [
			{"update_id": 7, "message": {"message_id": 1, "chat": {"id": 5}, "text": "/start", "from": {"id": 5, "first_name": "A"}}},
			{"update_id": 8, "callback_query": {"id": "cb1", "from": {"id": 5}, "data": "lang:en"}}
		]}`))
	})
	defer server.Close()

	updates, err := client.GetUpdates(context.Background(), 7, 30)
	if err != nil {
		t.Fatal(err)
	}

	if len(updates) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "/start" {
		t.Errorf("Unexpected first update: %+v", updates[0])
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "lang:en" {
		t.Errorf("Unexpected second update: %+v", updates[1])
	}
}

func TestSendDocument(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		if got := r.FormValue("chat_id"); got != "100" {
			t.Errorf("Expected chat_id 100, got %q", got)
		}

		file, header, err := r.FormFile("document")
		if err != nil {
			t.Fatal(err)
		}
		defer file.Close()

		if header.Filename != "article.md" {
			t.Errorf("Unexpected filename: %q", header.Filename)
		}

		w.Write([]byte(`{"ok": true, "result": {}}`))
	})
	defer server.Close()

	err := client.SendDocument(context.Background(), 100, "article.md", []byte("# Title"), "caption")
	if err != nil {
		t.Fatal(err)
	}
}
