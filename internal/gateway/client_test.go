package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSendMessage(t *testing.T) {
	var gotPath, gotSecret string
	var gotBody sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSecret = r.Header.Get("X-Gateway-Secret")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "s3cret", false, slog.Default())
	err := client.SendMessage(context.Background(), 42, "hello", Row{{Text: "Register", Token: "reg_1"}})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if gotPath != "/send/message" {
		t.Errorf("path = %q", gotPath)
	}
	if gotSecret != "s3cret" {
		t.Errorf("secret header = %q", gotSecret)
	}
	if gotBody.RecipientID != 42 || gotBody.Text != "hello" {
		t.Errorf("body = %+v", gotBody)
	}
	if len(gotBody.Buttons) != 1 || gotBody.Buttons[0][0].Token != "reg_1" {
		t.Errorf("buttons = %+v", gotBody.Buttons)
	}
}

func TestClientReportsDeliveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "recipient blocked the bot", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", false, slog.Default())
	if err := client.SendMessage(context.Background(), 42, "hello"); err == nil {
		t.Fatal("expected delivery error, got nil")
	}
}

func TestClientStubMode(t *testing.T) {
	client := NewClient("http://unreachable.invalid", "", true, slog.Default())
	if err := client.SendMessage(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("stub send failed: %v", err)
	}
}
