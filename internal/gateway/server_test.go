package gateway

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testRouter(t *testing.T, secret string, handle UpdateHandler) http.Handler {
	t.Helper()
	if handle == nil {
		handle = func(context.Context, Update) error { return nil }
	}
	router, err := NewRouter(secret, slog.Default(), handle)
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	return router
}

func postUpdate(t *testing.T, router http.Handler, secret, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/gateway/updates", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Gateway-Secret", secret)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookDispatchesUpdate(t *testing.T) {
	var got Update
	router := testRouter(t, "s3cret", func(_ context.Context, u Update) error {
		got = u
		return nil
	})

	w := postUpdate(t, router, "s3cret",
		`{"kind":"command","sender_id":123456789,"sender_name":"Ivan","command":"start","argument":"checkin_42_123456789"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got.Kind != UpdateCommand || got.SenderID != 123456789 || got.Command != "start" {
		t.Errorf("dispatched update = %+v", got)
	}
	if got.Argument != "checkin_42_123456789" {
		t.Errorf("Argument = %q", got.Argument)
	}
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	called := false
	router := testRouter(t, "s3cret", func(context.Context, Update) error {
		called = true
		return nil
	})

	w := postUpdate(t, router, "wrong", `{"kind":"command","sender_id":1}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if called {
		t.Error("handler called despite bad secret")
	}
}

func TestWebhookRejectsSchemaViolations(t *testing.T) {
	router := testRouter(t, "", nil)

	for _, body := range []string{
		`{"sender_id":1}`,                             // missing kind
		`{"kind":"command"}`,                          // missing sender_id
		`{"kind":"poke","sender_id":1}`,               // unknown kind
		`{"kind":"command","sender_id":0}`,            // sender_id below minimum
		`{"kind":"command","sender_id":1,"extra":""}`, // unknown field
		`not json`,
	} {
		w := postUpdate(t, router, "", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	router := testRouter(t, "", nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
