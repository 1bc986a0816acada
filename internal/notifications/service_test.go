package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"adforge/internal/config"
	"adforge/internal/notifications"
)

func TestNewServiceReturnsNoopWhenWebhookMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Webhook.URL = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyAccountBlocked(context.Background(), "100", "suspended"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestWebhookServiceFormatsContent(t *testing.T) {
	var contents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("payload not json: %v", err)
		}
		contents = append(contents, payload["content"])
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Webhook.URL = server.URL
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyRunStarted(ctx, "run-1", 12); err != nil {
		t.Fatalf("run started: %v", err)
	}
	if err := svc.NotifyRunCompleted(ctx, "run-1", 10, 28, 2, 90*time.Second); err != nil {
		t.Fatalf("run completed: %v", err)
	}
	if err := svc.NotifyAccountBlocked(ctx, "100", "authorization rejected"); err != nil {
		t.Fatalf("account blocked: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("boom"), "site acme"); err != nil {
		t.Fatalf("notify error: %v", err)
	}

	want := []string{
		"Run run-1 started: 12 rows selected",
		"Run run-1 complete: 10 ad groups processed, 28 creatives uploaded, 2 rows skipped in 1m30s",
		"Account 100 blocked: authorization rejected",
		"Error with site acme: boom",
	}
	if len(contents) != len(want) {
		t.Fatalf("messages = %d, want %d", len(contents), len(want))
	}
	for i := range want {
		if contents[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, contents[i], want[i])
		}
	}
}

func TestWebhookServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Webhook.URL = server.URL
	svc := notifications.NewService(&cfg)

	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from webhook failure")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry status, got %v", err)
	}
}
