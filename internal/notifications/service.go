package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adforge/internal/config"
)

const userAgent = "Adforge-Go/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunStarted(ctx context.Context, runID string, rows int) error
	NotifyRunCompleted(ctx context.Context, runID string, processed, uploaded, skipped int, duration time.Duration) error
	NotifyAccountBlocked(ctx context.Context, accountID, reason string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by the configured
// webhook. When no webhook URL is configured, a noop implementation is
// returned.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.Webhook.URL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Webhook.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Noop returns a service that discards every event.
func Noop() Service {
	return noopService{}
}

type webhookService struct {
	endpoint string
	client   *http.Client
}

func (w *webhookService) NotifyRunStarted(ctx context.Context, runID string, rows int) error {
	return w.send(ctx, fmt.Sprintf("Run %s started: %d rows selected", runID, rows))
}

func (w *webhookService) NotifyRunCompleted(ctx context.Context, runID string, processed, uploaded, skipped int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	return w.send(ctx, fmt.Sprintf("Run %s complete: %d ad groups processed, %d creatives uploaded, %d rows skipped in %s",
		runID, processed, uploaded, skipped, duration))
}

func (w *webhookService) NotifyAccountBlocked(ctx context.Context, accountID, reason string) error {
	accountID = strings.TrimSpace(accountID)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	return w.send(ctx, fmt.Sprintf("Account %s blocked: %s", accountID, reason))
}

func (w *webhookService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return w.send(ctx, builder.String())
}

func (w *webhookService) TestNotification(ctx context.Context) error {
	return w.send(ctx, "Notification system test")
}

func (w *webhookService) send(ctx context.Context, content string) error {
	if w == nil || w.client == nil {
		return nil
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, int) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, string, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyAccountBlocked(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
