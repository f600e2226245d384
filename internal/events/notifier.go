// Package events delivers content.statusChanged notifications to the
// external real-time subscription layer.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/brandforge-ai/brandforge/internal/domain"
)

// WebhookNotifier POSTs status events to a configured endpoint.
// Delivery is best-effort: the pipeline has already committed its
// write by the time an event is emitted.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates a notifier for the given webhook URL.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NotifyStatusChanged implements the pipeline's StatusNotifier port.
func (n *WebhookNotifier) NotifyStatusChanged(ctx context.Context, event domain.StatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier writes status events to the process log. Used when no
// webhook is configured.
type LogNotifier struct{}

// NotifyStatusChanged implements the pipeline's StatusNotifier port.
func (LogNotifier) NotifyStatusChanged(_ context.Context, event domain.StatusEvent) error {
	log.Printf("content.statusChanged: content=%s status=%s", event.ContentID, event.Status)
	return nil
}
