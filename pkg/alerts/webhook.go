package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Notifier delivers a newly-firing high/critical alert to an external
// receiver (spec.md §4.7 step 5; §6 names only a generic outbound webhook,
// not a Slack-specific integration).
type Notifier interface {
	Notify(ctx context.Context, event *models.AlertEvent) error
}

// webhookPayload is the JSON body posted to the configured URL.
type webhookPayload struct {
	TenantID  string               `json:"tenant_id"`
	SiteID    string               `json:"site_id"`
	AlertCode string               `json:"alert_code"`
	Severity  models.AlertSeverity `json:"severity"`
	DedupKey  string               `json:"dedup_key"`
	FirstSeen time.Time            `json:"first_seen_at"`
	Context   map[string]any       `json:"context"`
}

// WebhookNotifier posts a JSON payload to a single configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier builds a WebhookNotifier posting to url with a bounded
// per-call timeout.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: timeout}}
}

// Notify POSTs the alert event as JSON, treating any non-2xx response as an
// error so the caller does not mark webhook_sent on a failed delivery.
func (n *WebhookNotifier) Notify(ctx context.Context, event *models.AlertEvent) error {
	body, err := json.Marshal(webhookPayload{
		TenantID:  event.TenantID,
		SiteID:    event.SiteID,
		AlertCode: event.AlertCode,
		Severity:  event.Severity,
		DedupKey:  event.DedupKey,
		FirstSeen: event.FirstSeenAt,
		Context:   event.Context,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook receiver returned status %d", resp.StatusCode)
	}
	return nil
}
