package slack

import (
	"context"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// Notifier delivers firing alert events to a Slack channel. It implements
// pkg/alerts.Notifier as an alternative to WebhookNotifier.
type Notifier struct {
	client  *Client
	timeout time.Duration
}

// NewNotifier builds a Slack-backed alerts.Notifier. Returns nil if token or
// channel is empty, so callers can wire it unconditionally and fall back to
// the webhook notifier when Slack isn't configured.
func NewNotifier(token, channel string, timeout time.Duration) *Notifier {
	if token == "" || channel == "" {
		return nil
	}
	return &Notifier{client: NewClient(token, channel), timeout: timeout}
}

// Notify posts the alert event as a Block Kit message. Errors are returned
// (not swallowed) so the caller does not mark webhook_sent on a failed post.
func (n *Notifier) Notify(ctx context.Context, event *models.AlertEvent) error {
	return n.client.PostMessage(ctx, BuildAlertMessage(event), n.timeout)
}
