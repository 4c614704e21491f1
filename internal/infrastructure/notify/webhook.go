package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/obralink/portal-pagos/internal/application/port"
)

type webhookPayload struct {
	StatementID string `json:"statement_id"`
	Recipient   string `json:"recipient"`
	Template    string `json:"template"`
	Content     string `json:"content"`
}

// WebhookNotifier delivers notifications as JSON posts to a relay endpoint.
// The relay handles the actual email fan-out.
type WebhookNotifier struct {
	url       string
	client    *http.Client
	templates *TemplateSet
	logger    *zap.Logger
}

// WebhookOption configures the notifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		if client != nil {
			n.client = client
		}
	}
}

// NewWebhookNotifier constructs a webhook-backed notifier.
func NewWebhookNotifier(url string, templates *TemplateSet, logger *zap.Logger, opts ...WebhookOption) (*WebhookNotifier, error) {
	if url == "" {
		return nil, errors.New("webhook notifier: empty url")
	}
	if templates == nil {
		var err error
		templates, err = NewTemplateSet(nil)
		if err != nil {
			return nil, err
		}
	}
	n := &WebhookNotifier{
		url:       url,
		client:    &http.Client{Timeout: 10 * time.Second},
		templates: templates,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Send renders the notification body and posts it to the relay.
func (n *WebhookNotifier) Send(ctx context.Context, notification port.Notification) error {
	content, err := n.templates.Render(notification.TemplateKind, notification.Context)
	if err != nil {
		return err
	}

	body, err := json.Marshal(webhookPayload{
		StatementID: notification.StatementID,
		Recipient:   notification.RecipientEmail,
		Template:    string(notification.TemplateKind),
		Content:     content,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("Webhook delivery failed",
			zap.String("recipient", notification.RecipientEmail),
			zap.Error(err))
		return fmt.Errorf("webhook notifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Error("Webhook relay rejected notification",
			zap.String("recipient", notification.RecipientEmail),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("webhook notifier: non-2xx response %d", resp.StatusCode)
	}
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*WebhookNotifier)(nil)
