package notification

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// webhookSource identifies the engine in every webhook payload.
const webhookSource = "indengine"

type webhookPayload struct {
	Source  string     `json:"source"`
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	TS      string     `json:"ts"`
}

// WebhookNotifier POSTs alerts as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	poster
	url string
	now func() time.Time
}

// NewWebhookNotifier creates a webhook notifier for url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{poster: newPoster("webhook"), url: url, now: time.Now}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	err := w.postJSON(ctx, w.url, webhookPayload{
		Source:  webhookSource,
		Level:   alert.Level,
		Title:   alert.Title,
		Message: alert.Message,
		TS:      w.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"component": "notify", "channel": "webhook", "title": alert.Title}).Debug("alert delivered")
	return nil
}
