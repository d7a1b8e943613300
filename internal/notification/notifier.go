// Package notification delivers operational alerts, such as the Redis
// publisher going offline, to external channels.
package notification

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the log.
type LogNotifier struct {
	log *log.Entry
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: log.WithField("component", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	e := n.log.WithFields(log.Fields{"level_name": alert.Level, "title": alert.Title})
	switch alert.Level {
	case AlertCritical:
		e.Error(alert.Message)
	case AlertWarning:
		e.Warn(alert.Message)
	default:
		e.Info(alert.Message)
	}
	return nil
}

// Multi sends every alert to all of its notifiers.
type Multi []Notifier

// Send delivers alert to every notifier and combines their errors.
func (m Multi) Send(ctx context.Context, alert Alert) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.Send(ctx, alert))
	}
	return err
}

// Config selects the alert channels. Empty fields disable a channel.
type Config struct {
	WebhookURL     string
	TelegramToken  string
	TelegramChatID string
}

// New returns a notifier that logs every alert and also forwards it to each
// configured channel.
func New(cfg Config) Notifier {
	m := Multi{NewLogNotifier()}
	if cfg.WebhookURL != "" {
		m = append(m, NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		m = append(m, NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID))
	}
	return m
}
