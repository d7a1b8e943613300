package notification

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
)

const telegramAPI = "https://api.telegram.org"

var levelTags = map[AlertLevel]string{
	AlertInfo:     "[info]",
	AlertWarning:  "[warning]",
	AlertCritical: "[critical]",
}

// markdownEscaper escapes the MarkdownV2 reserved characters.
var markdownEscaper = strings.NewReplacer(
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// TelegramNotifier sends alerts through the Telegram Bot API.
type TelegramNotifier struct {
	poster
	apiBase  string
	botToken string
	chatID   string
}

// NewTelegramNotifier creates a notifier posting to chatID as the bot
// identified by botToken.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		poster:   newPoster("telegram"),
		apiBase:  telegramAPI,
		botToken: botToken,
		chatID:   chatID,
	}
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	msg := telegramMessage{ChatID: t.chatID, Text: formatTelegram(alert), ParseMode: "MarkdownV2"}
	if err := t.postJSON(ctx, t.apiBase+"/bot"+t.botToken+"/sendMessage", msg); err != nil {
		return err
	}
	log.WithFields(log.Fields{"component": "notify", "channel": "telegram", "title": alert.Title}).Debug("alert delivered")
	return nil
}

// formatTelegram renders a tagged bold title followed by the message body.
func formatTelegram(alert Alert) string {
	tag, ok := levelTags[alert.Level]
	if !ok {
		tag = levelTags[AlertInfo]
	}
	var b strings.Builder
	b.WriteString(escapeMarkdown(tag))
	b.WriteString(" *")
	b.WriteString(escapeMarkdown(alert.Title))
	b.WriteString("*\n\n")
	b.WriteString(escapeMarkdown(alert.Message))
	return b.String()
}

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }
