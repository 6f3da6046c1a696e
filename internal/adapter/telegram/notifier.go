// Package telegram implements a notifier.Notifier for the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/loopkit/linearbridge/internal/port/notifier"
)

const providerName = "telegram"

// DefaultAPIURL is the Telegram Bot API root.
const DefaultAPIURL = "https://api.telegram.org"

func init() {
	notifier.Register(providerName, func(config map[string]string) (notifier.Notifier, error) {
		n := NewNotifier(config["bot_token"], config["chat_id"])
		if config["api_url"] != "" {
			n.apiURL = config["api_url"]
		}
		return n, nil
	})
}

// Notifier sends notifications to a Telegram chat via the bot sendMessage API.
type Notifier struct {
	apiURL     string
	botToken   string
	chatID     string
	httpClient *http.Client
}

// NewNotifier creates a Telegram notifier for the given bot token and chat.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		apiURL:     DefaultAPIURL,
		botToken:   botToken,
		chatID:     chatID,
		httpClient: http.DefaultClient,
	}
}

func (n *Notifier) Name() string { return providerName }

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *Notifier) Send(ctx context.Context, notification notifier.Notification) error {
	if n.botToken == "" || n.chatID == "" {
		return notifier.ErrNotConfigured
	}

	text := levelEmoji(notification.Level) + " <b>" + escapeHTML(notification.Title) + "</b>\n" +
		escapeHTML(notification.Message)
	if notification.Source != "" {
		text += "\n<i>" + escapeHTML(notification.Source) + "</i>"
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("telegram marshal: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram API %d: %s", resp.StatusCode, string(data))
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("telegram unmarshal: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram API: %s", parsed.Description)
	}
	return nil
}

// levelEmoji maps notification levels to a leading marker.
func levelEmoji(level string) string {
	switch level {
	case "success":
		return "✅"
	case "error":
		return "❌"
	case "warning":
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// escapeHTML escapes the characters Telegram's HTML parse mode reserves.
func escapeHTML(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
