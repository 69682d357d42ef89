package notifiers

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/Fullex26/failsafe-relay/internal/config"
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

const telegramAPI = "https://api.telegram.org/bot%s/sendMessage"

// Telegram sends notifications via Telegram Bot API
type Telegram struct {
	token  string
	chatID string
	client *http.Client
}

func NewTelegram(cfg config.TelegramConfig) *Telegram {
	return &Telegram{
		token:  cfg.BotToken,
		chatID: cfg.ChatID,
		client: &http.Client{},
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(req models.NotificationRequest) error {
	return t.send(t.formatRequest(req))
}

func (t *Telegram) Test() error {
	return t.send("🌡️ <b>failsafe-relay</b>: Test notification\n\nIf you see this, failsafe-relay is connected!")
}

func (t *Telegram) send(text string) error {
	apiURL := fmt.Sprintf(telegramAPI, t.token)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("parse_mode", "HTML")
	data.Set("text", text)

	resp, err := t.client.PostForm(apiURL, data)
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// Telegram messages stay in the chat, so AutoDismiss has nothing to map to.
func (t *Telegram) formatRequest(req models.NotificationRequest) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n\n", req.Severity.Emoji(), html.EscapeString(req.Title)))
	b.WriteString(html.EscapeString(req.Text))

	return b.String()
}
