package notifiers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Fullex26/failsafe-relay/internal/config"
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Discord sends notifications via Discord webhooks
type Discord struct {
	webhookURL string
	client     *http.Client
}

func NewDiscord(cfg config.DiscordConfig) *Discord {
	return &Discord{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{},
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Notify(req models.NotificationRequest) error {
	color := 0xf39c12 // orange
	if req.Severity == models.SeverityError {
		color = 0xe74c3c // red
	}

	embed := map[string]interface{}{
		"title":       fmt.Sprintf("%s %s", req.Severity.Emoji(), req.Title),
		"description": req.Text,
		"color":       color,
	}

	payload := map[string]interface{}{
		"embeds": []interface{}{embed},
	}

	return d.sendJSON(payload)
}

func (d *Discord) Test() error {
	payload := map[string]string{
		"content": "🌡️ **failsafe-relay**: Test notification\n\nIf you see this, failsafe-relay is connected!",
	}
	return d.sendJSON(payload)
}

func (d *Discord) sendJSON(payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("discord send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord returned status %d", resp.StatusCode)
	}
	return nil
}
