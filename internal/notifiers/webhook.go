package notifiers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Fullex26/failsafe-relay/internal/config"
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Webhook sends notification requests as JSON to a generic HTTP endpoint
type Webhook struct {
	url    string
	method string
	client *http.Client
}

func NewWebhook(cfg config.WebhookConfig) *Webhook {
	method := cfg.Method
	if method == "" {
		method = "POST"
	}
	return &Webhook{
		url:    cfg.URL,
		method: method,
		client: &http.Client{},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Notify(req models.NotificationRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return w.send(data)
}

func (w *Webhook) Test() error {
	data, err := json.Marshal(map[string]string{"message": "failsafe-relay test notification"})
	if err != nil {
		return err
	}
	return w.send(data)
}

func (w *Webhook) send(data []byte) error {
	req, err := http.NewRequest(w.method, w.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "failsafe-relay/0.1")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
