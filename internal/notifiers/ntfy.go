package notifiers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Fullex26/failsafe-relay/internal/config"
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Ntfy sends notifications via ntfy.sh
type Ntfy struct {
	server string
	topic  string
	token  string
	client *http.Client
}

func NewNtfy(cfg config.NtfyConfig) *Ntfy {
	server := cfg.Server
	if server == "" {
		server = "https://ntfy.sh"
	}
	return &Ntfy{
		server: server,
		topic:  cfg.Topic,
		token:  cfg.Token,
		client: &http.Client{},
	}
}

func (n *Ntfy) Name() string { return "ntfy" }

func (n *Ntfy) Notify(req models.NotificationRequest) error {
	priority := "default"
	tags := []string{"thermometer"}
	if req.Severity == models.SeverityError {
		priority = "urgent"
		tags = []string{"rotating_light", "thermometer"}
	}
	if !req.AutoDismiss {
		tags = append(tags, "sticky")
	}

	return n.send(req.Title, req.Text, priority, strings.Join(tags, ","))
}

func (n *Ntfy) Test() error {
	return n.send("failsafe-relay", "Test notification: failsafe-relay is connected!", "default", "white_check_mark")
}

func (n *Ntfy) send(title, body, priority, tags string) error {
	url := fmt.Sprintf("%s/%s", n.server, n.topic)
	req, err := http.NewRequest("POST", url, strings.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}
