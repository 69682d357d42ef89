package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Fullex26/failsafe-relay/internal/config"
	"github.com/Fullex26/failsafe-relay/internal/eventbus"
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

const octoprintSocketPath = "/sockjs/websocket"

// OctoPrint follows the OctoPrint push socket and publishes every plugin
// message it carries. Filtering by plugin happens downstream.
type OctoPrint struct {
	Base
	baseURL        string
	apiKey         string
	reconnectDelay time.Duration
	client         *http.Client
	dialer         *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewOctoPrint(cfg *config.Config, bus *eventbus.Bus) *OctoPrint {
	return &OctoPrint{
		Base:           Base{Cfg: cfg, Bus: bus},
		baseURL:        strings.TrimRight(cfg.Source.OctoPrint.URL, "/"),
		apiKey:         cfg.Source.OctoPrint.APIKey,
		reconnectDelay: cfg.ReconnectDelay(),
		client:         &http.Client{Timeout: 10 * time.Second},
		dialer:         websocket.DefaultDialer,
	}
}

func (s *OctoPrint) Name() string { return "octoprint" }

func (s *OctoPrint) Start(ctx context.Context) error {
	slog.Info("starting octoprint source", "url", s.baseURL)

	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("octoprint socket disconnected", "error", err, "retry_in", s.reconnectDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *OctoPrint) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// session logs in, opens the socket and reads until it fails or ctx ends
func (s *OctoPrint) session(ctx context.Context) error {
	auth, err := s.login(ctx)
	if err != nil {
		return err
	}

	wsURL, err := socketURL(s.baseURL)
	if err != nil {
		return err
	}

	conn, _, err := s.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", wsURL, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer s.Stop()

	// unblock ReadMessage on shutdown
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-done:
		}
	}()

	if err := conn.WriteJSON(map[string]string{"auth": auth}); err != nil {
		return fmt.Errorf("sending auth: %w", err)
	}
	slog.Info("octoprint socket connected", "url", wsURL)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading socket: %w", err)
		}
		s.handleFrame(data)
	}
}

// login performs a passive API-key login and returns the "name:session" socket auth token
func (s *OctoPrint) login(ctx context.Context) (string, error) {
	body, _ := json.Marshal(map[string]bool{"passive": true})
	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("octoprint login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("octoprint login returned status %d", resp.StatusCode)
	}

	var result struct {
		Name    string `json:"name"`
		Session string `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	if result.Name == "" || result.Session == "" {
		return "", fmt.Errorf("octoprint login response missing name or session")
	}
	return result.Name + ":" + result.Session, nil
}

// handleFrame publishes the plugin message in a socket frame, if any.
// Frames look like {"plugin": {"plugin": "<id>", "data": {...}}}; other
// top-level keys (connected, current, history, event...) are ignored.
func (s *OctoPrint) handleFrame(data []byte) {
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		slog.Debug("skipping non-object frame", "error", err)
		return
	}

	raw, ok := frame["plugin"]
	if !ok {
		return
	}

	event, err := models.DecodeInbound(raw)
	if err != nil {
		slog.Warn("skipping malformed plugin message", "error", err)
		return
	}
	s.Bus.Publish(event)
}

// socketURL maps http(s)://host/prefix to ws(s)://host/prefix/sockjs/websocket
func socketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing octoprint url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported octoprint url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + octoprintSocketPath
	return u.String(), nil
}
