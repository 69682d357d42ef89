package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Fullex26/failsafe-relay/pkg/models"
)

const DefaultConfigPath = "/etc/failsafe-relay/config.yaml"

const (
	SourceOctoPrint = "octoprint"
	SourceNATS      = "nats"
)

type Config struct {
	PluginID      string             `yaml:"plugin_id"`
	Source        SourceConfig       `yaml:"source"`
	Notifications NotificationConfig `yaml:"notifications"`
	Diagnostics   DiagnosticsConfig  `yaml:"diagnostics"`
}

type SourceConfig struct {
	Type      string          `yaml:"type"`
	OctoPrint OctoPrintConfig `yaml:"octoprint"`
	NATS      NATSConfig      `yaml:"nats"`
}

type OctoPrintConfig struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	ReconnectDelay string `yaml:"reconnect_delay"` // default: "5s"
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Ntfy     NtfyConfig     `yaml:"ntfy"`
	Discord  DiscordConfig  `yaml:"discord"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Log      LogConfig      `yaml:"log"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

type NtfyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Topic   string `yaml:"topic"`
	Server  string `yaml:"server"`
	Token   string `yaml:"token"`
}

type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Method  string `yaml:"method"`
}

// LogConfig writes notifications to the process log
type LogConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DiagnosticsConfig struct {
	LogDrops    bool   `yaml:"log_drops"`    // debug-log dropped messages
	MetricsAddr string `yaml:"metrics_addr"` // e.g. ":9465", empty disables /metrics
}

// Load reads and parses the config file, expanding env vars
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in config
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns sane defaults
func DefaultConfig() *Config {
	return &Config{
		PluginID: models.PluginIdentifier,
		Source: SourceConfig{
			Type: SourceOctoPrint,
			OctoPrint: OctoPrintConfig{
				URL:            "http://localhost:5000",
				ReconnectDelay: "5s",
			},
			NATS: NATSConfig{
				URL:     "nats://127.0.0.1:4222",
				Subject: "octoprint.plugin",
			},
		},
		Notifications: NotificationConfig{
			Ntfy:    NtfyConfig{Server: "https://ntfy.sh"},
			Webhook: WebhookConfig{Method: "POST"},
		},
	}
}

// Validate checks the config for errors
func (c *Config) Validate() error {
	if c.PluginID == "" {
		return fmt.Errorf("plugin_id must not be empty")
	}

	if !c.HasNotifier() {
		return fmt.Errorf("at least one notification channel must be enabled")
	}

	if c.Notifications.Telegram.Enabled {
		if c.Notifications.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot_token is required when telegram is enabled")
		}
		if c.Notifications.Telegram.ChatID == "" {
			return fmt.Errorf("telegram chat_id is required when telegram is enabled")
		}
	}

	if c.Notifications.Ntfy.Enabled && c.Notifications.Ntfy.Topic == "" {
		return fmt.Errorf("ntfy topic is required when ntfy is enabled")
	}
	if c.Notifications.Discord.Enabled && c.Notifications.Discord.WebhookURL == "" {
		return fmt.Errorf("discord webhook_url is required when discord is enabled")
	}
	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return fmt.Errorf("webhook url is required when webhook is enabled")
	}

	switch strings.ToLower(c.Source.Type) {
	case SourceOctoPrint:
		if c.Source.OctoPrint.URL == "" {
			return fmt.Errorf("octoprint url is required")
		}
		if c.Source.OctoPrint.APIKey == "" {
			return fmt.Errorf("octoprint api_key is required")
		}
		if _, err := time.ParseDuration(c.Source.OctoPrint.ReconnectDelay); err != nil {
			return fmt.Errorf("invalid octoprint reconnect_delay %q: %w", c.Source.OctoPrint.ReconnectDelay, err)
		}
	case SourceNATS:
		if c.Source.NATS.URL == "" {
			return fmt.Errorf("nats url is required")
		}
		if c.Source.NATS.Subject == "" {
			return fmt.Errorf("nats subject is required")
		}
	default:
		return fmt.Errorf("invalid source type: %s (must be octoprint or nats)", c.Source.Type)
	}

	return nil
}

// HasNotifier returns whether at least one notifier is configured
func (c *Config) HasNotifier() bool {
	return c.Notifications.Telegram.Enabled ||
		c.Notifications.Ntfy.Enabled ||
		c.Notifications.Discord.Enabled ||
		c.Notifications.Webhook.Enabled ||
		c.Notifications.Log.Enabled
}

// ReconnectDelay returns the parsed octoprint reconnect delay, 5s if unset or invalid
func (c *Config) ReconnectDelay() time.Duration {
	d, err := time.ParseDuration(c.Source.OctoPrint.ReconnectDelay)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
