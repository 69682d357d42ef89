// Package setup implements the interactive failsafe-relay setup wizard.
package setup

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

const DefaultEnvPath = "/etc/failsafe-relay/env"

// defaultConfigTemplate is written when no config file exists yet.
const defaultConfigTemplate = `# failsafe-relay Configuration
# https://github.com/Fullex26/failsafe-relay

# Plugin messages from any other plugin are ignored.
plugin_id: "TemperatureFailsafe"

# ── Where plugin messages come from ──
source:
  type: "octoprint"
  octoprint:
    url: "http://localhost:5000"
    api_key: "${FAILSAFE_OCTOPRINT_API_KEY}"
    reconnect_delay: "5s"
  nats:
    url: "nats://127.0.0.1:4222"
    subject: "octoprint.plugin"

# ── Notification channels (configure at least one) ──
notifications:
  telegram:
    enabled: false
    bot_token: "${FAILSAFE_TELEGRAM_TOKEN}"
    chat_id: "${FAILSAFE_TELEGRAM_CHAT_ID}"

  ntfy:
    enabled: false
    topic: "failsafe-alerts"
    server: "https://ntfy.sh"
    token: ""

  discord:
    enabled: false
    webhook_url: "${FAILSAFE_DISCORD_WEBHOOK}"

  webhook:
    enabled: false
    url: ""
    method: "POST"

  log:
    enabled: false

# ── Diagnostics ──
diagnostics:
  log_drops: false
  metrics_addr: ""
`

type wizardCreds struct {
	envVars    map[string]string // written to env file
	ntfyTopic  string            // written directly into config (not secret)
	ntfyServer string
	ntfyToken  string
}

type wizardSource struct {
	kind         string // "octoprint" or "nats"
	octoprintURL string
	apiKey       string
	natsURL      string
	natsSubject  string
}

// Run is the entry point for the interactive setup wizard.
func Run(configPath, envPath string) error {
	fmt.Println()
	fmt.Println("🌡️  failsafe-relay Setup")
	fmt.Println("────────────────────────")
	fmt.Println()

	if err := ensureConfig(configPath); err != nil {
		return err
	}

	r := bufio.NewReader(os.Stdin)

	// ── Source ───────────────────────────────────────────────────
	src, err := collectSource(r)
	if err != nil {
		return err
	}

	// ── Notifier ─────────────────────────────────────────────────
	fmt.Println("  Choose a notification channel:")
	fmt.Println("    [1] Telegram")
	fmt.Println("    [2] Discord")
	fmt.Println("    [3] ntfy.sh  (push notifications, no account needed)")
	fmt.Println("    [4] Webhook")
	fmt.Println()
	fmt.Print("  Selection [1]: ")

	var notifier string
	switch readLine(r) {
	case "2":
		notifier = "discord"
	case "3":
		notifier = "ntfy"
	case "4":
		notifier = "webhook"
	default:
		notifier = "telegram"
	}
	fmt.Println()

	// ── Credentials ──────────────────────────────────────────────
	creds, err := collectCredentials(r, notifier)
	if err != nil {
		return err
	}
	if src.apiKey != "" {
		creds.envVars["FAILSAFE_OCTOPRINT_API_KEY"] = src.apiKey
	}

	// ── Write env file ───────────────────────────────────────────
	if len(creds.envVars) > 0 {
		if err := writeEnvFile(envPath, creds.envVars); err != nil {
			return fmt.Errorf("writing env file: %w", err)
		}
		// Set in current process so the test subprocess inherits them
		// (config.Load uses os.ExpandEnv which reads the process environment).
		for k, v := range creds.envVars {
			_ = os.Setenv(k, v)
		}
		fmt.Printf("  ✅ Credentials saved to %s\n", envPath)
	}

	// ── Update config ─────────────────────────────────────────────
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	updated := applySource(string(configData), src)
	updated = applyCredentials(updated, notifier, creds)
	if err := os.WriteFile(configPath, []byte(updated), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("  ✅ Config updated: %s\n", configPath)
	fmt.Println()

	// ── Test notification ─────────────────────────────────────────
	fmt.Print("  Send a test notification? [Y/n]: ")
	if readBool(r, true) {
		fmt.Print("  Sending... ")
		if err := runTest(configPath); err != nil {
			fmt.Printf("\n  ⚠️  Test failed: %v\n", err)
			fmt.Println("  Check your credentials, then retry: sudo failsafe-relay test")
		} else {
			fmt.Println("✅")
		}
	}
	fmt.Println()

	// ── Start service ─────────────────────────────────────────────
	fmt.Print("  Enable and start failsafe-relay service? [Y/n]: ")
	if readBool(r, true) {
		if err := startService(); err != nil {
			fmt.Printf("  ⚠️  %v\n", err)
			fmt.Println("  Start manually: sudo systemctl enable --now failsafe-relay")
		} else {
			fmt.Println("  ✅ Service enabled and started!")
		}
	}

	fmt.Println()
	fmt.Println("✅ Setup complete!")
	fmt.Println("   Try it: failsafe-relay send --msg \"hello from the printer\"")
	fmt.Println()
	return nil
}

// ensureConfig creates the config file from the default template if absent.
func ensureConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := "."
	if i := strings.LastIndexByte(path, '/'); i > 0 {
		dir = path[:i]
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0600); err != nil {
		return fmt.Errorf("creating default config: %w", err)
	}
	fmt.Printf("  Created default config: %s\n\n", path)
	return nil
}

// collectSource asks where plugin messages come from.
func collectSource(r *bufio.Reader) (wizardSource, error) {
	fmt.Println("  Where should plugin messages come from?")
	fmt.Println("    [1] OctoPrint push socket  (recommended)")
	fmt.Println("    [2] NATS subject")
	fmt.Println()
	fmt.Print("  Selection [1]: ")

	if readLine(r) == "2" {
		fmt.Println()
		fmt.Print("  NATS URL     [nats://127.0.0.1:4222]: ")
		u := strings.TrimSpace(readLine(r))
		if u == "" {
			u = "nats://127.0.0.1:4222"
		}
		fmt.Print("  Subject      [octoprint.plugin]: ")
		subject := strings.TrimSpace(readLine(r))
		if subject == "" {
			subject = "octoprint.plugin"
		}
		fmt.Println()
		return wizardSource{kind: "nats", natsURL: u, natsSubject: subject}, nil
	}

	fmt.Println()
	fmt.Println("  OctoPrint")
	fmt.Println("  ──────────────────────────────────────────────────────────")
	fmt.Println("  Settings → Application Keys → generate a key for failsafe-relay")
	fmt.Println()
	fmt.Print("  OctoPrint URL [http://localhost:5000]: ")
	u := strings.TrimSpace(readLine(r))
	if u == "" {
		u = "http://localhost:5000"
	}
	key, err := readMasked(r, "  API key: ")
	if err != nil {
		return wizardSource{}, err
	}
	fmt.Println()
	return wizardSource{kind: "octoprint", octoprintURL: u, apiKey: strings.TrimSpace(key)}, nil
}

// applySource writes the source selection into the config YAML.
func applySource(cfg string, s wizardSource) string {
	switch s.kind {
	case "nats":
		cfg = strings.Replace(cfg, `  type: "octoprint"`, `  type: "nats"`, 1)
		cfg = setInBlock(cfg, "nats", `    url: "nats://127.0.0.1:4222"`, fmt.Sprintf(`    url: "%s"`, s.natsURL))
		cfg = setInBlock(cfg, "nats", `    subject: "octoprint.plugin"`, fmt.Sprintf(`    subject: "%s"`, s.natsSubject))
	case "octoprint":
		cfg = setInBlock(cfg, "octoprint", `    url: "http://localhost:5000"`, fmt.Sprintf(`    url: "%s"`, s.octoprintURL))
	}
	return cfg
}

// collectCredentials prompts for notifier-specific secrets.
func collectCredentials(r *bufio.Reader, notifier string) (wizardCreds, error) {
	c := wizardCreds{envVars: make(map[string]string)}

	switch notifier {
	case "telegram":
		fmt.Println("  Telegram")
		fmt.Println("  ──────────────────────────────────────────────────────────")
		fmt.Println("  1. Open Telegram and message @BotFather → /newbot")
		fmt.Println("  2. Get your Chat ID by messaging @userinfobot")
		fmt.Println()

		token, err := readMasked(r, "  Bot token:  ")
		if err != nil {
			return c, err
		}
		fmt.Print("  Chat ID:    ")
		chatID := readLine(r)
		c.envVars["FAILSAFE_TELEGRAM_TOKEN"] = strings.TrimSpace(token)
		c.envVars["FAILSAFE_TELEGRAM_CHAT_ID"] = strings.TrimSpace(chatID)

	case "discord":
		fmt.Println("  Discord")
		fmt.Println("  ──────────────────────────────────────────────────────────")
		fmt.Println("  Server Settings → Integrations → Webhooks → New Webhook")
		fmt.Println()

		u, err := readMasked(r, "  Webhook URL: ")
		if err != nil {
			return c, err
		}
		c.envVars["FAILSAFE_DISCORD_WEBHOOK"] = strings.TrimSpace(u)

	case "ntfy":
		fmt.Println("  ntfy.sh")
		fmt.Println("  ──────────────────────────────────────────────────────────")
		fmt.Println("  Subscribe to your topic in the ntfy app to receive alerts.")
		fmt.Println()

		fmt.Print("  Topic name [failsafe-alerts]: ")
		topic := strings.TrimSpace(readLine(r))
		if topic == "" {
			topic = "failsafe-alerts"
		}
		fmt.Print("  Server     [https://ntfy.sh]: ")
		server := strings.TrimSpace(readLine(r))
		if server == "" {
			server = "https://ntfy.sh"
		}
		token, err := readMasked(r, "  Access token (optional, Enter to skip): ")
		if err != nil {
			return c, err
		}
		c.ntfyTopic = topic
		c.ntfyServer = server
		c.ntfyToken = strings.TrimSpace(token)

	case "webhook":
		fmt.Println("  Webhook")
		fmt.Println("  ──────────────────────────────────────────────────────────")
		fmt.Println("  failsafe-relay will POST each notification as JSON to this URL.")
		fmt.Println()

		u, err := readMasked(r, "  URL: ")
		if err != nil {
			return c, err
		}
		c.envVars["FAILSAFE_WEBHOOK_URL"] = strings.TrimSpace(u)
	}

	fmt.Println()
	return c, nil
}

// applyCredentials updates the config YAML for the selected notifier.
func applyCredentials(cfg, notifier string, c wizardCreds) string {
	cfg = setInBlock(cfg, notifier, "    enabled: false", "    enabled: true")

	switch notifier {
	case "ntfy":
		cfg = setInBlock(cfg, "ntfy", `    topic: "failsafe-alerts"`, fmt.Sprintf(`    topic: "%s"`, c.ntfyTopic))
		cfg = setInBlock(cfg, "ntfy", `    server: "https://ntfy.sh"`, fmt.Sprintf(`    server: "%s"`, c.ntfyServer))
		if c.ntfyToken != "" {
			cfg = setInBlock(cfg, "ntfy", `    token: ""`, fmt.Sprintf(`    token: "%s"`, c.ntfyToken))
		}
	case "webhook":
		// Set the env-var placeholder so config.Load expands it at runtime.
		cfg = setInBlock(cfg, "webhook", `    url: ""`, `    url: "${FAILSAFE_WEBHOOK_URL}"`)
	}

	return cfg
}

// setInBlock replaces old with replacement within the YAML block that begins
// with "  {name}:\n". The block ends at the first non-empty line whose
// indentation is less than 4 spaces (i.e. a sibling or parent key).
func setInBlock(cfg, name, old, replacement string) string {
	marker := "  " + name + ":\n"
	idx := strings.Index(cfg, marker)
	if idx == -1 {
		return cfg
	}

	after := cfg[idx+len(marker):]

	// Walk lines to find the end of this block.
	end := len(after)
	pos := 0
	for pos < len(after) {
		nl := strings.IndexByte(after[pos:], '\n')
		if nl == -1 {
			break
		}
		line := after[pos : pos+nl]
		if len(line) > 0 && !strings.HasPrefix(line, "    ") {
			end = pos
			break
		}
		pos += nl + 1
	}

	block := strings.Replace(after[:end], old, replacement, 1)
	return cfg[:idx+len(marker)] + block + after[end:]
}

// writeEnvFile writes KEY=value pairs to path (one per line, mode 0600).
func writeEnvFile(path string, vars map[string]string) error {
	var sb strings.Builder
	for k, v := range vars {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(v)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0600)
}

// runTest invokes the current binary's "test" subcommand to verify notifiers.
// The child process inherits the parent's environment, so any os.Setenv calls
// made before this are visible to config.Load → os.ExpandEnv.
func runTest(configPath string) error {
	self, err := os.Executable()
	if err != nil {
		self = "failsafe-relay"
	}
	cmd := exec.Command(self, "--config", configPath, "test")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// startService enables and starts the failsafe-relay systemd service.
func startService() error {
	out, err := exec.Command("systemctl", "enable", "--now", "failsafe-relay").CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// readLine reads one line from r, stripping the trailing newline.
func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// readMasked reads a secret without echoing characters when stdin is a TTY.
// Falls back to plain line reading for non-interactive contexts (pipes, CI).
func readMasked(r *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return string(b), nil
	}
	return readLine(r), nil
}

// readBool parses a y/n response; returns defaultVal on empty input.
func readBool(r *bufio.Reader, defaultVal bool) bool {
	line := strings.ToLower(strings.TrimSpace(readLine(r)))
	if line == "" {
		return defaultVal
	}
	return line == "y" || line == "yes"
}
