package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Fullex26/failsafe-relay/internal/config"
	"github.com/Fullex26/failsafe-relay/internal/diagnostics"
	"github.com/Fullex26/failsafe-relay/internal/eventbus"
	"github.com/Fullex26/failsafe-relay/internal/notifiers"
	"github.com/Fullex26/failsafe-relay/internal/relay"
	"github.com/Fullex26/failsafe-relay/internal/sources"
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Version is set at build time via ldflags: -X github.com/Fullex26/failsafe-relay/internal/daemon.Version=<tag>
var Version = "dev"

// Daemon is the main failsafe-relay process
type Daemon struct {
	cfg      *config.Config
	bus      *eventbus.Bus
	source   sources.Source
	surfaces *notifiers.Multi
	router   *relay.Router
	registry *prometheus.Registry
}

// New creates a new daemon instance
func New(cfg *config.Config) (*Daemon, error) {
	bus := eventbus.New()

	source, err := sources.New(cfg, bus)
	if err != nil {
		return nil, fmt.Errorf("creating source: %w", err)
	}

	d := &Daemon{
		cfg:      cfg,
		bus:      bus,
		source:   source,
		surfaces: notifiers.NewMulti(buildNotifiers(cfg)...),
	}

	var diags diagnostics.Fanout
	if cfg.Diagnostics.LogDrops {
		diags = append(diags, diagnostics.NewLogger(slog.Default()))
	}
	if cfg.Diagnostics.MetricsAddr != "" {
		d.registry = prometheus.NewRegistry()
		m, err := diagnostics.NewMetrics(d.registry)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		diags = append(diags, m)
	}

	opts := []relay.Option{relay.WithPluginID(cfg.PluginID)}
	if len(diags) > 0 {
		opts = append(opts, relay.WithDiagnostics(diags))
	}
	d.router = relay.New(d.surfaces, opts...)

	// Registered once for the life of the process
	bus.Subscribe(d.handleEvent)

	return d, nil
}

func buildNotifiers(cfg *config.Config) []notifiers.Notifier {
	var ns []notifiers.Notifier
	if cfg.Notifications.Telegram.Enabled {
		ns = append(ns, notifiers.NewTelegram(cfg.Notifications.Telegram))
	}
	if cfg.Notifications.Ntfy.Enabled {
		ns = append(ns, notifiers.NewNtfy(cfg.Notifications.Ntfy))
	}
	if cfg.Notifications.Discord.Enabled {
		ns = append(ns, notifiers.NewDiscord(cfg.Notifications.Discord))
	}
	if cfg.Notifications.Webhook.Enabled {
		ns = append(ns, notifiers.NewWebhook(cfg.Notifications.Webhook))
	}
	if cfg.Notifications.Log.Enabled {
		ns = append(ns, notifiers.NewLog(slog.Default()))
	}
	return ns
}

// Run starts the daemon and blocks until interrupted
func (d *Daemon) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return d.RunContext(ctx)
}

// RunContext runs the source (and metrics server) until ctx is cancelled
func (d *Daemon) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var sourceErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("starting source", "name", d.source.Name())
		if err := d.source.Start(ctx); err != nil {
			slog.Error("source failed", "name", d.source.Name(), "error", err)
			sourceErr = err
			cancel()
		}
	}()

	if d.registry != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := diagnostics.Serve(ctx, d.cfg.Diagnostics.MetricsAddr, d.registry); err != nil {
				slog.Error("metrics server failed", "addr", d.cfg.Diagnostics.MetricsAddr, "error", err)
			}
		}()
	}

	hostname, _ := os.Hostname()
	slog.Info("failsafe-relay started",
		"version", Version,
		"hostname", hostname,
		"plugin_id", d.router.PluginID(),
		"source", d.source.Name(),
		"notifiers", len(d.surfaces.Notifiers()),
	)

	<-ctx.Done()
	slog.Info("shutting down...")
	wg.Wait()

	_ = d.source.Stop()

	// sourceErr is only written before wg.Done
	if sourceErr != nil {
		return fmt.Errorf("source %s: %w", d.source.Name(), sourceErr)
	}
	slog.Info("failsafe-relay stopped")
	return nil
}

func (d *Daemon) handleEvent(event models.InboundEvent) {
	if err := d.router.Handle(event); err != nil {
		slog.Error("notification failed", "origin", event.Origin, "error", err)
	}
}

// Deliver hands one event straight to the router and returns the render error, if any
func (d *Daemon) Deliver(event models.InboundEvent) error {
	return d.router.Handle(event)
}

// TestNotifiers sends a test message to all configured notifiers
func (d *Daemon) TestNotifiers() error {
	return d.surfaces.Test()
}
