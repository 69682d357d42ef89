// Package diagnostics provides optional observers for relay decisions.
package diagnostics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Fullex26/failsafe-relay/internal/relay"
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Logger debug-logs every decision
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Dropped(reason relay.DropReason, event models.InboundEvent) {
	l.logger.Debug("plugin message dropped",
		"reason", string(reason),
		"origin", event.Origin,
		"kind", event.Payload.Kind,
	)
}

func (l *Logger) Rendered(req models.NotificationRequest) {
	l.logger.Debug("notification rendered", "title", req.Title, "severity", string(req.Severity))
}

// Metrics counts decisions as Prometheus counters
type Metrics struct {
	dropped  *prometheus.CounterVec
	rendered prometheus.Counter
}

// NewMetrics registers the relay counters on reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "failsafe_relay_events_dropped_total",
			Help: "Plugin messages that produced no notification, by reason.",
		}, []string{"reason"}),
		rendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "failsafe_relay_notifications_rendered_total",
			Help: "Notifications successfully rendered.",
		}),
	}
	for _, c := range []prometheus.Collector{m.dropped, m.rendered} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Dropped(reason relay.DropReason, _ models.InboundEvent) {
	m.dropped.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) Rendered(models.NotificationRequest) {
	m.rendered.Inc()
}

// Fanout forwards to several observers in order
type Fanout []relay.Diagnostics

func (f Fanout) Dropped(reason relay.DropReason, event models.InboundEvent) {
	for _, d := range f {
		d.Dropped(reason, event)
	}
}

func (f Fanout) Rendered(req models.NotificationRequest) {
	for _, d := range f {
		d.Rendered(req)
	}
}

// Handler returns the /metrics handler for g
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
