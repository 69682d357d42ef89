// Package relay turns TemperatureFailsafe plugin messages into notifications.
package relay

import (
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Surface renders a notification request. Implemented by notifiers.
type Surface interface {
	Notify(req models.NotificationRequest) error
}

// DropReason says why an event produced no notification
type DropReason string

const (
	DropForeignOrigin DropReason = "foreign_origin"
	DropUnknownKind   DropReason = "unknown_kind"
)

// Diagnostics observes relay decisions. Drops are silent unless one is configured.
type Diagnostics interface {
	Dropped(reason DropReason, event models.InboundEvent)
	Rendered(req models.NotificationRequest)
}

// NopDiagnostics discards everything
type NopDiagnostics struct{}

func (NopDiagnostics) Dropped(DropReason, models.InboundEvent) {}
func (NopDiagnostics) Rendered(models.NotificationRequest)     {}

// Option configures a Router
type Option func(*settings)

type settings struct {
	pluginID string
	diag     Diagnostics
}

// WithPluginID overrides the origin tag to accept. It is also the notification title.
func WithPluginID(id string) Option {
	return func(s *settings) { s.pluginID = id }
}

// WithDiagnostics installs a hook for drop/render decisions
func WithDiagnostics(d Diagnostics) Option {
	return func(s *settings) {
		if d != nil {
			s.diag = d
		}
	}
}

// Router gates inbound events by origin before anything is rendered
type Router struct {
	pluginID  string
	presenter *Presenter
	diag      Diagnostics
}

// New builds a router that forwards accepted events to a presenter backed by surface
func New(surface Surface, opts ...Option) *Router {
	s := settings{
		pluginID: models.PluginIdentifier,
		diag:     NopDiagnostics{},
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Router{
		pluginID:  s.pluginID,
		presenter: newPresenter(surface, s.pluginID),
		diag:      s.diag,
	}
}

// PluginID returns the accepted origin tag
func (r *Router) PluginID() string { return r.pluginID }

// Handle processes one inbound event. Events from other plugins are dropped and
// nil is returned. The only error is one returned by the surface.
func (r *Router) Handle(event models.InboundEvent) error {
	if event.Origin != r.pluginID {
		r.diag.Dropped(DropForeignOrigin, event)
		return nil
	}

	req, popup, err := r.presenter.render(event.Payload)
	switch {
	case err != nil:
		return err
	case !popup:
		r.diag.Dropped(DropUnknownKind, event)
	default:
		r.diag.Rendered(req)
	}
	return nil
}
