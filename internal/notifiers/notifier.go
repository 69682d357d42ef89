package notifiers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Notifier renders notification requests on an external channel
type Notifier interface {
	// Name returns the notifier identifier
	Name() string
	// Notify delivers one notification
	Notify(req models.NotificationRequest) error
	// Test sends a test notification to verify configuration
	Test() error
}

// Multi renders each request on every notifier in order.
// All notifiers are tried; failures are joined.
type Multi struct {
	notifiers []Notifier
}

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Name() string { return "multi" }

// Notifiers returns the wrapped notifiers
func (m *Multi) Notifiers() []Notifier { return m.notifiers }

func (m *Multi) Notify(req models.NotificationRequest) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(req); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Test sends a test message through each notifier, stopping at the first failure
func (m *Multi) Test() error {
	for _, n := range m.notifiers {
		slog.Info("testing notifier", "name", n.Name())
		if err := n.Test(); err != nil {
			return fmt.Errorf("%s: %w", n.Name(), err)
		}
		slog.Info("notifier OK", "name", n.Name())
	}
	return nil
}
