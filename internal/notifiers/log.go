package notifiers

import (
	"log/slog"

	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Log writes notifications to a structured logger. Useful as a fallback
// surface or when running under journald.
type Log struct {
	logger *slog.Logger
}

// NewLog uses slog.Default() when logger is nil
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Notify(req models.NotificationRequest) error {
	l.logger.Error(req.Text,
		"title", req.Title,
		"severity", string(req.Severity),
		"auto_dismiss", req.AutoDismiss,
	)
	return nil
}

func (l *Log) Test() error {
	l.logger.Info("failsafe-relay test notification")
	return nil
}
