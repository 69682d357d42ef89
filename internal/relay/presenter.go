package relay

import (
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Presenter renders accepted payloads. Title, severity and dismiss behaviour
// are fixed when it is built.
type Presenter struct {
	surface     Surface
	title       string
	severity    models.Severity
	autoDismiss bool
}

// NewPresenter returns a presenter with the default title
func NewPresenter(surface Surface) *Presenter {
	return newPresenter(surface, models.PluginIdentifier)
}

func newPresenter(surface Surface, title string) *Presenter {
	return &Presenter{
		surface:     surface,
		title:       title,
		severity:    models.SeverityError,
		autoDismiss: false,
	}
}

// Present renders payload if it is a popup. Other kinds are ignored.
// Surface errors are returned as-is.
func (p *Presenter) Present(payload models.MessagePayload) error {
	_, _, err := p.render(payload)
	return err
}

// render reports whether payload was a popup and, if so, the request it
// handed to the surface
func (p *Presenter) render(payload models.MessagePayload) (models.NotificationRequest, bool, error) {
	msg, ok := models.ParseMessage(payload).(models.Popup)
	if !ok {
		return models.NotificationRequest{}, false, nil
	}
	req := models.NotificationRequest{
		Text:        msg.Text,
		Title:       p.title,
		Severity:    p.severity,
		AutoDismiss: p.autoDismiss,
	}
	return req, true, p.surface.Notify(req)
}
