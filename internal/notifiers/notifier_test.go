package notifiers

import (
	"errors"
	"strings"
	"testing"

	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Compile-time checks that all notifier types implement the Notifier interface.
var (
	_ Notifier = (*Telegram)(nil)
	_ Notifier = (*Discord)(nil)
	_ Notifier = (*Ntfy)(nil)
	_ Notifier = (*Webhook)(nil)
	_ Notifier = (*Log)(nil)
	_ Notifier = (*Multi)(nil)
)

type fakeNotifier struct {
	name    string
	err     error
	got     []models.NotificationRequest
	tested  int
	testErr error
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(req models.NotificationRequest) error {
	f.got = append(f.got, req)
	return f.err
}

func (f *fakeNotifier) Test() error {
	f.tested++
	return f.testErr
}

func sampleRequest() models.NotificationRequest {
	return models.NotificationRequest{
		Text:     "TemperatureFailSafe violation, heater: bed: 130C > 120C",
		Title:    models.PluginIdentifier,
		Severity: models.SeverityError,
	}
}

func TestMulti_Notify_AllReceive(t *testing.T) {
	a := &fakeNotifier{name: "a"}
	b := &fakeNotifier{name: "b"}
	m := NewMulti(a, b)

	if err := m.Notify(sampleRequest()); err != nil {
		t.Fatalf("Notify() error: %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("a got %d, b got %d, want 1 each", len(a.got), len(b.got))
	}
	if a.got[0] != sampleRequest() {
		t.Errorf("request = %+v", a.got[0])
	}
}

func TestMulti_Notify_ContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	a := &fakeNotifier{name: "a", err: boom}
	b := &fakeNotifier{name: "b"}
	m := NewMulti(a, b)

	err := m.Notify(sampleRequest())
	if !errors.Is(err, boom) {
		t.Fatalf("Notify() error = %v, want %v", err, boom)
	}
	if !strings.Contains(err.Error(), "a:") {
		t.Errorf("error should name the notifier: %q", err.Error())
	}
	if len(b.got) != 1 {
		t.Error("second notifier should still be called")
	}
}

func TestMulti_Notify_Empty(t *testing.T) {
	if err := NewMulti().Notify(sampleRequest()); err != nil {
		t.Errorf("Notify() error: %v", err)
	}
}

func TestMulti_Test_StopsAtFirstFailure(t *testing.T) {
	a := &fakeNotifier{name: "a", testErr: errors.New("bad token")}
	b := &fakeNotifier{name: "b"}
	m := NewMulti(a, b)

	err := m.Test()
	if err == nil || !strings.Contains(err.Error(), "a: bad token") {
		t.Errorf("Test() error = %v", err)
	}
	if b.tested != 0 {
		t.Error("second notifier should not be tested after a failure")
	}
}
