package notifiers

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLog_Notify(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := l.Notify(sampleRequest()); err != nil {
		t.Fatalf("Notify() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"level=ERROR", "title=TemperatureFailsafe", "severity=error", "auto_dismiss=false", "heater: bed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %q", want, out)
		}
	}
}

func TestLog_Test(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := l.Test(); err != nil {
		t.Fatalf("Test() error: %v", err)
	}
	if !strings.Contains(buf.String(), "test notification") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestNewLog_DefaultLogger(t *testing.T) {
	l := NewLog(nil)
	if l.logger == nil {
		t.Fatal("logger should default to slog.Default()")
	}
	if l.Name() != "log" {
		t.Errorf("Name() = %q, want %q", l.Name(), "log")
	}
}
