package models

import "testing"

func TestSeverity_Emoji(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{SeverityError, "🔴"},
		{Severity("other"), "🟡"}, // default case
	}
	for _, tt := range tests {
		if got := tt.sev.Emoji(); got != tt.want {
			t.Errorf("Severity(%q).Emoji() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload MessagePayload
		want    Message
	}{
		{"popup", MessagePayload{Kind: "popup", Text: "too hot"}, Popup{Text: "too hot"}},
		{"popup empty text", MessagePayload{Kind: "popup"}, Popup{}},
		{"status", MessagePayload{Kind: "status", Text: "x"}, Unknown{Kind: "status"}},
		{"empty kind", MessagePayload{Text: "x"}, Unknown{}},
		{"case sensitive", MessagePayload{Kind: "Popup", Text: "x"}, Unknown{Kind: "Popup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMessage(tt.payload); got != tt.want {
				t.Errorf("ParseMessage(%+v) = %#v, want %#v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestDecodeInbound(t *testing.T) {
	raw := `{"plugin":"TemperatureFailsafe","data":{"type":"popup","msg":"Bed temperature exceeded safe limit","extra":1}}`
	event, err := DecodeInbound([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeInbound() error: %v", err)
	}
	if event.Origin != PluginIdentifier {
		t.Errorf("Origin = %q, want %q", event.Origin, PluginIdentifier)
	}
	if event.Payload.Kind != KindPopup {
		t.Errorf("Kind = %q, want %q", event.Payload.Kind, KindPopup)
	}
	if event.Payload.Text != "Bed temperature exceeded safe limit" {
		t.Errorf("Text = %q", event.Payload.Text)
	}
}

func TestDecodeInbound_MissingData(t *testing.T) {
	event, err := DecodeInbound([]byte(`{"plugin":"OtherPlugin"}`))
	if err != nil {
		t.Fatalf("DecodeInbound() error: %v", err)
	}
	if event.Origin != "OtherPlugin" || event.Payload.Kind != "" {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestDecodeInbound_Malformed(t *testing.T) {
	if _, err := DecodeInbound([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestDecodeInbound_AnyDataShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want InboundEvent
	}{
		{"array data", `{"plugin":"OtherPlugin","data":[1,2,3]}`, InboundEvent{Origin: "OtherPlugin"}},
		{"string data", `{"plugin":"OtherPlugin","data":"hello"}`, InboundEvent{Origin: "OtherPlugin"}},
		{"null data", `{"plugin":"OtherPlugin","data":null}`, InboundEvent{Origin: "OtherPlugin"}},
		{"numeric type", `{"plugin":"OtherPlugin","data":{"type":7}}`, InboundEvent{Origin: "OtherPlugin"}},
		{
			"object msg",
			`{"plugin":"softwareupdate","data":{"type":"updating","msg":{"step": 1}}}`,
			InboundEvent{Origin: "softwareupdate", Payload: MessagePayload{Kind: "updating", Text: `{"step":1}`}},
		},
		{
			"null msg",
			`{"plugin":"TemperatureFailsafe","data":{"type":"popup","msg":null}}`,
			InboundEvent{Origin: PluginIdentifier, Payload: MessagePayload{Kind: KindPopup}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeInbound() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeInbound() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeInbound_BadEnvelope(t *testing.T) {
	for _, raw := range []string{`"oops"`, `{"plugin":42}`, `[1,2]`} {
		if _, err := DecodeInbound([]byte(raw)); err == nil {
			t.Errorf("DecodeInbound(%s): expected error", raw)
		}
	}
}
