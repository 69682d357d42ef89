package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PluginIdentifier is the origin tag of the OctoPrint plugin whose messages we relay
const PluginIdentifier = "TemperatureFailsafe"

// KindPopup is the only payload kind that results in a notification
const KindPopup = "popup"

// Severity is the presentation style of a notification
type Severity string

const (
	SeverityError Severity = "error"
)

func (s Severity) Emoji() string {
	switch s {
	case SeverityError:
		return "🔴"
	}
	return "🟡"
}

// MessagePayload is the data body of a plugin message as sent by the server:
// dict(type="popup", msg="...")
type MessagePayload struct {
	Kind string `json:"type"`
	Text string `json:"msg"`
}

// InboundEvent is one server-pushed plugin message
type InboundEvent struct {
	Origin  string         `json:"plugin"`
	Payload MessagePayload `json:"data"`
}

// DecodeInbound parses the OctoPrint plugin envelope {"plugin": "...", "data": {...}}.
// Only the envelope can fail to decode. The data body is read leniently by
// decodePayload, whatever its shape.
func DecodeInbound(data []byte) (InboundEvent, error) {
	var env struct {
		Plugin string          `json:"plugin"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return InboundEvent{}, fmt.Errorf("decoding plugin message: %w", err)
	}
	return InboundEvent{Origin: env.Plugin, Payload: decodePayload(env.Data)}, nil
}

// decodePayload reads type and msg from a data body of any shape.
// A body that is not an object, or a non-string type, yields an empty Kind.
// A non-string msg is kept as its JSON text.
func decodePayload(raw json.RawMessage) MessagePayload {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return MessagePayload{}
	}

	var p MessagePayload
	if v, ok := fields["type"]; ok {
		if err := json.Unmarshal(v, &p.Kind); err != nil {
			p.Kind = ""
		}
	}
	if v, ok := fields["msg"]; ok {
		if err := json.Unmarshal(v, &p.Text); err != nil {
			var buf bytes.Buffer
			if json.Compact(&buf, v) == nil {
				p.Text = buf.String()
			}
		}
	}
	return p
}

// Message is the closed set of payload variants: Popup or Unknown
type Message interface {
	isMessage()
}

// Popup asks for a notification with the given text
type Popup struct {
	Text string
}

// Unknown is any payload whose kind we don't handle
type Unknown struct {
	Kind string
}

func (Popup) isMessage()   {}
func (Unknown) isMessage() {}

// ParseMessage classifies a payload once, at the boundary
func ParseMessage(p MessagePayload) Message {
	if p.Kind == KindPopup {
		return Popup{Text: p.Text}
	}
	return Unknown{Kind: p.Kind}
}

// NotificationRequest is what a notification surface renders.
// It only lives for the duration of one render call.
type NotificationRequest struct {
	Text        string   `json:"text"`
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	AutoDismiss bool     `json:"auto_dismiss"`
}
