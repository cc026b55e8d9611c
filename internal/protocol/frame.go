// Package protocol defines the wire protocol spoken over the rendezvous
// websocket: the frame envelope, the event catalogue, the stable error code
// space, application close codes, and the identifier formats.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Frame is the wire format for every message exchanged over the socket,
// in both directions: a UTF-8 JSON object with an event name and an
// optional payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ParseFrame unmarshals data into a Frame and validates required fields.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("protocol: frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("protocol: frame: missing required field %q", "event")
	}
	return f, nil
}

// NewFrame builds a Frame with the given event name and payload.
// A nil payload produces a frame without a data field.
func NewFrame(event string, payload any) (Frame, error) {
	f := Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Frame{}, fmt.Errorf("protocol: frame %s: marshal payload: %w", event, err)
		}
		f.Data = data
	}
	return f, nil
}

// MustFrame is NewFrame for payloads that cannot fail to marshal.
// It panics on marshal errors and is reserved for server-built payloads.
func MustFrame(event string, payload any) Frame {
	f, err := NewFrame(event, payload)
	if err != nil {
		panic(err)
	}
	return f
}

// Encode serializes the frame for transmission.
func (f Frame) Encode() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("protocol: frame %s: %w", f.Event, err)
	}
	return data, nil
}
