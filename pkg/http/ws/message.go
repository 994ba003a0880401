package ws

import "encoding/json"

// MessageType constants for the session feed protocol.
const (
	// Server -> Client
	TypePhaseChanged = "phase_changed"
	TypeError        = "error"
	TypePong         = "pong"

	// Client -> Server
	TypePing = "ping"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
