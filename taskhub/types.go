package taskhub

import "encoding/json"

// Frame types recognized on the wire. Frames carrying anything else are
// logged and dropped.
const (
	FrameMessage      = "message"
	FrameNotification = "notification"
	FrameStatus       = "status"
	FrameError        = "error"
	FramePing         = "ping"
	FramePong         = "pong"
)

// Dispatcher event names. Frame-derived events share the frame type name;
// lifecycle events are client-local.
const (
	EventMessage         = "message"
	EventNotification    = "notification"
	EventStatus          = "status"
	EventError           = "error"
	EventConnected       = "connected"
	EventDisconnected    = "disconnected"
	EventStateChanged    = "state-changed"
	EventReconnectFailed = "reconnect-failed"
)

// Frame is the envelope received from the server.
type Frame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// outFrame is the envelope client -> server. Data stays untyped until encode.
type outFrame struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ErrorPayload describes a protocol error delivered in an error frame.
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ChatPayload is the outgoing body of a message frame. Exactly one of
// RecipientID (direct chat) or TeamID (team chat) should be set.
type ChatPayload struct {
	RecipientID string      `json:"recipientId,omitempty"`
	TeamID      string      `json:"teamId,omitempty"`
	Content     string      `json:"content"`
	Type        MessageType `json:"type"`
}

// StatusPayload reports this user's presence in a status frame.
type StatusPayload struct {
	UserID string         `json:"userId"`
	Status PresenceStatus `json:"status"`
}

// UnmarshalData decodes a frame's raw data into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}
