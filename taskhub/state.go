package taskhub

// ConnectionState represents the current state of the socket connection.
type ConnectionState int

const (
	// StateDisconnected means the client is not connected.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the client is establishing a connection.
	StateConnecting

	// StateConnected means the client is connected and ready.
	StateConnected

	// StateReconnecting means the client is waiting to retry after an
	// unexpected disconnect.
	StateReconnecting
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// StateEvent represents a state change event.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	Error    error // Optional error that caused the state change
}

// PresenceSupport tracks capability negotiation for status frames. It starts
// at PresenceUnknown on every connection and moves at most once, so "not yet
// probed" is distinguishable from "confirmed unsupported".
type PresenceSupport int

const (
	PresenceUnknown PresenceSupport = iota
	PresenceSupported
	PresenceUnsupported
)

// String returns the string representation of a PresenceSupport value.
func (p PresenceSupport) String() string {
	switch p {
	case PresenceUnknown:
		return "unknown"
	case PresenceSupported:
		return "supported"
	case PresenceUnsupported:
		return "unsupported"
	default:
		return "invalid"
	}
}
