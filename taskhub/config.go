package taskhub

import "time"

// Config controls how the client connects and recovers.
type Config struct {
	// URL is the WebSocket endpoint, e.g. "wss://api.taskhub.app/ws".
	// UserID and Token are appended as query parameters on dial.
	URL    string
	UserID string
	Token  string

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// PingInterval is how often the heartbeat sends a ping frame.
	// Zero disables the heartbeat.
	PingInterval time.Duration

	// ProbePresence enables capability negotiation for status frames:
	// one trial status frame after the first pong, permanent downgrade
	// if the server rejects it.
	ProbePresence bool

	AutoReconnect       bool
	ReconnectInterval   time.Duration // base delay before the first retry
	ReconnectMultiplier float64       // geometric growth factor
	MaxReconnectDelay   time.Duration // hard delay ceiling
	MaxReconnectTries   int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:    10 * time.Second,
		ReadTimeout:         90 * time.Second,
		WriteTimeout:        10 * time.Second,
		PingInterval:        30 * time.Second,
		ProbePresence:       true,
		AutoReconnect:       true,
		ReconnectInterval:   3 * time.Second,
		ReconnectMultiplier: 2.0,
		MaxReconnectDelay:   30 * time.Second,
		MaxReconnectTries:   5,
	}
}
