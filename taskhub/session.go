package taskhub

import (
	"context"
	"time"
)

// Session ties the client's lifetime to authentication state: the connection
// is kept up exactly while both user id and token are present. It replaces
// the application-global connection instance with an explicitly owned object
// constructed at the composition root.
type Session struct {
	client *Client
	store  CredentialStore
	logger Logger
	grace  time.Duration
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCredentialStore persists credentials through store instead of the
// default in-memory store.
func WithCredentialStore(store CredentialStore) SessionOption {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

// WithReconnectGrace sets the pause between the disconnect and redial halves
// of Reconnect. Default is one second.
func WithReconnectGrace(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithSessionLogger sets the session's logger.
func WithSessionLogger(l Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession wraps client. Previously saved credentials are loaded but the
// session does not dial until SetAuth or Resume.
func NewSession(client *Client, opts ...SessionOption) *Session {
	s := &Session{
		client: client,
		store:  NewMemoryStore(),
		logger: noopLogger{},
		grace:  time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	creds, err := s.store.Load()
	if err != nil {
		s.logger.Warn("loading saved credentials failed", map[string]any{"error": err.Error()})
		return s
	}
	if creds.UserID != "" {
		s.client.SetCredentials(creds.UserID, creds.Token)
	}
	return s
}

// Client exposes the wrapped realtime client for listener registration.
func (s *Session) Client() *Client { return s.client }

// Enabled reports whether the session holds everything needed to connect.
func (s *Session) Enabled() bool {
	creds, err := s.store.Load()
	return err == nil && creds.UserID != "" && creds.Token != ""
}

// SetAuth records new credentials and reconciles the connection: connect when
// the session became enabled, redial when the identity changed while
// connected, disconnect when credentials are incomplete.
func (s *Session) SetAuth(ctx context.Context, userID, token string) error {
	prev, err := s.store.Load()
	if err != nil {
		s.logger.Warn("loading saved credentials failed", map[string]any{"error": err.Error()})
	}
	if err := s.store.Save(Credentials{UserID: userID, Token: token}); err != nil {
		s.logger.Warn("persisting credentials failed", map[string]any{"error": err.Error()})
	}
	s.client.SetCredentials(userID, token)

	if userID == "" || token == "" {
		return s.client.Disconnect()
	}

	changed := prev.UserID != userID || prev.Token != token
	if changed && s.client.IsConnected() {
		_ = s.client.Disconnect()
	}
	return s.client.Connect(ctx)
}

// Resume connects with the stored credentials, if any. Used at startup to
// restore the previous login.
func (s *Session) Resume(ctx context.Context) error {
	if !s.Enabled() {
		return NewError(ErrorInvalidConfig, "no stored credentials")
	}
	return s.client.Connect(ctx)
}

// ClearAuth wipes credentials and closes the connection. Mirrors logout.
func (s *Session) ClearAuth() error {
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("clearing credentials failed", map[string]any{"error": err.Error()})
	}
	s.client.SetCredentials("", "")
	return s.client.Disconnect()
}

// Reconnect cycles the connection with a fixed grace period in between.
func (s *Session) Reconnect(ctx context.Context) error {
	if !s.Enabled() {
		return NewError(ErrorInvalidConfig, "no stored credentials")
	}
	_ = s.client.Disconnect()

	select {
	case <-time.After(s.grace):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.client.Connect(ctx)
}
