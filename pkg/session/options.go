package session

import (
	"time"

	"github.com/rileyhilliard/frampt/internal/logger"
)

// Option configures a Session at construction.
type Option func(*Session)

// WithTransport sets the transport provider used to reach the server.
func WithTransport(t Transport) Option {
	return func(s *Session) {
		s.transport = t
	}
}

// WithProbeTimeout overrides DefaultProbeTimeout. Non-positive values are ignored.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// WithLogger sets the logger for state transitions and teardown failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCredentials binds fixed credentials, used by Authenticate.
func WithCredentials(c Credentials) Option {
	return func(s *Session) {
		s.credentials = &c
	}
}

// AuthMethod names an authentication strategy.
type AuthMethod string

const (
	MethodPassword  AuthMethod = "password"
	MethodPublicKey AuthMethod = "publickey"
)

func (m AuthMethod) failureMessage() string {
	if m == MethodPublicKey {
		return "Unable to authenticate with the server using public ssh key"
	}
	return "Unable to authenticate with the server using plain password"
}

func (m AuthMethod) suggestion() string {
	if m == MethodPublicKey {
		return "Check the key pair matches an authorized key for this user, and the passphrase if the key is encrypted"
	}
	return "Check the username and password, and that the server allows password authentication"
}

// Credentials are bound to a Session for the fixed-credentials flow.
// A non-empty Password selects password authentication; otherwise the key
// pair is used.
type Credentials struct {
	Username       string
	Password       string
	PublicKeyPath  string
	PrivateKeyPath string
	Passphrase     string
}

// Method reports which strategy these credentials select, or "" if neither
// a password nor a private key is set.
func (c Credentials) Method() AuthMethod {
	switch {
	case c.Password != "":
		return MethodPassword
	case c.PrivateKeyPath != "":
		return MethodPublicKey
	default:
		return ""
	}
}
