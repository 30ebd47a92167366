// Package auth holds the authentication provider port and its JWT-backed
// implementation.
package auth

import (
	"context"
	"errors"
	"time"
)

// Event names a session change.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Session is an authenticated session issued by the provider.
type Session struct {
	AccessToken string    `json:"-"` // handed out only by the login response
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity is a registered email/password identity.
type Identity struct {
	ID    string
	Email string
}

// SessionChange is delivered to listeners. Session is nil after sign-out.
type SessionChange struct {
	Event   Event
	Session *Session
}

// Provider issues and tracks sessions from email and password.
type Provider interface {
	// SignUp registers a new identity without touching the current session.
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	// GetSession returns the current session, restoring a persisted one if
	// needed. It returns nil and no error when nobody is signed in.
	GetSession(ctx context.Context) (*Session, error)
	Refresh(ctx context.Context) (*Session, error)
	// Verify checks a bearer token presented with a request and returns the
	// session it was issued for.
	Verify(ctx context.Context, token string) (*Session, error)
	// OnSessionChange registers fn for every later change and returns a
	// function that removes it.
	OnSessionChange(fn func(SessionChange)) (unsubscribe func())
}

// Error constants for the auth provider
var (
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrNoSession          = errors.New("no active session")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
