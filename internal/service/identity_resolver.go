package service

import (
	"alcyxob/gym-console/internal/auth"
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// AuthState is the resolver's view of who is signed in. Authenticated only
// tracks whether a session exists; Profile may be a fallback.
type AuthState struct {
	Session       *auth.Session          `json:"session,omitempty"`
	Profile       *domain.AccountProfile `json:"profile,omitempty"`
	Authenticated bool                   `json:"authenticated"`
	Loading       bool                   `json:"loading"`
}

// IdentityResolver turns provider sessions into application profiles.
// Sign-in and sign-out only reach the provider; state changes arrive through
// the provider's session-change notifications.
type IdentityResolver interface {
	// Start subscribes to session changes and resolves any persisted session.
	Start(ctx context.Context) error
	Stop()
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	Refresh(ctx context.Context) error
	State() AuthState
	Subscribe(fn func(AuthState)) (unsubscribe func())
}

type identityResolver struct {
	backend Backend
	timeout time.Duration
	logger  zerolog.Logger

	// seq numbers session events; a result is applied only if no later
	// event has been taken since.
	seq atomic.Uint64

	mu          sync.Mutex
	state       AuthState
	unsubscribe func()
	listeners   map[int]func(AuthState)
	nextID      int
}

// NewIdentityResolver creates a resolver. timeout bounds the startup session
// check and each profile lookup.
func NewIdentityResolver(backend Backend, timeout time.Duration, logger zerolog.Logger) IdentityResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &identityResolver{
		backend:   backend,
		timeout:   timeout,
		logger:    logger.With().Str("component", "identity_resolver").Logger(),
		state:     AuthState{Loading: true},
		listeners: make(map[int]func(AuthState)),
	}
}

func (r *identityResolver) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.unsubscribe == nil {
		r.unsubscribe = r.backend.Auth.OnSessionChange(r.handleChange)
	}
	r.mu.Unlock()

	// Taken before the check so any event arriving meanwhile supersedes it.
	seq := r.seq.Add(1)

	checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	session, err := r.backend.Auth.GetSession(checkCtx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("initial session check failed")
		r.apply(seq, AuthState{})
		return &AuthError{Op: "get session", Err: err}
	}
	r.resolve(checkCtx, seq, auth.SessionChange{Event: auth.EventInitialSession, Session: session})
	return nil
}

func (r *identityResolver) Stop() {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// handleChange is the provider listener.
func (r *identityResolver) handleChange(change auth.SessionChange) {
	seq := r.seq.Add(1)
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.resolve(ctx, seq, change)
}

func (r *identityResolver) resolve(ctx context.Context, seq uint64, change auth.SessionChange) {
	if change.Session == nil {
		r.logger.Debug().Str("event", string(change.Event)).Msg("no session")
		r.apply(seq, AuthState{})
		return
	}

	// The gate opens as soon as a session exists; the profile follows.
	r.apply(seq, AuthState{Session: change.Session, Authenticated: true, Loading: true})

	profile := r.lookupProfile(ctx, change.Session)
	if r.apply(seq, AuthState{Session: change.Session, Profile: &profile, Authenticated: true}) {
		r.logger.Info().
			Str("event", string(change.Event)).
			Str("user_id", profile.ID).
			Str("role", profile.RoleName).
			Msg("session resolved")
	}
}

// lookupProfile never fails: a missing row, a lookup error, or a malformed
// role all yield the fallback profile.
func (r *identityResolver) lookupProfile(ctx context.Context, session *auth.Session) domain.AccountProfile {
	fallback := domain.FallbackProfile(session.UserID, session.Email)
	log := r.logger.With().Str("user_id", session.UserID).Logger()

	rows, err := r.backend.Tables.Select(ctx, repository.Query{
		Table:  repository.TableProfiles,
		Filter: repository.Filter{"id": session.UserID},
		Embeds: []repository.Embed{profileRoleEmbed},
	})
	if err != nil {
		log.Warn().Err(err).Msg("profile lookup failed, using fallback profile")
		return fallback
	}
	if len(rows) == 0 {
		log.Warn().Msg("no profile row, using fallback profile")
		return fallback
	}
	records, err := decodeRows[ProfileRecord](rows[:1])
	if err != nil {
		log.Warn().Err(err).Msg("malformed profile row, using fallback profile")
		return fallback
	}
	rec := records[0]
	if rec.Role == nil || strings.TrimSpace(rec.Role.RoleName) == "" {
		log.Warn().Msg("profile has no usable role, using fallback profile")
		return fallback
	}

	return domain.AccountProfile{
		ID:          session.UserID,
		Email:       session.Email,
		DisplayName: rec.FullName,
		AvatarURL:   r.backend.avatarURL(rec.AvatarPath),
		RoleName:    rec.Role.RoleName,
	}
}

// apply stores state if seq is still the latest event and reports whether it did.
func (r *identityResolver) apply(seq uint64, state AuthState) bool {
	r.mu.Lock()
	if seq != r.seq.Load() {
		r.mu.Unlock()
		r.logger.Debug().Uint64("seq", seq).Msg("discarding superseded session result")
		return false
	}
	r.state = state
	fns := make([]func(AuthState), 0, len(r.listeners))
	for i := 0; i < r.nextID; i++ {
		if fn, ok := r.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
	return true
}

func (r *identityResolver) SignIn(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Message: "is required"}
	}
	if _, err := r.backend.Auth.SignIn(ctx, email, password); err != nil {
		r.logger.Warn().Err(err).Msg("sign in failed")
		return &AuthError{Op: "sign in", Err: err}
	}
	return nil
}

func (r *identityResolver) SignOut(ctx context.Context) error {
	if err := r.backend.Auth.SignOut(ctx); err != nil {
		r.logger.Error().Err(err).Msg("sign out failed")
		return &AuthError{Op: "sign out", Err: err}
	}
	return nil
}

func (r *identityResolver) Refresh(ctx context.Context) error {
	if _, err := r.backend.Auth.Refresh(ctx); err != nil {
		return &AuthError{Op: "refresh session", Err: err}
	}
	return nil
}

func (r *identityResolver) State() AuthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *identityResolver) Subscribe(fn func(AuthState)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}
