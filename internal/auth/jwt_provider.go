package auth

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	tokenIssuer       = "gym-console"
)

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// jwtProvider implements Provider with bcrypt credentials and HS256 tokens.
// The current session's token is persisted to sessionFile when one is set.
type jwtProvider struct {
	creds       repository.CredentialRepository
	secret      []byte
	expiration  time.Duration
	sessionFile string
	now         func() time.Time

	mu        sync.Mutex
	current   *Session
	restored  bool
	listeners map[int]func(SessionChange)
	nextID    int
}

// NewJWTProvider creates a Provider. An empty sessionFile keeps sessions in memory only.
func NewJWTProvider(creds repository.CredentialRepository, secret string, expiration time.Duration, sessionFile string) Provider {
	if secret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if expiration <= 0 {
		expiration = time.Hour
	}
	return &jwtProvider{
		creds:       creds,
		secret:      []byte(secret),
		expiration:  expiration,
		sessionFile: sessionFile,
		now:         time.Now,
		listeners:   make(map[int]func(SessionChange)),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new identity.
func (p *jwtProvider) SignUp(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Identity{}, errors.New("email cannot be empty")
	}
	if len(password) < minPasswordLength {
		return Identity{}, ErrWeakPassword
	}

	_, err := p.creds.GetByEmail(ctx, email)
	if err == nil {
		return Identity{}, ErrAlreadyRegistered
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return Identity{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	cred := &domain.Credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := p.creds.Create(ctx, cred); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return Identity{}, ErrAlreadyRegistered
		}
		return Identity{}, err
	}
	return Identity{ID: cred.ID, Email: cred.Email}, nil
}

// SignIn verifies the credentials and replaces the current session.
func (p *jwtProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	cred, err := p.creds.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := p.issue(cred.ID, cred.Email)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.current = session
	p.restored = true
	p.mu.Unlock()

	if err := p.persist(session); err != nil {
		return nil, err
	}
	p.notify(SessionChange{Event: EventSignedIn, Session: copySession(session)})
	return copySession(session), nil
}

// SignOut drops the current session. Signing out twice is not an error.
func (p *jwtProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.restored = true
	p.mu.Unlock()

	if err := p.persist(nil); err != nil {
		return err
	}
	p.notify(SessionChange{Event: EventSignedOut})
	return nil
}

// GetSession returns the live session, restoring the persisted token once.
func (p *jwtProvider) GetSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	restored := p.restored
	current := p.current
	p.mu.Unlock()

	if !restored {
		session, err := p.restore(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		if !p.restored {
			p.current = session
			p.restored = true
		}
		current = p.current
		p.mu.Unlock()
	}

	if current == nil {
		return nil, nil
	}
	if current.Expired(p.now()) {
		p.mu.Lock()
		if p.current == current {
			p.current = nil
		}
		p.mu.Unlock()
		return nil, nil
	}
	return copySession(current), nil
}

// Refresh reissues the current session's token with a new expiry.
func (p *jwtProvider) Refresh(ctx context.Context) (*Session, error) {
	current, err := p.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoSession
	}

	session, err := p.issue(current.UserID, current.Email)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.current = session
	p.mu.Unlock()

	if err := p.persist(session); err != nil {
		return nil, err
	}
	p.notify(SessionChange{Event: EventTokenRefreshed, Session: copySession(session)})
	return copySession(session), nil
}

// Verify validates the token's signature and expiry and checks that its
// identity still exists.
func (p *jwtProvider) Verify(ctx context.Context, token string) (*Session, error) {
	session, err := p.parse(token)
	if err != nil || session.Expired(p.now()) {
		return nil, ErrInvalidToken
	}
	if _, err := p.creds.GetByID(ctx, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return session, nil
}

func (p *jwtProvider) OnSessionChange(fn func(SessionChange)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// notify calls listeners outside the lock so they may call back into p.
func (p *jwtProvider) notify(change SessionChange) {
	p.mu.Lock()
	fns := make([]func(SessionChange), 0, len(p.listeners))
	// Registration order.
	for i := 0; i < p.nextID; i++ {
		if fn, ok := p.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

// issue signs a token for the identity.
func (p *jwtProvider) issue(userID, email string) (*Session, error) {
	now := p.now()
	expiresAt := now.Add(p.expiration)
	claims := &jwtClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{
		AccessToken: signed,
		UserID:      userID,
		Email:       email,
		ExpiresAt:   jwt.NewNumericDate(expiresAt).Time,
	}, nil
}

// parse validates a token and rebuilds its session.
func (p *jwtProvider) parse(tokenString string) (*Session, error) {
	claims := &jwtClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, errors.New("invalid token or missing claims")
	}
	return &Session{
		AccessToken: tokenString,
		UserID:      claims.UserID,
		Email:       claims.Email,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// restore loads the persisted session. Unreadable, expired, or orphaned
// tokens are discarded rather than reported.
func (p *jwtProvider) restore(ctx context.Context) (*Session, error) {
	if p.sessionFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(p.sessionFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	session, err := p.parse(strings.TrimSpace(string(data)))
	if err != nil || session.Expired(p.now()) {
		_ = os.Remove(p.sessionFile)
		return nil, nil
	}

	if _, err := p.creds.GetByID(ctx, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = os.Remove(p.sessionFile)
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// persist writes the token, or removes the file when session is nil.
func (p *jwtProvider) persist(session *Session) error {
	if p.sessionFile == "" {
		return nil
	}
	if session == nil {
		if err := os.Remove(p.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.sessionFile), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(p.sessionFile, []byte(session.AccessToken), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
