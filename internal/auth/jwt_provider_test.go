package auth

import (
	"alcyxob/gym-console/internal/repository/memory"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, sessionFile string) (*jwtProvider, *memory.CredentialRepository) {
	t.Helper()
	creds := memory.NewCredentialRepository()
	p := NewJWTProvider(creds, "test-secret", time.Hour, sessionFile).(*jwtProvider)
	return p, creds
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, "")

	id, err := p.SignUp(ctx, " Ana@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if id.ID == "" || id.Email != "ana@example.com" {
		t.Errorf("identity = %+v", id)
	}

	if _, err := p.SignUp(ctx, "ana@example.com", "another1"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second SignUp err = %v, want ErrAlreadyRegistered", err)
	}
	if _, err := p.SignUp(ctx, "bob@example.com", "123"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password err = %v, want ErrWeakPassword", err)
	}

	// SignUp never creates a session.
	if s, _ := p.GetSession(ctx); s != nil {
		t.Errorf("session after SignUp = %+v, want nil", s)
	}
}

func TestSignInSignOut_Notifications(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, "")
	if _, err := p.SignUp(ctx, "admin@gym.com", "secret1"); err != nil {
		t.Fatal(err)
	}

	var events []Event
	unsubscribe := p.OnSessionChange(func(c SessionChange) { events = append(events, c.Event) })

	if _, err := p.SignIn(ctx, "admin@gym.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := p.SignIn(ctx, "nobody@gym.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}

	session, err := p.SignIn(ctx, "ADMIN@gym.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.AccessToken == "" || session.Email != "admin@gym.com" {
		t.Errorf("session = %+v", session)
	}
	current, err := p.GetSession(ctx)
	if err != nil || current == nil || current.UserID != session.UserID {
		t.Fatalf("GetSession = %+v, %v", current, err)
	}

	if _, err := p.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if s, _ := p.GetSession(ctx); s != nil {
		t.Errorf("session after SignOut = %+v", s)
	}

	unsubscribe()
	_, _ = p.SignIn(ctx, "admin@gym.com", "secret1")

	want := []Event{EventSignedIn, EventTokenRefreshed, EventSignedOut}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, events[i], want[i])
		}
	}
}

func TestRefresh_NoSession(t *testing.T) {
	p, _ := newTestProvider(t, "")
	if _, err := p.Refresh(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Refresh err = %v, want ErrNoSession", err)
	}
}

func TestGetSession_Expired(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, "")
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	_, _ = p.SignUp(ctx, "a@b.com", "secret1")
	if _, err := p.SignIn(ctx, "a@b.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Hour)
	if s, err := p.GetSession(ctx); err != nil || s != nil {
		t.Errorf("expired GetSession = %+v, %v; want nil, nil", s, err)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, "")
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	id, _ := p.SignUp(ctx, "a@b.com", "secret1")
	session, err := p.SignIn(ctx, "a@b.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Verify(ctx, session.AccessToken)
	if err != nil || got.UserID != id.ID {
		t.Fatalf("Verify = %+v, %v", got, err)
	}

	other := NewJWTProvider(memory.NewCredentialRepository(), "other-secret", time.Hour, "").(*jwtProvider)
	other.now = p.now
	forged, err := other.issue(id.ID, "a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": forged.AccessToken,
	} {
		if _, err := p.Verify(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}

	unknown, _ := p.issue("ghost", "ghost@b.com")
	if _, err := p.Verify(ctx, unknown.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unknown identity: err = %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := p.Verify(ctx, session.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: err = %v", err)
	}
}

func TestSessionJSONOmitsToken(t *testing.T) {
	data, err := json.Marshal(Session{AccessToken: "secret-token", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret-token") {
		t.Errorf("session JSON = %s", data)
	}
}

func TestSessionPersistence(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "state", "session")

	first, creds := newTestProvider(t, file)
	_, _ = first.SignUp(ctx, "a@b.com", "secret1")
	signedIn, err := first.SignIn(ctx, "a@b.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("session file mode = %v, want 0600", info.Mode().Perm())
	}

	// A new process with the same credential store restores the session.
	second := NewJWTProvider(creds, "test-secret", time.Hour, file)
	restored, err := second.GetSession(ctx)
	if err != nil || restored == nil {
		t.Fatalf("restored session = %+v, %v", restored, err)
	}
	if restored.UserID != signedIn.UserID || restored.AccessToken != signedIn.AccessToken {
		t.Errorf("restored = %+v, want %+v", restored, signedIn)
	}

	// A token signed with another secret is discarded.
	third := NewJWTProvider(creds, "other-secret", time.Hour, file)
	if s, err := third.GetSession(ctx); err != nil || s != nil {
		t.Errorf("foreign token session = %+v, %v", s, err)
	}
	if _, err := os.Stat(file); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("invalid session file should be removed, stat err = %v", err)
	}
}

func TestSessionPersistence_SignOutRemovesFile(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "session")
	p, _ := newTestProvider(t, file)
	_, _ = p.SignUp(ctx, "a@b.com", "secret1")
	_, _ = p.SignIn(ctx, "a@b.com", "secret1")

	if err := p.SignOut(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(file); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("session file still present after SignOut: %v", err)
	}
}
