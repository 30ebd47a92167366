package service

import (
	"alcyxob/gym-console/internal/auth"
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"alcyxob/gym-console/internal/repository/memory"
	"alcyxob/gym-console/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeProvider is a scriptable auth.Provider.
type fakeProvider struct {
	mu        sync.Mutex
	users     map[string]string // email -> id
	passwords map[string]string // email -> password
	session   *auth.Session
	listeners map[int]func(auth.SessionChange)
	nextID    int
	signUps   int

	signUpErr     error
	getSessionErr error
	blockSession  bool // GetSession waits for ctx to end
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		users:     make(map[string]string),
		passwords: make(map[string]string),
		listeners: make(map[int]func(auth.SessionChange)),
	}
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (auth.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signUpErr != nil {
		return auth.Identity{}, f.signUpErr
	}
	email = strings.ToLower(email)
	if _, ok := f.users[email]; ok {
		return auth.Identity{}, auth.ErrAlreadyRegistered
	}
	f.signUps++
	id := fmt.Sprintf("user-%d", f.signUps)
	f.users[email] = id
	f.passwords[email] = password
	return auth.Identity{ID: id, Email: email}, nil
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	f.mu.Lock()
	id, ok := f.users[strings.ToLower(email)]
	if !ok || f.passwords[strings.ToLower(email)] != password {
		f.mu.Unlock()
		return nil, auth.ErrInvalidCredentials
	}
	s := &auth.Session{AccessToken: "token-" + id, UserID: id, Email: strings.ToLower(email), ExpiresAt: testNow.Add(time.Hour)}
	f.session = s
	f.mu.Unlock()
	f.emit(auth.SessionChange{Event: auth.EventSignedIn, Session: s})
	return s, nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.session = nil
	f.mu.Unlock()
	f.emit(auth.SessionChange{Event: auth.EventSignedOut})
	return nil
}

func (f *fakeProvider) GetSession(ctx context.Context) (*auth.Session, error) {
	if f.blockSession {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.getSessionErr
}

func (f *fakeProvider) Refresh(ctx context.Context) (*auth.Session, error) {
	f.mu.Lock()
	s := f.session
	f.mu.Unlock()
	if s == nil {
		return nil, auth.ErrNoSession
	}
	f.emit(auth.SessionChange{Event: auth.EventTokenRefreshed, Session: s})
	return s, nil
}

func (f *fakeProvider) Verify(ctx context.Context, token string) (*auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil || f.session.AccessToken != token {
		return nil, auth.ErrInvalidToken
	}
	c := *f.session
	return &c, nil
}

func (f *fakeProvider) OnSessionChange(fn func(auth.SessionChange)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeProvider) emit(change auth.SessionChange) {
	f.mu.Lock()
	var fns []func(auth.SessionChange)
	for i := 0; i < f.nextID; i++ {
		if fn, ok := f.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(change)
	}
}

type testEnv struct {
	tables   *memory.Tables
	auth     *fakeProvider
	storage  *storage.MemoryStorage
	backend  Backend
	plans    *domain.PlanCatalog
	students *studentStore
	workouts *workoutStore
	clock    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tables := memory.NewTables()
	if err := repository.SeedReferenceData(context.Background(), tables); err != nil {
		t.Fatalf("seed: %v", err)
	}
	plans, err := domain.NewPlanCatalog(domain.DefaultPlans())
	if err != nil {
		t.Fatal(err)
	}
	env := &testEnv{
		tables:  tables,
		auth:    newFakeProvider(),
		storage: storage.NewMemoryStorage("http://files.test"),
		plans:   plans,
		clock:   testNow,
	}
	env.backend = Backend{Tables: tables, Auth: env.auth, Storage: env.storage, AvatarsBucket: "avatars"}

	logger := zerolog.Nop()
	env.students = NewStudentStore(env.backend, plans, language.BrazilianPortuguese, logger).(*studentStore)
	env.students.now = func() time.Time { return env.clock }
	env.workouts = NewWorkoutStore(tables, language.BrazilianPortuguese, logger).(*workoutStore)
	env.workouts.now = func() time.Time { return env.clock }
	return env
}

func (e *testEnv) addStudent(t *testing.T, name, email string) string {
	t.Helper()
	id, err := e.students.Add(context.Background(), AddStudentInput{
		Email: email, Password: "secret1", DisplayName: name, CPF: "123." + name,
	})
	if err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
	return id
}

func (e *testEnv) addSheet(t *testing.T, name string, exerciseIDs ...string) string {
	t.Helper()
	input := SheetInput{Name: name, Goal: "Hipertrofia"}
	for _, id := range exerciseIDs {
		input.Exercises = append(input.Exercises, AssignmentInput{ExerciseID: id, Sets: "3", Reps: "12"})
	}
	id, err := e.workouts.Add(context.Background(), input)
	if err != nil {
		t.Fatalf("Add sheet %s: %v", name, err)
	}
	return id
}

func asError[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if !errors.As(err, &target) {
		t.Fatalf("error %v (%T) is not %T", err, err, target)
	}
	return target
}

func countOps(calls []memory.Call, op memory.Op, table string) int {
	n := 0
	for _, c := range calls {
		if c.Op == op && c.Table == table {
			n++
		}
	}
	return n
}
