package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vertexpay/core/components/identity/internal/domain/environment"
	"github.com/vertexpay/core/components/identity/internal/domain/session"
	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/pkg/keyedhash"
	"github.com/vertexpay/core/pkg/passwordhash"
)

type fakeUserRepo struct {
	byID    map[string]*user.User
	byEmail map[string][]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*user.User{}, byEmail: map[string][]*user.User{}}
}

// put indexes u by id and appends it to its email's candidate list — email
// may own more than one row across environments (§3), mirroring the
// ListByEmail contract the Postgres adapter implements.
func (r *fakeUserRepo) put(u *user.User) {
	r.byID[u.ID] = u
	r.byEmail[u.Email] = append(r.byEmail[u.Email], u)
}

func (r *fakeUserRepo) Create(context.Context, *user.User) (*user.User, error) { return nil, nil }
func (r *fakeUserRepo) Find(_ context.Context, id string) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}

	return u, nil
}
func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	us, ok := r.byEmail[email]
	if !ok || len(us) == 0 {
		return nil, errors.New("not found")
	}

	return us[0], nil
}
func (r *fakeUserRepo) FindByEmailAndEnvironment(context.Context, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeUserRepo) FindByEmailAndBusiness(context.Context, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeUserRepo) ListByEmail(_ context.Context, email string) ([]*user.User, error) {
	var active []*user.User

	for _, u := range r.byEmail[email] {
		if u.IsActive() {
			active = append(active, u)
		}
	}

	return active, nil
}
func (r *fakeUserRepo) List(context.Context, user.Filter) ([]*user.User, error) { return nil, nil }
func (r *fakeUserRepo) UpdatePassword(context.Context, string, string) error    { return nil }

type fakeEnvironmentRepo struct {
	byBusiness map[string][]*environment.Environment
	byID       map[string]*environment.Environment
}

func newFakeEnvironmentRepo() *fakeEnvironmentRepo {
	return &fakeEnvironmentRepo{byBusiness: map[string][]*environment.Environment{}, byID: map[string]*environment.Environment{}}
}

func (r *fakeEnvironmentRepo) Create(context.Context, *environment.Environment) (*environment.Environment, error) {
	return nil, nil
}
func (r *fakeEnvironmentRepo) Find(_ context.Context, id string) (*environment.Environment, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}

	return e, nil
}
func (r *fakeEnvironmentRepo) FindByBusinessAndType(context.Context, string, environment.Type) (*environment.Environment, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeEnvironmentRepo) ListByBusiness(_ context.Context, businessID string) ([]*environment.Environment, error) {
	return r.byBusiness[businessID], nil
}

type fakeSessionRepo struct {
	byHash  map[string]*session.Session
	revoked map[string]bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byHash: map[string]*session.Session{}, revoked: map[string]bool{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *session.Session) (*session.Session, error) {
	r.byHash[s.RefreshTokenHash] = s
	return s, nil
}
// FindByRefreshTokenHash returns the row regardless of revoked status,
// matching the real adapter's unconditional SELECT — callers decide what
// a revoked/expired row means (§4.7 Refresh/Revoke).
func (r *fakeSessionRepo) FindByRefreshTokenHash(_ context.Context, hash string) (*session.Session, error) {
	s, ok := r.byHash[hash]
	if !ok {
		return nil, errors.New("not found")
	}

	return s, nil
}
func (r *fakeSessionRepo) Revoke(_ context.Context, id string) error {
	r.revoked[id] = true
	return nil
}

// newService backs Service.DB with a sqlmock-driven *sql.DB so Refresh's
// txrunner.Run can open and commit a real *sql.Tx against it (§4.7).
func newService(t *testing.T) (*Service, *fakeUserRepo, *fakeEnvironmentRepo, *fakeSessionRepo) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectBegin()
	mock.ExpectCommit()

	users := newFakeUserRepo()
	envs := newFakeEnvironmentRepo()
	sessions := newFakeSessionRepo()

	s := &Service{
		Secret:       []byte("test-secret"),
		Users:        users,
		Environments: envs,
		Sessions:     sessions,

		DB:             db,
		NewSessionRepo: func(*sql.Tx) session.Repository { return sessions },
	}

	return s, users, envs, sessions
}

func mustHash(t *testing.T, password string) string {
	t.Helper()

	h, err := passwordhash.Hash(password)
	require.NoError(t, err)

	return h
}

func TestLoginSucceedsAndMintsSession(t *testing.T) {
	s, users, envs, sessions := newService(t)

	hash := mustHash(t, "correcthorse")
	u := &user.User{ID: "u-1", BusinessID: "biz-1", EnvironmentID: "env-prod", Email: "ada@acme.test", PasswordHash: hash, Role: user.RoleAdmin, Status: user.StatusActive}
	users.put(u)
	envs.byBusiness["biz-1"] = []*environment.Environment{{ID: "env-prod", BusinessID: "biz-1", Type: environment.TypeProduction, Status: environment.StatusActive}}

	result, err := s.Login(context.Background(), "ada@acme.test", "correcthorse", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected non-empty access and refresh tokens")
	}

	if len(sessions.byHash) != 1 {
		t.Fatalf("expected exactly one session persisted, got %d", len(sessions.byHash))
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s, users, envs, _ := newService(t)

	hash := mustHash(t, "correcthorse")
	u := &user.User{ID: "u-1", BusinessID: "biz-1", EnvironmentID: "env-prod", Email: "ada@acme.test", PasswordHash: hash, Status: user.StatusActive}
	users.put(u)
	envs.byBusiness["biz-1"] = []*environment.Environment{{ID: "env-prod", BusinessID: "biz-1", Type: environment.TypeProduction, Status: environment.StatusActive}}

	if _, err := s.Login(context.Background(), "ada@acme.test", "wrong", ""); err == nil {
		t.Fatal("expected invalid-credentials error")
	}
}

func TestLoginRejectsSuspendedUser(t *testing.T) {
	s, users, envs, _ := newService(t)

	hash := mustHash(t, "correcthorse")
	u := &user.User{ID: "u-1", BusinessID: "biz-1", EnvironmentID: "env-prod", Email: "ada@acme.test", PasswordHash: hash, Status: user.StatusSuspended}
	users.put(u)
	envs.byBusiness["biz-1"] = []*environment.Environment{{ID: "env-prod", BusinessID: "biz-1", Type: environment.TypeProduction, Status: environment.StatusActive}}

	if _, err := s.Login(context.Background(), "ada@acme.test", "correcthorse", ""); err == nil {
		t.Fatal("expected user-not-active error")
	}
}

func TestLoginSelectsRowMatchingRequestedEnvironment(t *testing.T) {
	s, users, envs, _ := newService(t)

	hash := mustHash(t, "correcthorse")
	sandbox := &user.User{ID: "u-1", BusinessID: "biz-1", EnvironmentID: "env-sandbox", Email: "ada@acme.test", PasswordHash: hash, Role: user.RoleAdmin, Status: user.StatusActive}
	prod := &user.User{ID: "u-2", BusinessID: "biz-1", EnvironmentID: "env-prod", Email: "ada@acme.test", PasswordHash: hash, Role: user.RoleAdmin, Status: user.StatusActive}
	users.put(sandbox)
	users.put(prod)
	envs.byBusiness["biz-1"] = []*environment.Environment{
		{ID: "env-sandbox", BusinessID: "biz-1", Type: environment.TypeSandbox, Status: environment.StatusActive},
		{ID: "env-prod", BusinessID: "biz-1", Type: environment.TypeProduction, Status: environment.StatusActive},
	}

	result, err := s.Login(context.Background(), "ada@acme.test", "correcthorse", "env-prod")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if result.User.ID != "u-2" {
		t.Fatalf("expected the production row for the same email, got %s", result.User.ID)
	}
}

func TestLoginDefaultsToSandboxRowWhenNoEnvironmentRequested(t *testing.T) {
	s, users, envs, _ := newService(t)

	hash := mustHash(t, "correcthorse")
	sandbox := &user.User{ID: "u-1", BusinessID: "biz-1", EnvironmentID: "env-sandbox", Email: "ada@acme.test", PasswordHash: hash, Role: user.RoleAdmin, Status: user.StatusActive}
	prod := &user.User{ID: "u-2", BusinessID: "biz-1", EnvironmentID: "env-prod", Email: "ada@acme.test", PasswordHash: hash, Role: user.RoleAdmin, Status: user.StatusActive}
	users.put(sandbox)
	users.put(prod)
	envs.byBusiness["biz-1"] = []*environment.Environment{
		{ID: "env-sandbox", BusinessID: "biz-1", Type: environment.TypeSandbox, Status: environment.StatusActive},
		{ID: "env-prod", BusinessID: "biz-1", Type: environment.TypeProduction, Status: environment.StatusActive},
	}

	result, err := s.Login(context.Background(), "ada@acme.test", "correcthorse", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if result.User.ID != "u-1" {
		t.Fatalf("expected the sandbox row to win by default, got %s", result.User.ID)
	}
}

func TestRefreshRotatesSessionAndRevokesOld(t *testing.T) {
	s, users, _, sessions := newService(t)

	u := &user.User{ID: "u-1", BusinessID: "biz-1", EnvironmentID: "env-prod", Email: "ada@acme.test", Status: user.StatusActive}
	users.put(u)

	oldPlain := "old-refresh-token"
	oldHash := keyedhash.Sum(s.Secret, oldPlain)
	sessions.byHash[oldHash] = &session.Session{ID: "sess-1", UserID: u.ID, EnvironmentID: u.EnvironmentID, RefreshTokenHash: oldHash, Status: session.StatusActive, ExpiresAt: time.Now().Add(time.Hour)}

	tokens, err := s.Refresh(context.Background(), oldPlain)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if tokens.RefreshToken == oldPlain {
		t.Fatal("expected a freshly minted refresh token")
	}

	if !sessions.revoked["sess-1"] {
		t.Fatal("expected the old session to be revoked")
	}

	if len(sessions.byHash) != 2 {
		t.Fatalf("expected the old and the new session rows to both exist, got %d", len(sessions.byHash))
	}
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	s, users, _, sessions := newService(t)

	u := &user.User{ID: "u-1", Status: user.StatusActive}
	users.put(u)

	plain := "plain-token"
	hash := keyedhash.Sum(s.Secret, plain)
	sessions.byHash[hash] = &session.Session{ID: "sess-1", UserID: u.ID, RefreshTokenHash: hash, Status: session.StatusActive, ExpiresAt: time.Now().Add(-time.Hour)}

	if _, err := s.Refresh(context.Background(), plain); err == nil {
		t.Fatal("expected a session-expired error")
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	s, _, _, sessions := newService(t)

	plain := "plain-token"
	hash := keyedhash.Sum(s.Secret, plain)
	sessions.byHash[hash] = &session.Session{ID: "sess-1", RefreshTokenHash: hash, Status: session.StatusActive, ExpiresAt: time.Now().Add(time.Hour)}

	if err := s.Revoke(context.Background(), plain); err != nil {
		t.Fatalf("first Revoke: %v", err)
	}

	sessions.byHash[hash].Status = session.StatusRevoked

	if err := s.Revoke(context.Background(), plain); err != nil {
		t.Fatalf("second Revoke should be a no-op, got: %v", err)
	}
}

func TestMeReturnsOwnRowWhenNoEnvironmentRequested(t *testing.T) {
	s, users, _, _ := newService(t)

	u := &user.User{ID: "u-1", BusinessID: "biz-1", EnvironmentID: "env-prod", Status: user.StatusActive}
	users.put(u)

	got, err := s.Me(context.Background(), "u-1", "")
	if err != nil {
		t.Fatalf("Me: %v", err)
	}

	if got.ID != "u-1" {
		t.Fatalf("expected the caller's own user row back")
	}
}

func TestMeRejectsEnvironmentFromAnotherBusiness(t *testing.T) {
	s, users, envs, _ := newService(t)

	u := &user.User{ID: "u-1", BusinessID: "biz-1", EnvironmentID: "env-prod", Status: user.StatusActive}
	users.put(u)
	envs.byID["env-other-biz"] = &environment.Environment{ID: "env-other-biz", BusinessID: "biz-2", Type: environment.TypeSandbox, Status: environment.StatusActive}

	if _, err := s.Me(context.Background(), "u-1", "env-other-biz"); err == nil {
		t.Fatal("expected a foreign-environment error")
	}
}
