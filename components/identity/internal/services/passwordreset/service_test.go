package passwordreset

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vertexpay/core/components/identity/internal/domain/passwordreset"
	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/pkg/keyedhash"
)

type fakeUserRepo struct {
	byEmail          map[string]*user.User
	updatedPasswords map[string]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*user.User{}, updatedPasswords: map[string]string{}}
}

func (r *fakeUserRepo) Create(context.Context, *user.User) (*user.User, error) { return nil, nil }
func (r *fakeUserRepo) Find(context.Context, string) (*user.User, error)      { return nil, errors.New("not implemented") }
func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, errors.New("not found")
	}

	return u, nil
}
func (r *fakeUserRepo) FindByEmailAndEnvironment(context.Context, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeUserRepo) FindByEmailAndBusiness(context.Context, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeUserRepo) ListByEmail(context.Context, string) ([]*user.User, error) { return nil, nil }
func (r *fakeUserRepo) List(context.Context, user.Filter) ([]*user.User, error) { return nil, nil }
func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.updatedPasswords[id] = passwordHash
	return nil
}

type fakeTokenRepo struct {
	byHash      map[string]*passwordreset.Token
	invalidated []string
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byHash: map[string]*passwordreset.Token{}}
}

func (r *fakeTokenRepo) Create(_ context.Context, t *passwordreset.Token) (*passwordreset.Token, error) {
	r.byHash[t.TokenHash] = t
	return t, nil
}

func (r *fakeTokenRepo) InvalidateUnusedForUser(_ context.Context, userID string) error {
	r.invalidated = append(r.invalidated, userID)

	for _, t := range r.byHash {
		if t.UserID == userID && t.UsedAt.IsZero() {
			t.UsedAt = time.Now().UTC()
		}
	}

	return nil
}

func (r *fakeTokenRepo) Claim(_ context.Context, hash string) (*passwordreset.Token, error) {
	t, ok := r.byHash[hash]
	if !ok || !t.IsUsable(time.Now().UTC()) {
		return nil, errors.New("not found")
	}

	t.UsedAt = time.Now().UTC()

	return t, nil
}

type fakeMailer struct {
	sentTo    string
	sentToken string
	err       error
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, toEmail, plaintextToken string) error {
	m.sentTo, m.sentToken = toEmail, plaintextToken
	return m.err
}

// newService backs Service.DB with a sqlmock-driven *sql.DB since both
// Request and Consume run their repository writes inside txrunner.Run
// (§4.7 Password reset request/consume). Each test arranges its own
// Begin/Commit or Begin/Rollback expectation on the returned mock,
// matching the path it actually exercises.
func newService(t *testing.T) (*Service, *fakeUserRepo, *fakeTokenRepo, *fakeMailer, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	mailer := &fakeMailer{}

	s := &Service{
		Secret: []byte("reset-secret"),
		Users:  users,
		Tokens: tokens,
		Mail:   mailer,

		DB:           db,
		NewTokenRepo: func(*sql.Tx) passwordreset.Repository { return tokens },
	}

	return s, users, tokens, mailer, mock
}

func TestRequestIssuesTokenAndEmailsIt(t *testing.T) {
	s, users, tokens, mailer, mock := newService(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	u := &user.User{ID: "u-1", Email: "ada@acme.test", Status: user.StatusActive}
	users.byEmail[u.Email] = u

	s.Request(context.Background(), u.Email)

	if len(tokens.byHash) != 1 {
		t.Fatalf("expected exactly one token persisted, got %d", len(tokens.byHash))
	}

	if mailer.sentTo != u.Email || mailer.sentToken == "" {
		t.Fatalf("expected the plaintext token emailed to %s, got %+v", u.Email, mailer)
	}
}

func TestRequestIsSilentForUnknownEmail(t *testing.T) {
	s, _, tokens, mailer, _ := newService(t)

	s.Request(context.Background(), "nobody@acme.test")

	if len(tokens.byHash) != 0 {
		t.Fatalf("expected no token persisted for an unknown email, got %d", len(tokens.byHash))
	}

	if mailer.sentTo != "" {
		t.Fatal("expected no email sent for an unknown address")
	}
}

func TestRequestIsSilentForSuspendedUser(t *testing.T) {
	s, users, tokens, mailer, _ := newService(t)

	u := &user.User{ID: "u-1", Email: "ada@acme.test", Status: user.StatusSuspended}
	users.byEmail[u.Email] = u

	s.Request(context.Background(), u.Email)

	if len(tokens.byHash) != 0 || mailer.sentTo != "" {
		t.Fatal("expected no token issued or email sent for a suspended user")
	}
}

func TestConsumeClaimsTokenAndUpdatesPassword(t *testing.T) {
	s, users, tokens, _, mock := newService(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	plaintext := "reset-plaintext"
	hash := keyedhash.Sum(s.Secret, plaintext)
	tokens.byHash[hash] = &passwordreset.Token{ID: "tok-1", UserID: "u-1", TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour)}

	if err := s.Consume(context.Background(), plaintext, "brandnewpassword"); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if _, ok := users.updatedPasswords["u-1"]; !ok {
		t.Fatal("expected the user's password hash to be updated")
	}

	if tokens.byHash[hash].UsedAt.IsZero() {
		t.Fatal("expected the claimed token to be marked used")
	}
}

func TestConsumeRejectsWeakPassword(t *testing.T) {
	s, _, tokens, _, _ := newService(t)

	plaintext := "reset-plaintext"
	hash := keyedhash.Sum(s.Secret, plaintext)
	tokens.byHash[hash] = &passwordreset.Token{ID: "tok-1", UserID: "u-1", TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour)}

	if err := s.Consume(context.Background(), plaintext, "short"); err == nil {
		t.Fatal("expected a weak-password error")
	}
}

func TestConsumeRejectsUnknownOrExpiredToken(t *testing.T) {
	s, _, _, _, mock := newService(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	if err := s.Consume(context.Background(), "not-a-real-token", "brandnewpassword"); err == nil {
		t.Fatal("expected an error for an unrecognized token")
	}
}
