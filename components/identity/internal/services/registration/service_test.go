package registration

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vertexpay/core/components/identity/internal/domain/business"
	"github.com/vertexpay/core/components/identity/internal/domain/environment"
	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/pkg/rpccontract"
)

type fakeBusinessRepo struct{ created *business.Business }

func (r *fakeBusinessRepo) Create(_ context.Context, b *business.Business) (*business.Business, error) {
	r.created = b
	return b, nil
}
func (r *fakeBusinessRepo) Find(context.Context, string) (*business.Business, error) { return r.created, nil }

type fakeEnvironmentRepo struct {
	byID map[string]*environment.Environment
}

func newFakeEnvironmentRepo() *fakeEnvironmentRepo {
	return &fakeEnvironmentRepo{byID: map[string]*environment.Environment{}}
}

func (r *fakeEnvironmentRepo) Create(_ context.Context, e *environment.Environment) (*environment.Environment, error) {
	r.byID[e.ID] = e
	return e, nil
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
	var out []*environment.Environment
	for _, e := range r.byID {
		if e.BusinessID == businessID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeUserRepo struct{ byEmail map[string]*user.User }

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{byEmail: map[string]*user.User{}} }

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.byEmail[u.Email] = u
	return u, nil
}
func (r *fakeUserRepo) Find(context.Context, string) (*user.User, error) { return nil, errors.New("not implemented") }
func (r *fakeUserRepo) FindByEmail(context.Context, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeUserRepo) FindByEmailAndEnvironment(context.Context, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeUserRepo) FindByEmailAndBusiness(context.Context, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeUserRepo) ListByEmail(context.Context, string) ([]*user.User, error) { return nil, nil }
func (r *fakeUserRepo) List(context.Context, user.Filter) ([]*user.User, error) { return nil, nil }
func (r *fakeUserRepo) UpdatePassword(context.Context, string, string) error    { return nil }

type fakeAccountsClient struct {
	calls []rpccontract.CreateDefaultAccountRequest
	err   error
}

func (c *fakeAccountsClient) CreateDefaultAccount(_ context.Context, req rpccontract.CreateDefaultAccountRequest) (*rpccontract.CreateDefaultAccountResponse, error) {
	if c.err != nil {
		return nil, c.err
	}

	c.calls = append(c.calls, req)

	return &rpccontract.CreateDefaultAccountResponse{AccountID: "acc-1"}, nil
}

// newService backs Service.DB with a sqlmock-driven *sql.DB so Register's
// txrunner.Run can open and commit a real *sql.Tx; the injected repos ignore
// the tx argument and write straight to their in-memory maps, so a single
// Begin/Commit pair covers every test that calls Register once.
func newService(t *testing.T) (*Service, *fakeEnvironmentRepo, *fakeUserRepo, *fakeAccountsClient) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectBegin()
	mock.ExpectCommit()

	envs := newFakeEnvironmentRepo()
	users := newFakeUserRepo()
	accounts := &fakeAccountsClient{}

	s := &Service{
		DB:           db,
		Businesses:   &fakeBusinessRepo{},
		Environments: envs,
		Users:        users,
		Accounts:     accounts,

		NewBusinessRepo:    func(*sql.Tx) business.Repository { return &fakeBusinessRepo{} },
		NewEnvironmentRepo: func(*sql.Tx) environment.Repository { return envs },
		NewUserRepo:        func(*sql.Tx) user.Repository { return users },
	}

	return s, envs, users, accounts
}

func TestRegisterCreatesBusinessEnvironmentsAndAdmin(t *testing.T) {
	s, envs, users, accounts := newService(t)

	result, err := s.Register(context.Background(), RegisterInput{
		Name:           "Acme",
		AdminFirstName: "Ada",
		AdminLastName:  "Lovelace",
		AdminEmail:     "ada@acme.test",
		AdminPassword:  "supersecret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if result.Sandbox.Type != environment.TypeSandbox || result.Production.Type != environment.TypeProduction {
		t.Fatalf("expected sandbox+production environments, got %v %v", result.Sandbox.Type, result.Production.Type)
	}

	if !result.Admin.IsAdmin() {
		t.Fatalf("expected admin role on the created user")
	}

	if len(envs.byID) != 2 {
		t.Fatalf("expected 2 environments persisted, got %d", len(envs.byID))
	}

	if _, ok := users.byEmail["ada@acme.test"]; !ok {
		t.Fatalf("expected admin user persisted")
	}

	if len(accounts.calls) != 0 {
		t.Fatalf("Register must not call the Accounts RPC for the admin user")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	s, _, _, _ := newService(t)

	_, err := s.Register(context.Background(), RegisterInput{
		Name: "Acme", AdminEmail: "ada@acme.test", AdminPassword: "short",
	})
	if err == nil {
		t.Fatal("expected a weak-password error")
	}
}

func TestCreateUserProvisionsDefaultAccount(t *testing.T) {
	s, envs, _, accounts := newService(t)

	reg, err := s.Register(context.Background(), RegisterInput{
		Name: "Acme", AdminFirstName: "Ada", AdminLastName: "Lovelace",
		AdminEmail: "ada@acme.test", AdminPassword: "supersecret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	created, err := s.CreateUser(context.Background(), CreateUserInput{
		BusinessID:      reg.Business.ID,
		EnvironmentID:   reg.Production.ID,
		FirstName:       "Grace",
		LastName:        "Hopper",
		Email:           "grace@acme.test",
		Password:        "alsosecret",
		Role:            user.RoleUser,
		CreatedByUserID: reg.Admin.ID,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if len(accounts.calls) != 1 {
		t.Fatalf("expected exactly one CreateDefaultAccount call, got %d", len(accounts.calls))
	}

	call := accounts.calls[0]
	if call.Role != "customer" || call.AdminUserID != reg.Admin.ID {
		t.Fatalf("unexpected account request: %+v", call)
	}

	if created.BusinessID != reg.Business.ID {
		t.Fatalf("created user has the wrong business id")
	}

	_ = envs
}

func TestCreateUserFailsWhenAccountsRPCFails(t *testing.T) {
	s, _, _, accounts := newService(t)

	reg, err := s.Register(context.Background(), RegisterInput{
		Name: "Acme", AdminFirstName: "Ada", AdminLastName: "Lovelace",
		AdminEmail: "ada@acme.test", AdminPassword: "supersecret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	accounts.err = errors.New("accounts unreachable")

	if _, err := s.CreateUser(context.Background(), CreateUserInput{
		BusinessID: reg.Business.ID, EnvironmentID: reg.Production.ID,
		FirstName: "Grace", LastName: "Hopper", Email: "grace@acme.test", Password: "alsosecret",
	}); err == nil {
		t.Fatal("expected CreateUser to fail when the Accounts RPC fails")
	}
}

func TestCreateUserRejectsForeignEnvironment(t *testing.T) {
	s, envs, _, _ := newService(t)

	other := &environment.Environment{ID: "env-other", BusinessID: "other-biz", Type: environment.TypeProduction, Status: environment.StatusActive}
	envs.byID[other.ID] = other

	_, err := s.CreateUser(context.Background(), CreateUserInput{
		BusinessID: "biz-1", EnvironmentID: other.ID, Email: "x@acme.test", Password: "alsosecret",
	})
	if err == nil {
		t.Fatal("expected a foreign-environment error")
	}
}
