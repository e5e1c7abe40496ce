package authextractor

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vertexpay/core/components/identity/internal/domain/apikey"
	"github.com/vertexpay/core/components/identity/internal/domain/environment"
	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/pkg/keyedhash"
	"github.com/vertexpay/core/pkg/nethttp"
	"github.com/vertexpay/core/pkg/sessionauth"
)

type fakeApiKeyRepo struct{ byHash map[string]*apikey.ApiKey }

func (r *fakeApiKeyRepo) Create(context.Context, *apikey.ApiKey) (*apikey.ApiKey, error) { return nil, nil }
func (r *fakeApiKeyRepo) Find(context.Context, string) (*apikey.ApiKey, error)           { return nil, errors.New("not implemented") }
func (r *fakeApiKeyRepo) FindByKeyHash(_ context.Context, hash string) (*apikey.ApiKey, error) {
	k, ok := r.byHash[hash]
	if !ok {
		return nil, errors.New("not found")
	}

	return k, nil
}
func (r *fakeApiKeyRepo) ListByBusiness(context.Context, string) ([]*apikey.ApiKey, error) { return nil, nil }
func (r *fakeApiKeyRepo) Revoke(context.Context, string) error                             { return nil }
func (r *fakeApiKeyRepo) TouchLastUsed(context.Context, string) error                      { return nil }

type fakeUserRepo struct{ byID map[string]*user.User }

func (r *fakeUserRepo) Create(context.Context, *user.User) (*user.User, error) { return nil, nil }
func (r *fakeUserRepo) Find(_ context.Context, id string) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}

	return u, nil
}
func (r *fakeUserRepo) FindByEmail(context.Context, string) (*user.User, error) { return nil, errors.New("not implemented") }
func (r *fakeUserRepo) FindByEmailAndEnvironment(context.Context, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeUserRepo) FindByEmailAndBusiness(context.Context, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeUserRepo) ListByEmail(context.Context, string) ([]*user.User, error) { return nil, nil }
func (r *fakeUserRepo) List(context.Context, user.Filter) ([]*user.User, error) { return nil, nil }
func (r *fakeUserRepo) UpdatePassword(context.Context, string, string) error    { return nil }

type fakeEnvironmentRepo struct{}

func (fakeEnvironmentRepo) Create(context.Context, *environment.Environment) (*environment.Environment, error) {
	return nil, nil
}
func (fakeEnvironmentRepo) Find(context.Context, string) (*environment.Environment, error) {
	return nil, errors.New("not implemented")
}
func (fakeEnvironmentRepo) FindByBusinessAndType(_ context.Context, businessID string, envType environment.Type) (*environment.Environment, error) {
	return &environment.Environment{ID: businessID + "-" + string(envType), BusinessID: businessID, Type: envType, Status: environment.StatusActive}, nil
}
func (fakeEnvironmentRepo) ListByBusiness(context.Context, string) ([]*environment.Environment, error) {
	return nil, nil
}

func newApp(secret []byte, apiKeys *fakeApiKeyRepo, users *fakeUserRepo) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(secret, apiKeys, users, fakeEnvironmentRepo{}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		p, _ := FromContext(c)
		return c.JSON(p)
	})

	return app
}

func signSession(t *testing.T, secret []byte, claims sessionauth.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign session token: %v", err)
	}

	return token
}

func TestMiddlewareAcceptsValidBearerToken(t *testing.T) {
	secret := []byte("session-secret")
	envID := uuid.NewString()

	users := &fakeUserRepo{byID: map[string]*user.User{
		"u-1": {ID: "u-1", BusinessID: "biz-1", EnvironmentID: envID, Role: user.RoleAdmin, Status: user.StatusActive},
	}}

	app := newApp(secret, &fakeApiKeyRepo{byHash: map[string]*apikey.ApiKey{}}, users)

	token := signSession(t, secret, sessionauth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u-1",
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(nethttp.HeaderAuthorization, "Bearer "+token)
	req.Header.Set(nethttp.HeaderEnvironment, envID)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMiddlewareRejectsMissingCredential(t *testing.T) {
	app := newApp([]byte("session-secret"), &fakeApiKeyRepo{byHash: map[string]*apikey.ApiKey{}}, &fakeUserRepo{byID: map[string]*user.User{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMiddlewareRejectsSuspendedUser(t *testing.T) {
	secret := []byte("session-secret")
	envID := uuid.NewString()

	users := &fakeUserRepo{byID: map[string]*user.User{
		"u-1": {ID: "u-1", BusinessID: "biz-1", EnvironmentID: envID, Status: user.StatusSuspended},
	}}

	app := newApp(secret, &fakeApiKeyRepo{byHash: map[string]*apikey.ApiKey{}}, users)

	token := signSession(t, secret, sessionauth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u-1",
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(nethttp.HeaderAuthorization, "Bearer "+token)
	req.Header.Set(nethttp.HeaderEnvironment, envID)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for a suspended user, got %d", resp.StatusCode)
	}
}

func TestMiddlewareRejectsBearerForForeignEnvironment(t *testing.T) {
	secret := []byte("session-secret")

	users := &fakeUserRepo{byID: map[string]*user.User{
		"u-1": {ID: "u-1", BusinessID: "biz-1", EnvironmentID: uuid.NewString(), Status: user.StatusActive},
	}}

	app := newApp(secret, &fakeApiKeyRepo{byHash: map[string]*apikey.ApiKey{}}, users)

	token := signSession(t, secret, sessionauth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u-1",
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(nethttp.HeaderAuthorization, "Bearer "+token)
	req.Header.Set(nethttp.HeaderEnvironment, uuid.NewString())

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for a bearer token scoped to another environment, got %d", resp.StatusCode)
	}
}

func TestMiddlewareAcceptsValidAPIKey(t *testing.T) {
	secret := []byte("key-secret")
	plaintext := "plaintext-key"
	hash := keyedhash.Sum(secret, plaintext)

	apiKeys := &fakeApiKeyRepo{byHash: map[string]*apikey.ApiKey{
		hash: {ID: "key-1", BusinessID: "biz-1", Status: apikey.StatusActive},
	}}

	app := newApp(secret, apiKeys, &fakeUserRepo{byID: map[string]*user.User{}})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(nethttp.HeaderAPIKey, plaintext)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMiddlewareRejectsRevokedAPIKey(t *testing.T) {
	secret := []byte("key-secret")
	plaintext := "plaintext-key"
	hash := keyedhash.Sum(secret, plaintext)

	apiKeys := &fakeApiKeyRepo{byHash: map[string]*apikey.ApiKey{
		hash: {ID: "key-1", BusinessID: "biz-1", Status: apikey.StatusRevoked},
	}}

	app := newApp(secret, apiKeys, &fakeUserRepo{byID: map[string]*user.User{}})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(nethttp.HeaderAPIKey, plaintext)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode == fiber.StatusOK {
		t.Fatal("expected a revoked api key to be rejected")
	}
}
