// Package registration implements business registration and admin-guarded
// user creation (§4.7 Register business, Create user): the former
// atomically materialises a Business, its two Environments, and a first
// admin User in one storage transaction; the latter adds a further user to
// an existing business/environment and synchronously provisions its
// default account over the outbound Accounts RPC.
package registration

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/vertexpay/core/components/identity/internal/adapters/postgres/txrunner"
	"github.com/vertexpay/core/components/identity/internal/adapters/rabbitmq"
	"github.com/vertexpay/core/components/identity/internal/domain/business"
	"github.com/vertexpay/core/components/identity/internal/domain/environment"
	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/appcontext"
	"github.com/vertexpay/core/pkg/passwordhash"
	"github.com/vertexpay/core/pkg/rpccontract"
)

const minPasswordLen = 8

// AccountsClient is the subset of the outbound Accounts RPC client this
// service needs, narrowed for testability.
type AccountsClient interface {
	CreateDefaultAccount(ctx context.Context, req rpccontract.CreateDefaultAccountRequest) (*rpccontract.CreateDefaultAccountResponse, error)
}

// EventPublisher is the subset of the outbound event-bus adapter this
// service needs to announce user creation (§4.6, §6.4).
type EventPublisher interface {
	UserCreated(ctx context.Context, evt rabbitmq.UserCreatedEvent) error
}

// Service is the registration service (§4.7).
type Service struct {
	DB           txrunner.Beginner
	Businesses   business.Repository
	Environments environment.Repository
	Users        user.Repository
	Accounts     AccountsClient
	Events       EventPublisher

	// NewBusinessRepo/NewEnvironmentRepo/NewUserRepo bind a fresh repository
	// instance to the *sql.Tx opened for the duration of one atomic flow, so
	// Repository itself never needs to know about database/sql.
	NewBusinessRepo    func(tx *sql.Tx) business.Repository
	NewEnvironmentRepo func(tx *sql.Tx) environment.Repository
	NewUserRepo        func(tx *sql.Tx) user.Repository
}

// RegisterInput is the input to Register.
type RegisterInput struct {
	Name           string
	Website        string
	AdminFirstName string
	AdminLastName  string
	AdminEmail     string
	AdminPassword  string
}

// RegisterResult is the atomically-created tenant shape.
type RegisterResult struct {
	Business   *business.Business
	Sandbox    *environment.Environment
	Production *environment.Environment
	Admin      *user.User
}

// Register creates a business, its sandbox and production environments,
// and a first admin user (in production) atomically (§4.7). It does not
// provision a default account for the admin — that is reserved for
// CreateUser, which has a caller to attribute accounts to.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if len(in.AdminPassword) < minPasswordLen {
		return nil, apperr.ValidateBusinessError(apperr.ErrWeakPassword, "User")
	}

	passwordHash, err := passwordhash.Hash(in.AdminPassword)
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}

	now := time.Now().UTC()

	result := &RegisterResult{}

	err = txrunner.Run(ctx, s.DB, func(tx *sql.Tx) error {
		businesses := s.NewBusinessRepo(tx)
		environments := s.NewEnvironmentRepo(tx)
		users := s.NewUserRepo(tx)

		biz, err := businesses.Create(ctx, &business.Business{
			ID:        uuid.NewString(),
			Name:      in.Name,
			Website:   in.Website,
			Status:    business.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}

		sandbox, err := environments.Create(ctx, &environment.Environment{
			ID:         uuid.NewString(),
			BusinessID: biz.ID,
			Type:       environment.TypeSandbox,
			Status:     environment.StatusActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}

		production, err := environments.Create(ctx, &environment.Environment{
			ID:         uuid.NewString(),
			BusinessID: biz.ID,
			Type:       environment.TypeProduction,
			Status:     environment.StatusActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}

		admin, err := users.Create(ctx, &user.User{
			ID:            uuid.NewString(),
			BusinessID:    biz.ID,
			EnvironmentID: production.ID,
			FirstName:     in.AdminFirstName,
			LastName:      in.AdminLastName,
			Email:         in.AdminEmail,
			PasswordHash:  passwordHash,
			Role:          user.RoleAdmin,
			Status:        user.StatusActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return err
		}

		result.Business, result.Sandbox, result.Production, result.Admin = biz, sandbox, production, admin

		return nil
	})
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "Business")
	}

	if s.Events != nil {
		if err := s.Events.UserCreated(ctx, rabbitmq.UserCreatedEvent{
			OrganizationID: result.Business.ID,
			Environment:    string(environment.TypeProduction),
			UserID:         result.Admin.ID,
			Role:           string(user.RoleAdmin),
		}); err != nil {
			appcontext.NewLoggerFromContext(ctx).Warnf("user-created event publish failed for admin %s: %s", result.Admin.ID, err)
		}
	}

	return result, nil
}

// CreateUserInput is the input to CreateUser.
type CreateUserInput struct {
	BusinessID        string
	EnvironmentID     string
	FirstName         string
	LastName          string
	Email             string
	Password          string
	Role              user.Role
	CreatedByUserID   string
	CreatedByAPIKeyID string
}

// CreateUser adds a user to an existing business/environment and
// synchronously provisions its default account over the Accounts RPC
// (§4.7 Create user, §9 Open Question 2: RPC failure fails the whole call,
// the already-committed user row is not compensated).
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*user.User, error) {
	logger := appcontext.NewLoggerFromContext(ctx)

	if len(in.Password) < minPasswordLen {
		return nil, apperr.ValidateBusinessError(apperr.ErrWeakPassword, "User")
	}

	env, err := s.Environments.Find(ctx, in.EnvironmentID)
	if err != nil {
		return nil, apperr.ValidateBusinessError(apperr.ErrEnvironmentNotFound, "Environment")
	}

	if env.BusinessID != in.BusinessID {
		return nil, apperr.ValidateBusinessError(apperr.ErrForeignEnvironment, "Environment")
	}

	passwordHash, err := passwordhash.Hash(in.Password)
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}

	now := time.Now().UTC()

	created, err := s.Users.Create(ctx, &user.User{
		ID:                uuid.NewString(),
		BusinessID:        in.BusinessID,
		EnvironmentID:     in.EnvironmentID,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             in.Email,
		PasswordHash:      passwordHash,
		Role:              in.Role,
		Status:            user.StatusActive,
		CreatedByUserID:   in.CreatedByUserID,
		CreatedByAPIKeyID: in.CreatedByAPIKeyID,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "User")
	}

	accountRole := "customer"
	adminUserID := in.CreatedByUserID

	if created.IsAdmin() {
		accountRole = "admin"
		adminUserID = ""
	}

	_, err = s.Accounts.CreateDefaultAccount(ctx, rpccontract.CreateDefaultAccountRequest{
		OrganizationID: in.BusinessID,
		Environment:    string(env.Type),
		UserID:         created.ID,
		AccountType:    "checking",
		Currency:       "USD",
		AdminUserID:    adminUserID,
		Role:           accountRole,
	})
	if err != nil {
		logger.Errorf("default account provisioning failed for user %s: %s", created.ID, err)
		return nil, apperr.NewInternalError(err)
	}

	if s.Events != nil {
		if err := s.Events.UserCreated(ctx, rabbitmq.UserCreatedEvent{
			OrganizationID: in.BusinessID,
			Environment:    string(env.Type),
			UserID:         created.ID,
			Role:           accountRole,
			AdminUserID:    adminUserID,
		}); err != nil {
			logger.Warnf("user-created event publish failed for user %s: %s", created.ID, err)
		}
	}

	return created, nil
}
