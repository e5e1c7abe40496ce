// Package in is the inbound gRPC adapter for Accounts.CreateDefaultAccount
// (§4.7, §6.3), called synchronously by Identity when it creates a user.
package in

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/google/uuid"

	"github.com/vertexpay/core/components/accounts/internal/domain/account"
	"github.com/vertexpay/core/components/accounts/internal/services/accountnumber"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/appcontext"
	"github.com/vertexpay/core/pkg/rpccontract"
	"github.com/vertexpay/core/pkg/rpcjson"
)

// Server implements the Accounts RPC surface over the JSON gRPC codec.
type Server struct {
	Accounts  account.Repository
	Generator *accountnumber.Generator
}

// ServiceDesc builds a hand-written grpc.ServiceDesc for Accounts, standing
// in for a protoc-generated one (§6.3 transport note).
func (s *Server) ServiceDesc() grpc.ServiceDesc {
	return grpc.ServiceDesc{
		ServiceName: rpccontract.AccountsServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			rpcjson.Method("CreateDefaultAccount",
				func() any { return &rpccontract.CreateDefaultAccountRequest{} },
				func(ctx context.Context, req any) (any, error) {
					return s.createDefaultAccount(ctx, req.(*rpccontract.CreateDefaultAccountRequest))
				}),
		},
	}
}

func (s *Server) createDefaultAccount(ctx context.Context, req *rpccontract.CreateDefaultAccountRequest) (*rpccontract.CreateDefaultAccountResponse, error) {
	logger := appcontext.NewLoggerFromContext(ctx)

	if req.Role == "customer" && req.AdminUserID == "" {
		return nil, apperr.ValidateBusinessError(apperr.ErrCustomerRequiresAdmin, "Account")
	}

	number, err := s.Generator.Generate(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	a := &account.Account{
		ID:             uuid.NewString(),
		AccountNumber:  number,
		AccountType:    account.TypeChecking,
		OrganizationID: req.OrganizationID,
		Environment:    req.Environment,
		UserID:         req.UserID,
		AdminUserID:    req.AdminUserID,
		UserRole:       account.Role(req.Role),
		Currency:       req.Currency,
		Status:         account.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.Accounts.Create(ctx, a)
	if err != nil {
		return nil, apperr.ValidateBusinessError(err, "Account")
	}

	logger.Infof("provisioned default account %s for user %s", created.ID, created.UserID)

	return &rpccontract.CreateDefaultAccountResponse{
		AccountID:     created.ID,
		AccountNumber: created.AccountNumber,
	}, nil
}
