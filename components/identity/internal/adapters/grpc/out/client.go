// Package out is the outbound gRPC adapter Identity uses to call
// Accounts.CreateDefaultAccount (§4.7 Create user, §6.3), mirroring
// components/accounts/internal/ledgerclient's hand-rolled JSON-codec
// gRPC client shape since both travel over pkg/rpcjson.
package out

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vertexpay/core/pkg/rpccontract"
	"github.com/vertexpay/core/pkg/rpcjson"
)

// AccountsClient calls the Accounts service's CreateDefaultAccount RPC.
type AccountsClient struct {
	Addr           string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	conn *grpc.ClientConn
}

func New(addr string, connectTimeout, requestTimeout time.Duration) *AccountsClient {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}

	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	return &AccountsClient{Addr: addr, ConnectTimeout: connectTimeout, RequestTimeout: requestTimeout}
}

func (c *AccountsClient) dial() (*grpc.ClientConn, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := grpc.NewClient(c.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{MinConnectTimeout: c.ConnectTimeout}),
	)
	if err != nil {
		return nil, err
	}

	c.conn = conn

	return conn, nil
}

// CreateDefaultAccount provisions a default account for a newly created
// user. Failure of this call is failure of create_user itself (§9 Open
// Question 2: the user row is not compensated/deleted).
func (c *AccountsClient) CreateDefaultAccount(ctx context.Context, req rpccontract.CreateDefaultAccountRequest) (*rpccontract.CreateDefaultAccountResponse, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.RequestTimeout)
	defer cancel()

	resp := &rpccontract.CreateDefaultAccountResponse{}

	if err := conn.Invoke(ctx, rpccontract.MethodCreateDefaultAccount, &req, resp, rpcjson.CallOption()); err != nil {
		return nil, err
	}

	return resp, nil
}

// Close releases the underlying channel.
func (c *AccountsClient) Close() error {
	if c.conn == nil {
		return nil
	}

	return c.conn.Close()
}
