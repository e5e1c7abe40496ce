// Package ledgerclient implements the outbound RPC to the external Ledger
// service (§4.2, §6.3) over gRPC using the JSON codec in pkg/rpcjson
// instead of a protoc-generated stub.
package ledgerclient

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/vertexpay/core/pkg/rpccontract"
	"github.com/vertexpay/core/pkg/rpcjson"
)

// Outcome is the three-way result of a post_transaction call (§4.2).
type Outcome int

const (
	Ok Outcome = iota
	Failed
	Unreachable
)

// Request is the caller-facing argument set for PostTransaction, independent
// of the wire contract in pkg/rpccontract.
type Request struct {
	OrganizationID        string
	Environment           string
	SourceExternalID      string
	DestinationExternalID string
	Amount                int64
	Currency              string
	ExternalTransactionID string
	IdempotencyKey        string
	CorrelationID         string
}

// Result is the caller-facing result of PostTransaction.
type Result struct {
	Outcome       Outcome
	FailureReason string
}

// Client is the Ledger Client (§4.2).
type Client struct {
	Addr           string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	conn *grpc.ClientConn
}

func New(addr string, connectTimeout, requestTimeout time.Duration) *Client {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}

	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	return &Client{Addr: addr, ConnectTimeout: connectTimeout, RequestTimeout: requestTimeout}
}

func (c *Client) dial() (*grpc.ClientConn, error) {
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

// PostTransaction calls Ledger.PostTransaction with both a connect and a
// per-request timeout, translating the gRPC status into the Ok/Failed/
// Unreachable three-way result (§4.2).
func (c *Client) PostTransaction(ctx context.Context, req Request) Result {
	conn, err := c.dial()
	if err != nil {
		return Result{Outcome: Unreachable, FailureReason: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.RequestTimeout)
	defer cancel()

	wireReq := &rpccontract.PostTransactionRequest{
		OrganizationID:               req.OrganizationID,
		Environment:                  req.Environment,
		SourceExternalAccountID:      req.SourceExternalID,
		DestinationExternalAccountID: req.DestinationExternalID,
		Amount:                       req.Amount,
		Currency:                     req.Currency,
		ExternalTransactionID:        req.ExternalTransactionID,
		IdempotencyKey:               req.IdempotencyKey,
		CorrelationID:                req.CorrelationID,
	}

	resp := &rpccontract.PostTransactionResponse{}

	if err := conn.Invoke(ctx, rpccontract.MethodPostTransaction, wireReq, resp, rpcjson.CallOption()); err != nil {
		st, ok := status.FromError(err)
		if ok {
			switch st.Code() {
			case codes.DeadlineExceeded, codes.Unavailable, codes.Canceled:
				return Result{Outcome: Unreachable, FailureReason: st.Message()}
			}

			return Result{Outcome: Failed, FailureReason: st.Message()}
		}

		return Result{Outcome: Unreachable, FailureReason: err.Error()}
	}

	if resp.Status == "rejected" {
		return Result{Outcome: Failed, FailureReason: resp.FailureReason}
	}

	return Result{Outcome: Ok}
}

// Close releases the underlying channel. The resource-model (§5) permits a
// fresh channel per call as the simple, correct default; this pooled
// single-channel-per-Client variant is the documented optimisation.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	return c.conn.Close()
}
