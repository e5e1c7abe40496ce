// Package rpccontract defines the plain, JSON-tagged request/response
// shapes for the two inter-service RPCs in §6.3 — no protoc involved, see
// pkg/rpcjson for the transport these travel over.
package rpccontract

// CreateDefaultAccountRequest is Accounts.CreateDefaultAccount's request.
type CreateDefaultAccountRequest struct {
	OrganizationID string `json:"organization_id"`
	Environment    string `json:"environment"`
	UserID         string `json:"user_id"`
	AccountType    string `json:"account_type"`
	Currency       string `json:"currency"`
	AdminUserID    string `json:"admin_user_id,omitempty"`
	Role           string `json:"role"`
}

// CreateDefaultAccountResponse is Accounts.CreateDefaultAccount's response.
type CreateDefaultAccountResponse struct {
	AccountID     string `json:"account_id"`
	AccountNumber string `json:"account_number"`
}

// PostTransactionRequest is Ledger.PostTransaction's request.
type PostTransactionRequest struct {
	OrganizationID             string `json:"organization_id"`
	Environment                string `json:"environment"`
	SourceExternalAccountID    string `json:"source_external_account_id"`
	DestinationExternalAccountID string `json:"destination_external_account_id"`
	Amount                     int64  `json:"amount"`
	Currency                   string `json:"currency"`
	ExternalTransactionID      string `json:"external_transaction_id"`
	IdempotencyKey             string `json:"idempotency_key"`
	CorrelationID              string `json:"correlation_id"`
}

// PostTransactionResponse is Ledger.PostTransaction's response.
type PostTransactionResponse struct {
	Status        string `json:"status"` // "posted" | "rejected"
	FailureReason string `json:"failure_reason,omitempty"`
}

const (
	AccountsServiceName = "accounts.v1.Accounts"
	LedgerServiceName   = "ledger.v1.Ledger"

	MethodCreateDefaultAccount = "/" + AccountsServiceName + "/CreateDefaultAccount"
	MethodPostTransaction      = "/" + LedgerServiceName + "/PostTransaction"
)
