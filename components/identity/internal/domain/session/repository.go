package session

import "context"

// Repository is the storage contract for sessions. Refresh-token rotation
// (§4.7 Refresh, §8 property 8) is achieved by the caller constructing two
// Repository instances bound to the same *sql.Tx via txrunner.Run and
// calling Revoke then Create within it — Repository itself stays
// transaction-agnostic, matching the account/transaction adapters' DB
// interface reuse.
type Repository interface {
	Create(ctx context.Context, s *Session) (*Session, error)
	FindByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*Session, error)
	Revoke(ctx context.Context, id string) error
}
