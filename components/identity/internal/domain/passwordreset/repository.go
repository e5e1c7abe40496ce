package passwordreset

import "context"

// Repository is the storage contract for password-reset tokens.
type Repository interface {
	Create(ctx context.Context, t *Token) (*Token, error)
	// InvalidateUnusedForUser marks every unused token of userID used, so
	// request() leaves at most one live token behind (§4.7).
	InvalidateUnusedForUser(ctx context.Context, userID string) error
	// Claim atomically consumes the row matching tokenHash if it is still
	// unused and unexpired. No row matching means the token is unknown,
	// expired, or already used — callers must not distinguish those cases
	// in the response (§4.7, §8 property 7).
	Claim(ctx context.Context, tokenHash string) (*Token, error)
}
