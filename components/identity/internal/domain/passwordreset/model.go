// Package passwordreset defines the PasswordResetToken entity and its
// repository contract (§3 PasswordResetToken, §4.7 Password reset
// request/consume). At most one unexpired, unused token exists per user
// at a time; consumption is an atomic claim-via-RETURNING (§8 property 7).
package passwordreset

import "time"

// Token is a single-use, time-bounded credential for resetting a user's
// password. Only its keyed hash is persisted.
type Token struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    time.Time
	CreatedAt time.Time
}

func (t *Token) IsUsable(now time.Time) bool {
	return t.UsedAt.IsZero() && t.ExpiresAt.After(now)
}
