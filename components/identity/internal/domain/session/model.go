// Package session defines the Session entity and its repository contract
// (§3 Session, §4.7 Login/Refresh/Revoke). The refresh token is stored as
// a keyed hash, not plaintext (§9 Open Question 6), mirroring the
// api-key and reset-token patterns.
package session

import "time"

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Session backs refresh-token rotation for one bearer-token lineage.
type Session struct {
	ID                string
	UserID            string
	EnvironmentID     string
	RefreshTokenHash  string
	JWTID             string
	Status            Status
	ExpiresAt         time.Time
	RevokedAt         time.Time
	CreatedAt         time.Time
}

// IsUsable reports whether the session may still be refreshed: active and
// not yet expired (§3 invariant 5).
func (s *Session) IsUsable(now time.Time) bool {
	return s.Status == StatusActive && s.ExpiresAt.After(now)
}
