// Package apikey defines the ApiKey entity and its repository contract
// (§3 ApiKey, §4.7 API-key issuance). Only the keyed hash is ever
// persisted; the plaintext is returned once, at issuance.
package apikey

import "time"

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// ApiKey is a service credential scoped to a business and, optionally, to
// one of its environments. A null EnvironmentID means "any environment of
// this business" (§3 ApiKey).
type ApiKey struct {
	ID              string
	BusinessID      string
	EnvironmentID   string
	KeyHash         string
	Status          Status
	LastUsedAt      time.Time
	CreatedByUserID string
	RevokedAt       time.Time
	CreatedAt       time.Time
}

func (k *ApiKey) IsActive() bool { return k.Status == StatusActive }

// ScopesEnvironment reports whether the key authorises requests against
// the given environment id: either it carries no environment (any) or it
// matches exactly.
func (k *ApiKey) ScopesEnvironment(environmentID string) bool {
	return k.EnvironmentID == "" || k.EnvironmentID == environmentID
}
