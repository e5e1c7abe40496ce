// Package apikeys implements API-key issuance and revocation (§4.7).
package apikeys

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/vertexpay/core/components/identity/internal/domain/apikey"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/keyedhash"
)

const keyLen = 32

// Service is the API-key service (§4.7 API-key issuance/revocation).
type Service struct {
	Secret  []byte
	ApiKeys apikey.Repository
}

// Issued carries the one-time plaintext alongside the persisted row.
type Issued struct {
	ApiKey    *apikey.ApiKey
	Plaintext string
}

// Issue mints a new API key scoped to businessID and, optionally,
// environmentID (empty means any environment of the business). The
// plaintext is returned exactly once (§3 ApiKey, §4.7).
func (s *Service) Issue(ctx context.Context, businessID, environmentID, createdByUserID string) (*Issued, error) {
	b := make([]byte, keyLen)
	if _, err := rand.Read(b); err != nil {
		return nil, apperr.NewInternalError(err)
	}

	plaintext := base64.RawURLEncoding.EncodeToString(b)

	created, err := s.ApiKeys.Create(ctx, &apikey.ApiKey{
		ID:              uuid.NewString(),
		BusinessID:      businessID,
		EnvironmentID:   environmentID,
		KeyHash:         keyedhash.Sum(s.Secret, plaintext),
		Status:          apikey.StatusActive,
		CreatedByUserID: createdByUserID,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}

	return &Issued{ApiKey: created, Plaintext: plaintext}, nil
}

// List returns every API key issued under businessID.
func (s *Service) List(ctx context.Context, businessID string) ([]*apikey.ApiKey, error) {
	keys, err := s.ApiKeys.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}

	return keys, nil
}

// Revoke marks id revoked, scoped to businessID so one tenant cannot revoke
// another's key.
func (s *Service) Revoke(ctx context.Context, businessID, id string) error {
	k, err := s.ApiKeys.Find(ctx, id)
	if err != nil {
		return apperr.ValidateBusinessError(apperr.ErrApiKeyNotFound, "ApiKey")
	}

	if k.BusinessID != businessID {
		return apperr.ValidateBusinessError(apperr.ErrApiKeyNotFound, "ApiKey")
	}

	if err := s.ApiKeys.Revoke(ctx, id); err != nil {
		return apperr.NewInternalError(err)
	}

	return nil
}
