// Package passwordreset implements the password-reset request/consume flow
// (§4.7). Email delivery is sketched as a narrow collaborator interface —
// the delivery provider itself is an external system out of scope here —
// and a delivery failure is logged but never surfaced to the caller.
package passwordreset

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/vertexpay/core/components/identity/internal/adapters/postgres/txrunner"
	"github.com/vertexpay/core/components/identity/internal/domain/passwordreset"
	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/appcontext"
	"github.com/vertexpay/core/pkg/keyedhash"
	"github.com/vertexpay/core/pkg/passwordhash"
)

const (
	tokenTTL       = time.Hour
	tokenLen       = 32
	minPasswordLen = 8
)

// Mailer delivers the plaintext reset token out-of-band.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, plaintextToken string) error
}

// Service is the password-reset service (§4.7).
type Service struct {
	Secret []byte
	Users  user.Repository
	Tokens passwordreset.Repository
	Mail   Mailer

	DB          txrunner.Beginner
	NewTokenRepo func(tx *sql.Tx) passwordreset.Repository
}

// Request returns nothing to the caller (a generic "if the account exists…"
// response is the caller's job): it never reveals whether email is registered
// (§4.7 Password reset request, §8 property — no enumeration).
func (s *Service) Request(ctx context.Context, email string) {
	logger := appcontext.NewLoggerFromContext(ctx)

	u, err := s.Users.FindByEmail(ctx, email)
	if err != nil || !u.IsActive() {
		return
	}

	plaintext, err := randomToken()
	if err != nil {
		logger.Errorf("reset token generation failed for user %s: %s", u.ID, err)
		return
	}

	now := time.Now().UTC()

	err = txrunner.Run(ctx, s.DB, func(tx *sql.Tx) error {
		tokens := s.NewTokenRepo(tx)

		if err := tokens.InvalidateUnusedForUser(ctx, u.ID); err != nil {
			return err
		}

		_, err := tokens.Create(ctx, &passwordreset.Token{
			ID:        uuid.NewString(),
			UserID:    u.ID,
			TokenHash: keyedhash.Sum(s.Secret, plaintext),
			ExpiresAt: now.Add(tokenTTL),
			CreatedAt: now,
		})

		return err
	})
	if err != nil {
		logger.Errorf("reset token persistence failed for user %s: %s", u.ID, err)
		return
	}

	if err := s.Mail.SendPasswordReset(ctx, u.Email, plaintext); err != nil {
		logger.Warnf("reset email delivery failed for user %s: %s", u.ID, err)
	}
}

// Consume atomically claims tokenPlaintext, validates the new password's
// strength, hashes it, updates the user, and invalidates any sibling
// unused tokens — all inside one storage transaction (§4.7 Password reset
// consume, §8 property 7).
func (s *Service) Consume(ctx context.Context, tokenPlaintext, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return apperr.ValidateBusinessError(apperr.ErrWeakPassword, "User")
	}

	passwordHash, err := passwordhash.Hash(newPassword)
	if err != nil {
		return apperr.NewInternalError(err)
	}

	hash := keyedhash.Sum(s.Secret, tokenPlaintext)

	err = txrunner.Run(ctx, s.DB, func(tx *sql.Tx) error {
		tokens := s.NewTokenRepo(tx)

		claimed, err := tokens.Claim(ctx, hash)
		if err != nil {
			return err
		}

		if err := s.Users.UpdatePassword(ctx, claimed.UserID, passwordHash); err != nil {
			return err
		}

		return tokens.InvalidateUnusedForUser(ctx, claimed.UserID)
	})
	if err != nil {
		return apperr.ValidateBusinessError(err, "PasswordResetToken")
	}

	return nil
}

func randomToken() (string, error) {
	b := make([]byte, tokenLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
