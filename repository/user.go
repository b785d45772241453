package repository

import (
	"context"
	"time"

	"github.com/motorly/backend/domain"
)

// UserRepository is the credential store. Mutations that participate in the
// single-use secret flows (ConsumeResetToken, ConsumeOTP) are atomic at the
// store level: a matching row is updated and cleared in one statement, so a
// concurrent second consumption cannot succeed.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdatePassword sets a new password hash, stamps password_changed_at
	// and clears any pending reset pair.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	// ConsumeResetToken atomically matches an unexpired reset-token hash,
	// installs the new password hash and clears the pair. Returns the
	// affected user or domain.ErrInvalidOrExpired.
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*domain.User, error)

	SetOTP(ctx context.Context, id, otpHash string, expires time.Time) error
	// ConsumeOTP atomically matches an unexpired OTP hash for the user and
	// clears the pair. Returns domain.ErrInvalidOrExpired on no match.
	ConsumeOTP(ctx context.Context, id, otpHash string) error

	Deactivate(ctx context.Context, id string) error
}
