package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motorly/backend/domain"
	"github.com/motorly/backend/repository"
)

const userColumns = `
	id, name, email, role, active,
	password_hash, password_changed_at,
	password_reset_token_hash, password_reset_expires,
	otp_hash, otp_expires,
	created_at, updated_at
`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed credential store.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
		INSERT INTO users (id, name, email, role, active, password_hash, password_changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role,
		user.Active,
		user.PasswordHash,
	)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND active`
	return r.getOne(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND active`
	return r.getOne(ctx, query, email)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2,
			password_changed_at = NOW(),
			password_reset_token_hash = NULL,
			password_reset_expires = NULL,
			updated_at = NOW()
		WHERE id = $1 AND active
	`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	const query = `
		UPDATE users
		SET password_reset_token_hash = $2,
			password_reset_expires = $3,
			updated_at = NOW()
		WHERE id = $1 AND active
	`
	tag, err := r.pool.Exec(ctx, query, id, tokenHash, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ConsumeResetToken matches, rotates and clears in a single UPDATE so a
// concurrent second attempt with the same token observes no matching row.
func (r *userRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*domain.User, error) {
	const query = `
		UPDATE users
		SET password_hash = $2,
			password_changed_at = NOW(),
			password_reset_token_hash = NULL,
			password_reset_expires = NULL,
			updated_at = NOW()
		WHERE password_reset_token_hash = $1
		  AND password_reset_expires > NOW()
		  AND active
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, tokenHash, newPasswordHash)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidOrExpired
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) SetOTP(ctx context.Context, id, otpHash string, expires time.Time) error {
	const query = `
		UPDATE users
		SET otp_hash = $2,
			otp_expires = $3,
			updated_at = NOW()
		WHERE id = $1 AND active
	`
	tag, err := r.pool.Exec(ctx, query, id, otpHash, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ConsumeOTP(ctx context.Context, id, otpHash string) error {
	const query = `
		UPDATE users
		SET otp_hash = NULL,
			otp_expires = NULL,
			updated_at = NOW()
		WHERE id = $1
		  AND otp_hash = $2
		  AND otp_expires > NOW()
		  AND active
	`
	tag, err := r.pool.Exec(ctx, query, id, otpHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidOrExpired
	}
	return nil
}

func (r *userRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Active,
		&user.PasswordHash,
		&user.PasswordChangedAt,
		&user.PasswordResetTokenHash,
		&user.PasswordResetExpires,
		&user.OTPHash,
		&user.OTPExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
