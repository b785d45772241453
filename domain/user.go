package domain

import "time"

// Roles assignable to a user account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the platform. Credential material
// (password hash, reset-token hash, OTP hash) is never serialized.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PasswordHash      string    `json:"-"`
	PasswordChangedAt time.Time `json:"-"`

	// Reset and OTP fields are set pairwise: either both hash and
	// expiry are present, or neither is.
	PasswordResetTokenHash *string    `json:"-"`
	PasswordResetExpires   *time.Time `json:"-"`
	OTPHash                *string    `json:"-"`
	OTPExpires             *time.Time `json:"-"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Active
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issue time. JWT timestamps carry second granularity, so the
// comparison truncates to seconds; a change in the same second as issuance
// (signup) does not invalidate the freshly issued token.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u == nil || u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}
