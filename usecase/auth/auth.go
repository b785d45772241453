// Package auth orchestrates the credential lifecycle: signup, login,
// password change and reset, OTP issuance and verification, and account
// deactivation.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/motorly/backend/domain"
	"github.com/motorly/backend/pkg/mailer"
	"github.com/motorly/backend/pkg/secrets"
	"github.com/motorly/backend/pkg/token"
	"github.com/motorly/backend/repository"
	"github.com/motorly/backend/usecase"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// Config carries the validity windows for single-use secrets and the public
// base URL embedded in reset links.
type Config struct {
	ResetTokenTTL time.Duration
	OTPTTL        time.Duration
	PublicURL     string
}

type UseCase struct {
	users    repository.UserRepository
	throttle repository.LoginThrottle
	tokens   *token.Manager
	mail     usecase.MailQueue
	cfg      Config
	logger   *zap.Logger
}

func New(
	users repository.UserRepository,
	throttle repository.LoginThrottle,
	tokens *token.Manager,
	mail usecase.MailQueue,
	cfg Config,
	logger *zap.Logger,
) *UseCase {
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 10 * time.Minute
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		throttle: throttle,
		tokens:   tokens,
		mail:     mail,
		cfg:      cfg,
		logger:   logger,
	}
}

// SignupInput is the typed request contract for Signup.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// Signup creates a user and returns it along with a fresh session token.
// The welcome mail is best-effort and never rolls back the signup.
func (uc *UseCase) Signup(ctx context.Context, in SignupInput) (*domain.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	if in.Name == "" {
		return nil, "", domain.NewError(domain.ErrCodeValidation, "name is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, "", err
	}
	if err := validateNewPassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, "", err
	}

	hash, err := secrets.HashPassword(in.Password)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrCodeInternal, "hashing password", err)
	}

	user, err := uc.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Role:         domain.RoleUser,
		Active:       true,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, "", err
	}

	tok, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrCodeInternal, "issuing token", err)
	}

	uc.sendMail(ctx, usecase.Mail{
		To:       user.Email,
		Template: mailer.TemplateWelcome,
		Params:   map[string]string{"Name": firstName(user.Name)},
	})

	return user, tok, nil
}

// Login verifies credentials and issues a session token. Unknown email,
// wrong password and deactivated account collapse into ErrInvalidCredentials.
func (uc *UseCase) Login(ctx context.Context, email, password, clientAddr string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	throttleKey := email + "|" + clientAddr
	if ok := uc.allowAttempt(ctx, throttleKey); !ok {
		return "", domain.ErrTooManyAttempts
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if !user.IsActive() || !secrets.VerifyPassword(user.PasswordHash, password) {
		return "", domain.ErrInvalidCredentials
	}

	if uc.throttle != nil {
		if err := uc.throttle.Reset(ctx, throttleKey); err != nil {
			uc.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	tok, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "issuing token", err)
	}
	return tok, nil
}

// ForgotPassword stores a hashed single-use reset token and mails the
// plaintext to the user. An unknown email yields the same nil result so the
// response cannot be used to probe for accounts.
func (uc *UseCase) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	}

	plain, err := secrets.NewResetToken()
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "generating reset token", err)
	}

	expires := time.Now().Add(uc.cfg.ResetTokenTTL)
	if err := uc.users.SetResetToken(ctx, user.ID, secrets.HashToken(plain), expires); err != nil {
		return err
	}

	uc.sendMail(ctx, usecase.Mail{
		To:       user.Email,
		Template: mailer.TemplatePasswordReset,
		Params: map[string]string{
			"Name":     firstName(user.Name),
			"ResetURL": uc.cfg.PublicURL + "/api/v1/users/resetPassword/" + plain,
			"ValidFor": uc.cfg.ResetTokenTTL.String(),
		},
	})
	return nil
}

// ResetPassword consumes a reset token and installs the new password. The
// store-level consume is atomic, so a token spends at most once.
func (uc *UseCase) ResetPassword(ctx context.Context, plainToken, password, passwordConfirm string) (string, error) {
	if plainToken == "" {
		return "", domain.ErrInvalidOrExpired
	}
	if err := validateNewPassword(password, passwordConfirm); err != nil {
		return "", err
	}

	hash, err := secrets.HashPassword(password)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "hashing password", err)
	}

	user, err := uc.users.ConsumeResetToken(ctx, secrets.HashToken(plainToken), hash)
	if err != nil {
		return "", err
	}

	tok, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "issuing token", err)
	}
	return tok, nil
}

// UpdatePassword rotates the password of a logged-in user after verifying
// the current one, and reissues a session token since the rotation
// invalidates every outstanding token.
func (uc *UseCase) UpdatePassword(ctx context.Context, userID, current, password, passwordConfirm string) (string, error) {
	if err := validateNewPassword(password, passwordConfirm); err != nil {
		return "", err
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !secrets.VerifyPassword(user.PasswordHash, current) {
		return "", domain.ErrInvalidCredentials
	}

	hash, err := secrets.HashPassword(password)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "hashing password", err)
	}
	if err := uc.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return "", err
	}

	tok, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "issuing token", err)
	}
	return tok, nil
}

// RequestOTP stores a hashed one-time passcode for the user and mails the
// plaintext code. Like ForgotPassword, unknown emails report success.
func (uc *UseCase) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	}

	code, err := secrets.NewOTP()
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "generating otp", err)
	}

	expires := time.Now().Add(uc.cfg.OTPTTL)
	if err := uc.users.SetOTP(ctx, user.ID, secrets.HashToken(code), expires); err != nil {
		return err
	}

	uc.sendMail(ctx, usecase.Mail{
		To:       user.Email,
		Template: mailer.TemplateOTP,
		Params: map[string]string{
			"Name":     firstName(user.Name),
			"OTP":      code,
			"ValidFor": uc.cfg.OTPTTL.String(),
		},
	})
	return nil
}

// VerifyOTP consumes an outstanding passcode for the account. Wrong code
// and elapsed expiry both surface as ErrInvalidOrExpired.
func (uc *UseCase) VerifyOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return domain.ErrInvalidOrExpired
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return domain.ErrInvalidOrExpired
		}
		return err
	}
	return uc.users.ConsumeOTP(ctx, user.ID, secrets.HashToken(code))
}

// Deactivate soft-deletes the account; the record is retained.
func (uc *UseCase) Deactivate(ctx context.Context, userID string) error {
	return uc.users.Deactivate(ctx, userID)
}

// ContactInput is the typed request contract for Contact.
type ContactInput struct {
	Name    string
	Email   string
	Message string
}

// Contact forwards a contact-form submission to the support inbox.
func (uc *UseCase) Contact(ctx context.Context, supportEmail string, in ContactInput) error {
	if strings.TrimSpace(in.Message) == "" {
		return domain.NewError(domain.ErrCodeValidation, "message is required")
	}
	uc.sendMail(ctx, usecase.Mail{
		To:       supportEmail,
		Template: mailer.TemplateContact,
		Params: map[string]string{
			"Name":    in.Name,
			"Email":   in.Email,
			"Message": in.Message,
		},
	})
	return nil
}

// allowAttempt consults the login throttle; a throttle outage fails open so
// an unavailable Redis never locks out logins.
func (uc *UseCase) allowAttempt(ctx context.Context, key string) bool {
	if uc.throttle == nil {
		return true
	}
	ok, err := uc.throttle.Allow(ctx, key)
	if err != nil {
		uc.logger.Warn("login throttle unavailable", zap.Error(err))
		return true
	}
	return ok
}

func (uc *UseCase) sendMail(ctx context.Context, mail usecase.Mail) {
	if uc.mail == nil {
		return
	}
	if err := uc.mail.Enqueue(ctx, mail); err != nil {
		uc.logger.Error("failed to enqueue mail",
			zap.String("template", mail.Template),
			zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return domain.NewError(domain.ErrCodeValidation, "a valid email is required")
	}
	return nil
}

func validateNewPassword(password, confirm string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return domain.NewError(domain.ErrCodeValidation, "password must be between 8 and 128 characters")
	}
	if password != confirm {
		return domain.NewError(domain.ErrCodeValidation, "passwords do not match")
	}
	return nil
}

func firstName(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}
