package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motorly/backend/domain"
	"github.com/motorly/backend/pkg/mailer"
	"github.com/motorly/backend/pkg/token"
)

type fixture struct {
	uc       *UseCase
	users    *memoryUserRepo
	mail     *recordingMailQueue
	throttle *stubThrottle
	tokens   *token.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := token.New("test-signing-secret", time.Hour)
	require.NoError(t, err)

	users := newMemoryUserRepo()
	mail := &recordingMailQueue{}
	throttle := newStubThrottle(5)

	uc := New(users, throttle, tokens, mail, Config{
		ResetTokenTTL: 10 * time.Minute,
		OTPTTL:        10 * time.Minute,
		PublicURL:     "https://motorly.test",
	}, zap.NewNop())

	return &fixture{uc: uc, users: users, mail: mail, throttle: throttle, tokens: tokens}
}

func (f *fixture) signup(t *testing.T, email, password string) *domain.User {
	t.Helper()
	user, _, err := f.uc.Signup(context.Background(), SignupInput{
		Name:            "Ada Lovelace",
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	})
	require.NoError(t, err)
	return user
}

func TestSignup_ThenLoginSucceeds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user, tok, err := f.uc.Signup(ctx, SignupInput{
		Name:            "Ada Lovelace",
		Email:           "a@x.com",
		Password:        "secret123",
		PasswordConfirm: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, user.Active)
	assert.NotEqual(t, "secret123", user.PasswordHash, "hash must not be the plaintext")

	claims, err := f.tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	loginTok, err := f.uc.Login(ctx, "a@x.com", "secret123", "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, loginTok)
}

func TestSignup_SendsWelcomeMail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.signup(t, "ada@x.com", "secret123")

	mail, ok := f.mail.last()
	require.True(t, ok)
	assert.Equal(t, mailer.TemplateWelcome, mail.Template)
	assert.Equal(t, "ada@x.com", mail.To)
	assert.Equal(t, "Ada", mail.Params["Name"])
}

func TestSignup_MailFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.mail.fail = true

	_, tok, err := f.uc.Signup(context.Background(), SignupInput{
		Name:            "Ada",
		Email:           "ada@x.com",
		Password:        "secret123",
		PasswordConfirm: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	_, err = f.uc.Login(context.Background(), "ada@x.com", "secret123", "ip")
	require.NoError(t, err)
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   SignupInput
	}{
		{"mismatched confirm", SignupInput{Name: "A", Email: "a@x.com", Password: "secret123", PasswordConfirm: "secret124"}},
		{"too short", SignupInput{Name: "A", Email: "a@x.com", Password: "short", PasswordConfirm: "short"}},
		{"empty password", SignupInput{Name: "A", Email: "a@x.com"}},
		{"missing name", SignupInput{Email: "a@x.com", Password: "secret123", PasswordConfirm: "secret123"}},
		{"bad email", SignupInput{Name: "A", Email: "not-an-email", Password: "secret123", PasswordConfirm: "secret123"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.uc.Signup(ctx, tc.in)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation), "got %v", err)
		})
	}
}

func TestSignup_DuplicateEmailConflicts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.signup(t, "a@x.com", "secret123")

	_, _, err := f.uc.Signup(context.Background(), SignupInput{
		Name:            "Imposter",
		Email:           "A@X.COM",
		Password:        "different1",
		PasswordConfirm: "different1",
	})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict), "got %v", err)
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.signup(t, "a@x.com", "secret123")

	_, unknownErr := f.uc.Login(ctx, "nobody@x.com", "secret123", "ip")
	_, wrongErr := f.uc.Login(ctx, "a@x.com", "wrongpass1", "ip")
	assert.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, domain.ErrInvalidCredentials)

	require.NoError(t, f.uc.Deactivate(ctx, user.ID))
	_, inactiveErr := f.uc.Login(ctx, "a@x.com", "secret123", "ip")
	assert.ErrorIs(t, inactiveErr, domain.ErrInvalidCredentials)
}

func TestLogin_Throttled(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.signup(t, "a@x.com", "secret123")

	for i := 0; i < 5; i++ {
		_, err := f.uc.Login(ctx, "a@x.com", "wrongpass1", "10.0.0.1")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}
	_, err := f.uc.Login(ctx, "a@x.com", "secret123", "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)

	// A different client address is unaffected.
	_, err = f.uc.Login(ctx, "a@x.com", "secret123", "10.0.0.2")
	assert.NoError(t, err)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.uc.ForgotPassword(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.Zero(t, f.mail.count(), "no mail for unknown accounts")
}

func TestForgotPassword_StoresDigestAndMailsPlaintext(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.signup(t, "a@x.com", "secret123")
	require.NoError(t, f.uc.ForgotPassword(ctx, "a@x.com"))

	mail, ok := f.mail.last()
	require.True(t, ok)
	require.Equal(t, mailer.TemplatePasswordReset, mail.Template)

	resetURL := mail.Params["ResetURL"]
	plain := resetURL[strings.LastIndexByte(resetURL, '/')+1:]
	require.NotEmpty(t, plain)

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordResetTokenHash)
	require.NotNil(t, stored.PasswordResetExpires)
	assert.NotEqual(t, plain, *stored.PasswordResetTokenHash, "store must never hold the plaintext")
}

func TestResetPassword_ConsumesTokenOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.signup(t, "a@x.com", "secret123")
	require.NoError(t, f.uc.ForgotPassword(ctx, "a@x.com"))

	mail, _ := f.mail.last()
	resetURL := mail.Params["ResetURL"]
	plain := resetURL[strings.LastIndexByte(resetURL, '/')+1:]

	_, err := f.uc.ResetPassword(ctx, "wrong-token", "newpass11", "newpass11")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpired)

	tok, err := f.uc.ResetPassword(ctx, plain, "newpass11", "newpass11")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	// Old password no longer works; new one does.
	_, err = f.uc.Login(ctx, "a@x.com", "secret123", "ip")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.uc.Login(ctx, "a@x.com", "newpass11", "ip")
	assert.NoError(t, err)

	// Second consumption of the same token fails even before expiry.
	_, err = f.uc.ResetPassword(ctx, plain, "newpass22", "newpass22")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpired)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.signup(t, "a@x.com", "secret123")
	require.NoError(t, f.uc.ForgotPassword(ctx, "a@x.com"))

	mail, _ := f.mail.last()
	resetURL := mail.Params["ResetURL"]
	plain := resetURL[strings.LastIndexByte(resetURL, '/')+1:]

	f.users.expireResetToken(user.ID)

	_, err := f.uc.ResetPassword(ctx, plain, "newpass11", "newpass11")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpired)
}

func TestResetPassword_ValidatesBeforeConsuming(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.signup(t, "a@x.com", "secret123")
	require.NoError(t, f.uc.ForgotPassword(ctx, "a@x.com"))

	mail, _ := f.mail.last()
	resetURL := mail.Params["ResetURL"]
	plain := resetURL[strings.LastIndexByte(resetURL, '/')+1:]

	_, err := f.uc.ResetPassword(ctx, plain, "short", "short")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))

	// The failed validation must not have spent the token.
	_, err = f.uc.ResetPassword(ctx, plain, "newpass11", "newpass11")
	assert.NoError(t, err)
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.signup(t, "a@x.com", "secret123")

	_, err := f.uc.UpdatePassword(ctx, user.ID, "wrongcurrent", "newpass11", "newpass11")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	tok, err := f.uc.UpdatePassword(ctx, user.ID, "secret123", "newpass11", "newpass11")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	_, err = f.uc.Login(ctx, "a@x.com", "newpass11", "ip")
	assert.NoError(t, err)
}

func TestOTP_RoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.signup(t, "a@x.com", "secret123")
	require.NoError(t, f.uc.RequestOTP(ctx, "a@x.com"))

	mail, ok := f.mail.last()
	require.True(t, ok)
	require.Equal(t, mailer.TemplateOTP, mail.Template)
	code := mail.Params["OTP"]
	require.Len(t, code, 6)

	assert.ErrorIs(t, f.uc.VerifyOTP(ctx, "a@x.com", "000000"), domain.ErrInvalidOrExpired)
	require.NoError(t, f.uc.VerifyOTP(ctx, "a@x.com", code))

	// Single use: the code is spent.
	assert.ErrorIs(t, f.uc.VerifyOTP(ctx, "a@x.com", code), domain.ErrInvalidOrExpired)
}

func TestOTP_Expired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.signup(t, "a@x.com", "secret123")
	require.NoError(t, f.uc.RequestOTP(ctx, "a@x.com"))

	mail, _ := f.mail.last()
	code := mail.Params["OTP"]

	f.users.expireOTP(user.ID)
	assert.ErrorIs(t, f.uc.VerifyOTP(ctx, "a@x.com", code), domain.ErrInvalidOrExpired)
}

func TestRequestOTP_UnknownEmailIsSilent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.uc.RequestOTP(context.Background(), "ghost@x.com"))
	assert.Zero(t, f.mail.count())
}

func TestDeactivate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	user := f.signup(t, "a@x.com", "secret123")
	require.NoError(t, f.uc.Deactivate(ctx, user.ID))

	_, err := f.users.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestContact(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	err := f.uc.Contact(ctx, "support@motorly.test", ContactInput{Name: "Ada", Email: "a@x.com"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))

	require.NoError(t, f.uc.Contact(ctx, "support@motorly.test", ContactInput{
		Name:    "Ada",
		Email:   "a@x.com",
		Message: "the search endpoint is great",
	}))
	mail, ok := f.mail.last()
	require.True(t, ok)
	assert.Equal(t, "support@motorly.test", mail.To)
	assert.Equal(t, mailer.TemplateContact, mail.Template)
}
