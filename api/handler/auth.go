package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/motorly/backend/api/transport"
	"github.com/motorly/backend/domain"
	"github.com/motorly/backend/internal/middleware"
	"github.com/motorly/backend/pkg/httpcontext"
	authUC "github.com/motorly/backend/usecase/auth"
)

// AuthHandler exposes the credential lifecycle over HTTP.
type AuthHandler struct {
	baseHandler
	uc            *authUC.UseCase
	tokenValidity time.Duration
	supportEmail  string
	secureCookie  bool
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, tokenValidity time.Duration, supportEmail string, secureCookie bool) *AuthHandler {
	if tokenValidity <= 0 {
		tokenValidity = 72 * time.Hour
	}
	return &AuthHandler{
		baseHandler:   newBaseHandler(adapter, logger),
		uc:            uc,
		tokenValidity: tokenValidity,
		supportEmail:  supportEmail,
		secureCookie:  secureCookie,
	}
}

// @Summary Register a new user
// @Tags users
// @Router /api/v1/users/signup [post]
func (h *AuthHandler) Signup(ctx *fasthttp.RequestCtx) {
	var req transport.SignupRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, tok, err := h.uc.Signup(stdCtx, authUC.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.setSessionCookie(ctx, tok)
	h.respondSuccess(ctx, http.StatusCreated, transport.TokenResponse{Token: tok, User: user})
}

// @Summary Log in an existing user
// @Tags users
// @Router /api/v1/users/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tok, err := h.uc.Login(stdCtx, req.Email, req.Password, clientAddr(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.setSessionCookie(ctx, tok)
	h.respondSuccess(ctx, http.StatusOK, transport.TokenResponse{Token: tok})
}

// @Summary Log out the current user
// @Tags users
// @Router /api/v1/users/logout [get]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	h.clearSessionCookie(ctx)
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Check if the caller has a valid session
// @Tags users
// @Router /api/v1/users/checkAuth [get]
func (h *AuthHandler) CheckAuth(ctx *fasthttp.RequestCtx) {
	user := middleware.UserFrom(ctx)
	if user == nil {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthenticated), domain.ErrUnauthenticated.Message, nil))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Get the profile of the logged-in user
// @Tags users
// @Router /api/v1/users/profile [get]
func (h *AuthHandler) Profile(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, middleware.UserFrom(ctx))
}

// @Summary Send a password reset token to the user's email
// @Tags users
// @Router /api/v1/users/forgotPassword [post]
func (h *AuthHandler) ForgotPassword(ctx *fasthttp.RequestCtx) {
	var req transport.ForgotPasswordRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.ForgotPassword(stdCtx, req.Email); err != nil {
		h.respondError(ctx, err)
		return
	}
	// Identical response whether or not the account exists.
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"message": "if the account exists, a reset token has been sent"})
}

// @Summary Reset password using the emailed token
// @Tags users
// @Router /api/v1/users/resetPassword/{token} [patch]
func (h *AuthHandler) ResetPassword(ctx *fasthttp.RequestCtx) {
	plainToken, _ := ctx.UserValue("token").(string)

	var req transport.ResetPasswordRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tok, err := h.uc.ResetPassword(stdCtx, plainToken, req.Password, req.PasswordConfirm)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.setSessionCookie(ctx, tok)
	h.respondSuccess(ctx, http.StatusOK, transport.TokenResponse{Token: tok})
}

// @Summary Change the logged-in user's password
// @Tags users
// @Router /api/v1/users/updatePassword [patch]
func (h *AuthHandler) UpdatePassword(ctx *fasthttp.RequestCtx) {
	user := middleware.UserFrom(ctx)
	if user == nil {
		h.respondError(ctx, domain.ErrUnauthenticated)
		return
	}

	var req transport.UpdatePasswordRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tok, err := h.uc.UpdatePassword(stdCtx, user.ID, req.CurrentPassword, req.Password, req.PasswordConfirm)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.setSessionCookie(ctx, tok)
	h.respondSuccess(ctx, http.StatusOK, transport.TokenResponse{Token: tok})
}

// @Summary Request a one-time passcode by email
// @Tags users
// @Router /api/v1/users/requestOtp [post]
func (h *AuthHandler) RequestOTP(ctx *fasthttp.RequestCtx) {
	var req transport.RequestOTPRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RequestOTP(stdCtx, req.Email); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"message": "if the account exists, a code has been sent"})
}

// @Summary Verify a one-time passcode
// @Tags users
// @Router /api/v1/users/verifyOtp [post]
func (h *AuthHandler) VerifyOTP(ctx *fasthttp.RequestCtx) {
	var req transport.VerifyOTPRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.VerifyOTP(stdCtx, req.Email, req.OTP); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"message": "code verified"})
}

// @Summary Deactivate the logged-in user's account
// @Tags users
// @Router /api/v1/users/deleteMe [delete]
func (h *AuthHandler) DeleteMe(ctx *fasthttp.RequestCtx) {
	user := middleware.UserFrom(ctx)
	if user == nil {
		h.respondError(ctx, domain.ErrUnauthenticated)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Deactivate(stdCtx, user.ID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.clearSessionCookie(ctx)
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Contact form submission
// @Tags users
// @Router /api/v1/users/contact [post]
func (h *AuthHandler) Contact(ctx *fasthttp.RequestCtx) {
	var req transport.ContactRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Contact(stdCtx, h.supportEmail, authUC.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"message": "message sent"})
}

func (h *AuthHandler) setSessionCookie(ctx *fasthttp.RequestCtx, tok string) {
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(middleware.SessionCookie)
	cookie.SetValue(tok)
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetSecure(h.secureCookie)
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	cookie.SetExpire(time.Now().Add(h.tokenValidity))
	ctx.Response.Header.SetCookie(cookie)
}

func (h *AuthHandler) clearSessionCookie(ctx *fasthttp.RequestCtx) {
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(middleware.SessionCookie)
	cookie.SetValue("")
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(cookie)
}

func clientAddr(ctx *fasthttp.RequestCtx) string {
	if addr := ctx.RemoteIP(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
