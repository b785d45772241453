// Package middleware implements the route guard that every protected
// request passes through before reaching resource handlers.
package middleware

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/motorly/backend/api/transport"
	"github.com/motorly/backend/domain"
	"github.com/motorly/backend/pkg/token"
	"github.com/motorly/backend/repository"
)

// SessionCookie is the http-only cookie carrying the bearer token for
// browser clients; API clients use the Authorization header.
const SessionCookie = "jwt"

const userValueKey = "auth_user"

// Guard verifies bearer tokens against the credential store.
type Guard struct {
	tokens *token.Manager
	users  repository.UserRepository
	logger *zap.Logger
}

func NewGuard(tokens *token.Manager, users repository.UserRepository, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// RequireAuth rejects the request with 401 unless it carries a valid token
// for an active user whose password has not changed since issuance. On
// success the resolved user is attached to the request.
func (g *Guard) RequireAuth(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, err := g.authenticate(ctx)
		if err != nil {
			g.logger.Debug("request rejected", zap.Error(err))
			reject(ctx)
			return
		}
		ctx.SetUserValue(userValueKey, user)
		next(ctx)
	}
}

// OptionalAuth performs the same checks but treats any failure as an
// anonymous caller instead of rejecting the request.
func (g *Guard) OptionalAuth(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if user, err := g.authenticate(ctx); err == nil {
			ctx.SetUserValue(userValueKey, user)
		}
		next(ctx)
	}
}

// UserFrom returns the user attached by the guard, or nil for anonymous
// requests.
func UserFrom(ctx *fasthttp.RequestCtx) *domain.User {
	user, _ := ctx.UserValue(userValueKey).(*domain.User)
	return user
}

func (g *Guard) authenticate(ctx *fasthttp.RequestCtx) (*domain.User, error) {
	tokenString := extractToken(ctx)
	if tokenString == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims, err := g.tokens.Verify(tokenString)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthenticated, "invalid session token", err)
	}

	// fasthttp.RequestCtx satisfies context.Context, so store lookups
	// inherit the connection's cancellation.
	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthenticated, "session user unavailable", err)
	}
	if !user.IsActive() {
		return nil, domain.ErrUnauthenticated
	}

	// A password change is the only revocation mechanism: tokens issued
	// before the change are rejected even though they have not expired.
	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, domain.NewError(domain.ErrCodeUnauthenticated, "password changed after token was issued")
	}

	return user, nil
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie := string(ctx.Request.Header.Cookie(SessionCookie)); cookie != "" {
		return cookie
	}
	return ""
}

func reject(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthenticated), domain.ErrUnauthenticated.Message, nil))
	ctx.SetBody(body)
}
