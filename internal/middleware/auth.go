package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the authenticated user's email.
	EmailKey contextKey = "email"
	// SessionKey is the context key for the validated token's session info.
	SessionKey contextKey = "session"
)

// Session identifies the token a request was authenticated with.
type Session struct {
	TokenID   string
	ExpiresAt time.Time
}

// RevocationChecker reports whether a token was signed out.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// GetSession extracts the session from the context.
func GetSession(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(SessionKey).(Session)
	return s, ok
}

// WithUser returns a context carrying the given identity, as the auth
// interceptors would set it.
func WithUser(ctx context.Context, userID, email string, session Session) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, EmailKey, email)
	return context.WithValue(ctx, SessionKey, session)
}

// bearerToken parses "Bearer <token>" from the Authorization header.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// authenticate validates the token and checks it has not been signed out.
func authenticate(ctx context.Context, jwtManager *auth.JWTManager, revocations RevocationChecker, token string) (context.Context, error) {
	claims, err := jwtManager.Validate(token)
	if err != nil {
		return ctx, connect.NewError(connect.CodeUnauthenticated, err)
	}

	if revocations != nil && claims.ID != "" {
		revoked, err := revocations.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			slog.Error("Failed to check token revocation", "user_id", claims.UserID, "error", err)
			return ctx, connect.NewError(connect.CodeInternal, err)
		}
		if revoked {
			return ctx, connect.NewError(connect.CodeUnauthenticated, auth.ErrRevokedToken)
		}
	}

	session := Session{TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return WithUser(ctx, claims.UserID, claims.Email, session), nil
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, rejects
// signed-out tokens, and adds the user ID, email and session to the request context.
func RequireAuth(jwtManager *auth.JWTManager, revocations RevocationChecker) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			token, ok := bearerToken(authHeader)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			ctx, err := authenticate(ctx, jwtManager, revocations, token)
			if err != nil {
				return nil, err
			}

			return next(ctx, req)
		}
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication. Used by the auth service, where sign-up and
// sign-in are public but sign-out and session lookups need a user.
func OptionalAuth(jwtManager *auth.JWTManager, revocations RevocationChecker) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Invalid or revoked tokens simply leave the request anonymous.
				if authed, err := authenticate(ctx, jwtManager, revocations, token); err == nil {
					ctx = authed
				}
			}

			return next(ctx, req)
		}
	}
}
