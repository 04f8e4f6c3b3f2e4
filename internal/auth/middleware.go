package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/unideal/unideal-server/internal/httputil"
	"github.com/unideal/unideal-server/internal/logging"
)

// ErrUserNotFound is returned by a UserResolver when a verified token's
// subject has no matching local record yet. This happens when a session
// token arrives before the provisioning webhook has been processed; the
// client is expected to retry after a short delay.
var ErrUserNotFound = errors.New("user not found")

// StatusVerified is the verification state required by RequireVerified.
const StatusVerified = "VERIFIED"

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	AuthUserContextKey ContextKey = "auth_user"
)

// AuthUser is the resolved identity attached to a request's context.
// It is read-only to downstream handlers and discarded at request end.
type AuthUser struct {
	ID       uuid.UUID
	ClerkID  string
	Email    string
	IsAdmin  bool
	IsBanned bool
}

// TokenVerifier validates a bearer token and returns the external
// subject identifier. Implemented by Verifier.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// UserResolver maps an external subject identifier to the local user
// record. ResolveByClerkID returns ErrUserNotFound when no record
// exists; VerificationStatus must fetch the current value, not a
// cached one, since status can change between requests.
type UserResolver interface {
	ResolveByClerkID(ctx context.Context, clerkID string) (*AuthUser, error)
	VerificationStatus(ctx context.Context, userID uuid.UUID) (string, error)
}

// Middleware handles authentication and authorization for protected routes
type Middleware struct {
	verifier TokenVerifier
	resolver UserResolver
}

func NewMiddleware(verifier TokenVerifier, resolver UserResolver) *Middleware {
	return &Middleware{verifier: verifier, resolver: resolver}
}

// RequireAuth validates the bearer token, resolves the local user and
// attaches it to the request context. Invalid tokens terminate before
// any user lookup happens.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing auth token", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		clerkID, err := m.verifier.VerifyToken(r.Context(), parts[1])
		if err != nil {
			httputil.RespondErrorWithCode(w, "token verification failed", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		authUser, err := m.resolver.ResolveByClerkID(r.Context(), clerkID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				// Token is valid but the provisioning webhook has not landed yet
				httputil.RespondErrorWithCode(w, "user not found in database", httputil.CodeUserNotFound, http.StatusUnauthorized)
				return
			}
			logger.Error("failed to resolve user", "clerk_id", clerkID, "error", err)
			httputil.RespondErrorWithCode(w, "authentication failed", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		if authUser.IsBanned {
			httputil.RespondErrorWithCode(w, "account is banned", httputil.CodeForbidden, http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), AuthUserContextKey, authUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin requires the authenticated user to be an admin.
// Must be used after RequireAuth.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authUser, ok := GetAuthUser(r.Context())
		if !ok || !authUser.IsAdmin {
			httputil.RespondErrorWithCode(w, "admin access required", httputil.CodeForbidden, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireVerified requires the authenticated user to have VERIFIED
// status. The status is re-fetched on every request because it can
// change mid-session. Must be used after RequireAuth.
func (m *Middleware) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authUser, ok := GetAuthUser(r.Context())
		if !ok {
			httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		status, err := m.resolver.VerificationStatus(r.Context(), authUser.ID)
		if err != nil {
			logger.Error("failed to fetch verification status", "user_id", authUser.ID, "error", err)
			httputil.RespondErrorWithCode(w, "college verification required", httputil.CodeNotVerified, http.StatusForbidden)
			return
		}

		if status != StatusVerified {
			httputil.RespondErrorWithCode(w, "college verification required", httputil.CodeNotVerified, http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetAuthUser extracts the resolved user from the request context
func GetAuthUser(ctx context.Context) (*AuthUser, bool) {
	authUser, ok := ctx.Value(AuthUserContextKey).(*AuthUser)
	return authUser, ok
}
