// Package middleware provides HTTP middleware components.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bookhive/bookhive/internal/auth"
	"github.com/bookhive/bookhive/internal/metrics"
	"github.com/bookhive/bookhive/internal/model"
)

// UserResolver resolves a verified user id to the stored account.
// The auth middleware only ever reads the public fields off the result.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// IdentityCache is an optional read-through cache for resolved identities,
// keyed by token digest.
type IdentityCache interface {
	GetIdentity(ctx context.Context, tokenDigest string) (*model.Identity, error)
	SetIdentity(ctx context.Context, tokenDigest string, id *model.Identity) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Tokens   *auth.TokenService
	Users    UserResolver
	Cache    IdentityCache // may be nil
	Recorder metrics.Recorder
}

// Auth returns a middleware that authenticates requests: it extracts the
// bearer token, verifies it, resolves the user, and attaches the identity
// to the request context. Every failure path produces the identical 401
// response; the reason is only logged server-side.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	rec := cfg.Recorder
	if rec == nil {
		rec = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(reason string) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				rec.IncAuthRejected()
				writeAuthError(w)
			}

			token := extractBearerToken(r)
			if token == "" {
				reject("missing_token")
				return
			}

			userID, err := cfg.Tokens.Verify(token)
			if err != nil {
				reject("invalid_token")
				return
			}

			digest := auth.TokenDigest(token)

			if cfg.Cache != nil {
				if identity, _ := cfg.Cache.GetIdentity(r.Context(), digest); identity != nil {
					rec.IncAuthCacheHit()
					ctx := auth.ContextWithIdentity(r.Context(), identity)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				rec.IncAuthCacheMiss()
			}

			user, err := cfg.Users.GetUserByID(r.Context(), userID)
			if err != nil {
				// Unknown user (deleted account) and store failure both
				// collapse into the generic rejection.
				reject("unresolved_user")
				return
			}

			identity := &model.Identity{
				UserID:       user.ID,
				Username:     user.Username,
				ProfileImage: user.ProfileImage,
			}

			if cfg.Cache != nil {
				_ = cfg.Cache.SetIdentity(r.Context(), digest, identity)
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken pulls the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// writeAuthError writes the single 401 Unauthorized response used for all
// authentication failures, so callers cannot tell which check failed.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing authentication token","code":"UNAUTHORIZED"}`))
}
