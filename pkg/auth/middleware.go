package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/flock-social/flock/pkg/api"
	"github.com/flock-social/flock/pkg/auth/session"
	"github.com/flock-social/flock/pkg/debug"
	"github.com/flock-social/flock/pkg/observability"
	"github.com/flock-social/flock/pkg/storage"
	"github.com/flock-social/flock/pkg/transport"
)

// RequireSession creates HTTP middleware that authenticates every request
// before it reaches a business-logic handler.
//
// The verification sequence, in order:
//  1. no session cookie            -> 401 "Unauthorized: No Token Provided"
//  2. signing secret unconfigured  -> 500 (deployment error, not the client's)
//  3. bad signature or expired     -> 401 "Unauthorized: Invalid Token"
//  4. user deleted since issuance  -> 404 "User not found"
//
// On success the resolved identity is attached to the request context and
// control passes to the next handler.
func RequireSession(sessions *session.Issuer, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				observability.AuthFailuresTotal.WithLabelValues("no_token").Inc()
				transport.WriteAPIError(w, api.NewUnauthorizedError("Unauthorized: No Token Provided"))
				return
			}

			if sessions == nil {
				slog.Error("session verification impossible: signing secret is not configured")
				observability.AuthFailuresTotal.WithLabelValues("no_secret").Inc()
				transport.WriteAPIError(w, api.NewServerError("Internal Server Error"))
				return
			}

			userID, err := sessions.Verify(cookie.Value)
			if err != nil {
				if errors.Is(err, session.ErrNoSecret) {
					slog.Error("session verification impossible: signing secret is not configured")
					observability.AuthFailuresTotal.WithLabelValues("no_secret").Inc()
					transport.WriteAPIError(w, api.NewServerError("Internal Server Error"))
					return
				}
				slog.Warn("session verification failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				observability.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
				transport.WriteAPIError(w, api.NewUnauthorizedError("Unauthorized: Invalid Token"))
				return
			}

			identity, err := users.ResolveUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					observability.AuthFailuresTotal.WithLabelValues("user_gone").Inc()
					transport.WriteAPIError(w, api.NewNotFoundError("User not found"))
					return
				}
				slog.Error("resolving authenticated user", "user_id", userID, "error", err)
				transport.WriteAPIError(w, api.NewServerError("Internal Server Error"))
				return
			}

			debug.Log("auth", "authentication succeeded",
				"user_id", identity.UserID,
				"path", r.URL.Path,
			)

			ctx := SetIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
