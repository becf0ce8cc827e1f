// Package auth authenticates callers against the external identity provider.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "campusgate/pkg/domain"
	"campusgate/pkg/requestcontext"
)

// Identity is what the identity provider vouches for: a stable account id and email.
type Identity struct {
	AccountID   id.AccountID
	Email       string
	DisplayName string
}

// TokenVerifier validates a bearer token issued by the identity provider.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the caller
// identity in the request context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthenticated request - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid Authorization header")
				return
			}

			identity, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthenticated request - invalid token",
					"request_id", requestID,
					"error", err,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithCaller(ctx, identity.AccountID, identity.Email)
			if identity.DisplayName != "" {
				ctx = requestcontext.WithDisplayName(ctx, identity.DisplayName)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
