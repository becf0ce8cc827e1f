// Package scrape guards operator endpoints with a shared bearer token.
package scrape

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/httputil"
	"campusgate/pkg/requestcontext"
)

const HeaderToken = "X-Scrape-Token"

// RequireToken rejects requests that do not present expected, either in
// X-Scrape-Token or as a bearer token. An empty expected token disables the
// check.
func RequireToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderToken)
			if token == "" {
				token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "scrape token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "scrape token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
