package testutil

import (
	"net/http"

	id "campusgate/pkg/domain"
	"campusgate/pkg/requestcontext"
)

// WithCaller authenticates a request the way the auth middleware would.
func WithCaller(req *http.Request, accountID id.AccountID, email string) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), accountID, email))
}
