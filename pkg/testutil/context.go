package testutil

import (
	"net/http"
	"time"

	"smartration/pkg/requestcontext"
)

// WithBearer sets the Authorization header the way an admin client would.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithRequestTime pins the instant the request is processed at, which decides
// the issuance month. This simulates what the request-time middleware does.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithClientIP simulates the client IP middleware.
func WithClientIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientIP(req.Context(), ip))
}
