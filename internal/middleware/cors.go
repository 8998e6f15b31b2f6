// Package middleware provides reusable HTTP middleware for the Tripboard API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// preflightMaxAge is how long, in seconds, browsers may cache a preflight.
const preflightMaxAge = 300

// NewCORSHandler returns a middleware that lets the planner front end call
// the API from allowedOrigins. Entries are full origins (scheme and host, no
// trailing slash); "*" allows any origin. Bearer tokens and the dev identity
// headers are accepted, and the request ID is exposed for bug reports.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Debug-Email", "X-Debug-Name"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         preflightMaxAge,
	})
	return c.Handler
}
