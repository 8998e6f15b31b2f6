package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripboard/internal/auth"
	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/geocode"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON error envelope: {"error":{"code","message"}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// errorStatus maps a sentinel to its HTTP status and error code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrWriteFailed, http.StatusServiceUnavailable, "write_failed"},
	{geocode.ErrUpstream, http.StatusBadGateway, "upstream_error"},
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeError maps err to the error envelope. Unknown errors are logged and
// reported as 500 without leaking their text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeErrorBody(w, http.StatusRequestEntityTooLarge, "payload_too_large",
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			msg := unwrapMessage(err, m.err)
			if m.status >= http.StatusInternalServerError {
				s.Log.WarnContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
				msg = m.err.Error()
			}
			writeErrorBody(w, m.status, m.code, msg)
			return
		}
	}
	s.Log.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
	writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// badRequest reports input rejected before it reached a service, such as a
// malformed body or path parameter.
func badRequest(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// unwrapMessage extracts the human-readable part after the sentinel.
// e.g. "service.ItineraryStore.AddActivity: validation error: title is required" → "title is required"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
// It writes the error response itself and reports whether decoding worked.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, err)
			return false
		}
		badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathIndex parses a non-negative integer path parameter.
func pathIndex(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		badRequest(w, fmt.Sprintf("%s must be a non-negative integer, got %q", name, raw))
		return 0, false
	}
	return i, true
}

// currentUser returns the user attached by requireUser.
func currentUser(r *http.Request) domain.User {
	u, _ := auth.UserFrom(r.Context())
	return u
}

// requireUser rejects anonymous requests with 401.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserFrom(r.Context()); !ok {
			writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin rejects users who are not on the admin list with 403.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Settings.IsAdmin(currentUser(r).Email) {
			writeErrorBody(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
