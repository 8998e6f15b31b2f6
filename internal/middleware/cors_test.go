package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/tripboard/internal/middleware"
)

const plannerOrigin = "http://localhost:5173"

var trivialHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func preflight(origins []string, origin, method, headers string) *httptest.ResponseRecorder {
	h := middleware.NewCORSHandler(origins)(trivialHandler)
	req := httptest.NewRequest(http.MethodOptions, "/itinerary/days/day1/activities", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	if headers != "" {
		// Browsers send the list lowercased and sorted.
		req.Header.Set("Access-Control-Request-Headers", headers)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORSHandler_SimpleRequest(t *testing.T) {
	tests := []struct {
		name      string
		origins   []string
		origin    string
		wantAllow string
	}{
		{"listed origin", []string{plannerOrigin}, plannerOrigin, plannerOrigin},
		{"unlisted origin", []string{plannerOrigin}, "http://evil.example.com", ""},
		{"wildcard", []string{"*"}, "https://trip.example.com", "*"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.NewCORSHandler(tc.origins)(trivialHandler)
			req := httptest.NewRequest(http.MethodGet, "/itinerary", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSHandler_ExposesRequestID(t *testing.T) {
	h := middleware.NewCORSHandler([]string{plannerOrigin})(trivialHandler)
	req := httptest.NewRequest(http.MethodGet, "/itinerary", nil)
	req.Header.Set("Origin", plannerOrigin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers")), "x-request-id")
}

func TestCORSHandler_PreflightForAuthenticatedWrite(t *testing.T) {
	rec := preflight([]string{plannerOrigin}, plannerOrigin, http.MethodPost, "authorization,content-type")

	assert.True(t, rec.Code == http.StatusNoContent || rec.Code == http.StatusOK,
		"expected 2xx for preflight, got %d", rec.Code)
	assert.Equal(t, plannerOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSHandler_PreflightForDevIdentity(t *testing.T) {
	rec := preflight([]string{plannerOrigin}, plannerOrigin, http.MethodDelete, "x-debug-email,x-debug-name")

	assert.Equal(t, plannerOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "DELETE", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSHandler_PreflightRejected(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		method  string
		headers string
	}{
		{"unlisted origin", "http://evil.example.com", http.MethodPost, "content-type"},
		{"unsupported method", plannerOrigin, http.MethodPatch, ""},
		{"unknown header", plannerOrigin, http.MethodPost, "x-forwarded-user"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := preflight([]string{plannerOrigin}, tc.origin, tc.method, tc.headers)
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
