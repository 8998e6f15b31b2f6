package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/internal/middleware"
)

func statusHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func serveLogged(t *testing.T, level slog.Level, next http.Handler, path string) (*httptest.ResponseRecorder, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "req-42"))
	rec := httptest.NewRecorder()
	middleware.NewSlogLogger(logger)(next).ServeHTTP(rec, req)
	return rec, &buf
}

func TestSlogLogger_RequestFields(t *testing.T) {
	rec, buf := serveLogged(t, slog.LevelInfo, statusHandler(http.StatusOK, `{"days":[]}`), "/itinerary")
	require.Equal(t, http.StatusOK, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/itinerary", entry["path"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.EqualValues(t, len(`{"days":[]}`), entry["bytes"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Contains(t, entry, "duration_ms")
	assert.Contains(t, entry, "remote")
}

func TestSlogLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"success", "/itinerary", http.StatusOK, "INFO"},
		{"created", "/wallet", http.StatusCreated, "INFO"},
		{"validation", "/itinerary/days/x", http.StatusUnprocessableEntity, "WARN"},
		{"forbidden", "/settings", http.StatusForbidden, "WARN"},
		{"write failed", "/itinerary/undo", http.StatusServiceUnavailable, "ERROR"},
		{"failing health check", "/healthz", http.StatusInternalServerError, "ERROR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, buf := serveLogged(t, slog.LevelDebug, statusHandler(tc.status, ""), tc.path)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tc.want, entry["level"])
			assert.EqualValues(t, tc.status, entry["status"])
		})
	}
}

func TestSlogLogger_HealthProbesLogAtDebug(t *testing.T) {
	_, buf := serveLogged(t, slog.LevelInfo, statusHandler(http.StatusOK, "ok"), "/healthz")
	assert.Empty(t, buf.String())

	_, buf = serveLogged(t, slog.LevelDebug, statusHandler(http.StatusOK, "ok"), "/healthz")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestSlogLogger_ImplicitStatusIsOK(t *testing.T) {
	silent := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	_, buf := serveLogged(t, slog.LevelInfo, silent, "/checklist")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.EqualValues(t, 0, entry["bytes"])
}
