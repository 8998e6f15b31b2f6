package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/internal/auth"
	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/handler"
	"github.com/pkordes/tripboard/internal/repo"
	"github.com/pkordes/tripboard/internal/service"
)

const (
	adminEmail  = "admin@example.com"
	viewerEmail = "viewer@example.com"
	planKey     = "main-test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cost(v float64) *float64 { return &v }

func fixturePlan() domain.Plan {
	return domain.Plan{
		Days: []domain.TripDay{
			{ID: "day1", Date: "2026/05/20 (Wed)", City: domain.CitySF, Title: "Arrival", Activities: []domain.Activity{
				{Time: "09:00", Title: "Breakfast", Type: domain.ActivityFood, Cost: cost(20),
					Coordinates: &domain.Coordinates{Lat: 37.7955, Lng: -122.3937}},
				{Time: "12:00", Title: "Lunch", Type: domain.ActivityFood,
					Coordinates: &domain.Coordinates{Lat: 37.8080, Lng: -122.4177}},
			}},
			{ID: "day2", Date: "2026/05/21 (Thu)", City: domain.CitySLC, Title: "Salt Lake", Activities: []domain.Activity{}},
		},
		Unassigned: []domain.Activity{{Title: "Ferry ride", Type: domain.ActivitySightseeing}},
	}
}

// testEnv is a Server wired to real services over an in-memory store.
type testEnv struct {
	handler   http.Handler
	itinerary *service.ItineraryStore
	wallet    *service.WalletService
	settings  *service.SettingsService
}

func newTestEnv(t *testing.T, override func(*handler.Deps)) testEnv {
	t.Helper()
	ctx := context.Background()
	log := discardLogger()
	store := repo.NewMemoryDocumentStore()

	body, err := json.Marshal(fixturePlan())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, planKey, body))

	itinerary, err := service.NewItineraryStore(store, service.ItineraryConfig{Key: planKey}, log)
	require.NoError(t, err)
	require.NoError(t, itinerary.Start(ctx))
	t.Cleanup(itinerary.Close)

	wallet, err := service.NewWalletService(store, log)
	require.NoError(t, err)
	require.NoError(t, wallet.Start(ctx))
	t.Cleanup(wallet.Close)

	settings := service.NewSettingsService(store, []string{adminEmail}, itinerary, log)
	require.NoError(t, settings.Start(ctx))
	t.Cleanup(settings.Close)

	checklist, err := service.NewChecklistService(store, log)
	require.NoError(t, err)
	require.NoError(t, checklist.Start(ctx))
	t.Cleanup(checklist.Close)

	clock := service.FixedClock{T: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	deps := handler.Deps{
		Itinerary: itinerary,
		Planner:   service.NewPlanner(itinerary, wallet, clock),
		Wallet:    wallet,
		Settings:  settings,
		Checklist: checklist,
		Log:       log,
		PublicURL: "https://trip.example.com",
	}
	if override != nil {
		override(&deps)
	}
	srv := handler.NewServer(deps)
	return testEnv{
		handler:   auth.Middleware(auth.DevAuthenticator{})(srv.Routes()),
		itinerary: itinerary,
		wallet:    wallet,
		settings:  settings,
	}
}

// do sends a request as the given user. An empty email is anonymous; a
// non-nil body is JSON encoded unless it is already an io.Reader.
func do(t *testing.T, h http.Handler, method, path, email string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		r = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		req.Header.Set("X-Debug-Email", email)
		req.Header.Set("X-Debug-Name", "Admin")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) handler.ErrorResponse {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[handler.ErrorResponse](t, rec)
	require.Equal(t, code, body.Error.Code)
	return body
}

func titles(activities []domain.Activity) []string {
	out := make([]string, len(activities))
	for i, a := range activities {
		out[i] = a.Title
	}
	return out
}
