package service_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/repo"
	"github.com/pkordes/tripboard/internal/service"
)

// mockDocumentStore is a hand-written test double for repo.DocumentStore.
// Each method is a function field; set only the ones your test needs.
type mockDocumentStore struct {
	get       func(ctx context.Context, key string) (json.RawMessage, error)
	set       func(ctx context.Context, key string, body json.RawMessage) error
	subscribe func(ctx context.Context, key string) (*repo.Subscription, error)
}

func (m *mockDocumentStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	return m.get(ctx, key)
}
func (m *mockDocumentStore) Set(ctx context.Context, key string, body json.RawMessage) error {
	return m.set(ctx, key, body)
}
func (m *mockDocumentStore) Subscribe(ctx context.Context, key string) (*repo.Subscription, error) {
	return m.subscribe(ctx, key)
}

// compile-time check: mockDocumentStore must satisfy repo.DocumentStore.
var _ repo.DocumentStore = (*mockDocumentStore)(nil)

// delegateTo returns a mock that forwards every call to mem.
func delegateTo(mem *repo.MemoryDocumentStore) *mockDocumentStore {
	return &mockDocumentStore{
		get:       mem.Get,
		set:       mem.Set,
		subscribe: mem.Subscribe,
	}
}

// ---- helpers ---------------------------------------------------------------

const testKey = "main-test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cost(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func activity(time, title string) domain.Activity {
	return domain.Activity{Time: time, Title: title, Type: domain.ActivitySightseeing}
}

// fixturePlan is a small three-day plan with one idea.
func fixturePlan() domain.Plan {
	return domain.Plan{
		Days: []domain.TripDay{
			{
				ID:        "day1",
				Date:      "2026/05/21",
				City:      domain.CitySF,
				CityLabel: "San Francisco",
				Title:     "Arrival",
				Summary:   "Land and rest",
				Activities: []domain.Activity{
					{Time: "09:00", Title: "Breakfast", Type: domain.ActivityFood, Location: "Cafe", Tips: "Go early"},
					{Time: "12:00", Title: "Lunch", Type: domain.ActivityFood},
				},
			},
			{
				ID:        "day2",
				Date:      "2026/05/22",
				City:      domain.CitySF,
				CityLabel: "San Francisco",
				Title:     "Museums",
				Activities: []domain.Activity{
					{Time: "10:00", Title: "Museum", Type: domain.ActivitySightseeing},
				},
			},
			{
				ID:         "day3",
				Date:       "2026/05/23",
				City:       domain.CitySLC,
				CityLabel:  "Salt Lake City",
				Title:      "Conference",
				Activities: []domain.Activity{},
			},
		},
		Unassigned: []domain.Activity{
			{Time: "", Title: "Ferry ride", Type: domain.ActivityOther},
		},
	}
}

func putPlan(t *testing.T, store repo.DocumentStore, p domain.Plan) {
	t.Helper()
	body, err := json.Marshal(p)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), testKey, body))
}

// newItinerary starts an ItineraryStore over store, pre-loaded with the
// fixture plan, and closes it when the test ends.
func newItinerary(t *testing.T, store repo.DocumentStore, depth int) *service.ItineraryStore {
	t.Helper()
	putPlan(t, store, fixturePlan())

	s, err := service.NewItineraryStore(store, service.ItineraryConfig{Key: testKey, UndoDepth: depth}, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func titles(activities []domain.Activity) []string {
	out := make([]string, len(activities))
	for i, a := range activities {
		out[i] = a.Title
	}
	return out
}
