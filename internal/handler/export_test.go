package handler_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/internal/handler"
)

func TestExportItinerary_Formats(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := do(t, env.handler, http.MethodGet, "/itinerary/export", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "itinerary.json")
	assert.Contains(t, rec.Body.String(), `"unassigned"`)

	rec = do(t, env.handler, http.MethodGet, "/itinerary/export?format=text", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "Breakfast")

	rec = do(t, env.handler, http.MethodGet, "/itinerary/export?format=pdf", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = do(t, env.handler, http.MethodGet, "/itinerary/export?format=csv", viewerEmail, nil)
	requireError(t, rec, http.StatusUnprocessableEntity, "validation_error")
}

func TestImportItinerary_RoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	exported := do(t, env.handler, http.MethodGet, "/itinerary/export", viewerEmail, nil).Body.String()

	// Change the plan, then import the earlier export over it.
	rec := do(t, env.handler, http.MethodDelete, "/itinerary/days/day1/activities/0", adminEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, env.handler, http.MethodPost, "/itinerary/import", adminEmail, strings.NewReader(exported))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decode[handler.PlanResponse](t, rec).Plan
	assert.Equal(t, []string{"Breakfast", "Lunch"}, titles(plan.Days[0].Activities))
}

func TestImportItinerary_RejectsMalformed(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := do(t, env.handler, http.MethodPost, "/itinerary/import", adminEmail, strings.NewReader(`{"days": 3}`))

	requireError(t, rec, http.StatusUnprocessableEntity, "validation_error")
	assert.False(t, env.itinerary.CanUndo())
}
