package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/internal/handler"
)

func TestChecklist(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := do(t, env.handler, http.MethodPut, "/checklist", adminEmail,
		handler.ChecklistBody{Items: []string{"Passport", " ", "ESTA"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Passport", "ESTA"}, decode[handler.ChecklistBody](t, rec).Items)

	rec = do(t, env.handler, http.MethodPost, "/checklist", adminEmail, map[string]string{"item": "Adapter"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Passport", "ESTA", "Adapter"}, decode[handler.ChecklistBody](t, rec).Items)

	rec = do(t, env.handler, http.MethodDelete, "/checklist/0", adminEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"ESTA", "Adapter"}, decode[handler.ChecklistBody](t, rec).Items)

	rec = do(t, env.handler, http.MethodGet, "/checklist", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"ESTA", "Adapter"}, decode[handler.ChecklistBody](t, rec).Items)

	rec = do(t, env.handler, http.MethodPost, "/checklist", adminEmail, map[string]string{"item": "  "})
	requireError(t, rec, http.StatusUnprocessableEntity, "validation_error")

	rec = do(t, env.handler, http.MethodDelete, "/checklist/9", adminEmail, nil)
	requireError(t, rec, http.StatusUnprocessableEntity, "validation_error")
}
