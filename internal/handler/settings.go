package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

type updateSettingsRequest struct {
	StartDate openapi_types.Date `json:"startDate"`
	EndDate   openapi_types.Date `json:"endDate"`
}

type addAdminRequest struct {
	Email string `json:"email"`
}

// GetSettings handles GET /settings.
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Settings.Get())
}

// UpdateSettings handles PUT /settings. Changing the travel window
// relabels the itinerary days.
func (s *Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body updateSettingsRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	updated, err := s.Settings.UpdateDates(r.Context(), body.StartDate.Time, body.EndDate.Time)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// AddAdmin handles POST /settings/admins.
func (s *Server) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var body addAdminRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	updated, err := s.Settings.AddAdmin(r.Context(), body.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, updated)
}

// RemoveAdmin handles DELETE /settings/admins/{email}.
// Admins cannot remove themselves.
func (s *Server) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		badRequest(w, "malformed email")
		return
	}
	updated, err := s.Settings.RemoveAdmin(r.Context(), currentUser(r).Email, email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
