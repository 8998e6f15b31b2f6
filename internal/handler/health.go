package handler

import (
	"net/http"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/spec"
)

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}

// MeResponse describes the signed-in principal.
type MeResponse struct {
	User    domain.User `json:"user"`
	IsAdmin bool        `json:"isAdmin"`
}

// GetMe handles GET /me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	writeJSON(w, http.StatusOK, MeResponse{User: u, IsAdmin: s.Settings.IsAdmin(u.Email)})
}
