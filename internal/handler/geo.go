package handler

import (
	"net/http"
)

// SearchPlace handles GET /geo/search?q=. The query may be a place name or
// a maps link.
func (s *Server) SearchPlace(w http.ResponseWriter, r *http.Request) {
	if s.Geocoder == nil {
		writeErrorBody(w, http.StatusNotImplemented, "not_implemented", "geocoding is disabled")
		return
	}
	res, err := s.Geocoder.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
