package handler

import (
	"io"
	"net/http"
)

// ExportItinerary handles GET /itinerary/export.
// Supports ?format=json (default), text (share text) or pdf.
func (s *Server) ExportItinerary(w http.ResponseWriter, r *http.Request) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		data, err := s.Itinerary.Export()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="itinerary.json"`)
		_, _ = w.Write(data)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, s.Itinerary.ShareText())
	case "pdf":
		data, err := s.Itinerary.ExportPDF(s.PublicURL)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="itinerary.pdf"`)
		_, _ = w.Write(data)
	default:
		badRequest(w, "format must be one of json, text, pdf")
	}
}

// ImportItinerary handles POST /itinerary/import. The body is an exported
// itinerary file; it replaces the whole plan and can be undone.
func (s *Server) ImportItinerary(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.Itinerary.Import(r.Context(), data)
	s.planResult(w, r, http.StatusOK, plan, err)
}
