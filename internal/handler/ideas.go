package handler

import (
	"net/http"

	"github.com/pkordes/tripboard/internal/domain"
)

type moveIdeaRequest struct {
	DayID string `json:"dayId"`
}

// ListIdeas handles GET /ideas.
func (s *Server) ListIdeas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]domain.Activity{"ideas": s.Itinerary.Plan().Unassigned})
}

// CreateIdea handles POST /ideas.
func (s *Server) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var a domain.Activity
	if !s.decodeJSON(w, r, &a) {
		return
	}
	plan, err := s.Itinerary.AddIdea(r.Context(), a)
	s.planResult(w, r, http.StatusCreated, plan, err)
}

// UpdateIdea handles PUT /ideas/{index}.
func (s *Server) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	var a domain.Activity
	if !s.decodeJSON(w, r, &a) {
		return
	}
	plan, err := s.Itinerary.UpdateIdea(r.Context(), index, a)
	s.planResult(w, r, http.StatusOK, plan, err)
}

// DeleteIdea handles DELETE /ideas/{index}.
func (s *Server) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	plan, err := s.Itinerary.RemoveIdea(r.Context(), index)
	s.planResult(w, r, http.StatusOK, plan, err)
}

// MoveIdea handles POST /ideas/{index}/move.
func (s *Server) MoveIdea(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	var body moveIdeaRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if body.DayID == "" {
		badRequest(w, "dayId is required")
		return
	}
	plan, err := s.Itinerary.MoveIdeaToDay(r.Context(), index, body.DayID)
	s.planResult(w, r, http.StatusOK, plan, err)
}
