package handler

import (
	"net/http"
)

// ChecklistBody is both the checklist response and the PUT request.
type ChecklistBody struct {
	Items []string `json:"items"`
}

type addChecklistRequest struct {
	Item string `json:"item"`
}

func (s *Server) checklistResult(w http.ResponseWriter, r *http.Request, status int, items []string, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, ChecklistBody{Items: items})
}

// GetChecklist handles GET /checklist.
func (s *Server) GetChecklist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ChecklistBody{Items: s.Checklist.List()})
}

// AddChecklistItem handles POST /checklist.
func (s *Server) AddChecklistItem(w http.ResponseWriter, r *http.Request) {
	var body addChecklistRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	items, err := s.Checklist.Add(r.Context(), body.Item)
	s.checklistResult(w, r, http.StatusCreated, items, err)
}

// ReplaceChecklist handles PUT /checklist.
func (s *Server) ReplaceChecklist(w http.ResponseWriter, r *http.Request) {
	var body ChecklistBody
	if !s.decodeJSON(w, r, &body) {
		return
	}
	items, err := s.Checklist.Replace(r.Context(), body.Items)
	s.checklistResult(w, r, http.StatusOK, items, err)
}

// DeleteChecklistItem handles DELETE /checklist/{index}.
func (s *Server) DeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	items, err := s.Checklist.Remove(r.Context(), index)
	s.checklistResult(w, r, http.StatusOK, items, err)
}
