package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/geo"
)

// PlanResponse is returned by every itinerary read and mutation so the
// client can refresh its view and undo button in one round trip.
type PlanResponse struct {
	Plan    domain.Plan `json:"plan"`
	CanUndo bool        `json:"canUndo"`
}

// UndoResponse reports whether a snapshot was restored.
type UndoResponse struct {
	PlanResponse
	Undone bool `json:"undone"`
}

type updateDayRequest struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// RouteResponse is the render path for one day.
type RouteResponse struct {
	DayID      string               `json:"dayId"`
	Stops      []domain.Coordinates `json:"stops"`
	Path       []domain.Coordinates `json:"path"`
	DistanceKm float64              `json:"distanceKm"`
}

// planResult writes a mutation result. A failed remote write still carries
// the locally applied plan, but the client is told it did not sync.
func (s *Server) planResult(w http.ResponseWriter, r *http.Request, status int, plan domain.Plan, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, PlanResponse{Plan: plan, CanUndo: s.Itinerary.CanUndo()})
}

// GetItinerary handles GET /itinerary. Supports ?city= to filter days.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	plan := s.Itinerary.Plan()
	if c := r.URL.Query().Get("city"); c != "" {
		city := domain.City(c)
		if !city.Valid() {
			badRequest(w, "unknown city "+c)
			return
		}
		plan.Days = s.Itinerary.Days(city)
	}
	writeJSON(w, http.StatusOK, PlanResponse{Plan: plan, CanUndo: s.Itinerary.CanUndo()})
}

// ResetItinerary handles POST /itinerary/reset.
func (s *Server) ResetItinerary(w http.ResponseWriter, r *http.Request) {
	plan, err := s.Itinerary.Reset(r.Context())
	s.planResult(w, r, http.StatusOK, plan, err)
}

// UndoItinerary handles POST /itinerary/undo. An empty history is not an
// error; the response reports undone=false.
func (s *Server) UndoItinerary(w http.ResponseWriter, r *http.Request) {
	undone, err := s.Itinerary.Undo(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UndoResponse{
		PlanResponse: PlanResponse{Plan: s.Itinerary.Plan(), CanUndo: s.Itinerary.CanUndo()},
		Undone:       undone,
	})
}

// UpdateDay handles PUT /itinerary/days/{dayID}.
func (s *Server) UpdateDay(w http.ResponseWriter, r *http.Request) {
	var body updateDayRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	plan, err := s.Itinerary.UpdateDayInfo(r.Context(), chi.URLParam(r, "dayID"), body.Title, body.Summary)
	s.planResult(w, r, http.StatusOK, plan, err)
}

// GetDayRoute handles GET /itinerary/days/{dayID}/route.
// Activities without coordinates are skipped; the path follows the great
// circle on long hops.
func (s *Server) GetDayRoute(w http.ResponseWriter, r *http.Request) {
	day, err := s.Itinerary.Day(chi.URLParam(r, "dayID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stops := make([]domain.Coordinates, 0, len(day.Activities))
	for _, a := range day.Activities {
		if a.Coordinates != nil {
			stops = append(stops, *a.Coordinates)
		}
	}
	var km float64
	for i := 1; i < len(stops); i++ {
		km += geo.Distance(stops[i-1], stops[i])
	}
	writeJSON(w, http.StatusOK, RouteResponse{
		DayID:      day.ID,
		Stops:      stops,
		Path:       geo.DayRoute(stops, geo.DefaultCurvePoints),
		DistanceKm: km,
	})
}
