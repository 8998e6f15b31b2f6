package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/service"
)

// saveActivityRequest is the activity form submission.
type saveActivityRequest struct {
	Activity domain.Activity `json:"activity"`
	// TargetDayID moves the activity to another day on save.
	TargetDayID string `json:"targetDayId,omitempty"`
	SyncWallet  bool   `json:"syncWallet,omitempty"`
}

type moveActivityRequest struct {
	ToDayID string `json:"toDayId,omitempty"`
	ToPool  bool   `json:"toPool,omitempty"`
}

type linkAttachmentRequest struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// CreateActivity handles POST /itinerary/days/{dayID}/activities.
func (s *Server) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var body saveActivityRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	dayID := chi.URLParam(r, "dayID")
	if body.TargetDayID != "" {
		dayID = body.TargetDayID
	}
	plan, err := s.Planner.SaveActivity(r.Context(), currentUser(r), service.SaveActivityRequest{
		Activity:   body.Activity,
		DayID:      dayID,
		SyncWallet: body.SyncWallet,
	})
	s.planResult(w, r, http.StatusCreated, plan, err)
}

// UpdateActivity handles PUT /itinerary/days/{dayID}/activities/{index}.
// A targetDayId different from the path day moves the activity.
func (s *Server) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	var body saveActivityRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	source := chi.URLParam(r, "dayID")
	target := source
	if body.TargetDayID != "" {
		target = body.TargetDayID
	}
	plan, err := s.Planner.SaveActivity(r.Context(), currentUser(r), service.SaveActivityRequest{
		Activity:    body.Activity,
		DayID:       target,
		SourceDayID: source,
		Index:       &index,
		SyncWallet:  body.SyncWallet,
	})
	s.planResult(w, r, http.StatusOK, plan, err)
}

// DeleteActivity handles DELETE /itinerary/days/{dayID}/activities/{index}.
func (s *Server) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	plan, err := s.Itinerary.RemoveActivity(r.Context(), chi.URLParam(r, "dayID"), index)
	s.planResult(w, r, http.StatusOK, plan, err)
}

// MoveActivity handles POST /itinerary/days/{dayID}/activities/{index}/move.
// The body names either a destination day or the idea pool.
func (s *Server) MoveActivity(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	var body moveActivityRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	dayID := chi.URLParam(r, "dayID")

	switch {
	case body.ToPool && body.ToDayID != "":
		badRequest(w, "set either toDayId or toPool, not both")
	case body.ToPool:
		plan, err := s.Itinerary.MoveActivityToPool(r.Context(), dayID, index)
		s.planResult(w, r, http.StatusOK, plan, err)
	case body.ToDayID != "":
		plan, err := s.Itinerary.MoveActivityAt(r.Context(), dayID, body.ToDayID, index)
		s.planResult(w, r, http.StatusOK, plan, err)
	default:
		badRequest(w, "toDayId or toPool is required")
	}
}

// AddAttachment handles POST /itinerary/days/{dayID}/activities/{index}/attachments.
// A multipart upload in the "file" field is stored as an image attachment;
// a JSON body {url, label} adds a link attachment.
func (s *Server) AddAttachment(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	dayID := chi.URLParam(r, "dayID")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var att domain.Attachment
	if mediaType == "multipart/form-data" {
		a, ok := s.uploadImage(w, r)
		if !ok {
			return
		}
		att = a
	} else {
		var body linkAttachmentRequest
		if !s.decodeJSON(w, r, &body) {
			return
		}
		if !strings.HasPrefix(body.URL, "http://") && !strings.HasPrefix(body.URL, "https://") {
			badRequest(w, "url must be an http(s) link")
			return
		}
		att = domain.Attachment{Type: domain.AttachmentLink, URL: body.URL, Label: body.Label}
	}

	plan, err := s.Planner.AddAttachment(r.Context(), currentUser(r), dayID, index, att)
	s.planResult(w, r, http.StatusCreated, plan, err)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) (domain.Attachment, bool) {
	if s.Blobs == nil {
		writeErrorBody(w, http.StatusNotImplemented, "not_implemented", "uploads are disabled")
		return domain.Attachment{}, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, err)
		} else {
			badRequest(w, "invalid multipart form: "+err.Error())
		}
		return domain.Attachment{}, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return domain.Attachment{}, false
	}
	defer file.Close()

	url, err := s.Blobs.Put(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.writeError(w, r, err)
		return domain.Attachment{}, false
	}
	return domain.Attachment{Type: domain.AttachmentImage, URL: url, Label: r.FormValue("label")}, true
}
