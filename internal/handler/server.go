// Package handler implements the HTTP handlers for the Tripboard API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (itinerary.go, wallet.go, etc.) but share the same Server struct so
// they can reach its dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/geocode"
	"github.com/pkordes/tripboard/internal/service"
)

// Itinerary is the itinerary surface the handlers depend on.
// Defining the interfaces here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject mocks without touching the store or service layer.
type Itinerary interface {
	Plan() domain.Plan
	Days(city domain.City) []domain.TripDay
	Day(dayID string) (domain.TripDay, error)
	CanUndo() bool
	RemoveActivity(ctx context.Context, dayID string, index int) (domain.Plan, error)
	MoveActivityAt(ctx context.Context, fromDay, toDay string, index int) (domain.Plan, error)
	MoveActivityToPool(ctx context.Context, dayID string, index int) (domain.Plan, error)
	AddIdea(ctx context.Context, a domain.Activity) (domain.Plan, error)
	UpdateIdea(ctx context.Context, index int, a domain.Activity) (domain.Plan, error)
	RemoveIdea(ctx context.Context, index int) (domain.Plan, error)
	MoveIdeaToDay(ctx context.Context, index int, dayID string) (domain.Plan, error)
	UpdateDayInfo(ctx context.Context, dayID, title, summary string) (domain.Plan, error)
	Reset(ctx context.Context) (domain.Plan, error)
	Import(ctx context.Context, data []byte) (domain.Plan, error)
	Undo(ctx context.Context) (bool, error)
	Export() ([]byte, error)
	ShareText() string
	ExportPDF(shareURL string) ([]byte, error)
}

// Planner performs activity saves that stamp the editor and touch the wallet.
type Planner interface {
	SaveActivity(ctx context.Context, user domain.User, req service.SaveActivityRequest) (domain.Plan, error)
	AddAttachment(ctx context.Context, user domain.User, dayID string, index int, att domain.Attachment) (domain.Plan, error)
}

// Wallet is the budget ledger surface.
type Wallet interface {
	List() []domain.WalletItem
	Total() float64
	Add(ctx context.Context, item domain.WalletItem) (domain.WalletItem, error)
	Update(ctx context.Context, id string, item domain.WalletItem) (domain.WalletItem, error)
	Remove(ctx context.Context, id string) error
	Summary(plan domain.Plan) service.WalletSummary
}

// Settings is the trip settings and admin list surface.
type Settings interface {
	Get() domain.Settings
	IsAdmin(email string) bool
	AddAdmin(ctx context.Context, email string) (domain.Settings, error)
	RemoveAdmin(ctx context.Context, actor, email string) (domain.Settings, error)
	UpdateDates(ctx context.Context, start, end time.Time) (domain.Settings, error)
}

// Checklist is the packing checklist surface.
type Checklist interface {
	List() []string
	Add(ctx context.Context, item string) ([]string, error)
	Remove(ctx context.Context, index int) ([]string, error)
	Replace(ctx context.Context, items []string) ([]string, error)
}

// Geocoder resolves a place name or maps link to coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string) (geocode.Result, error)
}

// BlobStore persists uploaded images and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Deps are the Server's collaborators. Files and Stream are optional
// handlers mounted at /files/ and /ws.
type Deps struct {
	Itinerary Itinerary
	Planner   Planner
	Wallet    Wallet
	Settings  Settings
	Checklist Checklist
	Geocoder  Geocoder
	Blobs     BlobStore
	Files     http.Handler
	Stream    http.Handler
	Log       *slog.Logger
	// PublicURL is the externally visible base URL, printed as a QR code
	// on the PDF export.
	PublicURL string
	// MaxUploadBytes bounds attachment uploads.
	MaxUploadBytes int64
}

// Server holds the dependencies shared by every handler.
type Server struct {
	Deps
}

// NewServer constructs the Server with all its dependencies.
func NewServer(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 10 << 20
	}
	return &Server{Deps: deps}
}

// Routes returns the API router. Identity must already be attached to the
// request context by auth.Middleware: reads require a signed-in user and
// every mutation requires an admin.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if s.Files != nil {
		r.Handle("/files/*", s.Files)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/me", s.GetMe)
		if s.Stream != nil {
			r.Handle("/ws", s.Stream)
		}

		r.Get("/itinerary", s.GetItinerary)
		r.Get("/itinerary/export", s.ExportItinerary)
		r.Get("/itinerary/days/{dayID}/route", s.GetDayRoute)
		r.Get("/ideas", s.ListIdeas)
		r.Get("/wallet", s.ListWallet)
		r.Get("/wallet/summary", s.GetWalletSummary)
		r.Get("/settings", s.GetSettings)
		r.Get("/checklist", s.GetChecklist)
		r.Get("/geo/search", s.SearchPlace)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Post("/itinerary/reset", s.ResetItinerary)
			r.Post("/itinerary/undo", s.UndoItinerary)
			r.Post("/itinerary/import", s.ImportItinerary)
			r.Put("/itinerary/days/{dayID}", s.UpdateDay)
			r.Post("/itinerary/days/{dayID}/activities", s.CreateActivity)
			r.Put("/itinerary/days/{dayID}/activities/{index}", s.UpdateActivity)
			r.Delete("/itinerary/days/{dayID}/activities/{index}", s.DeleteActivity)
			r.Post("/itinerary/days/{dayID}/activities/{index}/move", s.MoveActivity)
			r.Post("/itinerary/days/{dayID}/activities/{index}/attachments", s.AddAttachment)

			r.Post("/ideas", s.CreateIdea)
			r.Put("/ideas/{index}", s.UpdateIdea)
			r.Delete("/ideas/{index}", s.DeleteIdea)
			r.Post("/ideas/{index}/move", s.MoveIdea)

			r.Post("/wallet", s.CreateWalletItem)
			r.Put("/wallet/{id}", s.UpdateWalletItem)
			r.Delete("/wallet/{id}", s.DeleteWalletItem)

			r.Put("/settings", s.UpdateSettings)
			r.Post("/settings/admins", s.AddAdmin)
			r.Delete("/settings/admins/{email}", s.RemoveAdmin)

			r.Post("/checklist", s.AddChecklistItem)
			r.Put("/checklist", s.ReplaceChecklist)
			r.Delete("/checklist/{index}", s.DeleteChecklistItem)
		})
	})

	return r
}
