package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/repo"
)

// settingsDateLayout is the on-document format of the travel window.
const settingsDateLayout = "2006-01-02"

// Default travel window written into a freshly seeded settings document.
const (
	DefaultStartDate = "2026-05-20"
	DefaultEndDate   = "2026-06-04"
)

// Rescheduler relabels the itinerary days from a new start date.
// *ItineraryStore satisfies it.
type Rescheduler interface {
	Reschedule(ctx context.Context, start time.Time) (domain.Plan, error)
}

// SettingsService manages the admin list and the travel window.
//
// Bootstrap admins come from configuration. They seed a missing settings
// document and always count as admins, so a wiped or edited list can never
// lock every editor out.
type SettingsService struct {
	doc         *syncedDoc[domain.Settings]
	bootstrap   domain.Settings
	rescheduler Rescheduler
}

// NewSettingsService constructs a SettingsService over the settings document.
func NewSettingsService(store repo.DocumentStore, adminEmails []string, itinerary Rescheduler, log *slog.Logger) *SettingsService {
	bootstrap := domain.Settings{AdminEmails: []string{}, StartDate: DefaultStartDate, EndDate: DefaultEndDate}
	for _, e := range adminEmails {
		if e = domain.NormalizeEmail(e); e != "" && !slices.Contains(bootstrap.AdminEmails, e) {
			bootstrap.AdminEmails = append(bootstrap.AdminEmails, e)
		}
	}
	return &SettingsService{
		doc: newSyncedDoc(store, domain.DocSettings, log,
			func() domain.Settings { return bootstrap.Clone() },
			domain.Settings.Clone,
		),
		bootstrap:   bootstrap,
		rescheduler: itinerary,
	}
}

// Start loads the settings and begins following remote changes.
func (s *SettingsService) Start(ctx context.Context) error {
	if err := s.doc.start(ctx); err != nil {
		return fmt.Errorf("service.SettingsService.Start: %w", err)
	}
	return nil
}

// Close stops following remote changes.
func (s *SettingsService) Close() { s.doc.close() }

// Get returns the current settings.
func (s *SettingsService) Get() domain.Settings {
	return s.doc.value()
}

// IsAdmin reports whether email may edit the trip.
func (s *SettingsService) IsAdmin(email string) bool {
	return s.bootstrap.IsAdmin(email) || s.doc.value().IsAdmin(email)
}

// AddAdmin appends email to the admin list.
func (s *SettingsService) AddAdmin(ctx context.Context, email string) (domain.Settings, error) {
	email = domain.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return domain.Settings{}, fmt.Errorf("service.SettingsService.AddAdmin: %w: %q is not an email address", domain.ErrValidation, email)
	}
	out, err := s.doc.update(ctx, func(cur domain.Settings) (domain.Settings, error) {
		if cur.IsAdmin(email) {
			return cur, fmt.Errorf("%w: %s is already an admin", domain.ErrConflict, email)
		}
		cur.AdminEmails = append(cur.AdminEmails, email)
		return cur, nil
	})
	if err != nil {
		return out, fmt.Errorf("service.SettingsService.AddAdmin: %w", err)
	}
	return out, nil
}

// RemoveAdmin drops email from the admin list. An admin cannot remove
// themselves.
func (s *SettingsService) RemoveAdmin(ctx context.Context, actor, email string) (domain.Settings, error) {
	email = domain.NormalizeEmail(email)
	if email == domain.NormalizeEmail(actor) {
		return domain.Settings{}, fmt.Errorf("service.SettingsService.RemoveAdmin: %w: cannot remove yourself", domain.ErrValidation)
	}
	out, err := s.doc.update(ctx, func(cur domain.Settings) (domain.Settings, error) {
		n := len(cur.AdminEmails)
		cur.AdminEmails = slices.DeleteFunc(cur.AdminEmails, func(e string) bool {
			return domain.NormalizeEmail(e) == email
		})
		if len(cur.AdminEmails) == n {
			return cur, fmt.Errorf("%w: %s is not an admin", domain.ErrNotFound, email)
		}
		return cur, nil
	})
	if err != nil {
		return out, fmt.Errorf("service.SettingsService.RemoveAdmin: %w", err)
	}
	return out, nil
}

// UpdateDates stores the travel window and relabels the itinerary days
// from the new start date.
func (s *SettingsService) UpdateDates(ctx context.Context, start, end time.Time) (domain.Settings, error) {
	if start.IsZero() || end.IsZero() {
		return domain.Settings{}, fmt.Errorf("service.SettingsService.UpdateDates: %w: start and end dates are required", domain.ErrValidation)
	}
	if end.Before(start) {
		return domain.Settings{}, fmt.Errorf("service.SettingsService.UpdateDates: %w: end date is before start date", domain.ErrValidation)
	}
	out, err := s.doc.update(ctx, func(cur domain.Settings) (domain.Settings, error) {
		cur.StartDate = start.Format(settingsDateLayout)
		cur.EndDate = end.Format(settingsDateLayout)
		return cur, nil
	})
	if err != nil {
		return out, fmt.Errorf("service.SettingsService.UpdateDates: %w", err)
	}
	if _, err := s.rescheduler.Reschedule(ctx, start); err != nil {
		return out, fmt.Errorf("service.SettingsService.UpdateDates: %w", err)
	}
	return out, nil
}
