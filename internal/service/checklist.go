package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/repo"
	"github.com/pkordes/tripboard/seed"
)

// ChecklistService manages the shared booking/packing checklist.
type ChecklistService struct {
	doc *syncedDoc[domain.Checklist]
}

// NewChecklistService constructs a ChecklistService over the checklist
// document. A missing list is seeded from the bundled default.
func NewChecklistService(store repo.DocumentStore, log *slog.Logger) (*ChecklistService, error) {
	defaults, err := loadSeed[domain.Checklist](seed.ChecklistFile)
	if err != nil {
		return nil, fmt.Errorf("service.NewChecklistService: %w", err)
	}
	return &ChecklistService{
		doc: newSyncedDoc(store, domain.DocChecklist, log,
			func() domain.Checklist { return defaults.Clone() },
			domain.Checklist.Clone,
		),
	}, nil
}

// Start loads the checklist and begins following remote changes.
func (s *ChecklistService) Start(ctx context.Context) error {
	if err := s.doc.start(ctx); err != nil {
		return fmt.Errorf("service.ChecklistService.Start: %w", err)
	}
	return nil
}

// Close stops following remote changes.
func (s *ChecklistService) Close() { s.doc.close() }

// List returns the checklist items.
func (s *ChecklistService) List() []string {
	return s.doc.value().Items
}

// Add appends an item.
func (s *ChecklistService) Add(ctx context.Context, item string) ([]string, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return nil, fmt.Errorf("service.ChecklistService.Add: %w: item is empty", domain.ErrValidation)
	}
	out, err := s.doc.update(ctx, func(c domain.Checklist) (domain.Checklist, error) {
		c.Items = append(c.Items, item)
		return c, nil
	})
	if err != nil {
		return out.Items, fmt.Errorf("service.ChecklistService.Add: %w", err)
	}
	return out.Items, nil
}

// Remove deletes the item at index.
func (s *ChecklistService) Remove(ctx context.Context, index int) ([]string, error) {
	out, err := s.doc.update(ctx, func(c domain.Checklist) (domain.Checklist, error) {
		if err := checkIndex(index, len(c.Items)); err != nil {
			return c, err
		}
		c.Items = slices.Delete(c.Items, index, index+1)
		return c, nil
	})
	if err != nil {
		return out.Items, fmt.Errorf("service.ChecklistService.Remove: %w", err)
	}
	return out.Items, nil
}

// Replace overwrites the whole list. Blank items are dropped.
func (s *ChecklistService) Replace(ctx context.Context, items []string) ([]string, error) {
	clean := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			clean = append(clean, it)
		}
	}
	out, err := s.doc.update(ctx, func(domain.Checklist) (domain.Checklist, error) {
		return domain.Checklist{Items: clean}, nil
	})
	if err != nil {
		return out.Items, fmt.Errorf("service.ChecklistService.Replace: %w", err)
	}
	return out.Items, nil
}
