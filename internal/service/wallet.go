package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/repo"
	"github.com/pkordes/tripboard/seed"
)

// WalletService manages the shared budget ledger document.
type WalletService struct {
	doc *syncedDoc[domain.Wallet]
}

// NewWalletService constructs a WalletService over the wallet document.
// A missing ledger is seeded from the bundled default.
func NewWalletService(store repo.DocumentStore, log *slog.Logger) (*WalletService, error) {
	defaults, err := loadSeed[domain.Wallet](seed.WalletFile)
	if err != nil {
		return nil, fmt.Errorf("service.NewWalletService: %w", err)
	}
	return &WalletService{
		doc: newSyncedDoc(store, domain.DocWallet, log,
			func() domain.Wallet { return defaults.Clone() },
			domain.Wallet.Clone,
		),
	}, nil
}

// Start loads the ledger and begins following remote changes.
func (s *WalletService) Start(ctx context.Context) error {
	if err := s.doc.start(ctx); err != nil {
		return fmt.Errorf("service.WalletService.Start: %w", err)
	}
	return nil
}

// Close stops following remote changes.
func (s *WalletService) Close() { s.doc.close() }

// List returns every ledger item in insertion order.
func (s *WalletService) List() []domain.WalletItem {
	return s.doc.value().Items
}

// Get returns one item by id.
func (s *WalletService) Get(id string) (domain.WalletItem, error) {
	items := s.doc.value().Items
	i := slices.IndexFunc(items, func(it domain.WalletItem) bool { return it.ID == id })
	if i < 0 {
		return domain.WalletItem{}, fmt.Errorf("service.WalletService.Get: %w: item %q", domain.ErrNotFound, id)
	}
	return items[i], nil
}

// Add validates item, assigns it a fresh id and appends it.
func (s *WalletService) Add(ctx context.Context, item domain.WalletItem) (domain.WalletItem, error) {
	if err := validateWalletItem(item); err != nil {
		return domain.WalletItem{}, fmt.Errorf("service.WalletService.Add: %w", err)
	}
	item.ID = uuid.NewString()
	_, err := s.doc.update(ctx, func(w domain.Wallet) (domain.Wallet, error) {
		w.Items = append(w.Items, item)
		return w, nil
	})
	if err != nil {
		return item, fmt.Errorf("service.WalletService.Add: %w", err)
	}
	return item, nil
}

// Update replaces the fields of the item with the given id.
func (s *WalletService) Update(ctx context.Context, id string, item domain.WalletItem) (domain.WalletItem, error) {
	if err := validateWalletItem(item); err != nil {
		return domain.WalletItem{}, fmt.Errorf("service.WalletService.Update: %w", err)
	}
	item.ID = id
	_, err := s.doc.update(ctx, func(w domain.Wallet) (domain.Wallet, error) {
		i := slices.IndexFunc(w.Items, func(it domain.WalletItem) bool { return it.ID == id })
		if i < 0 {
			return w, fmt.Errorf("%w: item %q", domain.ErrNotFound, id)
		}
		w.Items[i] = item
		return w, nil
	})
	if err != nil {
		return item, fmt.Errorf("service.WalletService.Update: %w", err)
	}
	return item, nil
}

// Remove deletes the item with the given id.
func (s *WalletService) Remove(ctx context.Context, id string) error {
	_, err := s.doc.update(ctx, func(w domain.Wallet) (domain.Wallet, error) {
		n := len(w.Items)
		w.Items = slices.DeleteFunc(w.Items, func(it domain.WalletItem) bool { return it.ID == id })
		if len(w.Items) == n {
			return w, fmt.Errorf("%w: item %q", domain.ErrNotFound, id)
		}
		return w, nil
	})
	if err != nil {
		return fmt.Errorf("service.WalletService.Remove: %w", err)
	}
	return nil
}

// Total returns the sum of all ledger costs.
func (s *WalletService) Total() float64 {
	return s.doc.value().Total()
}

// WalletSummary is the budget overview: ledger totals per category plus
// the costs entered directly on scheduled activities.
type WalletSummary struct {
	ByCategory    map[domain.WalletCategory]float64 `json:"byCategory"`
	WalletTotal   float64                           `json:"walletTotal"`
	ActivityTotal float64                           `json:"activityTotal"`
	TripTotal     float64                           `json:"tripTotal"`
}

// Summary combines the ledger with the activity costs of plan.
func (s *WalletService) Summary(plan domain.Plan) WalletSummary {
	w := s.doc.value()
	sum := WalletSummary{
		ByCategory:    make(map[domain.WalletCategory]float64),
		WalletTotal:   w.Total(),
		ActivityTotal: plan.ActivityCost(),
	}
	for _, it := range w.Items {
		if it.Cost != nil {
			sum.ByCategory[it.Category] += *it.Cost
		}
	}
	sum.TripTotal = sum.WalletTotal + sum.ActivityTotal
	return sum
}

func validateWalletItem(item domain.WalletItem) error {
	if !item.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, item.Category)
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if item.Cost != nil && *item.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", domain.ErrValidation)
	}
	return nil
}
