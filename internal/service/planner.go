package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripboard/internal/domain"
)

// SaveActivityRequest is one submission of the activity form.
type SaveActivityRequest struct {
	Activity domain.Activity
	// DayID is the day the activity should end up on.
	DayID string
	// SourceDayID and Index locate the activity being edited. A nil Index
	// means a new activity. An empty SourceDayID means DayID.
	SourceDayID string
	Index       *int
	// SyncWallet mirrors the activity cost into the budget ledger.
	SyncWallet bool
}

// Planner orchestrates edits that span documents: activity saves that
// stamp the editor and mirror costs into the wallet.
type Planner struct {
	itinerary *ItineraryStore
	wallet    *WalletService
	clock     Clock
}

// NewPlanner constructs a Planner. A nil clock means SystemClock.
func NewPlanner(itinerary *ItineraryStore, wallet *WalletService, clock Clock) *Planner {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Planner{itinerary: itinerary, wallet: wallet, clock: clock}
}

// SaveActivity stamps the activity with the editor and time, syncs its cost
// into the wallet when requested, then adds, updates or moves it.
//
// The target day and the edited position are checked before the wallet is
// touched. A ledger entry created for a save that is then rejected is
// removed again. A wallet write failure does not stop the itinerary save;
// it is reported alongside the saved plan.
func (p *Planner) SaveActivity(ctx context.Context, user domain.User, req SaveActivityRequest) (domain.Plan, error) {
	a := p.stamp(req.Activity, user)
	if err := validateActivity(a); err != nil {
		return domain.Plan{}, fmt.Errorf("service.Planner.SaveActivity: %w", err)
	}
	if err := p.checkTarget(req); err != nil {
		return domain.Plan{}, fmt.Errorf("service.Planner.SaveActivity: %w", err)
	}

	var walletErr error
	created := false
	if req.SyncWallet && a.Cost != nil && *a.Cost > 0 {
		id, isNew, err := p.syncWallet(ctx, a)
		switch {
		case errors.Is(err, domain.ErrWriteFailed):
			walletErr = err
		case err != nil:
			return domain.Plan{}, fmt.Errorf("service.Planner.SaveActivity: %w", err)
		}
		a.WalletItemID = id
		created = isNew
	}

	plan, err := p.dispatch(ctx, req, a)
	if err != nil {
		if created && !errors.Is(err, domain.ErrWriteFailed) {
			if rmErr := p.wallet.Remove(ctx, a.WalletItemID); rmErr != nil {
				err = errors.Join(err, rmErr)
			}
		}
		return plan, fmt.Errorf("service.Planner.SaveActivity: %w", err)
	}
	if walletErr != nil {
		return plan, fmt.Errorf("service.Planner.SaveActivity: wallet: %w", walletErr)
	}
	return plan, nil
}

// checkTarget rejects saves that dispatch would refuse: an unknown target
// or source day, or an edited position that is out of range.
func (p *Planner) checkTarget(req SaveActivityRequest) error {
	if _, err := p.itinerary.Day(req.DayID); err != nil {
		return err
	}
	if req.Index == nil {
		return nil
	}
	source := req.SourceDayID
	if source == "" {
		source = req.DayID
	}
	day, err := p.itinerary.Day(source)
	if err != nil {
		return err
	}
	return checkIndex(*req.Index, len(day.Activities))
}

func (p *Planner) dispatch(ctx context.Context, req SaveActivityRequest, a domain.Activity) (domain.Plan, error) {
	if req.Index == nil {
		return p.itinerary.AddActivity(ctx, req.DayID, a)
	}
	source := req.SourceDayID
	if source == "" {
		source = req.DayID
	}
	if source == req.DayID {
		return p.itinerary.UpdateActivity(ctx, req.DayID, *req.Index, a)
	}
	return p.itinerary.MoveActivity(ctx, source, req.DayID, a, req.Index)
}

// syncWallet upserts the ledger entry mirroring a and returns its id and
// whether the entry is new. A stale walletItemId whose entry was deleted
// gets a fresh entry.
func (p *Planner) syncWallet(ctx context.Context, a domain.Activity) (string, bool, error) {
	item := domain.WalletItem{
		Category: domain.WalletCategoryFor(a.Type),
		Title:    a.Title,
		Details:  a.Time,
		Cost:     a.Cost,
	}
	if a.WalletItemID != "" {
		_, err := p.wallet.Update(ctx, a.WalletItemID, item)
		if !errors.Is(err, domain.ErrNotFound) {
			return a.WalletItemID, false, err
		}
	}
	added, err := p.wallet.Add(ctx, item)
	return added.ID, err == nil || errors.Is(err, domain.ErrWriteFailed), err
}

// AddAttachment appends att to the activity at index on the day. The edit
// reads the activity inside the mutation and can be undone.
func (p *Planner) AddAttachment(ctx context.Context, user domain.User, dayID string, index int, att domain.Attachment) (domain.Plan, error) {
	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	plan, err := p.itinerary.EditActivity(ctx, dayID, index, func(a domain.Activity) domain.Activity {
		a.Attachments = append(a.Attachments, att)
		return p.stamp(a, user)
	})
	if err != nil {
		return plan, fmt.Errorf("service.Planner.AddAttachment: %w", err)
	}
	return plan, nil
}

func (p *Planner) stamp(a domain.Activity, user domain.User) domain.Activity {
	a.ModifiedBy = user.DisplayName()
	a.ModifiedAt = p.clock.Now().UTC().Format(time.RFC3339)
	return a
}
