package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/repo"
	"github.com/pkordes/tripboard/internal/service"
)

var plannerNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

type plannerFixture struct {
	planner   *service.Planner
	itinerary *service.ItineraryStore
	wallet    *service.WalletService
}

func newPlanner(t *testing.T) plannerFixture {
	t.Helper()
	mem := repo.NewMemoryDocumentStore()
	itinerary := newItinerary(t, mem, 0)
	wallet := newWallet(t, mem)
	return plannerFixture{
		planner:   service.NewPlanner(itinerary, wallet, service.FixedClock{T: plannerNow}),
		itinerary: itinerary,
		wallet:    wallet,
	}
}

var ada = domain.User{Name: "Ada", Email: "ada@example.com"}

func TestPlanner_SaveActivity_NewStampsEditor(t *testing.T) {
	f := newPlanner(t)

	p, err := f.planner.SaveActivity(context.Background(), ada, service.SaveActivityRequest{
		Activity: activity("15:00", "Coit Tower"),
		DayID:    "day2",
	})
	require.NoError(t, err)

	got := p.Days[1].Activities[1]
	assert.Equal(t, "Coit Tower", got.Title)
	assert.Equal(t, "Ada", got.ModifiedBy)
	assert.Equal(t, "2026-05-01T09:30:00Z", got.ModifiedAt)
	assert.Empty(t, got.WalletItemID)
}

func TestPlanner_SaveActivity_SyncsCostIntoWallet(t *testing.T) {
	f := newPlanner(t)
	before := len(f.wallet.List())

	a := activity("19:00", "Giants game")
	a.Cost = cost(85)
	p, err := f.planner.SaveActivity(context.Background(), ada, service.SaveActivityRequest{
		Activity: a, DayID: "day2", SyncWallet: true,
	})
	require.NoError(t, err)

	saved := p.Days[1].Activities[1]
	require.NotEmpty(t, saved.WalletItemID)

	items := f.wallet.List()
	require.Len(t, items, before+1)
	item, err := f.wallet.Get(saved.WalletItemID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletTicket, item.Category)
	assert.Equal(t, "Giants game", item.Title)
	assert.Equal(t, "19:00", item.Details)
	assert.Equal(t, 85.0, *item.Cost)
}

func TestPlanner_SaveActivity_UpdatesLinkedWalletItem(t *testing.T) {
	f := newPlanner(t)
	ctx := context.Background()

	a := activity("19:00", "Dinner")
	a.Type = domain.ActivityFood
	a.Cost = cost(40)
	p, err := f.planner.SaveActivity(ctx, ada, service.SaveActivityRequest{Activity: a, DayID: "day3", SyncWallet: true})
	require.NoError(t, err)
	saved := p.Days[2].Activities[0]
	count := len(f.wallet.List())

	saved.Cost = cost(55)
	p, err = f.planner.SaveActivity(ctx, ada, service.SaveActivityRequest{
		Activity: saved, DayID: "day3", Index: intPtr(0), SyncWallet: true,
	})
	require.NoError(t, err)

	assert.Equal(t, saved.WalletItemID, p.Days[2].Activities[0].WalletItemID)
	assert.Len(t, f.wallet.List(), count)
	item, err := f.wallet.Get(saved.WalletItemID)
	require.NoError(t, err)
	assert.Equal(t, domain.WalletFood, item.Category)
	assert.Equal(t, 55.0, *item.Cost)
}

func TestPlanner_SaveActivity_StaleWalletLinkGetsNewItem(t *testing.T) {
	f := newPlanner(t)

	a := activity("19:00", "Show")
	a.Cost = cost(30)
	a.WalletItemID = "deleted"
	p, err := f.planner.SaveActivity(context.Background(), ada, service.SaveActivityRequest{Activity: a, DayID: "day3", SyncWallet: true})
	require.NoError(t, err)

	id := p.Days[2].Activities[0].WalletItemID
	assert.NotEqual(t, "deleted", id)
	_, err = f.wallet.Get(id)
	assert.NoError(t, err)
}

func TestPlanner_SaveActivity_ZeroCostSkipsWallet(t *testing.T) {
	f := newPlanner(t)
	before := len(f.wallet.List())

	a := activity("19:00", "Free concert")
	a.Cost = cost(0)
	_, err := f.planner.SaveActivity(context.Background(), ada, service.SaveActivityRequest{Activity: a, DayID: "day3", SyncWallet: true})
	require.NoError(t, err)

	assert.Len(t, f.wallet.List(), before)
}

func TestPlanner_SaveActivity_EditToOtherDayMoves(t *testing.T) {
	f := newPlanner(t)

	p, err := f.planner.SaveActivity(context.Background(), ada, service.SaveActivityRequest{
		Activity:    activity("12:00", "Lunch"),
		DayID:       "day3",
		SourceDayID: "day1",
		Index:       intPtr(1),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Breakfast"}, titles(p.Days[0].Activities))
	assert.Equal(t, []string{"Lunch"}, titles(p.Days[2].Activities))
}

func TestPlanner_SaveActivity_InvalidCreatesNoWalletItem(t *testing.T) {
	f := newPlanner(t)
	before := len(f.wallet.List())

	a := activity("noon", "Bad")
	a.Cost = cost(10)
	_, err := f.planner.SaveActivity(context.Background(), ada, service.SaveActivityRequest{Activity: a, DayID: "day1", SyncWallet: true})
	require.ErrorIs(t, err, domain.ErrValidation)

	a.Time = "12:30"
	_, err = f.planner.SaveActivity(context.Background(), ada, service.SaveActivityRequest{Activity: a, DayID: "nope", SyncWallet: true})
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.Len(t, f.wallet.List(), before)
	assert.False(t, f.itinerary.CanUndo())
}

func TestPlanner_SaveActivity_RejectedEditCreatesNoWalletItem(t *testing.T) {
	f := newPlanner(t)
	before := f.wallet.List()

	a := activity("19:00", "Dinner")
	a.Cost = cost(85)
	tests := []struct {
		name    string
		req     service.SaveActivityRequest
		wantErr error
	}{
		{"index past the end", service.SaveActivityRequest{DayID: "day1", Index: intPtr(7)}, domain.ErrValidation},
		{"negative index", service.SaveActivityRequest{DayID: "day1", Index: intPtr(-1)}, domain.ErrValidation},
		{"index past the end of the source day", service.SaveActivityRequest{DayID: "day3", SourceDayID: "day2", Index: intPtr(1)}, domain.ErrValidation},
		{"unknown source day", service.SaveActivityRequest{DayID: "day1", SourceDayID: "nope", Index: intPtr(0)}, domain.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			req.Activity = a
			req.SyncWallet = true

			_, err := f.planner.SaveActivity(context.Background(), ada, req)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, f.wallet.List())
			assert.False(t, f.itinerary.CanUndo())
		})
	}
}

func TestPlanner_AddAttachment(t *testing.T) {
	f := newPlanner(t)

	p, err := f.planner.AddAttachment(context.Background(), ada, "day1", 0, domain.Attachment{
		Type: domain.AttachmentImage, URL: "/files/a.jpg",
	})
	require.NoError(t, err)

	got := p.Days[0].Activities[0]
	require.Len(t, got.Attachments, 1)
	assert.NotEmpty(t, got.Attachments[0].ID)
	assert.Equal(t, "/files/a.jpg", got.Attachments[0].URL)
	assert.Equal(t, "Ada", got.ModifiedBy)
	assert.True(t, f.itinerary.CanUndo())

	_, err = f.planner.AddAttachment(context.Background(), ada, "day1", 5, domain.Attachment{Type: domain.AttachmentImage})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
