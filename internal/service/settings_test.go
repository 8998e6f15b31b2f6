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

// mockRescheduler is a hand-written test double for service.Rescheduler.
type mockRescheduler struct {
	reschedule func(ctx context.Context, start time.Time) (domain.Plan, error)
}

func (m *mockRescheduler) Reschedule(ctx context.Context, start time.Time) (domain.Plan, error) {
	return m.reschedule(ctx, start)
}

var _ service.Rescheduler = (*mockRescheduler)(nil)

func newSettings(t *testing.T, r service.Rescheduler) *service.SettingsService {
	t.Helper()
	s := service.NewSettingsService(repo.NewMemoryDocumentStore(), []string{" Owner@Example.com "}, r, discardLogger())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func TestSettingsService_SeedsBootstrapAdmins(t *testing.T) {
	s := newSettings(t, nil)

	got := s.Get()
	assert.Equal(t, []string{"owner@example.com"}, got.AdminEmails)
	assert.Equal(t, service.DefaultStartDate, got.StartDate)
	assert.Equal(t, service.DefaultEndDate, got.EndDate)
	assert.True(t, s.IsAdmin("OWNER@example.com"))
	assert.False(t, s.IsAdmin("guest@example.com"))
	assert.False(t, s.IsAdmin(""))
}

func TestSettingsService_AddAdmin(t *testing.T) {
	s := newSettings(t, nil)
	ctx := context.Background()

	got, err := s.AddAdmin(ctx, "Friend@Example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"owner@example.com", "friend@example.com"}, got.AdminEmails)
	assert.True(t, s.IsAdmin("friend@example.com"))

	_, err = s.AddAdmin(ctx, "friend@example.com")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.AddAdmin(ctx, "not-an-email")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSettingsService_RemoveAdmin(t *testing.T) {
	s := newSettings(t, nil)
	ctx := context.Background()
	_, err := s.AddAdmin(ctx, "friend@example.com")
	require.NoError(t, err)

	_, err = s.RemoveAdmin(ctx, "friend@example.com", "FRIEND@example.com")
	assert.ErrorIs(t, err, domain.ErrValidation, "admins cannot remove themselves")

	got, err := s.RemoveAdmin(ctx, "owner@example.com", "friend@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"owner@example.com"}, got.AdminEmails)
	assert.False(t, s.IsAdmin("friend@example.com"))

	_, err = s.RemoveAdmin(ctx, "owner@example.com", "friend@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSettingsService_BootstrapAdminSurvivesRemoval(t *testing.T) {
	s := newSettings(t, nil)
	ctx := context.Background()
	_, err := s.AddAdmin(ctx, "friend@example.com")
	require.NoError(t, err)

	_, err = s.RemoveAdmin(ctx, "friend@example.com", "owner@example.com")
	require.NoError(t, err)

	assert.True(t, s.IsAdmin("owner@example.com"))
}

func TestSettingsService_UpdateDates_Reschedules(t *testing.T) {
	var got time.Time
	s := newSettings(t, &mockRescheduler{
		reschedule: func(_ context.Context, start time.Time) (domain.Plan, error) {
			got = start
			return domain.Plan{}, nil
		},
	})
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC)

	settings, err := s.UpdateDates(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, "2026-06-01", settings.StartDate)
	assert.Equal(t, "2026-06-12", settings.EndDate)
	assert.True(t, got.Equal(start))
}

func TestSettingsService_UpdateDates_EndBeforeStart(t *testing.T) {
	called := false
	s := newSettings(t, &mockRescheduler{
		reschedule: func(context.Context, time.Time) (domain.Plan, error) {
			called = true
			return domain.Plan{}, nil
		},
	})

	_, err := s.UpdateDates(context.Background(),
		time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, called)
	assert.Equal(t, service.DefaultStartDate, s.Get().StartDate)
}
