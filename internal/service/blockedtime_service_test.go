package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medagenda/api/internal/domain/blockedtime"
	"github.com/medagenda/api/internal/service"
)

func newBlockedTimeService(f *fixture) *service.BlockedTimeService {
	return service.NewBlockedTimeService(f.blocked, f.appts, f.cache, zap.NewNop())
}

func TestBlockSlot(t *testing.T) {
	f := newFixture(t, true)
	svc := newBlockedTimeService(f)
	ctx := context.Background()

	b, err := svc.Create(ctx, &blockedtime.CreateCommand{
		Date: futureDate(), Time: "09:00", Reason: "equipment maintenance",
	})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Contains(t, f.cache.invalidated, futureDate())

	_, err = svc.Create(ctx, &blockedtime.CreateCommand{Date: futureDate(), Time: "09:00"})
	assert.ErrorIs(t, err, blockedtime.ErrAlreadyBlocked)
}

func TestBlockSlotValidation(t *testing.T) {
	f := newFixture(t, true)
	svc := newBlockedTimeService(f)
	ctx := context.Background()

	_, err := svc.Create(ctx, &blockedtime.CreateCommand{Date: "next tuesday", Time: "09:00"})
	assert.ErrorIs(t, err, blockedtime.ErrInvalidDate)

	_, err = svc.Create(ctx, &blockedtime.CreateCommand{Date: futureDate(), Time: "9h"})
	assert.ErrorIs(t, err, blockedtime.ErrInvalidTime)

	_, err = svc.Create(ctx, &blockedtime.CreateCommand{Date: pastDate(), Time: "09:00"})
	assert.ErrorIs(t, err, blockedtime.ErrPastDateTime)
}

func TestBlockSlotWithActiveAppointment(t *testing.T) {
	f := newFixture(t, true)
	svc := newBlockedTimeService(f)
	ctx := context.Background()

	_, err := f.bookings.Book(ctx, bookCmd(10, futureDate(), "10:00"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, &blockedtime.CreateCommand{Date: futureDate(), Time: "10:00"})
	assert.ErrorIs(t, err, blockedtime.ErrSlotHasAppointment)
}

func TestUnblockSlot(t *testing.T) {
	f := newFixture(t, true)
	svc := newBlockedTimeService(f)
	ctx := context.Background()

	b, err := svc.Create(ctx, &blockedtime.CreateCommand{Date: futureDate(), Time: "09:00"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, b.ID))

	blocked, err := f.blocked.IsBlocked(ctx, futureDate(), "09:00")
	require.NoError(t, err)
	assert.False(t, blocked)

	assert.ErrorIs(t, svc.Delete(ctx, b.ID), blockedtime.ErrNotFound)
}

func TestUnblockPastSlotRefused(t *testing.T) {
	f := newFixture(t, true)
	svc := newBlockedTimeService(f)
	ctx := context.Background()

	// Seed directly: Create refuses past slots, but rows age into the past.
	past := &blockedtime.BlockedTime{Date: pastDate(), Time: "09:00", Reason: "holiday"}
	require.NoError(t, f.blocked.Create(ctx, past))

	assert.ErrorIs(t, svc.Delete(ctx, past.ID), blockedtime.ErrPastDateTime)
}

func TestListBlockedTimesByDate(t *testing.T) {
	f := newFixture(t, true)
	svc := newBlockedTimeService(f)
	ctx := context.Background()

	_, err := svc.Create(ctx, &blockedtime.CreateCommand{Date: futureDate(), Time: "09:00"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &blockedtime.CreateCommand{Date: futureDate(), Time: "10:00"})
	require.NoError(t, err)

	date := futureDate()
	page, err := svc.List(ctx, &blockedtime.ListQuery{Date: &date})
	require.NoError(t, err)
	assert.Len(t, page.BlockedTimes, 2)

	other := "2031-01-15"
	page, err = svc.List(ctx, &blockedtime.ListQuery{Date: &other})
	require.NoError(t, err)
	assert.Empty(t, page.BlockedTimes)
}
