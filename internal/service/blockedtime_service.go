package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medagenda/api/internal/domain/appointment"
	"github.com/medagenda/api/internal/domain/blockedtime"
	"github.com/medagenda/api/internal/schedule"
)

// BlockedTimeService manages administrator-imposed unavailability windows.
type BlockedTimeService struct {
	blocked blockedtime.Repository
	appts   appointment.Repository
	cache   AvailabilityCache
	log     *zap.Logger
}

func NewBlockedTimeService(
	blocked blockedtime.Repository,
	appts appointment.Repository,
	cache AvailabilityCache,
	log *zap.Logger,
) *BlockedTimeService {
	return &BlockedTimeService{blocked: blocked, appts: appts, cache: cache, log: log}
}

// Create blocks a slot for every doctor. A slot holding an active
// appointment cannot be blocked, and neither can a moment in the past.
func (s *BlockedTimeService) Create(ctx context.Context, cmd *blockedtime.CreateCommand) (*blockedtime.BlockedTime, error) {
	if !schedule.ValidDateFormat(cmd.Date) {
		return nil, blockedtime.ErrInvalidDate
	}
	if !schedule.ValidTimeFormat(cmd.Time) {
		return nil, blockedtime.ErrInvalidTime
	}
	startsAt, err := schedule.ParseSlot(cmd.Date, cmd.Time)
	if err != nil {
		return nil, blockedtime.ErrInvalidDate
	}
	if !startsAt.After(time.Now()) {
		return nil, blockedtime.ErrPastDateTime
	}

	isBlocked, err := s.blocked.IsBlocked(ctx, cmd.Date, cmd.Time)
	if err != nil {
		return nil, fmt.Errorf("checking blocked times: %w", err)
	}
	if isBlocked {
		return nil, blockedtime.ErrAlreadyBlocked
	}

	occupied, err := s.appts.AnyActiveAt(ctx, cmd.Date, cmd.Time)
	if err != nil {
		return nil, fmt.Errorf("checking appointments: %w", err)
	}
	if occupied {
		return nil, blockedtime.ErrSlotHasAppointment
	}

	b := &blockedtime.BlockedTime{
		Date:   cmd.Date,
		Time:   cmd.Time,
		Reason: cmd.Reason,
	}
	if err := s.blocked.Create(ctx, b); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateDate(ctx, b.Date)
	}
	s.log.Info("time slot blocked",
		zap.String("date", b.Date),
		zap.String("time", b.Time),
		zap.String("reason", b.Reason),
	)
	return b, nil
}

func (s *BlockedTimeService) List(ctx context.Context, q *blockedtime.ListQuery) (*blockedtime.PagedBlockedTimes, error) {
	if q.Date != nil && !schedule.ValidDateFormat(*q.Date) {
		return nil, blockedtime.ErrInvalidDate
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.blocked.List(ctx, q)
}

// Delete removes a block. A block whose moment has passed is part of the
// historical record and cannot be removed.
func (s *BlockedTimeService) Delete(ctx context.Context, id uint) error {
	b, err := s.blocked.GetByID(ctx, id)
	if err != nil {
		return err
	}

	startsAt, err := b.StartsAt()
	if err != nil {
		return fmt.Errorf("parsing blocked slot: %w", err)
	}
	if !startsAt.After(time.Now()) {
		return blockedtime.ErrPastDateTime
	}

	if err := s.blocked.Delete(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateDate(ctx, b.Date)
	}
	return nil
}
