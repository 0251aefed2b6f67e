package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/medagenda/api/internal/domain/appointment"
	"github.com/medagenda/api/internal/domain/blockedtime"
	"github.com/medagenda/api/internal/schedule"
	"github.com/medagenda/api/pkg/metrics"
)

// AvailabilityService resolves the free slots for a date and doctor:
// calendar grid minus appointment occupancy minus blocked times, in grid
// order. Storage failures degrade to an empty list — offering no slots is
// the conservative answer for a booking system.
type AvailabilityService struct {
	grid                schedule.Grid
	appts               appointment.Repository
	blocked             blockedtime.Repository
	cache               AvailabilityCache
	mx                  *metrics.Collector
	log                 *zap.Logger
	cancelledBlocksSlot bool
}

func NewAvailabilityService(
	grid schedule.Grid,
	appts appointment.Repository,
	blocked blockedtime.Repository,
	cache AvailabilityCache,
	mx *metrics.Collector,
	log *zap.Logger,
	cancelledBlocksSlot bool,
) *AvailabilityService {
	return &AvailabilityService{
		grid:                grid,
		appts:               appts,
		blocked:             blocked,
		cache:               cache,
		mx:                  mx,
		log:                 log,
		cancelledBlocksSlot: cancelledBlocksSlot,
	}
}

// AvailableTimes returns the ordered free slots for (date, doctorID).
// The error return covers input validation only; storage errors are logged
// and reported as "no availability".
func (s *AvailabilityService) AvailableTimes(ctx context.Context, date string, doctorID uint) ([]string, error) {
	if !schedule.ValidDateFormat(date) {
		return nil, appointment.ErrInvalidDate
	}

	if s.mx != nil {
		s.mx.AvailabilityRequests.Inc()
	}

	if s.cache != nil {
		if times, ok := s.cache.Get(ctx, date, doctorID); ok {
			if s.mx != nil {
				s.mx.AvailabilityCacheHits.Inc()
			}
			return times, nil
		}
	}

	occupied, err := s.appts.OccupiedTimes(ctx, date, doctorID, s.cancelledBlocksSlot)
	if err != nil {
		s.log.Error("availability degraded to empty: appointment lookup failed",
			zap.String("date", date), zap.Uint("doctor_id", doctorID), zap.Error(err))
		return []string{}, nil
	}

	blockedTimes, err := s.blocked.TimesForDate(ctx, date)
	if err != nil {
		s.log.Error("availability degraded to empty: blocked-time lookup failed",
			zap.String("date", date), zap.Error(err))
		return []string{}, nil
	}

	taken := make(map[string]struct{}, len(occupied)+len(blockedTimes))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}
	for _, t := range blockedTimes {
		taken[t] = struct{}{}
	}

	slots := s.grid.Slots()
	free := make([]string, 0, len(slots))
	for _, slot := range slots {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, date, doctorID, free)
	}
	return free, nil
}
