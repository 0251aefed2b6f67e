package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medagenda/api/internal/domain"
	"github.com/medagenda/api/internal/domain/appointment"
	"github.com/medagenda/api/internal/domain/blockedtime"
	"github.com/medagenda/api/internal/domain/consultationtype"
	"github.com/medagenda/api/internal/domain/doctor"
	"github.com/medagenda/api/internal/schedule"
	"github.com/medagenda/api/pkg/metrics"
)

// TxScope exposes the repositories bound to one open transaction.
type TxScope interface {
	Appointments() appointment.TxRepository
	Doctors() doctor.Repository
	ConsultationTypes() consultationtype.Repository
}

// Transactor is the scoped-acquisition boundary for booking work: fn runs
// inside a transaction that commits when fn returns nil and rolls back on
// any error or panic.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, scope TxScope) error) error
}

// Notifier is the fire-and-forget notification collaborator. Delivery
// failures are the implementation's problem; they never fail a booking.
type Notifier interface {
	AppointmentBooked(a *appointment.Appointment)
	AppointmentCancelled(a *appointment.Appointment)
}

// AvailabilityCache invalidation hooks. InvalidateDate must remove every
// (date, doctor) entry for the date.
type AvailabilityCache interface {
	Get(ctx context.Context, date string, doctorID uint) ([]string, bool)
	Set(ctx context.Context, date string, doctorID uint, times []string)
	InvalidateDate(ctx context.Context, date string)
}

// BookingService owns the appointment lifecycle: the transactional book /
// reschedule path, and the non-locking edit / cancel / remove paths.
type BookingService struct {
	tx               Transactor
	appts            appointment.Repository
	blocked          blockedtime.Repository
	cache            AvailabilityCache
	notifier         Notifier
	mx               *metrics.Collector
	log              *zap.Logger
	openTypeFallback bool
}

func NewBookingService(
	tx Transactor,
	appts appointment.Repository,
	blocked blockedtime.Repository,
	cache AvailabilityCache,
	notifier Notifier,
	mx *metrics.Collector,
	log *zap.Logger,
	openTypeFallback bool,
) *BookingService {
	return &BookingService{
		tx:               tx,
		appts:            appts,
		blocked:          blocked,
		cache:            cache,
		notifier:         notifier,
		mx:               mx,
		log:              log,
		openTypeFallback: openTypeFallback,
	}
}

func (s *BookingService) countBooking(outcome string) {
	if s.mx != nil {
		s.mx.BookingsTotal.WithLabelValues(outcome).Inc()
	}
}

// Book validates and books a slot. With RescheduledFrom set it atomically
// supersedes the original appointment: the cancellation and the new row
// commit together or not at all.
//
// The pre-transaction availability check is a cheap early exit only; the
// locking read inside the transaction is the authoritative double-booking
// guard. Two concurrent attempts on the same slot serialize on that row
// lock and the loser sees the winner's row.
func (s *BookingService) Book(ctx context.Context, cmd *appointment.BookCommand) (*appointment.Appointment, error) {
	// -------- Input Validation -----------
	if !schedule.ValidDateFormat(cmd.Date) {
		return nil, appointment.ErrInvalidDate
	}
	if !schedule.ValidTimeFormat(cmd.Time) {
		return nil, appointment.ErrInvalidTime
	}
	startsAt, err := schedule.ParseSlot(cmd.Date, cmd.Time)
	if err != nil {
		return nil, appointment.ErrInvalidDate
	}
	if !startsAt.After(time.Now()) {
		return nil, appointment.ErrPastDateTime
	}
	if !cmd.Modality.IsValid() {
		return nil, appointment.ErrInvalidModality
	}

	// Fast reject outside the transaction (skipped for reschedules, which
	// go straight to the authoritative locked check).
	if cmd.RescheduledFrom == nil {
		isBlocked, err := s.blocked.IsBlocked(ctx, cmd.Date, cmd.Time)
		if err != nil {
			return nil, fmt.Errorf("checking blocked times: %w", err)
		}
		if isBlocked {
			return nil, appointment.ErrSlotBlocked
		}

		existing, err := s.appts.FindBySlot(ctx, cmd.DoctorID, cmd.Date, cmd.Time, nil)
		if err != nil {
			return nil, fmt.Errorf("checking slot occupancy: %w", err)
		}
		if existing != nil {
			return nil, appointment.ErrSlotTaken
		}
	}

	var (
		booked         *appointment.Appointment
		supersededDate string
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, scope TxScope) error {
		exists, err := scope.Doctors().Exists(ctx, cmd.DoctorID)
		if err != nil {
			return fmt.Errorf("verifying doctor: %w", err)
		}
		if !exists {
			return appointment.ErrInvalidDoctor
		}

		// Row lock on the slot. A concurrent transaction for the same
		// (doctor, date, time) blocks here until we commit or roll back.
		held, err := scope.Appointments().LockSlot(ctx, cmd.DoctorID, cmd.Date, cmd.Time, cmd.RescheduledFrom)
		if err != nil {
			return fmt.Errorf("locking slot: %w", err)
		}
		if held != nil {
			return appointment.ErrSlotTaken
		}

		typeExists, err := scope.ConsultationTypes().Exists(ctx, cmd.ConsultationTypeID)
		if err != nil {
			return fmt.Errorf("verifying consultation type: %w", err)
		}
		if !typeExists {
			return appointment.ErrInvalidConsultationType
		}

		allowed, err := s.typeAllowedForDoctor(ctx, scope.ConsultationTypes(), cmd.DoctorID, cmd.ConsultationTypeID)
		if err != nil {
			return fmt.Errorf("checking type assignment: %w", err)
		}
		if !allowed {
			return consultationtype.ErrNotAllowedForDoctor
		}

		if cmd.RescheduledFrom != nil {
			original, err := scope.Appointments().GetByID(ctx, *cmd.RescheduledFrom)
			if err != nil {
				return err
			}
			if err := original.Cancel("rescheduled"); err != nil {
				return err
			}
			if err := scope.Appointments().UpdateStatus(ctx, original); err != nil {
				return fmt.Errorf("cancelling superseded appointment: %w", err)
			}
			supersededDate = original.Date
		}

		a := &appointment.Appointment{
			PatientID:          cmd.PatientID,
			DoctorID:           cmd.DoctorID,
			ConsultationTypeID: cmd.ConsultationTypeID,
			Date:               cmd.Date,
			Time:               cmd.Time,
			Status:             appointment.StatusScheduled,
			Modality:           cmd.Modality,
			Notes:              cmd.Notes,
			RescheduledFrom:    cmd.RescheduledFrom,
		}
		if err := scope.Appointments().Create(ctx, a); err != nil {
			return fmt.Errorf("creating appointment: %w", err)
		}

		if err := scope.Doctors().EnsurePatientLink(ctx, cmd.DoctorID, cmd.PatientID); err != nil {
			return fmt.Errorf("linking doctor and patient: %w", err)
		}

		booked = a
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrSlotTaken):
			s.countBooking("conflict")
		default:
			s.countBooking("error")
		}
		return nil, err
	}

	s.countBooking("booked")
	if cmd.RescheduledFrom != nil && s.mx != nil {
		s.mx.ReschedulesTotal.Inc()
	}

	s.invalidate(ctx, cmd.Date)
	if supersededDate != "" && supersededDate != cmd.Date {
		// The superseded slot freed up on another date.
		s.invalidate(ctx, supersededDate)
	}
	s.notifier.AppointmentBooked(booked)

	s.log.Info("appointment booked",
		zap.Uint("appointment_id", booked.ID),
		zap.Uint("doctor_id", booked.DoctorID),
		zap.String("date", booked.Date),
		zap.String("time", booked.Time),
	)
	return booked, nil
}

// Get returns an appointment to its owner or an admin.
func (s *BookingService) Get(ctx context.Context, id uint, claims *domain.Claims) (*appointment.Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() && claims.UserID != a.PatientID {
		return nil, ErrForbidden
	}
	return a, nil
}

// Edit mutates an appointment's date/time/type in place. Unlike Book it is
// a read-then-act path without a row lock; the partial unique index on the
// active slot turns a lost race into ErrSlotTaken at commit.
func (s *BookingService) Edit(ctx context.Context, id uint, cmd *appointment.EditCommand, claims *domain.Claims) (*appointment.Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() && claims.UserID != a.PatientID {
		return nil, ErrForbidden
	}
	if err := s.requireFuture(a); err != nil {
		return nil, err
	}

	if !schedule.ValidDateFormat(cmd.Date) {
		return nil, appointment.ErrInvalidDate
	}
	if !schedule.ValidTimeFormat(cmd.Time) {
		return nil, appointment.ErrInvalidTime
	}
	startsAt, err := schedule.ParseSlot(cmd.Date, cmd.Time)
	if err != nil {
		return nil, appointment.ErrInvalidDate
	}
	if !startsAt.After(time.Now()) {
		return nil, appointment.ErrPastDateTime
	}

	if cmd.Date != a.Date || cmd.Time != a.Time {
		isBlocked, err := s.blocked.IsBlocked(ctx, cmd.Date, cmd.Time)
		if err != nil {
			return nil, fmt.Errorf("checking blocked times: %w", err)
		}
		if isBlocked {
			return nil, appointment.ErrSlotBlocked
		}

		occupied, err := s.appts.FindBySlot(ctx, a.DoctorID, cmd.Date, cmd.Time, &id)
		if err != nil {
			return nil, fmt.Errorf("checking slot occupancy: %w", err)
		}
		if occupied != nil {
			return nil, appointment.ErrSlotTaken
		}
	}

	updated, err := s.appts.Edit(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, a.Date)
	s.invalidate(ctx, updated.Date)
	return updated, nil
}

// Cancel marks an appointment cancelled. Only future appointments may be
// cancelled, by their owner or an admin.
func (s *BookingService) Cancel(ctx context.Context, id uint, cmd *appointment.CancelCommand, claims *domain.Claims) (*appointment.Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() && claims.UserID != a.PatientID {
		return nil, ErrForbidden
	}
	if err := s.requireFuture(a); err != nil {
		return nil, err
	}

	if err := a.Cancel(cmd.Reason); err != nil {
		return nil, err
	}
	if err := s.appts.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	if s.mx != nil {
		s.mx.CancellationsTotal.Inc()
	}
	s.invalidate(ctx, a.Date)
	s.notifier.AppointmentCancelled(a)

	s.log.Info("appointment cancelled",
		zap.Uint("appointment_id", a.ID),
		zap.String("reason", cmd.Reason),
	)
	return a, nil
}

// Remove hard-deletes an appointment row. Admin only, and only while the
// appointment is strictly in the future; this is removal, not cancellation.
func (s *BookingService) Remove(ctx context.Context, id uint, claims *domain.Claims) error {
	if !claims.IsAdmin() {
		return ErrForbidden
	}

	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireFuture(a); err != nil {
		return err
	}

	if err := s.appts.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, a.Date)
	s.notifier.AppointmentCancelled(a)
	return nil
}

// List returns appointments visible to the caller. Patients only ever see
// their own.
func (s *BookingService) List(ctx context.Context, q *appointment.ListQuery, claims *domain.Claims) (*appointment.PagedAppointments, error) {
	if !claims.IsAdmin() {
		q.PatientID = &claims.UserID
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.appts.List(ctx, q)
}

func (s *BookingService) typeAllowedForDoctor(ctx context.Context, types consultationtype.Repository, doctorID, typeID uint) (bool, error) {
	ids, err := types.IDsForDoctor(ctx, doctorID)
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		// Doctor has no configured restriction.
		return s.openTypeFallback, nil
	}
	for _, id := range ids {
		if id == typeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *BookingService) requireFuture(a *appointment.Appointment) error {
	startsAt, err := a.StartsAt()
	if err != nil {
		return fmt.Errorf("parsing appointment slot: %w", err)
	}
	if !startsAt.After(time.Now()) {
		return appointment.ErrAlreadyElapsed
	}
	return nil
}

func (s *BookingService) invalidate(ctx context.Context, date string) {
	if s.cache != nil {
		s.cache.InvalidateDate(ctx, date)
	}
}
