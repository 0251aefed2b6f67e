package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medagenda/api/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appointment.ErrSlotTaken
		}
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uint) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrNotFound
		}
		return nil, fmt.Errorf("fetching appointment %d: %w", id, err)
	}
	return &a, nil
}

func (r *AppointmentRepository) FindBySlot(ctx context.Context, doctorID uint, date, timeOfDay string, excludeID *uint) (*appointment.Appointment, error) {
	return r.findSlot(ctx, r.db, doctorID, date, timeOfDay, excludeID, false)
}

// LockSlot is only meaningful on a repository bound to an open transaction;
// the Transactor hands those out.
func (r *AppointmentRepository) LockSlot(ctx context.Context, doctorID uint, date, timeOfDay string, excludeID *uint) (*appointment.Appointment, error) {
	return r.findSlot(ctx, r.db, doctorID, date, timeOfDay, excludeID, true)
}

func (r *AppointmentRepository) findSlot(ctx context.Context, db *gorm.DB, doctorID uint, date, timeOfDay string, excludeID *uint, forUpdate bool) (*appointment.Appointment, error) {
	q := db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND time = ? AND status <> ?",
			doctorID, date, timeOfDay, appointment.StatusCancelled)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var a appointment.Appointment
	if err := q.First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying slot occupancy: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) OccupiedTimes(ctx context.Context, date string, doctorID uint, includeCancelled bool) ([]string, error) {
	q := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("date = ? AND doctor_id = ?", date, doctorID)
	if !includeCancelled {
		q = q.Where("status <> ?", appointment.StatusCancelled)
	}

	var times []string
	if err := q.Order("time asc").Pluck("time", &times).Error; err != nil {
		return nil, fmt.Errorf("listing occupied times: %w", err)
	}
	return times, nil
}

func (r *AppointmentRepository) AnyActiveAt(ctx context.Context, date, timeOfDay string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("date = ? AND time = ? AND status <> ?", date, timeOfDay, appointment.StatusCancelled).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("counting active appointments: %w", err)
	}
	return count > 0, nil
}

func (r *AppointmentRepository) Edit(ctx context.Context, id uint, cmd *appointment.EditCommand) (*appointment.Appointment, error) {
	updates := map[string]any{
		"date": cmd.Date,
		"time": cmd.Time,
	}
	if cmd.ConsultationTypeID != nil {
		updates["consultation_type_id"] = *cmd.ConsultationTypeID
	}
	if cmd.Notes != nil {
		updates["notes"] = *cmd.Notes
	}

	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, appointment.ErrSlotTaken
		}
		return nil, fmt.Errorf("updating appointment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, appointment.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"status":              a.Status,
			"cancelled_at":        a.CancelledAt,
			"cancellation_reason": a.CancellationReason,
		})
	if res.Error != nil {
		return fmt.Errorf("updating appointment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&appointment.Appointment{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting appointment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListQuery) (*appointment.PagedAppointments, error) {
	db := r.db.WithContext(ctx).Model(&appointment.Appointment{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Date != nil {
		db = db.Where("date = ?", *q.Date)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	var rows []*appointment.Appointment
	err := db.Order("date asc, time asc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &appointment.PagedAppointments{
		Appointments: rows,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages,
	}, nil
}
