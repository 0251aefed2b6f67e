package appointment

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error

	// GetByID returns ErrNotFound when no row exists.
	GetByID(ctx context.Context, id uint) (*Appointment, error)

	// FindBySlot returns the non-cancelled appointment occupying the
	// (doctorID, date, time) slot, or nil when the slot is free. excludeID
	// skips the row being superseded during a reschedule.
	FindBySlot(ctx context.Context, doctorID uint, date, timeOfDay string, excludeID *uint) (*Appointment, error)

	// OccupiedTimes lists the times holding appointments for a doctor on a
	// date, in ascending time order. includeCancelled reproduces the legacy
	// status-blind availability query when set.
	OccupiedTimes(ctx context.Context, date string, doctorID uint, includeCancelled bool) ([]string, error)

	// AnyActiveAt reports whether any doctor has a non-cancelled appointment
	// at (date, time). Used by blocked-time creation.
	AnyActiveAt(ctx context.Context, date, timeOfDay string) (bool, error)

	// Edit applies an in-place date/time/type mutation.
	Edit(ctx context.Context, id uint, cmd *EditCommand) (*Appointment, error)

	// UpdateStatus persists status, cancelled_at and cancellation_reason.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// Delete removes the row permanently (admin remove, not cancellation).
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, q *ListQuery) (*PagedAppointments, error)
}

// TxRepository is handed out inside a booking transaction and adds the
// locking read that serializes concurrent attempts on the same slot.
type TxRepository interface {
	Repository

	// LockSlot issues SELECT ... FOR UPDATE on the non-cancelled row for
	// (doctorID, date, time), returning nil when the slot is free. A second
	// transaction reaching the same slot blocks here until the first commits
	// or rolls back.
	LockSlot(ctx context.Context, doctorID uint, date, timeOfDay string, excludeID *uint) (*Appointment, error)
}
