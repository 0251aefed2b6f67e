package consultationtype

import (
	"context"
)

type Repository interface {
	// Create persists a new type. Returns ErrNameTaken on duplicate name.
	Create(ctx context.Context, t *ConsultationType) error

	// GetByID returns ErrNotFound when no row exists.
	GetByID(ctx context.Context, id uint) (*ConsultationType, error)

	Exists(ctx context.Context, id uint) (bool, error)

	Update(ctx context.Context, id uint, cmd *UpdateCommand) (*ConsultationType, error)

	// Delete removes the type. Returns ErrInUse while any appointment
	// references it.
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context) ([]*ConsultationType, error)

	// IDsForDoctor returns the type ids explicitly assigned to a doctor.
	// An empty result means the doctor has no configured restriction.
	IDsForDoctor(ctx context.Context, doctorID uint) ([]uint, error)

	// AssignToDoctor is idempotent (insert-if-absent).
	AssignToDoctor(ctx context.Context, doctorID, typeID uint) error

	UnassignFromDoctor(ctx context.Context, doctorID, typeID uint) error
}
