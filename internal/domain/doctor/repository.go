package doctor

import (
	"context"
)

type Repository interface {
	// Exists reports whether an active doctor with the id is registered.
	Exists(ctx context.Context, id uint) (bool, error)

	// GetByID returns ErrNotFound when no row exists.
	GetByID(ctx context.Context, id uint) (*Doctor, error)

	// List returns active doctors.
	List(ctx context.Context) ([]*Doctor, error)

	// EnsurePatientLink upserts the doctor-patient association
	// (insert-if-absent; booking the same pair twice leaves one row).
	EnsurePatientLink(ctx context.Context, doctorID, patientID uint) error

	// PatientIDs lists the patients linked to a doctor.
	PatientIDs(ctx context.Context, doctorID uint) ([]uint, error)
}
