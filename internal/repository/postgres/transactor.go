package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/medagenda/api/internal/domain/appointment"
	"github.com/medagenda/api/internal/domain/consultationtype"
	"github.com/medagenda/api/internal/domain/doctor"
	"github.com/medagenda/api/internal/service"
)

// Transactor runs booking work inside a single database transaction.
// gorm's Transaction commits when fn returns nil and rolls back on error or
// panic, so no exit path can leak the row lock taken by LockSlot.
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, scope service.TxScope) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &txScope{tx: tx})
	})
}

// txScope hands out repositories bound to the open transaction.
type txScope struct {
	tx *gorm.DB
}

func (s *txScope) Appointments() appointment.TxRepository {
	return NewAppointmentRepository(s.tx)
}

func (s *txScope) Doctors() doctor.Repository {
	return NewDoctorRepository(s.tx)
}

func (s *txScope) ConsultationTypes() consultationtype.Repository {
	return NewConsultationTypeRepository(s.tx)
}
