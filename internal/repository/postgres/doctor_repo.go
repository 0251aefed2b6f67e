package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medagenda/api/internal/domain/doctor"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&doctor.Doctor{}).
		Where("id = ? AND active", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking doctor: %w", err)
	}
	return count > 0, nil
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uint) (*doctor.Doctor, error) {
	var d doctor.Doctor
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrNotFound
		}
		return nil, fmt.Errorf("fetching doctor %d: %w", id, err)
	}
	return &d, nil
}

func (r *DoctorRepository) List(ctx context.Context) ([]*doctor.Doctor, error) {
	var rows []*doctor.Doctor
	if err := r.db.WithContext(ctx).Where("active").Order("name asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}
	return rows, nil
}

func (r *DoctorRepository) EnsurePatientLink(ctx context.Context, doctorID, patientID uint) error {
	link := &doctor.PatientLink{DoctorID: doctorID, PatientID: patientID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error
	if err != nil {
		return fmt.Errorf("upserting doctor-patient link: %w", err)
	}
	return nil
}

func (r *DoctorRepository) PatientIDs(ctx context.Context, doctorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&doctor.PatientLink{}).
		Where("doctor_id = ?", doctorID).
		Pluck("patient_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing linked patients: %w", err)
	}
	return ids, nil
}
