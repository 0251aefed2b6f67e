package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medagenda/api/internal/domain/appointment"
	"github.com/medagenda/api/internal/domain/consultationtype"
)

type ConsultationTypeRepository struct {
	db *gorm.DB
}

func NewConsultationTypeRepository(db *gorm.DB) *ConsultationTypeRepository {
	return &ConsultationTypeRepository{db: db}
}

func (r *ConsultationTypeRepository) Create(ctx context.Context, t *consultationtype.ConsultationType) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return consultationtype.ErrNameTaken
		}
		return fmt.Errorf("inserting consultation type: %w", err)
	}
	return nil
}

func (r *ConsultationTypeRepository) GetByID(ctx context.Context, id uint) (*consultationtype.ConsultationType, error) {
	var t consultationtype.ConsultationType
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, consultationtype.ErrNotFound
		}
		return nil, fmt.Errorf("fetching consultation type %d: %w", id, err)
	}
	return &t, nil
}

func (r *ConsultationTypeRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&consultationtype.ConsultationType{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking consultation type: %w", err)
	}
	return count > 0, nil
}

func (r *ConsultationTypeRepository) Update(ctx context.Context, id uint, cmd *consultationtype.UpdateCommand) (*consultationtype.ConsultationType, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.DurationMins != nil {
		updates["duration_mins"] = *cmd.DurationMins
	}
	if cmd.Description != nil {
		updates["description"] = *cmd.Description
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).
			Model(&consultationtype.ConsultationType{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, consultationtype.ErrNameTaken
			}
			return nil, fmt.Errorf("updating consultation type %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, consultationtype.ErrNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *ConsultationTypeRepository) Delete(ctx context.Context, id uint) error {
	var refs int64
	err := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("consultation_type_id = ?", id).
		Count(&refs).Error
	if err != nil {
		return fmt.Errorf("counting type references: %w", err)
	}
	if refs > 0 {
		return consultationtype.ErrInUse
	}

	res := r.db.WithContext(ctx).Delete(&consultationtype.ConsultationType{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting consultation type %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return consultationtype.ErrNotFound
	}
	return nil
}

func (r *ConsultationTypeRepository) List(ctx context.Context) ([]*consultationtype.ConsultationType, error) {
	var rows []*consultationtype.ConsultationType
	if err := r.db.WithContext(ctx).Order("name asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing consultation types: %w", err)
	}
	return rows, nil
}

func (r *ConsultationTypeRepository) IDsForDoctor(ctx context.Context, doctorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&consultationtype.DoctorConsultationType{}).
		Where("doctor_id = ?", doctorID).
		Pluck("consultation_type_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing doctor type assignments: %w", err)
	}
	return ids, nil
}

func (r *ConsultationTypeRepository) AssignToDoctor(ctx context.Context, doctorID, typeID uint) error {
	assoc := &consultationtype.DoctorConsultationType{
		DoctorID:           doctorID,
		ConsultationTypeID: typeID,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(assoc).Error
	if err != nil {
		return fmt.Errorf("assigning consultation type: %w", err)
	}
	return nil
}

func (r *ConsultationTypeRepository) UnassignFromDoctor(ctx context.Context, doctorID, typeID uint) error {
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND consultation_type_id = ?", doctorID, typeID).
		Delete(&consultationtype.DoctorConsultationType{}).Error
	if err != nil {
		return fmt.Errorf("unassigning consultation type: %w", err)
	}
	return nil
}
