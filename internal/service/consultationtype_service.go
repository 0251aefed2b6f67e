package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/medagenda/api/internal/domain/consultationtype"
)

type ConsultationTypeService struct {
	types consultationtype.Repository
	log   *zap.Logger
}

func NewConsultationTypeService(types consultationtype.Repository, log *zap.Logger) *ConsultationTypeService {
	return &ConsultationTypeService{types: types, log: log}
}

func (s *ConsultationTypeService) Create(ctx context.Context, cmd *consultationtype.CreateCommand) (*consultationtype.ConsultationType, error) {
	var fields []string
	if strings.TrimSpace(cmd.Name) == "" {
		fields = append(fields, "name is required")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if cmd.DurationMins <= 0 {
		return nil, consultationtype.ErrInvalidDuration
	}

	t := &consultationtype.ConsultationType{
		Name:         strings.TrimSpace(cmd.Name),
		DurationMins: cmd.DurationMins,
		Description:  cmd.Description,
	}
	if err := s.types.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *ConsultationTypeService) Update(ctx context.Context, id uint, cmd *consultationtype.UpdateCommand) (*consultationtype.ConsultationType, error) {
	if cmd.DurationMins != nil && *cmd.DurationMins <= 0 {
		return nil, consultationtype.ErrInvalidDuration
	}
	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) == "" {
		return nil, &ValidationError{Fields: []string{"name cannot be empty"}}
	}
	return s.types.Update(ctx, id, cmd)
}

// Delete refuses while any appointment references the type.
func (s *ConsultationTypeService) Delete(ctx context.Context, id uint) error {
	return s.types.Delete(ctx, id)
}

func (s *ConsultationTypeService) List(ctx context.Context) ([]*consultationtype.ConsultationType, error) {
	return s.types.List(ctx)
}

// AssignToDoctor is idempotent; assigning an already-assigned type is a
// no-op.
func (s *ConsultationTypeService) AssignToDoctor(ctx context.Context, doctorID, typeID uint) error {
	exists, err := s.types.Exists(ctx, typeID)
	if err != nil {
		return err
	}
	if !exists {
		return consultationtype.ErrNotFound
	}
	return s.types.AssignToDoctor(ctx, doctorID, typeID)
}

func (s *ConsultationTypeService) UnassignFromDoctor(ctx context.Context, doctorID, typeID uint) error {
	return s.types.UnassignFromDoctor(ctx, doctorID, typeID)
}

func (s *ConsultationTypeService) ListForDoctor(ctx context.Context, doctorID uint) ([]uint, error) {
	return s.types.IDsForDoctor(ctx, doctorID)
}
