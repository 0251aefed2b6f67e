package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/medagenda/api/internal/domain/blockedtime"
)

type BlockedTimeRepository struct {
	db *gorm.DB
}

func NewBlockedTimeRepository(db *gorm.DB) *BlockedTimeRepository {
	return &BlockedTimeRepository{db: db}
}

func (r *BlockedTimeRepository) Create(ctx context.Context, b *blockedtime.BlockedTime) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return blockedtime.ErrAlreadyBlocked
		}
		return fmt.Errorf("inserting blocked time: %w", err)
	}
	return nil
}

func (r *BlockedTimeRepository) GetByID(ctx context.Context, id uint) (*blockedtime.BlockedTime, error) {
	var b blockedtime.BlockedTime
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, blockedtime.ErrNotFound
		}
		return nil, fmt.Errorf("fetching blocked time %d: %w", id, err)
	}
	return &b, nil
}

func (r *BlockedTimeRepository) IsBlocked(ctx context.Context, date, timeOfDay string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&blockedtime.BlockedTime{}).
		Where("date = ? AND time = ?", date, timeOfDay).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking blocked time: %w", err)
	}
	return count > 0, nil
}

func (r *BlockedTimeRepository) TimesForDate(ctx context.Context, date string) ([]string, error) {
	var times []string
	err := r.db.WithContext(ctx).
		Model(&blockedtime.BlockedTime{}).
		Where("date = ?", date).
		Order("time asc").
		Pluck("time", &times).Error
	if err != nil {
		return nil, fmt.Errorf("listing blocked times: %w", err)
	}
	return times, nil
}

func (r *BlockedTimeRepository) List(ctx context.Context, q *blockedtime.ListQuery) (*blockedtime.PagedBlockedTimes, error) {
	db := r.db.WithContext(ctx).Model(&blockedtime.BlockedTime{})
	if q.Date != nil {
		db = db.Where("date = ?", *q.Date)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting blocked times: %w", err)
	}

	var rows []*blockedtime.BlockedTime
	err := db.Order("date asc, time asc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing blocked times: %w", err)
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &blockedtime.PagedBlockedTimes{
		BlockedTimes: rows,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages,
	}, nil
}

func (r *BlockedTimeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&blockedtime.BlockedTime{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting blocked time %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return blockedtime.ErrNotFound
	}
	return nil
}
