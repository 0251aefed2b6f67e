package blockedtime

import (
	"context"
)

type Repository interface {
	// Create persists a new block. Returns ErrAlreadyBlocked when a row for
	// the same (date, time) exists.
	Create(ctx context.Context, b *BlockedTime) error

	// GetByID returns ErrNotFound when no row exists.
	GetByID(ctx context.Context, id uint) (*BlockedTime, error)

	// IsBlocked is a pure existence check on (date, time).
	IsBlocked(ctx context.Context, date, timeOfDay string) (bool, error)

	// TimesForDate lists blocked times for a date in ascending order.
	TimesForDate(ctx context.Context, date string) ([]string, error)

	List(ctx context.Context, q *ListQuery) (*PagedBlockedTimes, error)

	Delete(ctx context.Context, id uint) error
}
