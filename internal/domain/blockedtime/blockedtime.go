package blockedtime

import (
	"time"
)

// BlockedTime is an administrator-imposed unavailability window. It is
// date-scoped, not doctor-scoped: a block at (date, time) hides the slot
// for every doctor.
type BlockedTime struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Date   string `gorm:"column:date;type:varchar(10);not null;uniqueIndex:idx_blocked_slot,priority:1" json:"date"`
	Time   string `gorm:"column:time;type:varchar(5);not null;uniqueIndex:idx_blocked_slot,priority:2" json:"time"`
	Reason string `gorm:"column:reason;type:text" json:"reason,omitempty"`
}

func (BlockedTime) TableName() string {
	return "blocked_times"
}

// StartsAt combines the date and time columns into a wall-clock instant.
func (b *BlockedTime) StartsAt() (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, time.Local)
}

type CreateCommand struct {
	Date   string
	Time   string
	Reason string
}

type ListQuery struct {
	Date     *string
	Page     int
	PageSize int
}

type PagedBlockedTimes struct {
	BlockedTimes []*BlockedTime
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
