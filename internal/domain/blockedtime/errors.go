package blockedtime

import "errors"

var (
	ErrNotFound           = errors.New("blocked time not found")
	ErrAlreadyBlocked     = errors.New("this time slot is already blocked")
	ErrSlotHasAppointment = errors.New("an active appointment occupies this time slot")
	ErrPastDateTime       = errors.New("cannot block or unblock a moment in the past")
	ErrInvalidDate        = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidTime        = errors.New("time must be in HH:MM format")
)
