package appointment

import "errors"

var (
	ErrNotFound                = errors.New("appointment not found")
	ErrSlotTaken               = errors.New("time slot is already booked")
	ErrSlotBlocked             = errors.New("time slot is blocked")
	ErrPastDateTime            = errors.New("date and time must be in the future")
	ErrAlreadyElapsed          = errors.New("appointment has already taken place")
	ErrInvalidDate             = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidTime             = errors.New("time must be in HH:MM format")
	ErrInvalidModality         = errors.New("invalid appointment modality")
	ErrInvalidDoctor           = errors.New("doctor does not exist or is inactive")
	ErrInvalidConsultationType = errors.New("consultation type does not exist")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
)
