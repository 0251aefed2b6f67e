package consultationtype

import "errors"

var (
	ErrNotFound            = errors.New("consultation type not found")
	ErrNameTaken           = errors.New("a consultation type with this name already exists")
	ErrInvalidDuration     = errors.New("consultation duration must be a positive number of minutes")
	ErrInUse               = errors.New("consultation type is referenced by existing appointments")
	ErrNotAllowedForDoctor = errors.New("consultation type is not offered by this doctor")
)
