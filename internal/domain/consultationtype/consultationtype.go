package consultationtype

import (
	"time"
)

type ConsultationType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Name         string `gorm:"column:name;type:varchar(100);uniqueIndex;not null" json:"name"`
	DurationMins int    `gorm:"column:duration_mins;not null" json:"duration_mins"`
	Description  string `gorm:"column:description;type:text" json:"description,omitempty"`
}

func (ConsultationType) TableName() string {
	return "consultation_types"
}

// DoctorConsultationType associates a consultation type with a doctor.
// A doctor with zero associations is an open set: every type is allowed
// (subject to the open-fallback configuration flag).
type DoctorConsultationType struct {
	ID                 uint `gorm:"primaryKey"`
	DoctorID           uint `gorm:"column:doctor_id;not null;uniqueIndex:idx_doctor_type,priority:1"`
	ConsultationTypeID uint `gorm:"column:consultation_type_id;not null;uniqueIndex:idx_doctor_type,priority:2"`
}

func (DoctorConsultationType) TableName() string {
	return "doctor_consultation_types"
}

type CreateCommand struct {
	Name         string
	DurationMins int
	Description  string
}

type UpdateCommand struct {
	Name         *string
	DurationMins *int
	Description  *string
}
