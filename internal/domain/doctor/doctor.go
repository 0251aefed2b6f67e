package doctor

import (
	"time"
)

type Doctor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Name      string `gorm:"column:name;type:varchar(150);not null" json:"name"`
	Specialty string `gorm:"column:specialty;type:varchar(100)" json:"specialty,omitempty"`
	Active    bool   `gorm:"column:active;default:true;index" json:"active"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// PatientLink is the denormalized "this patient has booked with this
// doctor" record. It is created on first booking and never deleted by the
// booking core; admin listings filter on it.
type PatientLink struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	DoctorID  uint `gorm:"column:doctor_id;not null;uniqueIndex:idx_doctor_patient,priority:1"`
	PatientID uint `gorm:"column:patient_id;not null;uniqueIndex:idx_doctor_patient,priority:2"`
}

func (PatientLink) TableName() string {
	return "doctor_patients"
}
