package appointment

import (
	"time"
)

type Modality string

const (
	ModalityPresencial Modality = "presencial"
	ModalityOnline     Modality = "online"
)

func (m Modality) IsValid() bool {
	switch m {
	case ModalityPresencial, ModalityOnline:
		return true
	}
	return false
}

// State transitions possibilities:
//
//	scheduled → confirmed | completed | cancelled | no_show
//	confirmed → completed | cancelled | no_show
//	completed / cancelled / no_show are terminal
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment occupies exactly one calendar slot for one doctor. The slot
// key is (doctor_id, date, time); at most one row per key may be in a
// non-cancelled status. A partial unique index created at migration time
// enforces that even for writers that bypass the locking read.
type Appointment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	PatientID          uint `gorm:"column:patient_id;not null;index" json:"patient_id"`
	DoctorID           uint `gorm:"column:doctor_id;not null;index:idx_appointments_slot,priority:1" json:"doctor_id"`
	ConsultationTypeID uint `gorm:"column:consultation_type_id;not null;index" json:"consultation_type_id"`

	Date     string   `gorm:"column:date;type:varchar(10);not null;index:idx_appointments_slot,priority:2" json:"date"`
	Time     string   `gorm:"column:time;type:varchar(5);not null;index:idx_appointments_slot,priority:3" json:"time"`
	Status   Status   `gorm:"column:status;type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Modality Modality `gorm:"column:modality;type:varchar(20);not null" json:"modality"`
	Notes    string   `gorm:"column:notes;type:text" json:"notes,omitempty"`

	// Set when this appointment supersedes another one (atomic reschedule).
	RescheduledFrom *uint `gorm:"column:rescheduled_from" json:"rescheduled_from,omitempty"`

	CancelledAt        *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text" json:"cancellation_reason,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// StartsAt combines the date and time columns into a wall-clock instant.
func (a *Appointment) StartsAt() (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, time.Local)
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusScheduled: {StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow},
		StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
		StatusCompleted: {},
		StatusCancelled: {},
		StatusNoShow:    {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

func (a *Appointment) Cancel(reason string) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	return nil
}

type BookCommand struct {
	PatientID          uint
	DoctorID           uint
	ConsultationTypeID uint
	Date               string
	Time               string
	Modality           Modality
	Notes              string
	RescheduledFrom    *uint
}

// EditCommand mutates an existing row in place (admin/owner edit), as
// opposed to the reschedule path which retires the row and inserts a new one.
type EditCommand struct {
	Date               string
	Time               string
	ConsultationTypeID *uint
	Notes              *string
}

type CancelCommand struct {
	Reason string
}

type ListQuery struct {
	PatientID *uint
	DoctorID  *uint
	Status    *Status
	Date      *string
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
