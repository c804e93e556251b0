package models

import "time"

// AppointmentStatus is the lifecycle state of a consultation booking.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "Pending"
	AppointmentConfirmed AppointmentStatus = "Confirmed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
	AppointmentCompleted AppointmentStatus = "Completed"
)

// appointmentTransitions holds the allowed status edges. Cancelled and
// Completed are terminal.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:   {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled},
}

// Valid reports whether s is one of the four known states.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether an appointment in state s may move to next.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment links a user to an expert for a consultation slot.
type Appointment struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ExpertID  uint    `gorm:"not null;index" json:"expertId"`
	Expert    *Expert `gorm:"foreignKey:ExpertID" json:"expert,omitempty"`
	UserID    uint    `gorm:"not null;index" json:"userId"`
	User      *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	UserName  string  `gorm:"not null" json:"userName"`
	UserEmail string  `gorm:"not null" json:"userEmail"`
	// Date is a calendar day in YYYY-MM-DD form.
	Date      string            `gorm:"not null" json:"date"`
	TimeSlot  string            `gorm:"not null" json:"timeSlot"`
	Status    AppointmentStatus `gorm:"type:varchar(16);not null;default:Pending;index;check:appointments_status_check,status IN ('Pending', 'Confirmed', 'Cancelled', 'Completed')" json:"status"`
	Notes     string            `json:"notes"`
	CreatedAt time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
