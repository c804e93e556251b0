package models

import (
	"time"

	"gorm.io/gorm"
)

// Event types.
const (
	EventWorkshop     = "Workshop"
	EventWebinar      = "Webinar"
	EventLiveChat     = "Live Chat"
	EventQASession    = "Q&A Session"
	EventSupportGroup = "Support Group"
	EventOther        = "Other"
)

// EventTypes lists every valid event type.
var EventTypes = []string{EventWorkshop, EventWebinar, EventLiveChat, EventQASession, EventSupportGroup, EventOther}

// Event statuses.
const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCompleted = "completed"
)

// EventStatuses lists every valid event status.
var EventStatuses = []string{EventUpcoming, EventOngoing, EventCompleted}

// Event is an admin-managed community event.
type Event struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Date        time.Time      `gorm:"not null;index" json:"date"`
	EventType   string         `gorm:"not null" json:"eventType"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	Status      string         `gorm:"type:varchar(16);not null;default:upcoming;index;check:events_status_check,status IN ('upcoming', 'ongoing', 'completed')" json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
