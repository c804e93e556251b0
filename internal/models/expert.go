package models

import (
	"time"

	"gorm.io/gorm"
)

// Expert specialties.
const (
	SpecialtyGynecologist    = "Gynecologist"
	SpecialtyEndocrinologist = "Endocrinologist"
	SpecialtyNutritionist    = "Nutritionist"
	SpecialtyTherapist       = "Therapist"
)

// Specialties lists every valid expert specialty.
var Specialties = []string{
	SpecialtyGynecologist,
	SpecialtyEndocrinologist,
	SpecialtyNutritionist,
	SpecialtyTherapist,
}

// Expert is a consultation directory entry.
type Expert struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Specialty    string         `gorm:"not null;index" json:"specialty"`
	Location     string         `gorm:"not null" json:"location"`
	ContactEmail string         `json:"contactEmail,omitempty"`
	ContactPhone string         `json:"contactPhone,omitempty"`
	Bio          string         `gorm:"type:text" json:"bio"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	Rating       float64        `gorm:"not null;default:0;check:experts_rating_check,rating >= 0 AND rating <= 5" json:"rating"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
