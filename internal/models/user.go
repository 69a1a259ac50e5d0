package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a traveler in the marketplace. Identity lives in the
// hosted auth service; this row is keyed by the Firebase UID and ensured on
// the first authenticated request.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FirebaseUID string `gorm:"type:varchar(128);uniqueIndex" json:"firebase_uid"`
	Name        string `gorm:"type:varchar(255)" json:"name"`
	Email       string `gorm:"type:varchar(255);index" json:"email"`

	// Relationships
	Memberships []PoolMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	Bookings    []Booking    `gorm:"foreignKey:UserID" json:"bookings,omitempty"`
}
