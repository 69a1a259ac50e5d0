package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is the record of a completed, paid reservation. Exactly one row
// is created per successful payment notification; PaymentRef is the
// gateway's order reference and deduplicates at-least-once webhook delivery.
type Booking struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID     uint          `gorm:"index" json:"user_id"`
	DealID     uint          `gorm:"index" json:"deal_id"`
	PoolID     uint          `gorm:"index" json:"pool_id"`
	ProviderID uint          `gorm:"index" json:"provider_id"`
	AmountPaid float64       `gorm:"type:decimal(15,2)" json:"amount_paid"`
	Status     BookingStatus `gorm:"type:varchar(20);default:'confirmed'" json:"status"`
	PaymentRef string        `gorm:"type:varchar(100);uniqueIndex" json:"payment_ref"`

	BookingDetails json.RawMessage `gorm:"type:jsonb" json:"booking_details"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Deal Deal `gorm:"foreignKey:DealID" json:"deal,omitempty"`
	Pool Pool `gorm:"foreignKey:PoolID" json:"pool,omitempty"`
}
