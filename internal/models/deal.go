package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"solowcrew/internal/apperrors"
)

// DealStatus represents the publication status of a deal
type DealStatus string

const (
	DealStatusActive   DealStatus = "active"
	DealStatusInactive DealStatus = "inactive"
)

// Deal represents a travel offering published by a provider. Deals are
// read-only to the marketplace core; providers manage them elsewhere.
type Deal struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title           string       `gorm:"type:varchar(255)" json:"title"`
	Description     string       `gorm:"type:text" json:"description"`
	Location        string       `gorm:"type:varchar(255)" json:"location"`
	Category        string       `gorm:"type:varchar(100);index" json:"category"`
	ThumbnailURL    string       `gorm:"type:text" json:"thumbnail_url"`
	OriginalPrice   float64      `gorm:"type:decimal(15,2)" json:"original_price"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
	BookingDeadline time.Time    `json:"booking_deadline"`
	MinTravelers    int          `json:"min_travelers"`
	MaxTravelers    int          `json:"max_travelers"`
	TierDiscounts   TierSchedule `gorm:"serializer:json" json:"tier_discounts"`
	Status          DealStatus   `gorm:"type:varchar(20);default:'active';index" json:"status"`
	ProviderID      uint         `gorm:"index" json:"provider_id"`

	// Relationships
	Provider Provider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	Pools    []Pool   `gorm:"foreignKey:DealID" json:"pools,omitempty"`
}

// Validate checks the deal invariants at the ingestion boundary.
func (d *Deal) Validate() error {
	if d.OriginalPrice <= 0 {
		return fmt.Errorf("%w: deal %d original price must be positive", apperrors.ErrInvalidData, d.ID)
	}
	if d.MinTravelers < 1 {
		return fmt.Errorf("%w: deal %d min travelers must be at least 1", apperrors.ErrInvalidData, d.ID)
	}
	if d.MaxTravelers < d.MinTravelers {
		return fmt.Errorf("%w: deal %d max travelers %d is below min %d", apperrors.ErrInvalidData, d.ID, d.MaxTravelers, d.MinTravelers)
	}
	return d.TierDiscounts.Validate()
}
