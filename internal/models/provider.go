package models

import (
	"time"

	"gorm.io/gorm"
)

// Provider represents a travel provider publishing deals on the marketplace
type Provider struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CompanyName  string `gorm:"type:varchar(255)" json:"company_name"`
	LogoURL      string `gorm:"type:text" json:"logo_url"`
	ContactEmail string `gorm:"type:varchar(255)" json:"contact_email"`

	// Relationships
	Deals []Deal `gorm:"foreignKey:ProviderID" json:"deals,omitempty"`
}
