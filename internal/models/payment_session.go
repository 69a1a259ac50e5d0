package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentSession tracks one checkout handoff to the payment gateway. The
// OrderID is the stable idempotency reference (pool + user); the webhook
// resolves pool/user/deal/provider from this row when a payment completes.
type PaymentSession struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	PoolID           uint            `gorm:"index" json:"pool_id"`
	DealID           uint            `gorm:"index" json:"deal_id"`
	ProviderID       uint            `json:"provider_id"`
	UserID           uint            `gorm:"index" json:"user_id"`
	PaymentGateway   PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	OrderID          string          `gorm:"type:varchar(100);index" json:"order_id"`
	Amount           float64         `gorm:"type:decimal(15,2)" json:"amount"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
	RequestMetadata  json.RawMessage `gorm:"type:jsonb" json:"request_metadata"`
	ResponseMetadata json.RawMessage `gorm:"type:jsonb" json:"response_metadata"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
