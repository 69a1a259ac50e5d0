package models

import (
	"time"

	"gorm.io/gorm"
)

// PoolMemberStatus represents the status of a user's seat in a pool
type PoolMemberStatus string

const (
	PoolMemberStatusPending   PoolMemberStatus = "pending"
	PoolMemberStatusConfirmed PoolMemberStatus = "confirmed"
	PoolMemberStatusCancelled PoolMemberStatus = "cancelled"
)

// PoolMember represents a user's claim on a seat in a pool. At most one
// non-cancelled row may exist per (pool, user); the join transaction checks
// this under a row lock and the partial unique index backs it up.
type PoolMember struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PoolID uint             `gorm:"index;uniqueIndex:idx_pool_members_pool_user,where:status <> 'cancelled'" json:"pool_id"`
	UserID uint             `gorm:"index;uniqueIndex:idx_pool_members_pool_user,where:status <> 'cancelled'" json:"user_id"`
	Status PoolMemberStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	// Relationships
	Pool Pool `gorm:"foreignKey:PoolID" json:"pool,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
