package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"solowcrew/internal/apperrors"
)

// PoolStatus is the stored status of a pool. The worker sweeps open pools
// past their expiry to "expired"; "closed" is set administratively and is
// terminal.
type PoolStatus string

const (
	PoolStatusOpen    PoolStatus = "open"
	PoolStatusFull    PoolStatus = "full"
	PoolStatusExpired PoolStatus = "expired"
	PoolStatusClosed  PoolStatus = "closed"
)

// PoolState is the computed lifecycle state of a pool snapshot. It is
// derived on every evaluation; the stored status only contributes the
// terminal "closed" marker.
type PoolState string

const (
	PoolStateOpen             PoolState = "OPEN"
	PoolStateReadyForCheckout PoolState = "READY_FOR_CHECKOUT"
	PoolStateFull             PoolState = "FULL"
	PoolStateExpired          PoolState = "EXPIRED"
	PoolStateClosed           PoolState = "CLOSED"
)

// Pool is an instance of travelers aggregating against a deal to unlock a
// discount tier. MinTravelers/MaxTravelers are copied from the deal at
// publication; the pool values govern all lifecycle decisions.
//
// CurrentTravelers is a cached aggregate: the count of memberships with
// status pending or confirmed. Every mutation path changes it in the same
// transaction as the membership change.
type Pool struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	DealID           uint       `gorm:"index" json:"deal_id"`
	Title            string     `gorm:"type:varchar(255)" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	MinTravelers     int        `json:"min_travelers"`
	MaxTravelers     int        `json:"max_travelers"`
	Status           PoolStatus `gorm:"type:varchar(20);default:'open';index" json:"status"`
	ExpiresAt        time.Time  `json:"expires_at"`
	CurrentTravelers int        `json:"current_travelers"`

	// Relationships
	Deal    Deal         `gorm:"foreignKey:DealID" json:"deal,omitempty"`
	Members []PoolMember `gorm:"foreignKey:PoolID" json:"members,omitempty"`
}

// ValidateSnapshot rejects a pool whose bounds can never be satisfied.
// Malformed traveler counts are tolerated (normalized to 0 by travelers()),
// but min > max makes every lifecycle decision meaningless.
func (p *Pool) ValidateSnapshot() error {
	if p.MinTravelers > p.MaxTravelers {
		return fmt.Errorf("%w: pool %d min travelers %d exceeds max %d", apperrors.ErrInvalidData, p.ID, p.MinTravelers, p.MaxTravelers)
	}
	return nil
}

func (p *Pool) travelers() int {
	if p.CurrentTravelers < 0 {
		return 0
	}
	return p.CurrentTravelers
}

// State computes the lifecycle state of the snapshot at the given instant.
// Precedence is CLOSED > EXPIRED > FULL > READY_FOR_CHECKOUT > OPEN; a pool
// can satisfy several raw conditions at once and the highest label wins.
func (p *Pool) State(now time.Time) PoolState {
	switch {
	case p.Status == PoolStatusClosed:
		return PoolStateClosed
	case !now.Before(p.ExpiresAt):
		return PoolStateExpired
	case p.travelers() >= p.MaxTravelers:
		return PoolStateFull
	case p.travelers() >= p.MinTravelers:
		return PoolStateReadyForCheckout
	default:
		return PoolStateOpen
	}
}

// CanJoin reports whether a user with the given existing membership (nil if
// none) may claim a seat right now.
func (p *Pool) CanJoin(now time.Time, existing *PoolMember) bool {
	state := p.State(now)
	if state != PoolStateOpen && state != PoolStateReadyForCheckout {
		return false
	}
	if existing != nil && existing.Status != PoolMemberStatusCancelled {
		return false
	}
	return p.travelers() < p.MaxTravelers
}

// CanCheckout reports whether the pool has unlocked its discount and can
// still accept payments. Full pools qualify since full implies the minimum
// was reached.
func (p *Pool) CanCheckout(now time.Time) bool {
	state := p.State(now)
	return state == PoolStateReadyForCheckout || state == PoolStateFull
}

// TimeRemaining returns the duration until expiry, or false once expired.
func (p *Pool) TimeRemaining(now time.Time) (time.Duration, bool) {
	remaining := p.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}
