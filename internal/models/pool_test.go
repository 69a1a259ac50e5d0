package models

import (
	"testing"
	"time"
)

var poolNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func basePool() Pool {
	return Pool{
		ID:           1,
		MinTravelers: 5,
		MaxTravelers: 10,
		Status:       PoolStatusOpen,
		ExpiresAt:    poolNow.Add(48 * time.Hour),
	}
}

func TestPoolState(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *Pool)
		expected PoolState
	}{
		{
			name:     "new pool is open",
			mutate:   func(p *Pool) {},
			expected: PoolStateOpen,
		},
		{
			name:     "below minimum is open",
			mutate:   func(p *Pool) { p.CurrentTravelers = 4 },
			expected: PoolStateOpen,
		},
		{
			name:     "at minimum is ready",
			mutate:   func(p *Pool) { p.CurrentTravelers = 5 },
			expected: PoolStateReadyForCheckout,
		},
		{
			name:     "between min and max is ready",
			mutate:   func(p *Pool) { p.CurrentTravelers = 9 },
			expected: PoolStateReadyForCheckout,
		},
		{
			name:     "at maximum is full",
			mutate:   func(p *Pool) { p.CurrentTravelers = 10 },
			expected: PoolStateFull,
		},
		{
			name:     "past expiry is expired",
			mutate:   func(p *Pool) { p.ExpiresAt = poolNow.Add(-time.Minute) },
			expected: PoolStateExpired,
		},
		{
			name:     "exactly at expiry is expired",
			mutate:   func(p *Pool) { p.ExpiresAt = poolNow },
			expected: PoolStateExpired,
		},
		{
			name:     "closed is closed",
			mutate:   func(p *Pool) { p.Status = PoolStatusClosed },
			expected: PoolStateClosed,
		},
		{
			name: "expired beats full",
			mutate: func(p *Pool) {
				p.CurrentTravelers = 10
				p.ExpiresAt = poolNow.Add(-time.Hour)
			},
			expected: PoolStateExpired,
		},
		{
			name: "closed beats expired and full",
			mutate: func(p *Pool) {
				p.Status = PoolStatusClosed
				p.CurrentTravelers = 10
				p.ExpiresAt = poolNow.Add(-time.Hour)
			},
			expected: PoolStateClosed,
		},
		{
			name:     "negative counter treated as empty",
			mutate:   func(p *Pool) { p.CurrentTravelers = -3 },
			expected: PoolStateOpen,
		},
		{
			name: "min equals max skips ready",
			mutate: func(p *Pool) {
				p.MinTravelers = 10
				p.CurrentTravelers = 10
			},
			expected: PoolStateFull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := basePool()
			tt.mutate(&pool)
			if got := pool.State(poolNow); got != tt.expected {
				t.Errorf("State() = %s; want %s", got, tt.expected)
			}
		})
	}
}

func TestCanJoin(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *Pool)
		existing *PoolMember
		expected bool
	}{
		{
			name:     "open pool accepts",
			mutate:   func(p *Pool) {},
			expected: true,
		},
		{
			name:     "ready pool still accepts",
			mutate:   func(p *Pool) { p.CurrentTravelers = 6 },
			expected: true,
		},
		{
			name:     "full pool rejects",
			mutate:   func(p *Pool) { p.CurrentTravelers = 10 },
			expected: false,
		},
		{
			name:     "expired pool rejects",
			mutate:   func(p *Pool) { p.ExpiresAt = poolNow.Add(-time.Minute) },
			expected: false,
		},
		{
			name:     "closed pool rejects",
			mutate:   func(p *Pool) { p.Status = PoolStatusClosed },
			expected: false,
		},
		{
			name:     "pending member cannot rejoin",
			mutate:   func(p *Pool) { p.CurrentTravelers = 3 },
			existing: &PoolMember{Status: PoolMemberStatusPending},
			expected: false,
		},
		{
			name:     "confirmed member cannot rejoin",
			mutate:   func(p *Pool) { p.CurrentTravelers = 3 },
			existing: &PoolMember{Status: PoolMemberStatusConfirmed},
			expected: false,
		},
		{
			name:     "cancelled member may rejoin",
			mutate:   func(p *Pool) { p.CurrentTravelers = 3 },
			existing: &PoolMember{Status: PoolMemberStatusCancelled},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := basePool()
			tt.mutate(&pool)
			if got := pool.CanJoin(poolNow, tt.existing); got != tt.expected {
				t.Errorf("CanJoin() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestCanCheckout(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *Pool)
		expected bool
	}{
		{name: "below minimum", mutate: func(p *Pool) { p.CurrentTravelers = 4 }, expected: false},
		{name: "at minimum", mutate: func(p *Pool) { p.CurrentTravelers = 5 }, expected: true},
		{name: "full", mutate: func(p *Pool) { p.CurrentTravelers = 10 }, expected: true},
		{name: "expired", mutate: func(p *Pool) { p.CurrentTravelers = 6; p.ExpiresAt = poolNow.Add(-time.Minute) }, expected: false},
		{name: "closed", mutate: func(p *Pool) { p.CurrentTravelers = 6; p.Status = PoolStatusClosed }, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := basePool()
			tt.mutate(&pool)
			if got := pool.CanCheckout(poolNow); got != tt.expected {
				t.Errorf("CanCheckout() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	pool := basePool()

	remaining, ok := pool.TimeRemaining(poolNow)
	if !ok || remaining != 48*time.Hour {
		t.Errorf("TimeRemaining() = (%v, %v); want (48h, true)", remaining, ok)
	}

	remaining, ok = pool.TimeRemaining(pool.ExpiresAt)
	if ok || remaining != 0 {
		t.Errorf("TimeRemaining() at expiry = (%v, %v); want (0, false)", remaining, ok)
	}
}

func TestValidateSnapshot(t *testing.T) {
	pool := basePool()
	if err := pool.ValidateSnapshot(); err != nil {
		t.Errorf("ValidateSnapshot() = %v; want nil", err)
	}

	pool.MinTravelers = 11
	if err := pool.ValidateSnapshot(); err == nil {
		t.Error("ValidateSnapshot() = nil; want error when min exceeds max")
	}
}
