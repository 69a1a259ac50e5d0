package models

import (
	"fmt"
	"math"
	"sort"

	"solowcrew/internal/apperrors"
)

// TierSchedule maps a minimum traveler count to the discount percentage
// unlocked at that group size. Stored as jsonb on the deal row; encoding/json
// handles the string keys of the column transparently.
type TierSchedule map[int]int

// Tier is one row of the schedule, used for display projections.
type Tier struct {
	Threshold int `json:"threshold"`
	Discount  int `json:"discount"`
}

// Validate checks the schedule against the provider-data contract:
// non-negative thresholds, discounts within [0,100], and discounts that
// never shrink as the group grows. Bad values are rejected, not clamped,
// so provider data-entry bugs surface instead of silently pricing wrong.
func (s TierSchedule) Validate() error {
	tiers := s.Tiers()
	prev := 0
	for _, t := range tiers {
		if t.Threshold < 0 {
			return fmt.Errorf("%w: tier threshold %d is negative", apperrors.ErrInvalidData, t.Threshold)
		}
		if t.Discount < 0 || t.Discount > 100 {
			return fmt.Errorf("%w: tier discount %d%% at threshold %d is out of range", apperrors.ErrInvalidData, t.Discount, t.Threshold)
		}
		if t.Discount < prev {
			return fmt.Errorf("%w: tier discount shrinks from %d%% to %d%% at threshold %d", apperrors.ErrInvalidData, prev, t.Discount, t.Threshold)
		}
		prev = t.Discount
	}
	return nil
}

// ApplicableDiscount returns the discount of the greatest threshold that the
// traveler count has reached, or 0 when no tier is unlocked yet.
func (s TierSchedule) ApplicableDiscount(travelerCount int) int {
	best := -1
	discount := 0
	for threshold, pct := range s {
		if threshold <= travelerCount && threshold > best {
			best = threshold
			discount = pct
		}
	}
	return discount
}

// DiscountedPrice applies a percentage discount to the original price,
// rounded half away from zero.
func DiscountedPrice(originalPrice float64, discountPct int) float64 {
	return math.Round(originalPrice * (1 - float64(discountPct)/100))
}

// PriceAt is a convenience combining ApplicableDiscount and DiscountedPrice.
func (s TierSchedule) PriceAt(originalPrice float64, travelerCount int) float64 {
	return DiscountedPrice(originalPrice, s.ApplicableDiscount(travelerCount))
}

// Tiers returns the schedule as a slice ordered by threshold ascending.
func (s TierSchedule) Tiers() []Tier {
	tiers := make([]Tier, 0, len(s))
	for threshold, pct := range s {
		tiers = append(tiers, Tier{Threshold: threshold, Discount: pct})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Threshold < tiers[j].Threshold })
	return tiers
}
