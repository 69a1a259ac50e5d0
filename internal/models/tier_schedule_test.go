package models

import (
	"errors"
	"testing"

	"solowcrew/internal/apperrors"
)

func TestApplicableDiscount(t *testing.T) {
	schedule := TierSchedule{2: 10, 5: 20, 10: 30}

	tests := []struct {
		name      string
		travelers int
		expected  int
	}{
		{name: "no tier unlocked", travelers: 0, expected: 0},
		{name: "below first threshold", travelers: 1, expected: 0},
		{name: "exactly first threshold", travelers: 2, expected: 10},
		{name: "between thresholds", travelers: 4, expected: 10},
		{name: "exactly middle threshold", travelers: 5, expected: 20},
		{name: "above highest threshold", travelers: 12, expected: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schedule.ApplicableDiscount(tt.travelers); got != tt.expected {
				t.Errorf("ApplicableDiscount(%d) = %d; want %d", tt.travelers, got, tt.expected)
			}
		})
	}
}

func TestApplicableDiscountEmptySchedule(t *testing.T) {
	var schedule TierSchedule
	if got := schedule.ApplicableDiscount(100); got != 0 {
		t.Errorf("ApplicableDiscount on empty schedule = %d; want 0", got)
	}
}

func TestApplicableDiscountMonotonic(t *testing.T) {
	schedule := TierSchedule{0: 5, 3: 5, 4: 15, 8: 40}
	if err := schedule.Validate(); err != nil {
		t.Fatalf("Validate() = %v; want nil", err)
	}

	prev := 0
	for n := 0; n <= 20; n++ {
		got := schedule.ApplicableDiscount(n)
		if got < prev {
			t.Fatalf("discount shrank from %d to %d at travelers=%d", prev, got, n)
		}
		prev = got
	}
}

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount int
		expected float64
	}{
		{name: "no discount", price: 1000, discount: 0, expected: 1000},
		{name: "twenty percent", price: 1000, discount: 20, expected: 800},
		{name: "thirty percent", price: 1000, discount: 30, expected: 700},
		{name: "full discount", price: 1000, discount: 100, expected: 0},
		{name: "rounds half up", price: 999, discount: 5, expected: 949}, // 949.05 -> 949
		{name: "rounds fraction", price: 333, discount: 10, expected: 300}, // 299.7 -> 300
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DiscountedPrice(tt.price, tt.discount); got != tt.expected {
				t.Errorf("DiscountedPrice(%v, %d) = %v; want %v", tt.price, tt.discount, got, tt.expected)
			}
		})
	}
}

func TestDiscountedPriceBounds(t *testing.T) {
	schedule := TierSchedule{2: 10, 5: 20, 10: 30}
	for n := 0; n <= 15; n++ {
		price := schedule.PriceAt(1000, n)
		if price < 0 || price > 1000 {
			t.Fatalf("PriceAt(1000, %d) = %v; want within [0, 1000]", n, price)
		}
	}
}

func TestTierScheduleScenario(t *testing.T) {
	schedule := TierSchedule{2: 10, 5: 20, 10: 30}

	tests := []struct {
		travelers int
		discount  int
		price     float64
	}{
		{travelers: 0, discount: 0, price: 1000},
		{travelers: 5, discount: 20, price: 800},
		{travelers: 12, discount: 30, price: 700},
	}

	for _, tt := range tests {
		if got := schedule.ApplicableDiscount(tt.travelers); got != tt.discount {
			t.Errorf("discount at %d travelers = %d; want %d", tt.travelers, got, tt.discount)
		}
		if got := schedule.PriceAt(1000, tt.travelers); got != tt.price {
			t.Errorf("price at %d travelers = %v; want %v", tt.travelers, got, tt.price)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		schedule TierSchedule
		wantErr  bool
	}{
		{name: "empty schedule", schedule: TierSchedule{}, wantErr: false},
		{name: "well formed", schedule: TierSchedule{2: 10, 5: 20}, wantErr: false},
		{name: "flat discounts", schedule: TierSchedule{2: 10, 5: 10}, wantErr: false},
		{name: "zero threshold", schedule: TierSchedule{0: 5}, wantErr: false},
		{name: "negative threshold", schedule: TierSchedule{-1: 5}, wantErr: true},
		{name: "negative discount", schedule: TierSchedule{2: -10}, wantErr: true},
		{name: "discount above 100", schedule: TierSchedule{2: 110}, wantErr: true},
		{name: "shrinking discount", schedule: TierSchedule{2: 20, 5: 10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidData) {
					t.Errorf("Validate() = %v; want ErrInvalidData", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v; want nil", err)
			}
		})
	}
}

func TestTiersRoundTrip(t *testing.T) {
	schedule := TierSchedule{10: 30, 2: 10, 5: 20}

	tiers := schedule.Tiers()
	if len(tiers) != 3 {
		t.Fatalf("Tiers() returned %d entries; want 3", len(tiers))
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i-1].Threshold >= tiers[i].Threshold {
			t.Fatalf("Tiers() not ascending: %v", tiers)
		}
	}

	rebuilt := TierSchedule{}
	for _, tier := range tiers {
		rebuilt[tier.Threshold] = tier.Discount
	}
	if len(rebuilt) != len(schedule) {
		t.Fatalf("round trip lost entries: %v vs %v", rebuilt, schedule)
	}
	for threshold, pct := range schedule {
		if rebuilt[threshold] != pct {
			t.Errorf("round trip mismatch at threshold %d: %d vs %d", threshold, rebuilt[threshold], pct)
		}
	}
}
