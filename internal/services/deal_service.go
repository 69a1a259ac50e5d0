package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"solowcrew/internal/apperrors"
	"solowcrew/internal/models"
)

const (
	dealsListCacheKey = "deals:active"
	dealsListCacheTTL = 2 * time.Minute
)

// DealService is the read side of the marketplace: deal exploration with a
// pricing snapshot. Deals are read-only here; providers manage them through
// their own channel.
type DealService struct {
	db    *gorm.DB
	cache *RedisCache
	now   func() time.Time
}

func NewDealService(db *gorm.DB, cache *RedisCache) *DealService {
	return &DealService{db: db, cache: cache, now: time.Now}
}

// DealSummary is a deal with its computed pricing snapshot for listings.
type DealSummary struct {
	Deal             models.Deal   `json:"deal"`
	CurrentTravelers int           `json:"current_travelers"`
	DiscountPct      int           `json:"discount_pct"`
	DiscountedPrice  float64       `json:"discounted_price"`
	Tiers            []models.Tier `json:"tiers"`
}

// DealFilter narrows the explore listing.
type DealFilter struct {
	Category string
	Location string
}

func (f DealFilter) empty() bool {
	return f.Category == "" && f.Location == ""
}

// ListDeals returns the active deals with pricing snapshots. The unfiltered
// listing is cached briefly; filtered queries go straight to the database.
func (s *DealService) ListDeals(ctx context.Context, filter DealFilter) ([]DealSummary, error) {
	if filter.empty() {
		return GetOrSet(s.cache, ctx, dealsListCacheKey, dealsListCacheTTL, func() ([]DealSummary, error) {
			return s.listDeals(ctx, filter)
		})
	}
	return s.listDeals(ctx, filter)
}

func (s *DealService) listDeals(ctx context.Context, filter DealFilter) ([]DealSummary, error) {
	query := s.db.WithContext(ctx).Model(&models.Deal{}).
		Preload("Provider").Preload("Pools").
		Where("status = ?", models.DealStatusActive)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(filter.Location)+"%")
	}

	var deals []models.Deal
	if err := query.Find(&deals).Error; err != nil {
		return nil, fmt.Errorf("%w: list deals: %v", apperrors.ErrDependencyUnavailable, err)
	}

	summaries := make([]DealSummary, 0, len(deals))
	for i := range deals {
		summary, err := s.summarize(&deals[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// GetDeal returns one deal with its pools and pricing snapshot.
func (s *DealService) GetDeal(ctx context.Context, dealID uint) (*DealSummary, error) {
	var deal models.Deal
	err := s.db.WithContext(ctx).
		Preload("Provider").Preload("Pools").Preload("Pools.Members").Preload("Pools.Members.User").
		First(&deal, dealID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: deal %d", apperrors.ErrNotFound, dealID)
		}
		return nil, fmt.Errorf("%w: load deal: %v", apperrors.ErrDependencyUnavailable, err)
	}
	return s.summarize(&deal)
}

// summarize computes the deal's current aggregate pricing from the cached
// pool counters. A deal that fails validation is unreadable rather than
// silently priced at full rate.
func (s *DealService) summarize(deal *models.Deal) (*DealSummary, error) {
	if err := deal.Validate(); err != nil {
		return nil, err
	}

	travelers := 0
	for i := range deal.Pools {
		if deal.Pools[i].CurrentTravelers > 0 {
			travelers += deal.Pools[i].CurrentTravelers
		}
	}

	pct := deal.TierDiscounts.ApplicableDiscount(travelers)
	return &DealSummary{
		Deal:             *deal,
		CurrentTravelers: travelers,
		DiscountPct:      pct,
		DiscountedPrice:  models.DiscountedPrice(deal.OriginalPrice, pct),
		Tiers:            deal.TierDiscounts.Tiers(),
	}, nil
}

// ListBookings returns the user's bookings, newest first.
func (s *DealService) ListBookings(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Deal").Preload("Pool").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list bookings: %v", apperrors.ErrDependencyUnavailable, err)
	}
	return bookings, nil
}
