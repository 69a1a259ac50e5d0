package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"solowcrew/internal/apperrors"
	"solowcrew/internal/models"
)

func seedDeal(t *testing.T, db *gorm.DB, title, category, location string, travelers int) models.Deal {
	t.Helper()

	provider := models.Provider{CompanyName: title + " Co"}
	require.NoError(t, db.Create(&provider).Error)

	deal := models.Deal{
		Title:         title,
		Category:      category,
		Location:      location,
		OriginalPrice: 1000,
		MinTravelers:  2,
		MaxTravelers:  20,
		TierDiscounts: models.TierSchedule{2: 10, 5: 20, 10: 30},
		Status:        models.DealStatusActive,
		ProviderID:    provider.ID,
	}
	require.NoError(t, db.Create(&deal).Error)

	pool := models.Pool{
		DealID:           deal.ID,
		MinTravelers:     2,
		MaxTravelers:     20,
		Status:           models.PoolStatusOpen,
		ExpiresAt:        time.Now().Add(72 * time.Hour),
		CurrentTravelers: travelers,
	}
	require.NoError(t, db.Create(&pool).Error)

	return deal
}

func TestListDeals(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	svc := NewDealService(db, nil)

	seedDeal(t, db, "Bali Dive Week", "adventure", "Bali", 5)
	seedDeal(t, db, "Kyoto Food Walk", "culinary", "Kyoto", 0)

	summaries, err := svc.ListDeals(context.Background(), DealFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byTitle := map[string]DealSummary{}
	for _, s := range summaries {
		byTitle[s.Deal.Title] = s
	}

	dive := byTitle["Bali Dive Week"]
	assert.Equal(t, 5, dive.CurrentTravelers)
	assert.Equal(t, 20, dive.DiscountPct)
	assert.Equal(t, float64(800), dive.DiscountedPrice)

	walk := byTitle["Kyoto Food Walk"]
	assert.Equal(t, 0, walk.DiscountPct)
	assert.Equal(t, float64(1000), walk.DiscountedPrice)
}

func TestListDealsFiltered(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	svc := NewDealService(db, nil)

	seedDeal(t, db, "Bali Dive Week", "adventure", "Bali", 0)
	seedDeal(t, db, "Kyoto Food Walk", "culinary", "Kyoto", 0)

	byCategory, err := svc.ListDeals(context.Background(), DealFilter{Category: "culinary"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Kyoto Food Walk", byCategory[0].Deal.Title)

	byLocation, err := svc.ListDeals(context.Background(), DealFilter{Location: "bali"})
	require.NoError(t, err)
	require.Len(t, byLocation, 1)
	assert.Equal(t, "Bali Dive Week", byLocation[0].Deal.Title)
}

func TestListDealsSkipsInactive(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	svc := NewDealService(db, nil)

	deal := seedDeal(t, db, "Bali Dive Week", "adventure", "Bali", 0)
	require.NoError(t, db.Model(&models.Deal{}).Where("id = ?", deal.ID).
		Update("status", models.DealStatusInactive).Error)

	summaries, err := svc.ListDeals(context.Background(), DealFilter{})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestGetDeal(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	svc := NewDealService(db, nil)

	deal := seedDeal(t, db, "Bali Dive Week", "adventure", "Bali", 12)

	summary, err := svc.GetDeal(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, summary.CurrentTravelers)
	assert.Equal(t, 30, summary.DiscountPct)
	assert.Equal(t, float64(700), summary.DiscountedPrice)
	require.Len(t, summary.Tiers, 3)
	assert.Equal(t, 2, summary.Tiers[0].Threshold)

	_, err = svc.GetDeal(context.Background(), 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetDealInvalidSchedule(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	svc := NewDealService(db, nil)

	deal := seedDeal(t, db, "Bali Dive Week", "adventure", "Bali", 0)
	require.NoError(t, db.Model(&models.Deal{}).Where("id = ?", deal.ID).
		Update("tier_discounts", models.TierSchedule{2: 30, 5: 10}).Error)

	_, err = svc.GetDeal(context.Background(), deal.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidData)
}

func TestGetDealRejectsBadPricing(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	svc := NewDealService(db, nil)

	deal := seedDeal(t, db, "Bali Dive Week", "adventure", "Bali", 0)
	require.NoError(t, db.Model(&models.Deal{}).Where("id = ?", deal.ID).
		Update("original_price", 0).Error)

	_, err = svc.GetDeal(context.Background(), deal.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidData)
}

func TestListBookings(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	svc := NewDealService(db, nil)

	deal := seedDeal(t, db, "Bali Dive Week", "adventure", "Bali", 0)
	user := models.User{FirebaseUID: "uid-b", Name: "Traveler", Email: "t@example.com"}
	require.NoError(t, db.Create(&user).Error)

	for i := 0; i < 2; i++ {
		booking := models.Booking{
			UserID:     user.ID,
			DealID:     deal.ID,
			ProviderID: deal.ProviderID,
			AmountPaid: 900,
			Status:     models.BookingStatusConfirmed,
			PaymentRef: fmt.Sprintf("pool-%d-user-%d-b%d", i+1, user.ID, i),
		}
		require.NoError(t, db.Create(&booking).Error)
	}

	bookings, err := svc.ListBookings(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)

	other, err := svc.ListBookings(context.Background(), 9999)
	require.NoError(t, err)
	assert.Empty(t, other)
}
