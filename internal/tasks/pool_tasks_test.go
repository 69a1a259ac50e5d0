package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"solowcrew/internal/models"
	"solowcrew/internal/services"
)

func seedPool(t *testing.T, db *gorm.DB, status models.PoolStatus, expiresAt time.Time, travelers int) models.Pool {
	t.Helper()
	pool := models.Pool{
		MinTravelers:     2,
		MaxTravelers:     10,
		Status:           status,
		ExpiresAt:        expiresAt,
		CurrentTravelers: travelers,
	}
	require.NoError(t, db.Create(&pool).Error)
	return pool
}

func TestExpirePoolsTask(t *testing.T) {
	db, err := services.NewTestDB()
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	overdue := seedPool(t, db, models.PoolStatusOpen, past, 1)
	overdueFull := seedPool(t, db, models.PoolStatusFull, past, 10)
	live := seedPool(t, db, models.PoolStatusOpen, future, 1)
	closed := seedPool(t, db, models.PoolStatusClosed, past, 1)

	result, err := ExpirePoolsTask.HandleExecution(context.Background(), db, models.ScheduledTask{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result["expired"])

	statuses := map[uint]models.PoolStatus{}
	var pools []models.Pool
	require.NoError(t, db.Find(&pools).Error)
	for _, p := range pools {
		statuses[p.ID] = p.Status
	}

	assert.Equal(t, models.PoolStatusExpired, statuses[overdue.ID])
	assert.Equal(t, models.PoolStatusExpired, statuses[overdueFull.ID])
	assert.Equal(t, models.PoolStatusOpen, statuses[live.ID])
	assert.Equal(t, models.PoolStatusClosed, statuses[closed.ID], "closed is terminal, the sweep leaves it alone")
}

func TestReconcilePoolCountsTask(t *testing.T) {
	db, err := services.NewTestDB()
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	consistent := seedPool(t, db, models.PoolStatusOpen, future, 2)
	drifted := seedPool(t, db, models.PoolStatusOpen, future, 5)

	memberships := []models.PoolMember{
		{PoolID: consistent.ID, UserID: 1, Status: models.PoolMemberStatusPending},
		{PoolID: consistent.ID, UserID: 2, Status: models.PoolMemberStatusConfirmed},
		{PoolID: consistent.ID, UserID: 3, Status: models.PoolMemberStatusCancelled},
		{PoolID: drifted.ID, UserID: 1, Status: models.PoolMemberStatusPending},
	}
	for i := range memberships {
		require.NoError(t, db.Create(&memberships[i]).Error)
	}

	result, err := ReconcilePoolCountsTask.HandleExecution(context.Background(), db, models.ScheduledTask{})
	require.NoError(t, err)
	assert.Equal(t, 2, result["pools"])
	assert.Equal(t, 1, result["mismatches"])

	// Audit only: the counter is never rewritten here
	var reloaded models.Pool
	require.NoError(t, db.First(&reloaded, drifted.ID).Error)
	assert.Equal(t, 5, reloaded.CurrentTravelers)
}
