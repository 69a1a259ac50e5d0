package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"solowcrew/internal/models"
)

// ExpirePoolsTaskDef sweeps pools past their expiry into the stored
// "expired" status. The computed lifecycle state already reports EXPIRED
// from the timestamp alone; the sweep keeps the stored column in step for
// reporting and keeps terminal pools out of active queries.
type ExpirePoolsTaskDef struct{}

func (t *ExpirePoolsTaskDef) TaskID() string {
	return "expire_pools"
}

func (t *ExpirePoolsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	now := time.Now()

	res := db.WithContext(ctx).Model(&models.Pool{}).
		Where("status IN ? AND expires_at <= ?", []models.PoolStatus{models.PoolStatusOpen, models.PoolStatusFull}, now).
		Update("status", models.PoolStatusExpired)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to expire pools: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		log.Printf("[Task: expire_pools] Marked %d pools expired", res.RowsAffected)
	}

	return map[string]interface{}{
		"status":  "success",
		"expired": res.RowsAffected,
	}, nil
}

// ExpirePoolsTask is the singleton instance of ExpirePoolsTaskDef
var ExpirePoolsTask = &ExpirePoolsTaskDef{}

// ReconcilePoolCountsTaskDef audits the cached traveler counters against
// the membership rows. The counter is the single source of truth during
// request flow; summation lives only here, offline. Mismatches are logged
// for manual follow up, never rewritten silently.
type ReconcilePoolCountsTaskDef struct{}

func (t *ReconcilePoolCountsTaskDef) TaskID() string {
	return "reconcile_pool_counts"
}

type countMismatch struct {
	PoolID  uint  `json:"pool_id"`
	Cached  int   `json:"cached"`
	Counted int64 `json:"counted"`
}

func (t *ReconcilePoolCountsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var pools []models.Pool
	if err := db.WithContext(ctx).Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch pools: %w", err)
	}

	var mismatches []countMismatch
	for _, pool := range pools {
		var counted int64
		err := db.WithContext(ctx).Model(&models.PoolMember{}).
			Where("pool_id = ? AND status IN ?", pool.ID,
				[]models.PoolMemberStatus{models.PoolMemberStatusPending, models.PoolMemberStatusConfirmed}).
			Count(&counted).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count members for pool %d: %w", pool.ID, err)
		}

		if int64(pool.CurrentTravelers) != counted {
			log.Printf("[Task: reconcile_pool_counts] Pool %d cached=%d counted=%d", pool.ID, pool.CurrentTravelers, counted)
			mismatches = append(mismatches, countMismatch{
				PoolID:  pool.ID,
				Cached:  pool.CurrentTravelers,
				Counted: counted,
			})
		}
	}

	result := map[string]interface{}{
		"status":     "success",
		"pools":      len(pools),
		"mismatches": len(mismatches),
	}
	if len(mismatches) > 0 {
		result["details"] = mismatches
	}
	return result, nil
}

// ReconcilePoolCountsTask is the singleton instance of ReconcilePoolCountsTaskDef
var ReconcilePoolCountsTask = &ReconcilePoolCountsTaskDef{}
