package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"solowcrew/internal/models"
	"solowcrew/internal/services"
)

// NotifyPoolReadyTaskDef prompts the pending members of a pool to pay once
// the minimum group size is reached. The join transaction schedules this
// exactly once per pool.
type NotifyPoolReadyTaskDef struct{}

func (t *NotifyPoolReadyTaskDef) TaskID() string {
	return "notify_pool_ready"
}

// CreateTask builds a ScheduledTask record for this task
func (t *NotifyPoolReadyTaskDef) CreateTask(poolID uint) (*models.ScheduledTask, error) {
	args := map[string]interface{}{"pool_id": poolID}
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

func (t *NotifyPoolReadyTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	poolID, err := poolIDFromArgs(task.Arguments)
	if err != nil {
		return nil, err
	}

	var pool models.Pool
	if err := db.WithContext(ctx).Preload("Deal").First(&pool, poolID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch pool: %w", err)
	}

	var members []models.PoolMember
	err = db.WithContext(ctx).Preload("User").
		Where("pool_id = ? AND status = ?", poolID, models.PoolMemberStatusPending).
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending members: %w", err)
	}

	if len(members) == 0 {
		return map[string]interface{}{"status": "skipped", "message": "No pending members in pool"}, nil
	}

	if err := pool.Deal.TierDiscounts.Validate(); err != nil {
		return nil, fmt.Errorf("deal %d has an invalid tier schedule: %w", pool.DealID, err)
	}
	pct := pool.Deal.TierDiscounts.ApplicableDiscount(pool.CurrentTravelers)
	amount := models.DiscountedPrice(pool.Deal.OriginalPrice, pct)

	email := services.NewEmailService()

	successCount := 0
	failureCount := 0
	var failures []string

	for _, member := range members {
		if member.User.Email == "" {
			log.Printf("Skipping ready notice for member %d: no email", member.ID)
			continue
		}
		if err := email.SendPoolReadyNotice(member.User.Email, pool.Deal.Title, pct, amount); err != nil {
			log.Printf("Failed to send ready notice to %s: %v", member.User.Email, err)
			failureCount++
			failures = append(failures, fmt.Sprintf("%s: %v", member.User.Email, err))
			continue
		}
		successCount++
	}

	result := map[string]interface{}{
		"total":   len(members),
		"success": successCount,
		"failure": failureCount,
	}
	if failureCount > 0 {
		result["errors"] = failures
		return result, fmt.Errorf("%d of %d notifications failed", failureCount, len(members))
	}
	return result, nil
}

// NotifyPoolReadyTask is the singleton instance of NotifyPoolReadyTaskDef
var NotifyPoolReadyTask = &NotifyPoolReadyTaskDef{}
