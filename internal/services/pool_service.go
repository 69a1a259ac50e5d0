package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"solowcrew/internal/apperrors"
	"solowcrew/internal/models"
)

const (
	joinMaxRetries = 3
	joinRetryDelay = 50 * time.Millisecond
	alertDedupTTL  = 24 * time.Hour
	alertKeyPrefix = "alert:order:"
)

// PoolService coordinates membership mutation, aggregate maintenance and
// the handoff to the payment gateway. It is the only component with side
// effects; the pool state machine and tier schedule it consults are pure.
type PoolService struct {
	db      *gorm.DB
	gateway SnapGateway
	email   *EmailService
	cache   *RedisCache
	now     func() time.Time
}

func NewPoolService(db *gorm.DB, gateway SnapGateway, email *EmailService, cache *RedisCache) *PoolService {
	return &PoolService{
		db:      db,
		gateway: gateway,
		email:   email,
		cache:   cache,
		now:     time.Now,
	}
}

// JoinResult carries the fresh pool snapshot and the recomputed pricing so
// the caller can reflect the unlocked tier without a second round trip.
type JoinResult struct {
	Pool            models.Pool       `json:"pool"`
	Member          models.PoolMember `json:"member"`
	DiscountPct     int               `json:"discount_pct"`
	DiscountedPrice float64           `json:"discounted_price"`
}

// Join claims a seat in the pool for the user. The membership insert and
// the counter increment commit as one row-locked transaction; two
// concurrent joins on the same pool serialize on the pool row and the
// loser re-evaluates preconditions against the updated count.
func (s *PoolService) Join(ctx context.Context, poolID, userID uint) (*JoinResult, error) {
	var result *JoinResult
	var err error

	for attempt := 0; attempt < joinMaxRetries; attempt++ {
		result, err = s.joinOnce(ctx, poolID, userID)
		if err == nil || !isRetryableConflict(err) {
			return result, err
		}
		log.Printf("join pool %d user %d: conflict on attempt %d: %v", poolID, userID, attempt+1, err)
		time.Sleep(joinRetryDelay * time.Duration(attempt+1))
	}
	return nil, fmt.Errorf("%w: join pool %d", apperrors.ErrContention, poolID)
}

func (s *PoolService) joinOnce(ctx context.Context, poolID, userID uint) (*JoinResult, error) {
	var result JoinResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pool models.Pool
		if err := lockForUpdate(tx).First(&pool, poolID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: pool %d", apperrors.ErrNotFound, poolID)
			}
			return fmt.Errorf("%w: load pool: %v", apperrors.ErrDependencyUnavailable, err)
		}
		if err := pool.ValidateSnapshot(); err != nil {
			return err
		}

		existing, err := findMembership(tx, poolID, userID)
		if err != nil {
			return err
		}

		now := s.now()
		if !pool.CanJoin(now, existing) {
			return joinFailure(&pool, now, existing)
		}

		member := models.PoolMember{
			PoolID: poolID,
			UserID: userID,
			Status: models.PoolMemberStatusPending,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("%w: insert membership: %v", apperrors.ErrDependencyUnavailable, err)
		}

		if err := tx.Model(&models.Pool{}).Where("id = ?", poolID).
			UpdateColumn("current_travelers", gorm.Expr("current_travelers + ?", 1)).Error; err != nil {
			return fmt.Errorf("%w: increment traveler count: %v", apperrors.ErrDependencyUnavailable, err)
		}

		if err := tx.First(&pool, poolID).Error; err != nil {
			return fmt.Errorf("%w: reload pool: %v", apperrors.ErrDependencyUnavailable, err)
		}

		var deal models.Deal
		if err := tx.First(&deal, pool.DealID).Error; err != nil {
			return fmt.Errorf("%w: load deal %d: %v", apperrors.ErrDependencyUnavailable, pool.DealID, err)
		}
		if err := deal.Validate(); err != nil {
			return err
		}

		pct := deal.TierDiscounts.ApplicableDiscount(pool.CurrentTravelers)
		result = JoinResult{
			Pool:            pool,
			Member:          member,
			DiscountPct:     pct,
			DiscountedPrice: models.DiscountedPrice(deal.OriginalPrice, pct),
		}

		// Once the minimum is reached, prompt the members who still owe
		// payment. Scheduling rides in the join transaction so the prompt
		// fires exactly once per pool.
		if pool.CurrentTravelers == pool.MinTravelers {
			task := models.ScheduledTask{
				TaskName:   "notify_pool_ready",
				Arguments:  map[string]interface{}{"pool_id": pool.ID},
				Due:        now,
				Status:     models.ScheduledTaskStatusActive,
				TaskType:   models.ScheduledTaskTypeOneTime,
				MaxAttempt: 3,
			}
			if err := tx.Create(&task).Error; err != nil {
				return fmt.Errorf("%w: schedule ready notification: %v", apperrors.ErrDependencyUnavailable, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, dealsListCacheKey)
	}
	return &result, nil
}

// joinFailure translates a failed CanJoin into the typed precondition error
// the caller reports to the user.
func joinFailure(pool *models.Pool, now time.Time, existing *models.PoolMember) error {
	if existing != nil && existing.Status != models.PoolMemberStatusCancelled {
		return fmt.Errorf("%w: pool %d", apperrors.ErrAlreadyJoined, pool.ID)
	}
	switch pool.State(now) {
	case models.PoolStateClosed:
		return fmt.Errorf("%w: pool %d", apperrors.ErrPoolClosed, pool.ID)
	case models.PoolStateExpired:
		return fmt.Errorf("%w: pool %d", apperrors.ErrPoolExpired, pool.ID)
	default:
		return fmt.Errorf("%w: pool %d", apperrors.ErrPoolFull, pool.ID)
	}
}

// lockForUpdate takes a row lock where the dialect supports it. sqlite has
// no FOR UPDATE; its single-writer model serializes the transaction anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func findMembership(tx *gorm.DB, poolID, userID uint) (*models.PoolMember, error) {
	var member models.PoolMember
	err := tx.Where("pool_id = ? AND user_id = ? AND status <> ?", poolID, userID, models.PoolMemberStatusCancelled).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: load membership: %v", apperrors.ErrDependencyUnavailable, err)
	}
	return &member, nil
}

func isRetryableConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// CheckoutResult is the handoff returned to the caller; the orchestrator
// does not wait for payment completion.
type CheckoutResult struct {
	Token       string  `json:"token"`
	RedirectURL string  `json:"redirect_url"`
	OrderID     string  `json:"order_id"`
	Amount      float64 `json:"amount"`
	IsExisting  bool    `json:"is_existing"`
}

// Checkout requests a payment session for the user's pending seat. A still
// pending gateway session for the same (pool, user) is reused, so retried
// client requests never create duplicate payment sessions.
func (s *PoolService) Checkout(ctx context.Context, poolID, userID uint, callbackURL string) (*CheckoutResult, error) {
	var pool models.Pool
	if err := s.db.WithContext(ctx).First(&pool, poolID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: pool %d", apperrors.ErrNotFound, poolID)
		}
		return nil, fmt.Errorf("%w: load pool: %v", apperrors.ErrDependencyUnavailable, err)
	}
	if err := pool.ValidateSnapshot(); err != nil {
		return nil, err
	}

	now := s.now()
	if !pool.CanCheckout(now) {
		switch pool.State(now) {
		case models.PoolStateClosed:
			return nil, fmt.Errorf("%w: pool %d", apperrors.ErrPoolClosed, pool.ID)
		case models.PoolStateExpired:
			return nil, fmt.Errorf("%w: pool %d", apperrors.ErrPoolExpired, pool.ID)
		default:
			return nil, fmt.Errorf("%w: pool %d has %d of %d travelers", apperrors.ErrNotReady, pool.ID, pool.CurrentTravelers, pool.MinTravelers)
		}
	}

	var member models.PoolMember
	err := s.db.WithContext(ctx).
		Where("pool_id = ? AND user_id = ? AND status = ?", poolID, userID, models.PoolMemberStatusPending).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: pool %d user %d", apperrors.ErrNoMembership, poolID, userID)
		}
		return nil, fmt.Errorf("%w: load membership: %v", apperrors.ErrDependencyUnavailable, err)
	}

	var deal models.Deal
	if err := s.db.WithContext(ctx).First(&deal, pool.DealID).Error; err != nil {
		return nil, fmt.Errorf("%w: load deal %d: %v", apperrors.ErrDependencyUnavailable, pool.DealID, err)
	}
	if err := deal.Validate(); err != nil {
		return nil, err
	}

	pct := deal.TierDiscounts.ApplicableDiscount(pool.CurrentTravelers)
	amount := models.DiscountedPrice(deal.OriginalPrice, pct)

	// Reuse a live session before creating a new one
	if existing, err := s.activeSession(ctx, poolID, userID); err != nil {
		return nil, err
	} else if existing != nil {
		reused, err := s.resumeSession(ctx, existing)
		if err != nil {
			return nil, err
		}
		if reused != nil {
			return reused, nil
		}
	}

	orderID, err := s.nextOrderID(ctx, poolID, userID)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("%w: load user %d: %v", apperrors.ErrDependencyUnavailable, userID, err)
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: int64(amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: user.Name,
			Email: user.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("deal-%d", deal.ID),
				Name:  deal.Title,
				Price: int64(amount),
				Qty:   1,
			},
		},
		Callbacks: &snap.Callbacks{
			Finish: callbackURL,
		},
	}

	resp, err := s.gateway.CreateTransaction(orderID, int64(amount), req)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment session: %v", apperrors.ErrDependencyUnavailable, err)
	}

	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)

	session := models.PaymentSession{
		PoolID:           pool.ID,
		DealID:           deal.ID,
		ProviderID:       deal.ProviderID,
		UserID:           userID,
		PaymentGateway:   models.PaymentGatewayMidtrans,
		OrderID:          orderID,
		Amount:           amount,
		IsActive:         true,
		RequestMetadata:  reqBytes,
		ResponseMetadata: respBytes,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: record payment session: %v", apperrors.ErrDependencyUnavailable, err)
	}

	return &CheckoutResult{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		OrderID:     orderID,
		Amount:      amount,
	}, nil
}

func (s *PoolService) activeSession(ctx context.Context, poolID, userID uint) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := s.db.WithContext(ctx).
		Where("pool_id = ? AND user_id = ? AND is_active = ?", poolID, userID, true).
		Order("created_at desc").First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: load payment session: %v", apperrors.ErrDependencyUnavailable, err)
	}
	return &session, nil
}

// resumeSession decides what to do with a previously issued session: hand
// the live one back, report a settled one, or deactivate a dead one so the
// caller creates a replacement. Returns (nil, nil) when a new session is
// needed.
func (s *PoolService) resumeSession(ctx context.Context, session *models.PaymentSession) (*CheckoutResult, error) {
	status, err := s.gateway.CheckTransaction(session.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: check payment status: %v", apperrors.ErrDependencyUnavailable, err)
	}

	switch status.TransactionStatus {
	case "settlement", "capture":
		return nil, fmt.Errorf("%w: payment already made for order %s", apperrors.ErrNotReady, session.OrderID)
	case "deny", "expire", "cancel", "failure":
		s.cancelSession(ctx, session)
		return nil, nil
	}

	// Still pending at the gateway, reuse it
	var resp snap.Response
	if err := json.Unmarshal(session.ResponseMetadata, &resp); err != nil || resp.Token == "" {
		s.cancelSession(ctx, session)
		return nil, nil
	}
	return &CheckoutResult{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		OrderID:     session.OrderID,
		Amount:      session.Amount,
		IsExisting:  true,
	}, nil
}

func (s *PoolService) deactivateSession(ctx context.Context, session *models.PaymentSession) {
	if err := s.db.WithContext(ctx).Model(session).Update("is_active", false).Error; err != nil {
		log.Printf("failed to deactivate payment session %d: %v", session.ID, err)
	}
}

// cancelSession voids the stale order at the gateway before deactivating
// the row, so a replaced session leaves no second payable order behind.
// Orders already terminal at the gateway refuse the cancel; they cannot be
// paid, so the refusal is only logged.
func (s *PoolService) cancelSession(ctx context.Context, session *models.PaymentSession) {
	if err := s.gateway.CancelTransaction(session.OrderID); err != nil {
		log.Printf("failed to cancel gateway order %s: %v", session.OrderID, err)
	}
	s.deactivateSession(ctx, session)
}

// nextOrderID derives the gateway order reference from (pool, user). The
// first attempt uses the bare pair; replacements after a dead session get a
// sequence suffix since the gateway refuses reused order ids.
func (s *PoolService) nextOrderID(ctx context.Context, poolID, userID uint) (string, error) {
	base := fmt.Sprintf("pool-%d-user-%d", poolID, userID)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PaymentSession{}).
		Where("pool_id = ? AND user_id = ?", poolID, userID).Count(&count).Error; err != nil {
		return "", fmt.Errorf("%w: count payment sessions: %v", apperrors.ErrDependencyUnavailable, err)
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-r%d", base, count), nil
}

// PaymentNotification is the parsed gateway callback. The handler verifies
// the signature before handing it here.
type PaymentNotification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

func (n *PaymentNotification) settled() bool {
	if n.TransactionStatus == "settlement" {
		return true
	}
	return n.TransactionStatus == "capture" && (n.FraudStatus == "" || n.FraudStatus == "accept")
}

// OnPaymentCompleted processes a gateway notification. Delivery is at
// least once, so everything here is idempotent by order reference: a
// booking that already exists means an earlier delivery won and this one
// reports success without touching anything.
func (s *PoolService) OnPaymentCompleted(ctx context.Context, n *PaymentNotification, rawPayload []byte) error {
	history := models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayMidtrans,
		CorrelationID:  uuid.New().String(),
		OrderID:        n.OrderID,
		Metadata:       rawPayload,
	}
	if err := s.db.WithContext(ctx).Create(&history).Error; err != nil {
		log.Printf("failed to record payment callback for order %s: %v", n.OrderID, err)
	}

	if n.OrderID == "" {
		return fmt.Errorf("%w: order_id missing", apperrors.ErrIncompleteNotification)
	}

	session, err := s.sessionByOrderID(ctx, n.OrderID)
	if err != nil {
		return err
	}

	if !n.settled() {
		switch n.TransactionStatus {
		case "deny", "expire", "cancel", "failure":
			s.deactivateSession(ctx, session)
		}
		return nil
	}

	if session.PoolID == 0 || session.UserID == 0 || session.DealID == 0 || session.ProviderID == 0 {
		return fmt.Errorf("%w: order %s is missing pool/user/deal/provider", apperrors.ErrIncompleteNotification, n.OrderID)
	}

	// Idempotency: one booking per payment reference
	var existing models.Booking
	err = s.db.WithContext(ctx).Where("payment_ref = ?", n.OrderID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: check booking: %v", apperrors.ErrDependencyUnavailable, err)
	}

	details, _ := json.Marshal(map[string]string{
		"payment_type":   n.PaymentType,
		"transaction_id": n.TransactionID,
	})

	membershipMissing := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking := models.Booking{
			UserID:         session.UserID,
			DealID:         session.DealID,
			PoolID:         session.PoolID,
			ProviderID:     session.ProviderID,
			AmountPaid:     session.Amount,
			Status:         models.BookingStatusConfirmed,
			PaymentRef:     n.OrderID,
			BookingDetails: details,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("%w: create booking: %v", apperrors.ErrDependencyUnavailable, err)
		}

		res := tx.Model(&models.PoolMember{}).
			Where("pool_id = ? AND user_id = ? AND status = ?", session.PoolID, session.UserID, models.PoolMemberStatusPending).
			Update("status", models.PoolMemberStatusConfirmed)
		if res.Error != nil {
			return fmt.Errorf("%w: confirm membership: %v", apperrors.ErrDependencyUnavailable, res.Error)
		}
		// Money has moved: a vanished membership does not roll back the
		// booking, it becomes a reconciliation case.
		membershipMissing = res.RowsAffected == 0

		return tx.Model(&models.PaymentSession{}).Where("id = ?", session.ID).
			Update("is_active", false).Error
	})
	if err != nil {
		return err
	}

	if membershipMissing {
		s.raiseReconciliationAlert(ctx, n.OrderID, session)
	}

	return nil
}

func (s *PoolService) sessionByOrderID(ctx context.Context, orderID string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at desc").First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no payment session for order %s", apperrors.ErrIncompleteNotification, orderID)
		}
		return nil, fmt.Errorf("%w: load payment session: %v", apperrors.ErrDependencyUnavailable, err)
	}
	return &session, nil
}

func (s *PoolService) raiseReconciliationAlert(ctx context.Context, orderID string, session *models.PaymentSession) {
	detail := "payment settled but no pending membership was found to confirm; booking stands"
	log.Printf("RECONCILIATION order %s pool %d user %d: %s", orderID, session.PoolID, session.UserID, detail)

	if s.cache != nil {
		fresh, err := s.cache.SetNX(ctx, alertKeyPrefix+orderID, true, alertDedupTTL)
		if err == nil && !fresh {
			return
		}
	}
	if s.email != nil {
		if err := s.email.SendReconciliationAlert(orderID, session.PoolID, session.UserID, detail); err != nil {
			log.Printf("failed to send reconciliation alert for order %s: %v", orderID, err)
		}
	}
}
