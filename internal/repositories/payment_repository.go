package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"refhub_backend/internal/models"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentStats aggregates the payment table for the admin dashboard.
type PaymentStats struct {
	TotalRevenue int64 `json:"totalRevenue"`
	PaidCount    int64 `json:"paidCount"`
	FailedCount  int64 `json:"failedCount"`
	PendingCount int64 `json:"pendingCount"`
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, int64, error)
	List(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]models.Payment, int64, error)
	Stats(ctx context.Context) (*PaymentStats, error)

	// MarkPaid flips the payment to paid, guarded so only non-terminal
	// statuses move. Returns the number of rows changed: 0 means the payment
	// was already settled (or unknown), which keeps callback and webhook
	// delivery idempotent.
	MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string, payload datatypes.JSON) (int64, error)

	// MarkFailed records a failed payment, also status-guarded.
	MarkFailed(ctx context.Context, gatewayOrderID, reason string, payload datatypes.JSON) (int64, error)

	// MarkRefunded records a refund; only paid payments move. Returns the
	// number of rows changed, 0 meaning the payment was not refundable.
	MarkRefunded(ctx context.Context, paymentID string, amount int64) (int64, error)

	// ListPaidUnapplied returns paid payments that were never turned into a
	// subscription on the user. The reconciliation worker repairs these.
	ListPaidUnapplied(ctx context.Context, limit int) ([]models.Payment, error)

	// ApplySubscription turns a paid payment into subscription state on its
	// user inside one transaction, so a crash cannot leave the payment
	// applied without the user updated. Safe to call repeatedly; an already
	// applied or unpaid payment is a no-op.
	ApplySubscription(ctx context.Context, paymentID string) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, "gateway_order_id = ?", gatewayOrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) List(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) Stats(ctx context.Context) (*PaymentStats, error) {
	stats := &PaymentStats{}

	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ?", models.PaymentPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalRevenue).Error
	if err != nil {
		return nil, err
	}

	counts := []struct {
		status models.PaymentStatus
		dest   *int64
	}{
		{models.PaymentPaid, &stats.PaidCount},
		{models.PaymentFailed, &stats.FailedCount},
		{models.PaymentCreated, &stats.PendingCount},
	}
	for _, c := range counts {
		if err := r.db.WithContext(ctx).Model(&models.Payment{}).
			Where("status = ?", c.status).
			Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (r *paymentRepository) MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string, payload datatypes.JSON) (int64, error) {
	now := time.Now()

	updates := map[string]interface{}{
		"status":             models.PaymentPaid,
		"gateway_payment_id": gatewayPaymentID,
		"verified_at":        now,
	}
	if signature != "" {
		updates["gateway_signature"] = signature
	}
	if payload != nil {
		updates["webhook_payload"] = payload
	}

	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("gateway_order_id = ? AND status IN ?", gatewayOrderID,
			[]models.PaymentStatus{models.PaymentCreated, models.PaymentAttempted}).
		Updates(updates)

	return res.RowsAffected, res.Error
}

func (r *paymentRepository) MarkFailed(ctx context.Context, gatewayOrderID, reason string, payload datatypes.JSON) (int64, error) {
	updates := map[string]interface{}{
		"status":      models.PaymentFailed,
		"fail_reason": reason,
	}
	if payload != nil {
		updates["webhook_payload"] = payload
	}

	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("gateway_order_id = ? AND status IN ?", gatewayOrderID,
			[]models.PaymentStatus{models.PaymentCreated, models.PaymentAttempted}).
		Updates(updates)

	return res.RowsAffected, res.Error
}

func (r *paymentRepository) MarkRefunded(ctx context.Context, paymentID string, amount int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentPaid).
		Updates(map[string]interface{}{
			"status":        models.PaymentRefunded,
			"refund_amount": amount,
			"refunded_at":   time.Now(),
		})

	return res.RowsAffected, res.Error
}

func (r *paymentRepository) ListPaidUnapplied(ctx context.Context, limit int) ([]models.Payment, error) {
	var payments []models.Payment

	err := r.db.WithContext(ctx).
		Where("status = ? AND subscription_applied = ?", models.PaymentPaid, false).
		Order("verified_at ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) ApplySubscription(ctx context.Context, paymentID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.First(&payment, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if payment.Status != models.PaymentPaid || payment.SubscriptionApplied {
			return nil
		}

		var user models.User
		if err := tx.First(&user, "id = ?", payment.UserID).Error; err != nil {
			return err
		}

		// Renewal extends from the current expiry while it is still in the
		// future; a lapsed subscription starts fresh from now.
		now := time.Now()
		base := now
		if user.SubscriptionExpiresAt != nil && user.SubscriptionExpiresAt.After(now) {
			base = *user.SubscriptionExpiresAt
		}
		expiresAt := base.Add(payment.PlanDuration())

		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"subscription_plan":       payment.Plan,
				"subscription_started_at": base,
				"subscription_expires_at": expiresAt,
				"subscription_payment_id": payment.ID,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Updates(map[string]interface{}{
				"subscription_applied": true,
				"subscription_start":   base,
				"subscription_end":     expiresAt,
			}).Error
	})
}
