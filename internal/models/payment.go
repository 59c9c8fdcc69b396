package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment records one gateway order for a subscription purchase.
// GatewayOrderID is the idempotency key for webhook reconciliation.
type Payment struct {
	BaseModel
	UserID string `gorm:"type:uuid;not null;index" json:"userId"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`

	Plan     SubscriptionPlan `gorm:"type:varchar(20);not null" json:"plan"`
	Amount   int64            `gorm:"not null" json:"amount"` // smallest currency unit
	Currency string           `gorm:"type:varchar(3);not null" json:"currency"`

	GatewayOrderID   string `gorm:"uniqueIndex;not null" json:"gatewayOrderId"`
	GatewayPaymentID string `gorm:"index" json:"gatewayPaymentId,omitempty"`
	GatewaySignature string `json:"-"`

	Status     PaymentStatus `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	VerifiedAt *time.Time    `json:"verifiedAt,omitempty"`
	FailReason string        `json:"failReason,omitempty"`

	// Subscription window this payment bought, recorded at activation.
	SubscriptionStart *time.Time `json:"subscriptionStart,omitempty"`
	SubscriptionEnd   *time.Time `json:"subscriptionEnd,omitempty"`

	RefundAmount int64      `gorm:"default:0" json:"refundAmount,omitempty"`
	RefundedAt   *time.Time `json:"refundedAt,omitempty"`

	// SubscriptionApplied flips to true once the paid payment has been turned
	// into an active subscription on the user. Paid rows where it is still
	// false are picked up by the reconciliation worker.
	SubscriptionApplied bool `gorm:"default:false;index" json:"-"`

	// WebhookPayload keeps the last raw webhook event for audit.
	WebhookPayload datatypes.JSON `gorm:"type:jsonb" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// PlanDuration returns the fixed subscription length the plan buys.
func (p *Payment) PlanDuration() time.Duration {
	if p.Plan == PlanYearly {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}
