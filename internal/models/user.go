package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is the single account table for all three roles. Role-specific fields
// stay nullable for the other roles.
type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Name         string   `gorm:"not null" json:"name"`
	Role         UserRole `gorm:"type:varchar(20);not null;index" json:"role"`
	Phone        string   `json:"phone,omitempty"`
	Bio          string   `gorm:"type:text" json:"bio,omitempty"`
	IsSuspended  bool     `gorm:"default:false" json:"isSuspended"`

	// Job seeker profile
	Skills     datatypes.JSON `gorm:"type:jsonb" json:"skills,omitempty"`
	ResumeURL  string         `json:"resumeUrl,omitempty"`
	Experience int            `json:"experience,omitempty"` // years

	// Referrer profile
	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`

	// Subscription state, denormalized onto the user for cheap gating.
	// SubscriptionPaymentID links back to the payment that activated it.
	SubscriptionPlan      SubscriptionPlan `gorm:"type:varchar(20)" json:"subscriptionPlan,omitempty"`
	SubscriptionStartedAt *time.Time       `json:"subscriptionStartedAt,omitempty"`
	SubscriptionExpiresAt *time.Time       `json:"subscriptionExpiresAt,omitempty"`
	SubscriptionPaymentID *string          `gorm:"type:uuid" json:"-"`

	// Weekly application quota. WeekStart anchors the counter to a Monday;
	// the counter is only meaningful for the week it belongs to.
	WeeklyApplicationCount int        `gorm:"default:0" json:"weeklyApplicationCount"`
	WeekStart              *time.Time `json:"weekStart,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasActiveSubscription reports whether the subscription covers the given
// moment.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.After(now)
}
