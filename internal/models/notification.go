package models

import (
	"gorm.io/datatypes"
)

// NotificationType labels what happened.
type NotificationType string

const (
	NotificationNewApplication     NotificationType = "new_application"
	NotificationApplicationStatus  NotificationType = "application_status"
	NotificationSubscriptionActive NotificationType = "subscription_active"
	NotificationReferralExpired    NotificationType = "referral_expired"
	NotificationNewMessage         NotificationType = "new_message"
)

type Notification struct {
	BaseModel
	UserID  string           `gorm:"type:uuid;not null;index" json:"userId"`
	Type    NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `gorm:"type:text" json:"message"`
	IsRead  bool             `gorm:"default:false;index" json:"isRead"`

	// Data carries entity references (referral ID, application ID) for
	// client-side navigation.
	Data datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
