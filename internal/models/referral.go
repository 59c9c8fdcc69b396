package models

import (
	"time"

	"gorm.io/datatypes"
)

// Referral is a job opening posted by a referrer at their company.
type Referral struct {
	BaseModel
	ReferrerID  string         `gorm:"type:uuid;not null;index" json:"referrerId"`
	Referrer    *User          `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	Title       string         `gorm:"not null" json:"title"`
	Company     string         `gorm:"not null;index" json:"company"`
	Description string         `gorm:"type:text" json:"description"`
	Location    string         `gorm:"index" json:"location,omitempty"`
	JobURL      string         `json:"jobUrl,omitempty"`
	Skills      datatypes.JSON `gorm:"type:jsonb" json:"skills"`
	Status      ReferralStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Deadline    *time.Time     `json:"deadline,omitempty"`

	ApplicationCount int `gorm:"default:0" json:"applicationCount"`
	Views            int `gorm:"default:0" json:"views"`
}

func (Referral) TableName() string {
	return "referrals"
}

// IsExpired reports whether an active referral's deadline has passed.
// Expiry is derived lazily at read time; the stored status may lag.
func (r *Referral) IsExpired(now time.Time) bool {
	return r.Status == ReferralActive && r.Deadline != nil && r.Deadline.Before(now)
}

// EffectiveStatus resolves the lazily-expired status without touching the
// stored row.
func (r *Referral) EffectiveStatus(now time.Time) ReferralStatus {
	if r.IsExpired(now) {
		return ReferralExpired
	}
	return r.Status
}
