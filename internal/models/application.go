package models

import (
	"gorm.io/datatypes"
)

// Application is a job seeker's application to a referral. A seeker may apply
// to a given referral at most once, enforced by the unique index.
type Application struct {
	BaseModel
	ReferralID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_referral_seeker" json:"referralId"`
	Referral    *Referral `gorm:"foreignKey:ReferralID" json:"referral,omitempty"`
	JobSeekerID string    `gorm:"type:uuid;not null;uniqueIndex:idx_referral_seeker;index" json:"jobSeekerId"`
	JobSeeker   *User     `gorm:"foreignKey:JobSeekerID" json:"jobSeeker,omitempty"`

	// ReferrerID denormalizes the referral owner so the referrer's inbox
	// queries skip the join.
	ReferrerID string `gorm:"type:uuid;index" json:"referrerId,omitempty"`

	Status      ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CoverLetter string            `gorm:"type:text" json:"coverLetter,omitempty"`
	ResumeURL   string            `json:"resumeUrl,omitempty"`

	// MatchScore is the skill match percentage computed at apply time.
	MatchScore int `gorm:"default:0" json:"matchScore"`

	// CommunicationHistory is an append-only log of messages between the
	// seeker and the referrer about this application.
	CommunicationHistory datatypes.JSON `gorm:"type:jsonb" json:"communicationHistory,omitempty"`
}

func (Application) TableName() string {
	return "applications"
}

// CommunicationEntry is one message in the communication history.
type CommunicationEntry struct {
	From    string `json:"from"` // user ID of the sender
	Message string `json:"message"`
	SentAt  string `json:"sentAt"` // RFC3339
}
