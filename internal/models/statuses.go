package models

// UserRole separates the three actor types. A user has exactly one role for
// the lifetime of the account.
type UserRole string

const (
	RoleJobSeeker UserRole = "jobSeeker"
	RoleReferrer  UserRole = "referrer"
	RoleAdmin     UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleJobSeeker, RoleReferrer, RoleAdmin:
		return true
	}
	return false
}

// PaymentStatus follows the gateway order lifecycle.
type PaymentStatus string

const (
	PaymentCreated   PaymentStatus = "created"
	PaymentAttempted PaymentStatus = "attempted"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentCreated, PaymentAttempted, PaymentPaid, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

// paymentTransitions lists the allowed status moves. Terminal states have no
// outgoing edges except paid -> refunded.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentCreated:   {PaymentAttempted, PaymentPaid, PaymentFailed, PaymentCancelled},
	PaymentAttempted: {PaymentPaid, PaymentFailed, PaymentCancelled},
	PaymentPaid:      {PaymentRefunded},
	PaymentFailed:    {},
	PaymentCancelled: {},
	PaymentRefunded:  {},
}

// CanTransition reports whether the status may move to target.
func (s PaymentStatus) CanTransition(target PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ReferralStatus is the lifecycle of a posted referral.
type ReferralStatus string

const (
	ReferralDraft   ReferralStatus = "draft"
	ReferralActive  ReferralStatus = "active"
	ReferralClosed  ReferralStatus = "closed"
	ReferralExpired ReferralStatus = "expired"
)

var referralTransitions = map[ReferralStatus][]ReferralStatus{
	ReferralDraft:   {ReferralActive},
	ReferralActive:  {ReferralClosed, ReferralExpired},
	ReferralClosed:  {},
	ReferralExpired: {},
}

func (s ReferralStatus) CanTransition(target ReferralStatus) bool {
	for _, allowed := range referralTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ApplicationStatus tracks a job seeker's application through review.
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationReviewed    ApplicationStatus = "reviewed"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationAccepted    ApplicationStatus = "accepted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationWithdrawn   ApplicationStatus = "withdrawn"
)

// applicationTransitions: the seeker may withdraw at any non-terminal step,
// the referrer moves the application forward.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:     {ApplicationReviewed, ApplicationShortlisted, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn},
	ApplicationReviewed:    {ApplicationShortlisted, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn},
	ApplicationShortlisted: {ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn},
	ApplicationAccepted:    {},
	ApplicationRejected:    {},
	ApplicationWithdrawn:   {},
}

func (s ApplicationStatus) CanTransition(target ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// referrerTransitions excludes withdrawn, which only the applicant may set.
var referrerTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:     {ApplicationReviewed, ApplicationShortlisted, ApplicationAccepted, ApplicationRejected},
	ApplicationReviewed:    {ApplicationShortlisted, ApplicationAccepted, ApplicationRejected},
	ApplicationShortlisted: {ApplicationAccepted, ApplicationRejected},
}

// CanReferrerTransition reports whether a referrer may move the application
// from s to target.
func (s ApplicationStatus) CanReferrerTransition(target ApplicationStatus) bool {
	for _, allowed := range referrerTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// SubscriptionPlan identifies a paid plan duration.
type SubscriptionPlan string

const (
	PlanMonthly SubscriptionPlan = "monthly"
	PlanYearly  SubscriptionPlan = "yearly"
)

func (p SubscriptionPlan) Valid() bool {
	return p == PlanMonthly || p == PlanYearly
}
