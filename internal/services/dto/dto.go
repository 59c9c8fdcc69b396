// Package dto holds the request and response shapes exchanged with handlers.
package dto

import (
	"time"

	"refhub_backend/internal/models"
)

// --- Auth ---

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Role     string `json:"role" validate:"required,oneof=jobSeeker referrer"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// --- Users ---

type UpdateProfileRequest struct {
	Name       string   `json:"name" validate:"omitempty,min=2,max=100"`
	Phone      string   `json:"phone" validate:"omitempty,max=20"`
	Bio        string   `json:"bio" validate:"omitempty,max=2000"`
	Skills     []string `json:"skills" validate:"omitempty,max=50,dive,min=1,max=60"`
	ResumeURL  string   `json:"resumeUrl" validate:"omitempty,url"`
	Experience *int     `json:"experience" validate:"omitempty,min=0,max=60"`
	Company    string   `json:"company" validate:"omitempty,max=150"`
	Position   string   `json:"position" validate:"omitempty,max=150"`
}

// QuotaStatus reports the caller's application allowance for the current week.
type QuotaStatus struct {
	Limit        int        `json:"limit"`
	Used         int        `json:"used"`
	Remaining    int        `json:"remaining"`
	WeekStart    time.Time  `json:"weekStart"`
	Unlimited    bool       `json:"unlimited"`
	SubscribedTo *time.Time `json:"subscribedTo,omitempty"`
}

// --- Referrals ---

type CreateReferralRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=150"`
	Company     string     `json:"company" validate:"required,min=2,max=150"`
	Description string     `json:"description" validate:"required,min=10,max=10000"`
	Location    string     `json:"location" validate:"omitempty,max=150"`
	JobURL      string     `json:"jobUrl" validate:"omitempty,url"`
	Skills      []string   `json:"skills" validate:"required,min=1,max=50,dive,min=1,max=60"`
	Deadline    *time.Time `json:"deadline"`
}

type UpdateReferralRequest struct {
	Title       string     `json:"title" validate:"omitempty,min=3,max=150"`
	Description string     `json:"description" validate:"omitempty,min=10,max=10000"`
	Location    string     `json:"location" validate:"omitempty,max=150"`
	JobURL      string     `json:"jobUrl" validate:"omitempty,url"`
	Skills      []string   `json:"skills" validate:"omitempty,min=1,max=50,dive,min=1,max=60"`
	Deadline    *time.Time `json:"deadline"`
}

// --- Applications ---

type CreateApplicationRequest struct {
	ReferralID  string `json:"referralId" validate:"required,uuid"`
	CoverLetter string `json:"coverLetter" validate:"omitempty,max=5000"`
	ResumeURL   string `json:"resumeUrl" validate:"omitempty,url"`
}

type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=reviewed shortlisted accepted rejected"`
}

type AddMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

// --- Payments ---

type CreateOrderRequest struct {
	Plan string `json:"plan" validate:"required,oneof=monthly yearly"`
}

type CreateOrderResponse struct {
	PaymentID      string `json:"paymentId"`
	GatewayOrderID string `json:"gatewayOrderId"`
	GatewayKeyID   string `json:"gatewayKeyId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"razorpayOrderId" validate:"required"`
	GatewayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	GatewaySignature string `json:"razorpaySignature" validate:"required"`
}

type SubscriptionStatusResponse struct {
	Active        bool       `json:"active"`
	Plan          string     `json:"plan,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	DaysRemaining int        `json:"daysRemaining"`
}

// --- Matching ---

type MatchedReferral struct {
	Referral models.Referral `json:"referral"`
	Score    int             `json:"score"`
}

type MatchScoreResponse struct {
	ReferralID string `json:"referralId"`
	Score      int    `json:"score"`
}

// --- Shared ---

type Pagination struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}
