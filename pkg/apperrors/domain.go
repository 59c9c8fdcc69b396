package apperrors

import (
	"net/http"
)

// Factories and predefined errors for the business domain.

// ErrNotFound converts a repository not-found error into an AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a repository duplicate error into an AppError.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict is the generic 409 factory.
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidStatus is used when an operation is not allowed in the current state.
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// ErrInvalidOperation is used for logically impossible requests.
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// --- Auth & users ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrUserSuspended = New(
	CodeForbidden,
	"auth",
	"Your account has been suspended",
	http.StatusForbidden,
)

// --- Quota & subscription ---

// ErrApplicationLimitReached carries the limit_reached flag so the client can
// distinguish a quota failure from a permissions failure and show an upgrade
// prompt.
func ErrApplicationLimitReached(limit int) *AppError {
	return New(
		CodeLimitExceeded,
		"quota",
		"Weekly application limit reached",
		http.StatusForbidden,
	).WithDetails(map[string]interface{}{
		"limit_reached": true,
		"weekly_limit":  limit,
	})
}

// ErrSubscriptionRequired gates premium-only features.
var ErrSubscriptionRequired = New(
	CodeSubscriptionRequired,
	"subscription",
	"An active subscription is required for this feature",
	http.StatusForbidden,
).WithDetails(map[string]interface{}{
	"subscription_required": true,
})

// --- Payments ---

// ErrInvalidPaymentSignature covers both callback and webhook signature
// mismatches. The message stays generic so verification internals do not leak.
var ErrInvalidPaymentSignature = New(
	CodePaymentFailed,
	"payment",
	"Payment verification failed",
	http.StatusBadRequest,
)

// ErrPaymentAlreadyVerified marks the idempotent no-op on a repeated verify.
var ErrPaymentAlreadyVerified = New(
	CodeConflict,
	"payment",
	"Payment already verified",
	http.StatusConflict,
)

// ErrPaymentGateway covers order-creation failures and gateway timeouts.
var ErrPaymentGateway = New(
	CodeExternalServiceError,
	"payment",
	"Payment provider error",
	http.StatusServiceUnavailable,
)

// --- Referrals & applications ---

var ErrReferralNotActive = New(
	CodeInvalidStatus,
	"referral",
	"Referral is not accepting applications",
	http.StatusConflict,
)

var ErrReferralExpired = New(
	CodeInvalidStatus,
	"referral",
	"Application deadline has passed",
	http.StatusConflict,
)

var ErrCannotApplyToOwnReferral = New(
	CodeInvalidOperation,
	"referral",
	"You cannot apply to your own referral",
	http.StatusBadRequest,
)

var ErrApplicationAlreadyExists = New(
	CodeAlreadyExists,
	"application",
	"You have already applied to this referral",
	http.StatusConflict,
)
