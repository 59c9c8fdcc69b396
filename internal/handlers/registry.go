package handlers

import (
	"refhub_backend/internal/services"
	appvalidator "refhub_backend/internal/validator"
)

// AppHandlers groups every HTTP handler for route registration.
type AppHandlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Referral     *ReferralHandler
	Application  *ApplicationHandler
	Payment      *PaymentHandler
	Matching     *MatchingHandler
	Notification *NotificationHandler
}

func NewAppHandlers(svc *services.Container) *AppHandlers {
	base := NewBaseHandler(appvalidator.New())

	return &AppHandlers{
		Auth:         NewAuthHandler(base, svc.Auth),
		User:         NewUserHandler(base, svc.User),
		Referral:     NewReferralHandler(base, svc.Referral, svc.Application),
		Application:  NewApplicationHandler(base, svc.Application),
		Payment:      NewPaymentHandler(base, svc.Payment),
		Matching:     NewMatchingHandler(base, svc.Matching),
		Notification: NewNotificationHandler(base, svc.Notifications),
	}
}
