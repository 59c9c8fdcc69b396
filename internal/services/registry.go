package services

import (
	"gorm.io/gorm"

	"refhub_backend/internal/config"
	"refhub_backend/internal/email"
	"refhub_backend/internal/gateway"
	"refhub_backend/internal/repositories"
)

// Container wires every service with its repositories. Built once at startup.
type Container struct {
	Auth          *AuthService
	User          *UserService
	Referral      *ReferralService
	Application   *ApplicationService
	Payment       *PaymentService
	Matching      *MatchingService
	Notifications *NotificationService
}

func NewContainer(db *gorm.DB, gw gateway.Client, sender email.Sender, cfg *config.Config) *Container {
	userRepo := repositories.NewUserRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	referralRepo := repositories.NewReferralRepository(db)
	applicationRepo := repositories.NewApplicationRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	notifications := NewNotificationService(notificationRepo, userRepo, sender)

	return &Container{
		Auth:          NewAuthService(userRepo),
		User:          NewUserService(userRepo),
		Referral:      NewReferralService(referralRepo, userRepo),
		Application:   NewApplicationService(applicationRepo, referralRepo, userRepo, notifications),
		Payment:       NewPaymentService(paymentRepo, userRepo, gw, notifications, cfg),
		Matching:      NewMatchingService(referralRepo, userRepo),
		Notifications: notifications,
	}
}
