package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"refhub_backend/internal/config"
	"refhub_backend/internal/gateway"
	"refhub_backend/internal/logger"
	"refhub_backend/internal/models"
	"refhub_backend/internal/repositories"
	"refhub_backend/internal/services/dto"
	"refhub_backend/pkg/apperrors"
)

type PaymentService struct {
	paymentRepo   repositories.PaymentRepository
	userRepo      repositories.UserRepository
	gateway       gateway.Client
	notifications *NotificationService
	cfg           *config.Config
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	gw gateway.Client,
	notifications *NotificationService,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		paymentRepo:   paymentRepo,
		userRepo:      userRepo,
		gateway:       gw,
		notifications: notifications,
		cfg:           cfg,
	}
}

// CreateOrder opens a gateway order for a subscription plan. Nothing is
// persisted when the gateway call fails; the client simply retries.
func (s *PaymentService) CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	plan := models.SubscriptionPlan(req.Plan)
	if !plan.Valid() {
		return nil, apperrors.ErrInvalidOperation("payment", "Unknown subscription plan")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if user.IsSuspended {
		return nil, apperrors.ErrUserSuspended
	}

	amount := s.cfg.Plans.Monthly
	if plan == models.PlanYearly {
		amount = s.cfg.Plans.Yearly
	}
	currency := s.cfg.Plans.Currency

	order, err := s.gateway.CreateOrder(ctx, amount, currency, "sub_"+uuid.NewString())
	if err != nil {
		logger.CtxWithError(ctx, "gateway order creation failed", err, "user_id", userID)
		return nil, apperrors.ErrPaymentGateway
	}

	payment := &models.Payment{
		UserID:         userID,
		Plan:           plan,
		Amount:         amount,
		Currency:       currency,
		GatewayOrderID: order.ID,
		Status:         models.PaymentCreated,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "payment order created",
		"payment_id", payment.ID,
		"gateway_order_id", order.ID,
		"plan", plan)

	return &dto.CreateOrderResponse{
		PaymentID:      payment.ID,
		GatewayOrderID: order.ID,
		GatewayKeyID:   s.cfg.Gateway.KeyID,
		Amount:         amount,
		Currency:       currency,
	}, nil
}

// VerifyPayment settles the checkout callback. A repeat call on a settled
// payment returns ErrPaymentAlreadyVerified without side effects.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID string, req *dto.VerifyPaymentRequest) (*dto.SubscriptionStatusResponse, error) {
	payment, err := s.paymentRepo.GetByGatewayOrderID(ctx, req.GatewayOrderID)
	if errors.Is(err, repositories.ErrPaymentNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if payment.UserID != userID {
		return nil, apperrors.ErrInsufficientPermissions
	}

	if payment.Status == models.PaymentPaid {
		return nil, apperrors.ErrPaymentAlreadyVerified
	}
	if payment.Status == models.PaymentFailed || payment.Status == models.PaymentCancelled {
		return nil, apperrors.ErrInvalidStatus("payment", "Payment is already settled as "+string(payment.Status))
	}

	if !s.gateway.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		logger.CtxWarn(ctx, "payment signature mismatch", "gateway_order_id", req.GatewayOrderID)
		if _, err := s.paymentRepo.MarkFailed(ctx, req.GatewayOrderID, "Invalid signature", nil); err != nil {
			logger.CtxWithError(ctx, "failed to record signature mismatch", err,
				"gateway_order_id", req.GatewayOrderID)
		}
		return nil, apperrors.ErrInvalidPaymentSignature
	}

	rows, err := s.paymentRepo.MarkPaid(ctx, req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature, nil)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if rows == 0 {
		// A concurrent verify or webhook won the race.
		return nil, apperrors.ErrPaymentAlreadyVerified
	}

	if err := s.activateSubscription(ctx, payment.ID); err != nil {
		// The payment stays paid and unapplied; the reconciliation worker
		// retries the activation.
		logger.CtxWithError(ctx, "subscription activation failed, leaving for reconciliation", err,
			"payment_id", payment.ID)
		return nil, apperrors.InternalError(err)
	}

	go s.notifications.Notify(context.Background(), userID, models.NotificationSubscriptionActive,
		"Subscription activated",
		"Your "+string(payment.Plan)+" subscription is now active",
		map[string]string{"paymentId": payment.ID})

	return s.GetSubscriptionStatus(ctx, userID)
}

// webhookEvent is the slice of the gateway webhook body we act on.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook reconciles gateway events. The signature is checked against
// the raw body before any parsing. Events for unknown orders and repeated
// deliveries are acknowledged without side effects.
func (s *PaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(rawBody, signature) {
		logger.CtxWarn(ctx, "webhook signature mismatch")
		return apperrors.ErrInvalidPaymentSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return apperrors.ErrInvalidOperation("payment", "Malformed webhook body")
	}

	orderID := event.Payload.Payment.Entity.OrderID
	if orderID == "" {
		logger.CtxDebug(ctx, "webhook without order id ignored", "event", event.Event)
		return nil
	}

	switch event.Event {
	case "payment.captured":
		rows, err := s.paymentRepo.MarkPaid(ctx, orderID, event.Payload.Payment.Entity.ID, "", datatypes.JSON(rawBody))
		if err != nil {
			return apperrors.InternalError(err)
		}
		if rows == 0 {
			logger.CtxDebug(ctx, "webhook capture for already settled payment", "gateway_order_id", orderID)
		}

		payment, err := s.paymentRepo.GetByGatewayOrderID(ctx, orderID)
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			logger.CtxWarn(ctx, "webhook for unknown order", "gateway_order_id", orderID)
			return nil
		}
		if err != nil {
			return apperrors.InternalError(err)
		}

		if payment.Status == models.PaymentPaid && !payment.SubscriptionApplied {
			if err := s.activateSubscription(ctx, payment.ID); err != nil {
				logger.CtxWithError(ctx, "webhook activation failed, leaving for reconciliation", err,
					"payment_id", payment.ID)
			}
		}
		return nil

	case "payment.failed":
		reason := event.Payload.Payment.Entity.ErrorDescription
		if reason == "" {
			reason = "payment failed at gateway"
		}
		if _, err := s.paymentRepo.MarkFailed(ctx, orderID, reason, datatypes.JSON(rawBody)); err != nil {
			return apperrors.InternalError(err)
		}
		return nil

	default:
		logger.CtxDebug(ctx, "unhandled webhook event ignored", "event", event.Event)
		return nil
	}
}

// activateSubscription applies a paid payment to the user's subscription
// state. The heavy lifting runs transactionally in the repository.
func (s *PaymentService) activateSubscription(ctx context.Context, paymentID string) error {
	if err := s.paymentRepo.ApplySubscription(ctx, paymentID); err != nil {
		return err
	}
	logger.CtxInfo(ctx, "subscription activated", "payment_id", paymentID)
	return nil
}

// ReconcileUnapplied repairs paid payments that never became subscriptions,
// for example after a crash between mark-paid and activation.
func (s *PaymentService) ReconcileUnapplied(ctx context.Context, batchSize int) (int, error) {
	payments, err := s.paymentRepo.ListPaidUnapplied(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range payments {
		if err := s.activateSubscription(ctx, payments[i].ID); err != nil {
			logger.WithError(err).Error("reconciliation failed for payment", "payment_id", payments[i].ID)
			continue
		}
		repaired++
	}

	return repaired, nil
}

func (s *PaymentService) GetSubscriptionStatus(ctx context.Context, userID string) (*dto.SubscriptionStatusResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.SubscriptionStatusResponse{}
	now := time.Now()
	if user.HasActiveSubscription(now) {
		resp.Active = true
		resp.Plan = string(user.SubscriptionPlan)
		resp.ExpiresAt = user.SubscriptionExpiresAt
		resp.DaysRemaining = int(user.SubscriptionExpiresAt.Sub(now).Hours() / 24)
	}
	return resp, nil
}

func (s *PaymentService) History(ctx context.Context, userID string, limit, offset int) ([]models.Payment, int64, error) {
	payments, total, err := s.paymentRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return payments, total, nil
}

// AdminListPayments lists payments across all users, optionally filtered by
// status.
func (s *PaymentService) AdminListPayments(ctx context.Context, status string, limit, offset int) ([]models.Payment, int64, error) {
	filter := models.PaymentStatus(status)
	if status != "" && !filter.Valid() {
		return nil, 0, apperrors.ErrInvalidOperation("payment", "Unknown payment status")
	}

	payments, total, err := s.paymentRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return payments, total, nil
}

// AdminRefund marks a paid payment refunded for its full amount. The
// subscription it bought is left in place; revoking access on refund is a
// support decision made separately.
func (s *PaymentService) AdminRefund(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if errors.Is(err, repositories.ErrPaymentNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	rows, err := s.paymentRepo.MarkRefunded(ctx, paymentID, payment.Amount)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if rows == 0 {
		return nil, apperrors.ErrInvalidStatus("payment", "Only paid payments can be refunded")
	}

	logger.CtxInfo(ctx, "payment refunded", "payment_id", paymentID, "amount", payment.Amount)

	refunded, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return refunded, nil
}

func (s *PaymentService) AdminStats(ctx context.Context) (*repositories.PaymentStats, error) {
	stats, err := s.paymentRepo.Stats(ctx)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return stats, nil
}
