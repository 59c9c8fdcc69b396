package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"refhub_backend/internal/middleware"
	"refhub_backend/internal/models"
	"refhub_backend/internal/services"
	"refhub_backend/internal/services/dto"
	"refhub_backend/pkg/apperrors"
)

// maxWebhookBody bounds the webhook payload we are willing to read.
const maxWebhookBody = 1 << 20

// reconcileBatchSize caps one manually triggered reconciliation pass.
const reconcileBatchSize = 100

type PaymentHandler struct {
	*BaseHandler
	paymentService *services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments", middleware.Auth())
	{
		payments.POST("/orders", h.CreateOrder)
		payments.POST("/create-order", h.CreateOrder)
		payments.POST("/verify", h.VerifyPayment)
		payments.GET("/subscription", h.SubscriptionStatus)
		payments.GET("/subscription-status", h.SubscriptionStatus)
		payments.GET("/history", h.History)
	}

	admin := r.Group("/admin", middleware.Auth(), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/payments", h.AdminList)
		admin.GET("/payments/stats", h.AdminStats)
		admin.POST("/payments/reconcile", h.AdminReconcile)
		admin.POST("/payments/:id/refund", h.AdminRefund)
	}

	// The gateway authenticates itself with the body signature, not a JWT.
	r.POST("/webhooks/razorpay", h.Webhook)
	r.POST("/payments/webhook", h.Webhook)
}

func (h *PaymentHandler) AdminList(c *gin.Context) {
	limit, offset := h.ParsePagination(c)

	payments, total, err := h.paymentService.AdminListPayments(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      payments,
		Pagination: dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

func (h *PaymentHandler) AdminRefund(c *gin.Context) {
	payment, err := h.paymentService.AdminRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, payment)
}

func (h *PaymentHandler) AdminStats(c *gin.Context) {
	stats, err := h.paymentService.AdminStats(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, stats)
}

// AdminReconcile runs one reconciliation pass on demand, without waiting for
// the background worker's next tick.
func (h *PaymentHandler) AdminReconcile(c *gin.Context) {
	repaired, err := h.paymentService.ReconcileUnapplied(c.Request.Context(), reconcileBatchSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"repaired": repaired})
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Created(c, resp)
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var req dto.VerifyPaymentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.VerifyPayment(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, resp)
}

// Webhook verifies the signature over the exact raw bytes, so the body is
// read before any JSON binding.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read request body").WithError(err))
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")

	if err := h.paymentService.HandleWebhook(c.Request.Context(), rawBody, signature); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *PaymentHandler) SubscriptionStatus(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	resp, err := h.paymentService.GetSubscriptionStatus(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, resp)
}

func (h *PaymentHandler) History(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.ParsePagination(c)

	payments, total, err := h.paymentService.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      payments,
		Pagination: dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}
