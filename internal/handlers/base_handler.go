package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appvalidator "refhub_backend/internal/validator"
	"refhub_backend/pkg/apperrors"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// BaseHandler carries the helpers every handler shares.
type BaseHandler struct {
	validator *appvalidator.Validator
}

func NewBaseHandler(v *appvalidator.Validator) *BaseHandler {
	return &BaseHandler{validator: v}
}

// BindAndValidateJSON binds the body and runs struct validation. On failure
// it writes the error response and returns false.
func (h *BaseHandler) BindAndValidateJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid JSON body").WithError(err))
		return false
	}

	if err := h.validator.Validate(obj); err != nil {
		if ve, ok := err.(*appvalidator.ValidationError); ok {
			apperrors.HandleError(c, apperrors.ValidationError(map[string]interface{}{"fields": ve.Errors}))
			return false
		}
		apperrors.HandleError(c, apperrors.InternalError(err))
		return false
	}

	return true
}

// HandleServiceError writes a service-layer error to the response.
func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	apperrors.HandleError(c, err)
}

// CurrentUserID returns the authenticated user ID set by the auth middleware.
func (h *BaseHandler) CurrentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString("userID")
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return "", false
	}
	return userID, true
}

// CurrentUserRole returns the role claim set by the auth middleware.
func (h *BaseHandler) CurrentUserRole(c *gin.Context) string {
	return c.GetString("userRole")
}

// ParsePagination reads limit and offset query params with sane bounds.
func (h *BaseHandler) ParsePagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	return limit, offset
}

// OK writes a 200 with the payload under "data".
func (h *BaseHandler) OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": payload})
}

// Created writes a 201 with the payload under "data".
func (h *BaseHandler) Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": payload})
}
