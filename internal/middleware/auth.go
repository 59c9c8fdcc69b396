package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"refhub_backend/internal/auth"
	"refhub_backend/internal/logger"
	"refhub_backend/internal/models"
	"refhub_backend/pkg/apperrors"
)

// Auth validates the Bearer token and puts userID and userRole into the
// context.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header must be 'Bearer <token>'"))
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			apperrors.HandleError(c, apperrors.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("userRole", claims.Role)

		ctx := logger.WithRequestID(c.Request.Context(), c.GetString("requestID"))
		ctx = logger.WithUserID(ctx, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole rejects requests whose token role is not in the allow list.
// Must run after Auth.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.UserRole(c.GetString("userRole"))
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
		c.Abort()
	}
}
