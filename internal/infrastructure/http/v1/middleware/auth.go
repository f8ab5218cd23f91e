package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"receiptflow/internal/core/apperror"
	appctx "receiptflow/internal/core/context"
	"receiptflow/internal/core/security"
)

// HeaderWebhookSecret carries the shared secret of inbound supplier webhooks.
const HeaderWebhookSecret = "X-Webhook-Secret"

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates JWT tokens and populates user context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			if apperror.IsAppError(err) {
				_ = c.Error(err)
			} else {
				_ = c.Error(apperror.NewUnauthorized("invalid token").WithCause(err))
			}
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)
		c.Set("role", user.Role)

		c.Next()
	}
}

// RequireRole lets through only users holding one of roles.
func RequireRole(roles ...security.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := security.ActorFromContext(c.Request.Context())
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}

		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient role").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

// WebhookSecret authenticates inbound supplier events by a shared secret.
// An empty secret disables the endpoint.
func WebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			_ = c.Error(apperror.NewForbidden("supplier webhook is disabled"))
			c.Abort()
			return
		}
		got := c.GetHeader(HeaderWebhookSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			abortUnauthorized(c, "invalid webhook secret")
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
