package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bomatic/bomatic-server/internal/auth/jwt"
	apperrors "github.com/bomatic/bomatic-server/internal/errors"
)

// Gin context keys set after successful authentication.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextClaims = "claims"
)

// TokenParser validates a bearer token string.
type TokenParser interface {
	ParseAccess(token string) (*jwt.Claims, error)
}

// RequireAuth returns middleware that rejects requests without a valid
// Bearer access token and injects the claims into the context.
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, apperrors.Unauthorized("missing Authorization header"))
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortWithError(c, apperrors.Unauthorized("Authorization header must be a Bearer token"))
			return
		}

		claims, err := parser.ParseAccess(token)
		if err != nil {
			if appErr, isApp := apperrors.AsAppError(err); isApp {
				abortWithError(c, appErr)
			} else {
				abortWithError(c, apperrors.InvalidToken())
			}
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

func abortWithError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
