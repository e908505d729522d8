package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/logger"
	"github.com/noah-isme/church-ops-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextPrincipalKey is the gin context key storing the resolved models.Principal.
	ContextPrincipalKey = "principal"
)

// TokenVerifier validates bearer tokens and maps their claims onto a principal.
type TokenVerifier interface {
	ValidateToken(token string) (*models.JWTClaims, error)
	Resolve(claims *models.JWTClaims) models.Principal
}

// JWT protects routes by requiring a valid access token.
func JWT(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := verifier.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		principal := verifier.Resolve(claims)
		c.Set(ContextUserKey, claims)
		c.Set(ContextPrincipalKey, principal)
		c.Set(logger.PrincipalFields, []zap.Field{
			zap.String("user_id", principal.ID),
			zap.String("church_id", principal.ChurchID),
			zap.String("role", string(principal.Role)),
		})
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by JWT.
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := value.(models.Principal)
	return principal, ok
}
