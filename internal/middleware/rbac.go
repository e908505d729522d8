package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/response"
)

// RBAC admits principals whose rank is at least minRank.
func RBAC(minRank int) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if principal.Rank <= 0 || principal.Rank < minRank {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole is a helper that gates a route on a minimum member role.
func RequireRole(rank models.RankFunc, role models.MemberRole) gin.HandlerFunc {
	if rank == nil {
		rank = models.DefaultRank
	}
	return RBAC(rank(role))
}
