package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/church-ops-api/internal/middleware"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/response"
)

// principalFromContext returns the caller or writes a 401 and reports false.
func principalFromContext(c *gin.Context) (models.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Principal{}, false
	}
	return principal, true
}

func pickQuery(c *gin.Context, preferred string, fallback string) string {
	if value := c.Query(preferred); value != "" {
		return value
	}
	return c.Query(fallback)
}

func queryInt(c *gin.Context, preferred, fallback string) int {
	value, err := strconv.Atoi(pickQuery(c, preferred, fallback))
	if err != nil {
		return 0
	}
	return value
}

func bindError(err error, what string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+what+" payload")
}
