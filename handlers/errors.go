package handlers

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/goals-api/services"
)

// respondError traduit une erreur métier en réponse JSON {"error", "code"}.
func respondError(c *gin.Context, op string, err error) {
	code := services.CodeOf(err)
	body := gin.H{
		"error": services.PublicMessage(err),
		"code":  code,
	}
	if status, ok := services.ResolvedStatus(err); ok {
		body["status"] = status
	}

	var domainErr *services.Error
	if code == services.CodePersistenceFailure || !errors.As(err, &domainErr) {
		log.Printf("❌ %s failed: %v", op, err)
	}

	c.JSON(code.HTTPStatus(), body)
}
