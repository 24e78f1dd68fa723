package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/PepaPanda/uu-backend-project/internal/apperr"
	"github.com/PepaPanda/uu-backend-project/internal/auth"
	"github.com/PepaPanda/uu-backend-project/internal/models"
)

// respondError writes err as {"error", "code"} with the status of its kind.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindStorage {
		_ = c.Error(err)
	}
	c.JSON(apperr.HTTPStatus(kind), gin.H{
		"error": apperr.Message(err),
		"code":  kind,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": apperr.KindInvalidRequest})
}

// bind decodes and validates the JSON body into req.
func bind(c *gin.Context, v *validator.Validate, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	if err := v.Struct(req); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func identity(c *gin.Context) (models.Identity, bool) {
	id, ok := auth.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": apperr.KindAuthFailed})
	}
	return id, ok
}
