// handlers/user.go

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/goals-api/middleware"
	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/services"
)

type UserHandler struct {
	Profiles *services.ProfileService
}

// SyncProfile crée ou met à jour le profil de l'appelant (id et email viennent du token).
func (h *UserHandler) SyncProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.Profiles.SyncProfile(c.Request.Context(), userID, middleware.GetUserEmail(c), req.Name)
	if err != nil {
		respondError(c, "sync profile", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
