// handlers/admin.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/goals-api/migration"
	"github.com/LovationAdmin/goals-api/services"
)

// AdminHandler expose les tâches appelées par le planificateur externe.
type AdminHandler struct {
	Invitations  *services.InvitationService
	RepairStore  migration.Store
	RepairWindow time.Duration
	Now          func() time.Time
}

// SweepExpiredInvitations répond {success, processedCount} ou {success: false, error}.
func (h *AdminHandler) SweepExpiredInvitations(c *gin.Context) {
	result, err := h.Invitations.SweepExpiredInvitations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) RepairCollaborators(c *gin.Context) {
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	stats, err := migration.RepairCollaborators(c.Request.Context(), h.RepairStore, now, h.RepairWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
