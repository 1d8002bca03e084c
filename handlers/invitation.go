package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/goals-api/middleware"
	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/services"
)

type InvitationHandler struct {
	Service *services.InvitationService
}

// InviteUser invite un utilisateur (par email) à collaborer sur un objectif.
func (h *InvitationHandler) InviteUser(c *gin.Context) {
	userID := middleware.GetUserID(c)
	goalID := c.Param("id")

	var req models.InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.Service.InviteCollaborator(c.Request.Context(), goalID, userID, req.Email)
	if err != nil {
		respondError(c, "invite collaborator", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         inv.ID,
		"status":     inv.Status,
		"expires_at": inv.ExpiresAt,
		"message":    "Invitation sent successfully",
	})
}

// GetInvitations retourne l'historique des invitations d'un objectif.
func (h *InvitationHandler) GetInvitations(c *gin.Context) {
	invitations, err := h.Service.ListGoalInvitations(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "list goal invitations", err)
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// GetMyInvitations retourne les invitations pending reçues.
func (h *InvitationHandler) GetMyInvitations(c *gin.Context) {
	invitations, err := h.Service.ListPendingInvitations(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "list pending invitations", err)
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// RespondToInvitation accepte ou refuse une invitation.
func (h *InvitationHandler) RespondToInvitation(c *gin.Context) {
	var req models.RespondInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.Service.RespondToInvitation(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), *req.Accept)
	if err != nil {
		respondError(c, "respond to invitation", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      inv.ID,
		"goal_id": inv.GoalID,
		"status":  inv.Status,
	})
}
