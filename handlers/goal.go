package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/goals-api/middleware"
	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/services"
)

type GoalHandler struct {
	Service *services.GoalService
}

func (h *GoalHandler) GetGoals(c *gin.Context) {
	goals, err := h.Service.ListGoals(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "list goals", err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *GoalHandler) CreateGoal(c *gin.Context) {
	var req models.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, err := h.Service.CreateGoal(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, "create goal", err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (h *GoalHandler) GetGoal(c *gin.Context) {
	goal, err := h.Service.GetGoal(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "get goal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"goal":     goal,
		"progress": goal.Progress(),
	})
}

func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	if err := h.Service.DeleteGoal(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		respondError(c, "delete goal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted"})
}

func (h *GoalHandler) Contribute(c *gin.Context) {
	var req models.ContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, err := h.Service.Contribute(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Amount)
	if err != nil {
		respondError(c, "contribute", err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *GoalHandler) GetCollaborators(c *gin.Context) {
	collaborators, err := h.Service.ListCollaborators(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "list collaborators", err)
		return
	}
	c.JSON(http.StatusOK, collaborators)
}

// RemoveCollaborator retire un collaborateur (propriétaire seulement).
func (h *GoalHandler) RemoveCollaborator(c *gin.Context) {
	err := h.Service.RemoveCollaborator(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), c.Param("user_id"))
	if err != nil {
		respondError(c, "remove collaborator", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Collaborator removed"})
}
