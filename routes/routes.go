package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/goals-api/handlers"
	"github.com/LovationAdmin/goals-api/middleware"
	"github.com/LovationAdmin/goals-api/migration"
	"github.com/LovationAdmin/goals-api/services"
)

// Deps regroupe les services câblés par main.
type Deps struct {
	Profiles      *services.ProfileService
	Goals         *services.GoalService
	Invitations   *services.InvitationService
	Notifications *services.NotificationService
	WS            *handlers.WSHandler
	RepairStore   migration.Store
	RepairWindow  time.Duration
	JWTSecret     string
	CronSecret    string
}

// Register monte toutes les routes sous rg (/api/v1).
func Register(rg *gin.RouterGroup, d Deps) {
	SetupAdminRoutes(rg, d)

	protected := rg.Group("/")
	protected.Use(middleware.AuthMiddleware(d.JWTSecret))
	{
		SetupUserRoutes(protected, d.Profiles)
		SetupGoalRoutes(protected, d.Goals)
		SetupInvitationRoutes(protected, d.Invitations)
		SetupNotificationRoutes(protected, d.Notifications)
		SetupWSRoutes(protected, d.WS)
	}
}

func SetupUserRoutes(rg *gin.RouterGroup, profiles *services.ProfileService) {
	h := &handlers.UserHandler{Profiles: profiles}

	rg.PUT("/me", h.SyncProfile)
}

func SetupGoalRoutes(rg *gin.RouterGroup, goals *services.GoalService) {
	h := &handlers.GoalHandler{Service: goals}

	rg.GET("/goals", h.GetGoals)
	rg.POST("/goals", h.CreateGoal)
	rg.GET("/goals/:id", h.GetGoal)
	rg.DELETE("/goals/:id", h.DeleteGoal)
	rg.POST("/goals/:id/contributions", h.Contribute)
	rg.GET("/goals/:id/collaborators", h.GetCollaborators)
	rg.DELETE("/goals/:id/collaborators/:user_id", h.RemoveCollaborator)
}

func SetupInvitationRoutes(rg *gin.RouterGroup, invitations *services.InvitationService) {
	h := &handlers.InvitationHandler{Service: invitations}

	rg.POST("/goals/:id/invitations", h.InviteUser)
	rg.GET("/goals/:id/invitations", h.GetInvitations)
	rg.GET("/invitations", h.GetMyInvitations)
	rg.POST("/invitations/:id/respond", h.RespondToInvitation)
}

func SetupNotificationRoutes(rg *gin.RouterGroup, notifications *services.NotificationService) {
	h := &handlers.NotificationHandler{Service: notifications}

	rg.GET("/notifications", h.GetNotifications)
	rg.GET("/notifications/unread", h.GetUnreadCount)
	rg.POST("/notifications/:id/read", h.MarkRead)
}

func SetupWSRoutes(rg *gin.RouterGroup, ws *handlers.WSHandler) {
	if ws == nil {
		return
	}
	rg.GET("/ws/notifications", ws.HandleUserWS)
	rg.GET("/ws/goals/:id", ws.HandleGoalWS)
}

// SetupAdminRoutes: endpoints du planificateur, protégés par X-Cron-Secret.
func SetupAdminRoutes(rg *gin.RouterGroup, d Deps) {
	h := &handlers.AdminHandler{
		Invitations:  d.Invitations,
		RepairStore:  d.RepairStore,
		RepairWindow: d.RepairWindow,
	}

	admin := rg.Group("/admin")
	admin.Use(middleware.CronSecret(d.CronSecret))
	{
		admin.POST("/invitations/sweep", h.SweepExpiredInvitations)
		admin.POST("/collaborators/repair", h.RepairCollaborators)
	}
}
