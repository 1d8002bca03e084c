package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"github.com/LovationAdmin/goals-api/middleware"
	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/services"
	"github.com/LovationAdmin/goals-api/utils"
)

const (
	sessionUserKey = "user_id"
	sessionGoalKey = "goal_id"
)

// WSHandler diffuse les événements temps réel: notifications par utilisateur
// et mises à jour par objectif.
type WSHandler struct {
	M     *melody.Melody
	Goals *services.GoalService
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	// Configurer la taille max des messages
	m.Config.MaxMessageSize = 64 * 1024

	// Keep-Alive Configuration (Critical for Render.com/Cloud hosting)
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		if goalID := sessionString(s, sessionGoalKey); goalID != "" {
			utils.LogWebSocket("Client connected", "goal", goalID)
			return
		}
		utils.LogWebSocket("Client connected", "user", sessionString(s, sessionUserKey))
	})

	m.HandleDisconnect(func(s *melody.Session) {
		utils.LogWebSocket("Client disconnected", "user", sessionString(s, sessionUserKey))
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("❌ WebSocket Error: %v", err)
	})

	return &WSHandler{M: m}
}

// HandleUserWS ouvre le canal de notifications de l'utilisateur authentifié.
func (h *WSHandler) HandleUserWS(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, map[string]any{sessionUserKey: userID}); err != nil {
		log.Printf("❌ Failed to upgrade websocket: %v", err)
	}
}

// HandleGoalWS ouvre le canal d'un objectif (propriétaire ou collaborateur).
func (h *WSHandler) HandleGoalWS(c *gin.Context) {
	userID := middleware.GetUserID(c)
	goalID := c.Param("id")

	ok, err := h.Goals.CanAccess(c.Request.Context(), goalID, userID)
	if err != nil {
		respondError(c, "goal websocket", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found", "code": services.CodeGoalNotFound})
		return
	}

	keys := map[string]any{sessionUserKey: userID, sessionGoalKey: goalID}
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		log.Printf("❌ Failed to upgrade websocket: %v", err)
	}
}

// PushToUser envoie l'événement aux sessions de notifications de l'utilisateur.
func (h *WSHandler) PushToUser(userID string, event models.RealtimeEvent) {
	h.broadcast(event, func(s *melody.Session) bool {
		if _, isGoal := s.Get(sessionGoalKey); isGoal {
			return false
		}
		id, exists := s.Get(sessionUserKey)
		return exists && id == userID
	})
}

// PushToGoal envoie l'événement à tous les clients écoutant cet objectif.
func (h *WSHandler) PushToGoal(goalID string, event models.RealtimeEvent) {
	h.broadcast(event, func(s *melody.Session) bool {
		id, exists := s.Get(sessionGoalKey)
		return exists && id == goalID
	})
}

func (h *WSHandler) broadcast(event models.RealtimeEvent, filter func(*melody.Session) bool) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Error encoding %s event: %v", event.Type, err)
		return
	}
	if err := h.M.BroadcastFilter(msg, filter); err != nil {
		log.Printf("⚠️ Error broadcasting %s event: %v", event.Type, err)
	}
}

func sessionString(s *melody.Session, key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}
