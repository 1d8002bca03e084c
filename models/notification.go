package models

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationSuccess NotificationType = "success"
)

const (
	ActionGoalInvitation    = "goal_invitation"
	ActionInvitationExpired = "invitation_expired"
)

// NotificationAction est le payload d'action attaché à une notification.
type NotificationAction struct {
	Type         string `json:"type"`
	InvitationID string `json:"invitation_id,omitempty"`
	GoalID       string `json:"goal_id,omitempty"`
	GoalTitle    string `json:"goal_title,omitempty"`
}

type Notification struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Type      NotificationType    `json:"type"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	Action    *NotificationAction `json:"action,omitempty"`
	DedupeKey string              `json:"-"`
	Read      bool                `json:"read"`
	CreatedAt time.Time           `json:"created_at"`
	ReadAt    *time.Time          `json:"read_at,omitempty"`
}

// NotificationInput décrit une notification à émettre.
type NotificationInput struct {
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	Action    *NotificationAction
	DedupeKey string
}

// RealtimeEvent est le message poussé sur les websockets.
type RealtimeEvent struct {
	Type    string          `json:"type"`
	UserID  string          `json:"user,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
