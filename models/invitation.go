package models

import (
	"time"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Reusable indique si une nouvelle invitation peut réutiliser cette ligne.
func (s InvitationStatus) Reusable() bool {
	return s == InvitationDeclined || s == InvitationExpired
}

type Invitation struct {
	ID        string           `json:"id"`
	GoalID    string           `json:"goal_id"`
	InviterID string           `json:"inviter_id"`
	InviteeID string           `json:"invitee_id"`
	Status    InvitationStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

type InvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type RespondInvitationRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// InvitationView enrichit une invitation pour l'affichage.
type InvitationView struct {
	Invitation
	GoalTitle    string `json:"goal_title"`
	InviterName  string `json:"inviter_name"`
	InviteeEmail string `json:"invitee_email"`
}
