package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LovationAdmin/goals-api/models"
)

// InvitationStore est la frontière de persistance du cycle de vie des invitations.
// Les lookups retournent storage.ErrNotFound quand rien ne correspond et les
// écritures en conflit d'unicité retournent storage.ErrConflict.
type InvitationStore interface {
	FindGoal(ctx context.Context, id string) (models.Goal, error)
	FindProfile(ctx context.Context, id string) (models.Profile, error)
	FindProfileByEmail(ctx context.Context, email string) (models.Profile, error)

	CollaboratorExists(ctx context.Context, goalID, userID string) (bool, error)
	InsertCollaborator(ctx context.Context, goalID, userID string, now time.Time) error

	FindInvitation(ctx context.Context, id string) (models.Invitation, error)
	FindPendingInvitation(ctx context.Context, goalID, inviteeID string) (models.Invitation, error)
	FindReusableInvitation(ctx context.Context, goalID, inviteeID string) (models.Invitation, error)
	InsertInvitation(ctx context.Context, inv models.Invitation) error
	UpdateInvitationStatus(ctx context.Context, id string, from, to models.InvitationStatus, expiresAt *time.Time, now time.Time) (bool, error)
	ListExpiredPendingInvitations(ctx context.Context, now time.Time) ([]models.Invitation, error)
	ExpireInvitations(ctx context.Context, ids []string, now time.Time) ([]string, error)

	ListGoalInvitations(ctx context.Context, goalID string) ([]models.InvitationView, error)
	ListPendingInvitationsForUser(ctx context.Context, userID string, now time.Time) ([]models.InvitationView, error)
}

type GoalStore interface {
	InsertGoal(ctx context.Context, g models.Goal) error
	FindGoal(ctx context.Context, id string) (models.Goal, error)
	ListGoalsForUser(ctx context.Context, userID string) ([]models.Goal, error)
	AddToSavedAmount(ctx context.Context, goalID string, amount decimal.Decimal, now time.Time) error
	DeleteGoal(ctx context.Context, goalID string) error

	CollaboratorExists(ctx context.Context, goalID, userID string) (bool, error)
	ListCollaborators(ctx context.Context, goalID string) ([]models.Collaborator, error)
	DeleteCollaborator(ctx context.Context, goalID, userID string, now time.Time) error
}

type NotificationStore interface {
	InsertNotification(ctx context.Context, n models.Notification) (models.Notification, bool, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, id, userID string, now time.Time) error
}

type ProfileStore interface {
	UpsertProfile(ctx context.Context, p models.Profile) error
	FindProfile(ctx context.Context, id string) (models.Profile, error)
}

// Notifier émet une notification in-app vers un utilisateur.
type Notifier interface {
	Emit(ctx context.Context, in models.NotificationInput) (models.Notification, error)
}

// Broadcaster pousse des événements temps réel aux sessions websocket.
type Broadcaster interface {
	PushToUser(userID string, event models.RealtimeEvent)
	PushToGoal(goalID string, event models.RealtimeEvent)
}

// Mailer envoie l'email d'invitation (best effort).
type Mailer interface {
	SendGoalInvitation(ctx context.Context, to, inviterName, goalTitle string, expiresAt time.Time) error
}

func defaultClock() time.Time {
	return time.Now().UTC()
}

func defaultID() string {
	return uuid.NewString()
}
