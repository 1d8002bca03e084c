package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/storage"
	"github.com/LovationAdmin/goals-api/utils"
)

const (
	defaultInboxLimit = 50
	maxInboxLimit     = 100
)

// NotificationService persiste les notifications in-app et les pousse en temps réel.
type NotificationService struct {
	store    NotificationStore
	realtime Broadcaster
	clock    func() time.Time
	newID    func() string
}

func NewNotificationService(store NotificationStore, realtime Broadcaster) *NotificationService {
	return &NotificationService{
		store:    store,
		realtime: realtime,
		clock:    defaultClock,
		newID:    defaultID,
	}
}

// Emit enregistre la notification; une réémission avec la même clé de
// déduplication retourne la notification existante sans nouveau push.
func (s *NotificationService) Emit(ctx context.Context, in models.NotificationInput) (models.Notification, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return models.Notification{}, invalidInput("notification recipient is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Notification{}, invalidInput("notification title is required")
	}
	if in.Type == "" {
		in.Type = models.NotificationInfo
	}

	n := models.Notification{
		ID:        s.newID(),
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Action:    in.Action,
		DedupeKey: in.DedupeKey,
		CreatedAt: s.clock(),
	}

	saved, created, err := s.store.InsertNotification(ctx, n)
	if err != nil {
		return models.Notification{}, wrapError(CodeNotificationDeliveryFailure, "persist notification", err)
	}
	if !created {
		utils.SafeDebug("[Notification] %s already emitted to %s", in.DedupeKey, utils.MaskID(in.UserID))
		return saved, nil
	}

	utils.LogNotification("Notification created", saved.ID, saved.UserID)
	s.push(saved)
	return saved, nil
}

func (s *NotificationService) push(n models.Notification) {
	if s.realtime == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		utils.SafeWarn("⚠️ Failed to encode notification %s: %v", n.ID, err)
		return
	}
	s.realtime.PushToUser(n.UserID, models.RealtimeEvent{Type: "notification", Payload: payload})
}

// ListInbox retourne les notifications de l'utilisateur, les plus récentes d'abord.
func (s *NotificationService) ListInbox(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	if limit > maxInboxLimit {
		limit = maxInboxLimit
	}
	notifications, err := s.store.ListNotifications(ctx, userID, limit)
	if err != nil {
		return nil, persistenceFailure("list notifications", err)
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, persistenceFailure("count unread notifications", err)
	}
	return count, nil
}

// MarkRead marque la notification lue; seul le destinataire peut le faire.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	err := s.store.MarkNotificationRead(ctx, notificationID, userID, s.clock())
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return persistenceFailure("mark notification read", err)
	}
	return nil
}
