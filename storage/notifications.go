package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LovationAdmin/goals-api/models"
)

const notificationColumns = `id, user_id, type, title, message, action_json, dedupe_key, is_read, created_at, read_at`

type notificationRow struct {
	ID         string        `db:"id"`
	UserID     string        `db:"user_id"`
	Type       string        `db:"type"`
	Title      string        `db:"title"`
	Message    string        `db:"message"`
	ActionJSON string        `db:"action_json"`
	DedupeKey  string        `db:"dedupe_key"`
	IsRead     bool          `db:"is_read"`
	CreatedAt  int64         `db:"created_at"`
	ReadAt     sql.NullInt64 `db:"read_at"`
}

func (r notificationRow) model() (models.Notification, error) {
	n := models.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      models.NotificationType(r.Type),
		Title:     r.Title,
		Message:   r.Message,
		DedupeKey: r.DedupeKey,
		Read:      r.IsRead,
		CreatedAt: fromMillis(r.CreatedAt),
		ReadAt:    fromNullMillis(r.ReadAt),
	}
	if r.ActionJSON != "" {
		var action models.NotificationAction
		if err := json.Unmarshal([]byte(r.ActionJSON), &action); err != nil {
			return models.Notification{}, fmt.Errorf("decode notification action %s: %w", r.ID, err)
		}
		n.Action = &action
	}
	return n, nil
}

// InsertNotification enregistre la notification. Si une notification avec la
// même clé de déduplication existe déjà pour ce destinataire, elle est
// retournée avec created=false.
func (s *Store) InsertNotification(ctx context.Context, n models.Notification) (models.Notification, bool, error) {
	actionJSON := ""
	if n.Action != nil {
		raw, err := json.Marshal(n.Action)
		if err != nil {
			return models.Notification{}, false, fmt.Errorf("encode notification action: %w", err)
		}
		actionJSON = string(raw)
	}

	res, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`), n.ID, n.UserID, string(n.Type), n.Title, n.Message, actionJSON, n.DedupeKey,
		n.Read, toMillis(n.CreatedAt), toNullMillis(n.ReadAt))
	if err != nil {
		return models.Notification{}, false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Notification{}, false, fmt.Errorf("insert notification: %w", err)
	}
	if affected == 1 {
		return n, true, nil
	}
	if n.DedupeKey == "" {
		return models.Notification{}, false, ErrConflict
	}

	var row notificationRow
	err = s.db.GetContext(ctx, &row, s.q(`
		SELECT `+notificationColumns+` FROM notifications WHERE user_id = ? AND dedupe_key = ?
	`), n.UserID, n.DedupeKey)
	if err != nil {
		return models.Notification{}, false, fmt.Errorf("load deduplicated notification: %w", notFound(err))
	}
	existing, err := row.model()
	if err != nil {
		return models.Notification{}, false, err
	}
	return existing, false, nil
}

// ListNotifications retourne les notifications les plus récentes d'abord.
func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var rows []notificationRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	notifications := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.model()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.q(`
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?
	`), userID, false)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead est idempotent; read_at garde la première lecture.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE notifications SET is_read = ?, read_at = COALESCE(read_at, ?)
		WHERE id = ? AND user_id = ?
	`), true, toMillis(now), id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
