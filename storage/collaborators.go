package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/LovationAdmin/goals-api/models"
)

func (s *Store) CollaboratorExists(ctx context.Context, goalID, userID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, s.q(`
		SELECT EXISTS(SELECT 1 FROM goal_collaborators WHERE goal_id = ? AND user_id = ?)
	`), goalID, userID)
	if err != nil {
		return false, fmt.Errorf("collaborator exists: %w", err)
	}
	return exists, nil
}

// InsertCollaborator est idempotent: une ligne existante n'est pas modifiée.
func (s *Store) InsertCollaborator(ctx context.Context, goalID, userID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO goal_collaborators (goal_id, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (goal_id, user_id) DO NOTHING
	`), goalID, userID, toMillis(now))
	if err != nil {
		return fmt.Errorf("insert collaborator: %w", err)
	}
	return nil
}

// DeleteCollaborator retire la ligne et marque révoquées les invitations
// acceptées de la paire, pour que la passe de réparation ne la recrée pas.
func (s *Store) DeleteCollaborator(ctx context.Context, goalID, userID string, now time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete collaborator: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(`
		DELETE FROM goal_collaborators WHERE goal_id = ? AND user_id = ?
	`), goalID, userID)
	if err != nil {
		return fmt.Errorf("delete collaborator: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete collaborator: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, s.q(`
		UPDATE invitations SET revoked_at = ?
		WHERE goal_id = ? AND invitee_id = ? AND status = 'accepted' AND revoked_at IS NULL
	`), toMillis(now), goalID, userID)
	if err != nil {
		return fmt.Errorf("revoke accepted invitations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete collaborator: %w", err)
	}
	return nil
}

type collaboratorRow struct {
	GoalID    string `db:"goal_id"`
	UserID    string `db:"user_id"`
	UserName  string `db:"name"`
	UserEmail string `db:"email"`
	CreatedAt int64  `db:"created_at"`
}

func (s *Store) ListCollaborators(ctx context.Context, goalID string) ([]models.Collaborator, error) {
	var rows []collaboratorRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT c.goal_id, c.user_id, p.name, p.email, c.created_at
		FROM goal_collaborators c
		JOIN profiles p ON p.id = c.user_id
		WHERE c.goal_id = ?
		ORDER BY c.created_at ASC
	`), goalID)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	collaborators := make([]models.Collaborator, 0, len(rows))
	for _, row := range rows {
		collaborators = append(collaborators, models.Collaborator{
			GoalID:    row.GoalID,
			UserID:    row.UserID,
			UserName:  row.UserName,
			UserEmail: row.UserEmail,
			CreatedAt: fromMillis(row.CreatedAt),
		})
	}
	return collaborators, nil
}

// ListAcceptedWithoutCollaborator retourne les invitations acceptées depuis
// since dont la ligne collaborateur manque. Les invitations révoquées par un
// retrait du propriétaire sont exclues.
func (s *Store) ListAcceptedWithoutCollaborator(ctx context.Context, since time.Time) ([]models.Invitation, error) {
	var rows []invitationRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+invitationColumns+` FROM invitations i
		WHERE i.status = 'accepted'
		  AND i.revoked_at IS NULL
		  AND i.updated_at >= ?
		  AND NOT EXISTS (
			SELECT 1 FROM goal_collaborators c
			WHERE c.goal_id = i.goal_id AND c.user_id = i.invitee_id
		  )
		ORDER BY i.updated_at ASC
	`), toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("list accepted without collaborator: %w", err)
	}
	return invitationModels(rows), nil
}
