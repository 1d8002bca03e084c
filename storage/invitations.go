package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LovationAdmin/goals-api/models"
)

const invitationColumns = `id, goal_id, inviter_id, invitee_id, status, created_at, updated_at, expires_at`

type invitationRow struct {
	ID        string `db:"id"`
	GoalID    string `db:"goal_id"`
	InviterID string `db:"inviter_id"`
	InviteeID string `db:"invitee_id"`
	Status    string `db:"status"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
	ExpiresAt int64  `db:"expires_at"`
}

func (r invitationRow) model() models.Invitation {
	return models.Invitation{
		ID:        r.ID,
		GoalID:    r.GoalID,
		InviterID: r.InviterID,
		InviteeID: r.InviteeID,
		Status:    models.InvitationStatus(r.Status),
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
		ExpiresAt: fromMillis(r.ExpiresAt),
	}
}

func invitationModels(rows []invitationRow) []models.Invitation {
	invitations := make([]models.Invitation, 0, len(rows))
	for _, row := range rows {
		invitations = append(invitations, row.model())
	}
	return invitations
}

func (s *Store) FindInvitation(ctx context.Context, id string) (models.Invitation, error) {
	var row invitationRow
	err := s.db.GetContext(ctx, &row, s.q(`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`), id)
	if err != nil {
		return models.Invitation{}, notFound(err)
	}
	return row.model(), nil
}

func (s *Store) FindPendingInvitation(ctx context.Context, goalID, inviteeID string) (models.Invitation, error) {
	var row invitationRow
	err := s.db.GetContext(ctx, &row, s.q(`
		SELECT `+invitationColumns+` FROM invitations
		WHERE goal_id = ? AND invitee_id = ? AND status = 'pending'
	`), goalID, inviteeID)
	if err != nil {
		return models.Invitation{}, notFound(err)
	}
	return row.model(), nil
}

// FindReusableInvitation retourne la dernière invitation declined/expired de la paire.
func (s *Store) FindReusableInvitation(ctx context.Context, goalID, inviteeID string) (models.Invitation, error) {
	var row invitationRow
	err := s.db.GetContext(ctx, &row, s.q(`
		SELECT `+invitationColumns+` FROM invitations
		WHERE goal_id = ? AND invitee_id = ? AND status IN ('declined', 'expired')
		ORDER BY updated_at DESC
		LIMIT 1
	`), goalID, inviteeID)
	if err != nil {
		return models.Invitation{}, notFound(err)
	}
	return row.model(), nil
}

// InsertInvitation retourne ErrConflict si une invitation pending existe déjà pour la paire.
func (s *Store) InsertInvitation(ctx context.Context, inv models.Invitation) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), inv.ID, inv.GoalID, inv.InviterID, inv.InviteeID, string(inv.Status),
		toMillis(inv.CreatedAt), toMillis(inv.UpdatedAt), toMillis(inv.ExpiresAt))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// UpdateInvitationStatus passe l'invitation de from à to seulement si son
// statut courant est encore from. Retourne false si aucune ligne n'a changé.
// expiresAt, si fourni, remplace la date d'expiration.
func (s *Store) UpdateInvitationStatus(ctx context.Context, id string, from, to models.InvitationStatus, expiresAt *time.Time, now time.Time) (bool, error) {
	query := `UPDATE invitations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	args := []any{string(to), toMillis(now), id, string(from)}
	if expiresAt != nil {
		query = `UPDATE invitations SET status = ?, updated_at = ?, expires_at = ? WHERE id = ? AND status = ?`
		args = []any{string(to), toMillis(now), toMillis(*expiresAt), id, string(from)}
	}

	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if isUniqueViolation(err) {
		return false, ErrConflict
	}
	if err != nil {
		return false, fmt.Errorf("update invitation status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update invitation status: %w", err)
	}
	return n == 1, nil
}

func (s *Store) ListExpiredPendingInvitations(ctx context.Context, now time.Time) ([]models.Invitation, error) {
	var rows []invitationRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+invitationColumns+` FROM invitations
		WHERE status = 'pending' AND expires_at < ?
		ORDER BY expires_at ASC
	`), toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("list expired invitations: %w", err)
	}
	return invitationModels(rows), nil
}

// ExpireInvitations passe en expired les invitations données qui sont encore
// pending et échues, et retourne les ids effectivement modifiés.
func (s *Store) ExpireInvitations(ctx context.Context, ids []string, now time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	nowMillis := toMillis(now)
	query, args, err := sqlx.In(`
		UPDATE invitations SET status = 'expired', updated_at = ?
		WHERE id IN (?) AND status = 'pending' AND expires_at < ?
		RETURNING id
	`, nowMillis, ids, nowMillis)
	if err != nil {
		return nil, fmt.Errorf("expire invitations: %w", err)
	}

	var expired []string
	if err := s.db.SelectContext(ctx, &expired, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("expire invitations: %w", err)
	}
	return expired, nil
}

type invitationViewRow struct {
	invitationRow
	GoalTitle    string `db:"goal_title"`
	InviterName  string `db:"inviter_name"`
	InviteeEmail string `db:"invitee_email"`
}

func (r invitationViewRow) model() models.InvitationView {
	return models.InvitationView{
		Invitation:   r.invitationRow.model(),
		GoalTitle:    r.GoalTitle,
		InviterName:  r.InviterName,
		InviteeEmail: r.InviteeEmail,
	}
}

const invitationViewSelect = `
	SELECT i.id, i.goal_id, i.inviter_id, i.invitee_id, i.status, i.created_at, i.updated_at, i.expires_at,
	       g.title AS goal_title, inviter.name AS inviter_name, invitee.email AS invitee_email
	FROM invitations i
	JOIN goals g ON g.id = i.goal_id
	JOIN profiles inviter ON inviter.id = i.inviter_id
	JOIN profiles invitee ON invitee.id = i.invitee_id`

func (s *Store) ListGoalInvitations(ctx context.Context, goalID string) ([]models.InvitationView, error) {
	var rows []invitationViewRow
	err := s.db.SelectContext(ctx, &rows, s.q(invitationViewSelect+`
		WHERE i.goal_id = ?
		ORDER BY i.updated_at DESC
	`), goalID)
	if err != nil {
		return nil, fmt.Errorf("list goal invitations: %w", err)
	}
	return invitationViews(rows), nil
}

// ListPendingInvitationsForUser ignore les invitations échues pas encore balayées.
func (s *Store) ListPendingInvitationsForUser(ctx context.Context, userID string, now time.Time) ([]models.InvitationView, error) {
	var rows []invitationViewRow
	err := s.db.SelectContext(ctx, &rows, s.q(invitationViewSelect+`
		WHERE i.invitee_id = ? AND i.status = 'pending' AND i.expires_at >= ?
		ORDER BY i.created_at DESC
	`), userID, toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	return invitationViews(rows), nil
}

func invitationViews(rows []invitationViewRow) []models.InvitationView {
	views := make([]models.InvitationView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.model())
	}
	return views
}
