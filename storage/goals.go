package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LovationAdmin/goals-api/models"
	"github.com/shopspring/decimal"
)

const goalColumns = `id, owner_id, title, target_amount, saved_amount, currency, target_date, emoji, created_at, updated_at`

type goalRow struct {
	ID           string          `db:"id"`
	OwnerID      string          `db:"owner_id"`
	Title        string          `db:"title"`
	TargetAmount decimal.Decimal `db:"target_amount"`
	SavedAmount  decimal.Decimal `db:"saved_amount"`
	Currency     string          `db:"currency"`
	TargetDate   sql.NullInt64   `db:"target_date"`
	Emoji        string          `db:"emoji"`
	CreatedAt    int64           `db:"created_at"`
	UpdatedAt    int64           `db:"updated_at"`
}

func (r goalRow) model() models.Goal {
	return models.Goal{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		TargetAmount: r.TargetAmount,
		SavedAmount:  r.SavedAmount,
		Currency:     r.Currency,
		TargetDate:   fromNullMillis(r.TargetDate),
		Emoji:        r.Emoji,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

func (s *Store) InsertGoal(ctx context.Context, g models.Goal) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), g.ID, g.OwnerID, g.Title, g.TargetAmount, g.SavedAmount, g.Currency,
		toNullMillis(g.TargetDate), g.Emoji, toMillis(g.CreatedAt), toMillis(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (s *Store) FindGoal(ctx context.Context, id string) (models.Goal, error) {
	var row goalRow
	err := s.db.GetContext(ctx, &row, s.q(`SELECT `+goalColumns+` FROM goals WHERE id = ?`), id)
	if err != nil {
		return models.Goal{}, notFound(err)
	}
	return row.model(), nil
}

// ListGoalsForUser retourne les objectifs possédés ou partagés avec l'utilisateur.
func (s *Store) ListGoalsForUser(ctx context.Context, userID string) ([]models.Goal, error) {
	var rows []goalRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+goalColumns+` FROM goals
		WHERE owner_id = ?
		   OR id IN (SELECT goal_id FROM goal_collaborators WHERE user_id = ?)
		ORDER BY created_at DESC
	`), userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	goals := make([]models.Goal, 0, len(rows))
	for _, row := range rows {
		g := row.model()
		g.IsOwner = g.OwnerID == userID
		goals = append(goals, g)
	}
	return goals, nil
}

// AddToSavedAmount incrémente le montant épargné de manière atomique.
// Sous sqlite NUMERIC est stocké en REAL: la somme est arrondie au centime à
// chaque écriture pour ne pas accumuler d'erreur flottante.
func (s *Store) AddToSavedAmount(ctx context.Context, goalID string, amount decimal.Decimal, now time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE goals SET saved_amount = ROUND(saved_amount + ?, 2), updated_at = ? WHERE id = ?
	`), amount.Round(2), toMillis(now), goalID)
	if err != nil {
		return fmt.Errorf("add to saved amount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add to saved amount: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGoal supprime l'objectif; invitations et collaborateurs suivent par cascade.
func (s *Store) DeleteGoal(ctx context.Context, goalID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM goals WHERE id = ?`), goalID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
