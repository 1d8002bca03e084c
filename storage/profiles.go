package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/LovationAdmin/goals-api/models"
)

type profileRow struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
}

func (r profileRow) model() models.Profile {
	return models.Profile{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		CreatedAt: fromMillis(r.CreatedAt),
	}
}

// UpsertProfile crée ou met à jour le profil (email, nom).
func (s *Store) UpsertProfile(ctx context.Context, p models.Profile) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO profiles (id, email, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email, name = excluded.name
	`), p.ID, strings.TrimSpace(p.Email), p.Name, toMillis(p.CreatedAt))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *Store) FindProfile(ctx context.Context, id string) (models.Profile, error) {
	var row profileRow
	err := s.db.GetContext(ctx, &row, s.q(`SELECT id, email, name, created_at FROM profiles WHERE id = ?`), id)
	if err != nil {
		return models.Profile{}, notFound(err)
	}
	return row.model(), nil
}

// FindProfileByEmail compare les emails sans tenir compte de la casse.
func (s *Store) FindProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	var row profileRow
	err := s.db.GetContext(ctx, &row, s.q(`
		SELECT id, email, name, created_at FROM profiles WHERE lower(email) = lower(?)
	`), strings.TrimSpace(email))
	if err != nil {
		return models.Profile{}, notFound(err)
	}
	return row.model(), nil
}
