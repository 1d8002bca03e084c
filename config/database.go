package config

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// InitDB ouvre la base et vérifie la connexion.
// Pour sqlite, dsn est un chemin de fichier; les pragmas nécessaires sont ajoutés ici.
func InitDB(driver, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		// un seul writer: évite les SQLITE_BUSY sous charge concurrente
		db.SetMaxOpenConns(1)
		if err := ensureForeignKeys(db); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func sqliteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func ensureForeignKeys(db *sqlx.DB) error {
	var enabled int
	if err := db.Get(&enabled, "PRAGMA foreign_keys"); err != nil {
		return fmt.Errorf("check foreign keys: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

// Le schéma reste portable postgres/sqlite: ids TEXT (uuid côté Go),
// dates en millisecondes epoch UTC.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email ON profiles(lower(email))`,

	`CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		target_amount NUMERIC(14,2) NOT NULL,
		saved_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'EUR',
		target_date BIGINT,
		emoji TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_goals_owner_id ON goals(owner_id)`,

	`CREATE TABLE IF NOT EXISTS goal_collaborators (
		goal_id TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (goal_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_goal_collaborators_user_id ON goal_collaborators(user_id)`,

	`CREATE TABLE IF NOT EXISTS invitations (
		id TEXT PRIMARY KEY,
		goal_id TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
		inviter_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		invitee_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		status TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'declined', 'expired')),
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		expires_at BIGINT NOT NULL,
		revoked_at BIGINT
	)`,
	// une seule invitation pending par (goal, invitee)
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_one_pending
		ON invitations(goal_id, invitee_id) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_pair ON invitations(goal_id, invitee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_status_expires ON invitations(status, expires_at)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		action_json TEXT NOT NULL DEFAULT '',
		dedupe_key TEXT NOT NULL DEFAULT '',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL,
		read_at BIGINT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_dedupe
		ON notifications(user_id, dedupe_key) WHERE dedupe_key <> ''`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at)`,
}

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
