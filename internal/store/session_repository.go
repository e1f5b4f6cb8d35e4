/**
 * @description
 * This file implements the persistence layer for the dashboard session. The
 * store keeps at most one credential, so the table holds a single row that
 * is replaced on every login and deleted on logout.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 */
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSessionRepository is the PostgreSQL implementation of the session
// repository consumed by the session store.
type PostgresSessionRepository struct {
	db *pgxpool.Pool
}

// NewPostgresSessionRepository creates a new instance of PostgresSessionRepository.
func NewPostgresSessionRepository(db *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// Save replaces the persisted credential.
func (r *PostgresSessionRepository) Save(ctx context.Context, token string) error {
	query := `
		INSERT INTO dashboard_session (id, access_token, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET access_token = $1, updated_at = $2
	`
	if _, err := r.db.Exec(ctx, query, token, time.Now()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the persisted credential, or an empty string when none is
// stored.
func (r *PostgresSessionRepository) Load(ctx context.Context) (string, error) {
	query := `SELECT access_token FROM dashboard_session WHERE id = 1`

	var token string
	err := r.db.QueryRow(ctx, query).Scan(&token)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	return token, nil
}

// Delete removes the persisted credential.
func (r *PostgresSessionRepository) Delete(ctx context.Context) error {
	query := `DELETE FROM dashboard_session WHERE id = 1`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
