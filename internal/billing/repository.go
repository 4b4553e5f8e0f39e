package billing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository persists checkout session to user mappings.
type SessionRepository interface {
	Create(ctx context.Context, session Session) error
	// Complete transitions the session from created to completed and returns the
	// owning user id. When the session is already completed it returns the
	// user id with already=true instead of failing, so duplicate webhook
	// deliveries stay harmless.
	Complete(ctx context.Context, sessionID string) (userID int64, already bool, err error)
}

// PostgresSessionRepository implements SessionRepository using PostgreSQL.
type PostgresSessionRepository struct {
	db *pgxpool.Pool
}

// NewPostgresSessionRepository builds a Postgres-backed session repository.
func NewPostgresSessionRepository(db *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// Create records the session_id to user_id mapping at checkout creation time.
func (r *PostgresSessionRepository) Create(ctx context.Context, session Session) error {
	_, err := r.db.Exec(ctx, `INSERT INTO checkout_sessions (session_id, user_id, status, created_at)
        VALUES ($1, $2, $3, $4)`, session.ID, session.UserID, StatusCreated, session.CreatedAt.UTC())
	return err
}

// Complete flips the status with a single conditional UPDATE, which makes the
// transition atomic under concurrent duplicate deliveries.
func (r *PostgresSessionRepository) Complete(ctx context.Context, sessionID string) (int64, bool, error) {
	var userID int64
	err := r.db.QueryRow(ctx, `UPDATE checkout_sessions
        SET status = $1, completed_at = $2
        WHERE session_id = $3 AND status = $4
        RETURNING user_id`, StatusCompleted, time.Now().UTC(), sessionID, StatusCreated).Scan(&userID)
	if err == nil {
		return userID, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	// Either the session never existed or another delivery won the race.
	var status string
	err = r.db.QueryRow(ctx, `SELECT user_id, status FROM checkout_sessions WHERE session_id = $1`,
		sessionID).Scan(&userID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, ErrUnknownSession
		}
		return 0, false, err
	}
	return userID, true, nil
}
