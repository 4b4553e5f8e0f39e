package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, name, email, passwordHash string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetSubscribed(ctx context.Context, id int64, subscribed bool) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. Duplicate emails surface as ErrDuplicateEmail via
// the unique index, which keeps concurrent signups with the same address from
// ever producing two rows.
func (r *PostgresRepository) Create(ctx context.Context, name, email, passwordHash string) (User, error) {
	user := User{Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}

	row := r.db.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, subscribed, created_at)
        VALUES ($1, $2, $3, FALSE, $4) RETURNING id`, name, email, passwordHash, user.CreatedAt)
	if err := row.Scan(&user.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}

	return user, nil
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, password_hash, subscribed, created_at
        FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, password_hash, subscribed, created_at
        FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UpdatePassword replaces the stored credential digest.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSubscribed stores the subscription flag. Writing the same value twice is
// a no-op, which the webhook handler relies on for replayed events.
func (r *PostgresRepository) SetSubscribed(ctx context.Context, id int64, subscribed bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET subscribed = $1 WHERE id = $2`, subscribed, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user      User
		createdAt time.Time
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Subscribed, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
