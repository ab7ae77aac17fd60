package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ayush/feed-api/internal/models"
)

const pgUniqueViolation = "23505"

// PgxQuerier is the part of *pgxpool.Pool the store uses.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore handles accounts and owned-post lists in PostgreSQL.
type PostgresStore struct {
	pool PgxQuerier
}

func NewPostgresStore(pool PgxQuerier) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and user_posts tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			name       VARCHAR(255) NOT NULL,
			status     TEXT         NOT NULL,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS user_posts (
			user_id  UUID        NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			post_id  VARCHAR(64) NOT NULL,
			added_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (user_id, post_id)
		)
	`)
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, password, name, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id::text, created_at`,
		u.Email, u.Password, u.Name, u.Status,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.Posts = []string{}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id::text, email, password, name, status, created_at FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.getUser(ctx, `SELECT id::text, email, password, name, status, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.Status, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT post_id FROM user_posts WHERE user_id = $1 ORDER BY added_at`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("get user posts: %w", err)
	}
	u.Posts, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan user posts: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) AddPost(ctx context.Context, userID, postID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrNotFound
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_posts (user_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, postID)
	if err != nil {
		return fmt.Errorf("add user post: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemovePost(ctx context.Context, userID, postID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrNotFound
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM user_posts WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return fmt.Errorf("remove user post: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, userID, status string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `UPDATE users SET status = $2 WHERE id = $1`, userID, status)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
