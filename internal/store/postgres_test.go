package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/feed-api/internal/models"
)

const userUUID = "6f1c2f4e-8a51-4c37-9d7b-2d7f0f6a9b11"

func newPostgresMock(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return NewPostgresStore(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newPostgresMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.Migrate(context.Background()))
}

func TestPostgresStore_CreateUser(t *testing.T) {
	s, mock := newPostgresMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("a@b.com", "hash", "A", models.DefaultStatus).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(userUUID, created))

	u := &models.User{Email: "a@b.com", Password: "hash", Name: "A", Status: models.DefaultStatus}
	require.NoError(t, s.CreateUser(context.Background(), u))

	assert.Equal(t, userUUID, u.ID)
	assert.Equal(t, created, u.CreatedAt)
	assert.NotNil(t, u.Posts)
	assert.Empty(t, u.Posts)
}

func TestPostgresStore_CreateUserErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantDup bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, true},
		{"other constraint", &pgconn.PgError{Code: "23502"}, false},
		{"connection lost", errors.New("conn closed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newPostgresMock(t)
			mock.ExpectQuery("INSERT INTO users").
				WithArgs("a@b.com", "hash", "A", models.DefaultStatus).
				WillReturnError(tt.err)

			err := s.CreateUser(context.Background(),
				&models.User{Email: "a@b.com", Password: "hash", Name: "A", Status: models.DefaultStatus})

			require.Error(t, err)
			assert.Equal(t, tt.wantDup, errors.Is(err, ErrDuplicate))
		})
	}
}

func TestPostgresStore_GetUserByEmail(t *testing.T) {
	s, mock := newPostgresMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("a@b.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password", "name", "status", "created_at"}).
			AddRow(userUUID, "a@b.com", "hash", "A", "busy", created))
	mock.ExpectQuery("SELECT post_id FROM user_posts").
		WithArgs(userUUID).
		WillReturnRows(pgxmock.NewRows([]string{"post_id"}).AddRow("p1").AddRow("p2"))

	u, err := s.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, userUUID, u.ID)
	assert.Equal(t, "hash", u.Password)
	assert.Equal(t, "busy", u.Status)
	assert.Equal(t, []string{"p1", "p2"}, u.Posts)
}

func TestPostgresStore_GetUserMissing(t *testing.T) {
	s, mock := newPostgresMock(t)
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(userUUID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password", "name", "status", "created_at"}))

	_, err := s.GetUserByID(context.Background(), userUUID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_MalformedIDsNeverQuery(t *testing.T) {
	s, _ := newPostgresMock(t)
	ctx := context.Background()

	_, err := s.GetUserByID(ctx, "507f1f77bcf86cd799439011")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.AddPost(ctx, "nope", "p1"), ErrNotFound)
	assert.ErrorIs(t, s.RemovePost(ctx, "nope", "p1"), ErrNotFound)
	assert.ErrorIs(t, s.SetStatus(ctx, "nope", "busy"), ErrNotFound)
}

func TestPostgresStore_OwnedPosts(t *testing.T) {
	s, mock := newPostgresMock(t)
	ctx := context.Background()
	mock.ExpectExec("INSERT INTO user_posts").
		WithArgs(userUUID, "p1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM user_posts").
		WithArgs(userUUID, "p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM user_posts").
		WithArgs(userUUID, "p2").
		WillReturnError(errors.New("conn closed"))

	assert.NoError(t, s.AddPost(ctx, userUUID, "p1"))
	assert.NoError(t, s.RemovePost(ctx, userUUID, "p1"))
	assert.Error(t, s.RemovePost(ctx, userUUID, "p2"))
}

func TestPostgresStore_SetStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"updated", 1, nil},
		{"no such user", 0, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newPostgresMock(t)
			mock.ExpectExec("UPDATE users SET status").
				WithArgs(userUUID, "busy").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			err := s.SetStatus(context.Background(), userUUID, "busy")
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
