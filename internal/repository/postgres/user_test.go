package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/adminauth-server/internal/model"
)

var userRowColumns = []string{"id", "username", "email", "password_hash", "roles", "real_name", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*username,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(id.String(), "alice", nil, "$argon2id$hash", "user,admin", "Alice", now, now))

	got, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.Email)
	assert.Equal(t, []string{"user", "admin"}, got.Roles)
	assert.Equal(t, "Alice", got.RealName)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("u@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(uuid.NewString(), "u@example.com", "u@example.com", "h", "user", "", now, now))

	got, err := repo.GetByEmail(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", got.Email)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_GetByID_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	mock.ExpectQuery(`SELECT`).
		WithArgs(id).
		WillReturnError(errors.New("db down"))

	_, err := repo.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to get user by id")
}

func TestUserRepository_Create(t *testing.T) {
	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: "h",
		Roles:        []string{model.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "success"},
		{
			name:    "duplicate username",
			dbErr:   &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"},
			wantErr: model.ErrDuplicateUsername,
		},
		{
			name:    "duplicate email",
			dbErr:   &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"},
			wantErr: model.ErrDuplicateEmail,
		},
		{
			name:  "other error",
			dbErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewUserRepository(db)

			exp := mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,.*\)\s*VALUES\s*\(\$1,.*\$8\)\s*RETURNING\s+id,`).
				WithArgs(user.ID, "alice", nil, "h", "user", "", now, now)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnRows(sqlmock.NewRows(userRowColumns).
					AddRow(user.ID.String(), "alice", nil, "h", "user", "", now, now))
			}

			got, err := repo.Create(context.Background(), user)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.dbErr != nil:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to create user")
			default:
				require.NoError(t, err)
				assert.Equal(t, user.ID, got.ID)
				assert.Equal(t, []string{model.RoleUser}, got.Roles)
			}
		})
	}
}
