package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dtroode/adminauth-server/internal/model"
	"github.com/dtroode/adminauth-server/internal/repository"
)

const userColumns = `id, username, email, password_hash, roles, real_name, created_at, updated_at`

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db repository.DBTX
}

func NewUserRepository(db repository.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String(), "id")
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username, "username")
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email, "email")
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any, by string) (model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by %s: %w", by, err)
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID.String(), user.Username, repository.NullableString(user.Email), user.PasswordHash,
		repository.EncodeRoles(user.Roles), user.RealName, toMillis(user.CreatedAt), toMillis(user.UpdatedAt),
	)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && isUniqueViolation(sqliteErr) {
			if strings.Contains(sqliteErr.Error(), "users.email") {
				return model.User{}, model.ErrDuplicateEmail
			}
			return model.User{}, model.ErrDuplicateUsername
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return r.GetByID(ctx, user.ID)
}

func scanUser(row repository.Scanner) (model.User, error) {
	var (
		user                 model.User
		id                   string
		email                sql.NullString
		roles                string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &user.Username, &email, &user.PasswordHash, &roles, &user.RealName, &createdAt, &updatedAt); err != nil {
		return model.User{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return model.User{}, fmt.Errorf("malformed user id %q: %w", id, err)
	}
	user.ID = parsed
	user.Email = email.String
	user.Roles = repository.DecodeRoles(roles)
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)

	return user, nil
}

func isUniqueViolation(err *sqlite.Error) bool {
	if err.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE")
}
