package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/adminauth-server/internal/model"
	"github.com/dtroode/adminauth-server/internal/repository"
)

const (
	uniqueViolation = "23505"
	emailConstraint = "users_email_key"
)

const userColumns = `id, username, email, password_hash, roles, real_name, created_at, updated_at`

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db repository.DBTX
}

func NewUserRepository(db repository.DBTX) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return model.User{}, wrapNotFound(err, "failed to get user by id")
	}

	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		return model.User{}, wrapNotFound(err, "failed to get user by username")
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return model.User{}, wrapNotFound(err, "failed to get user by email")
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, repository.NullableString(user.Email), user.PasswordHash,
		repository.EncodeRoles(user.Roles), user.RealName, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == emailConstraint {
				return model.User{}, model.ErrDuplicateEmail
			}
			return model.User{}, model.ErrDuplicateUsername
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

func scanUser(row repository.Scanner) (model.User, error) {
	var (
		user  model.User
		email sql.NullString
		roles string
	)
	err := row.Scan(
		&user.ID, &user.Username, &email, &user.PasswordHash,
		&roles, &user.RealName, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.Email = email.String
	user.Roles = repository.DecodeRoles(roles)

	return user, nil
}

func wrapNotFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
