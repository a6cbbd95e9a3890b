package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/adminauth-server/internal/model"
	"github.com/dtroode/adminauth-server/internal/repository"
)

var _ model.CodeStore = (*EmailCodeRepository)(nil)

type EmailCodeRepository struct {
	db repository.DBTX
}

func NewEmailCodeRepository(db repository.DBTX) *EmailCodeRepository {
	return &EmailCodeRepository{db: db}
}

func (r *EmailCodeRepository) Create(ctx context.Context, code model.EmailCode) error {
	query := `INSERT INTO email_codes (id, email, code_hash, purpose, expires_at, used, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		code.ID.String(), code.Email, code.CodeHash, code.Purpose,
		toMillis(code.ExpiresAt), code.Used, toMillis(code.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create email code: %w", err)
	}

	return nil
}

func (r *EmailCodeRepository) GetLatestValid(ctx context.Context, email, purpose string, now time.Time) (model.EmailCode, error) {
	query := `SELECT id, email, code_hash, purpose, expires_at, used, created_at
			  FROM email_codes
			  WHERE email = ? AND purpose = ? AND used = 0 AND expires_at > ?
			  ORDER BY created_at DESC, rowid DESC
			  LIMIT 1`

	var (
		code                 model.EmailCode
		id                   string
		expiresAt, createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, email, purpose, toMillis(now)).Scan(
		&id, &code.Email, &code.CodeHash, &code.Purpose, &expiresAt, &code.Used, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.EmailCode{}, model.ErrNotFound
		}
		return model.EmailCode{}, fmt.Errorf("failed to get latest email code: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return model.EmailCode{}, fmt.Errorf("malformed email code id %q: %w", id, err)
	}
	code.ID = parsed
	code.ExpiresAt = fromMillis(expiresAt)
	code.CreatedAt = fromMillis(createdAt)

	return code, nil
}

func (r *EmailCodeRepository) Consume(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE email_codes SET used = 1 WHERE id = ? AND used = 0`, id.String())
	if err != nil {
		return fmt.Errorf("failed to consume email code: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrCodeConsumed
	}

	return nil
}

func (r *EmailCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM email_codes WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired email codes: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n, nil
}
