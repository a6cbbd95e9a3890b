package postgres

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
	return &EmailCodeRepository{
		db: db,
	}
}

func (r *EmailCodeRepository) Create(ctx context.Context, code model.EmailCode) error {
	query := `INSERT INTO email_codes (id, email, code_hash, purpose, expires_at, used, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		code.ID, code.Email, code.CodeHash, code.Purpose, code.ExpiresAt, code.Used, code.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create email code: %w", err)
	}

	return nil
}

func (r *EmailCodeRepository) GetLatestValid(ctx context.Context, email, purpose string, now time.Time) (model.EmailCode, error) {
	query := `SELECT id, email, code_hash, purpose, expires_at, used, created_at
			  FROM email_codes
			  WHERE email = $1 AND purpose = $2 AND used = FALSE AND expires_at > $3
			  ORDER BY created_at DESC
			  LIMIT 1`

	var code model.EmailCode
	err := r.db.QueryRowContext(ctx, query, email, purpose, now).Scan(
		&code.ID, &code.Email, &code.CodeHash, &code.Purpose, &code.ExpiresAt, &code.Used, &code.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.EmailCode{}, model.ErrNotFound
		}
		return model.EmailCode{}, fmt.Errorf("failed to get latest email code: %w", err)
	}

	return code, nil
}

// Consume is a compare-and-set on used. Zero affected rows means another
// request consumed the code first.
func (r *EmailCodeRepository) Consume(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE email_codes SET used = TRUE WHERE id = $1 AND used = FALSE`

	res, err := r.db.ExecContext(ctx, query, id)
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
	query := `DELETE FROM email_codes WHERE expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired email codes: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n, nil
}
