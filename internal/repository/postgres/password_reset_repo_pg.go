package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cyberpay-th/cyberpay-backend/internal/domain"
)

type PasswordResetRepository struct {
	db *sqlx.DB
}

func NewPasswordResetRepo(db *sqlx.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

const resetColumns = `id, user_id, otp_hash, otp_salt, expires_at, consumed, token_hash, token_expires_at, token_used, created_at`

func (r *PasswordResetRepository) Create(ctx context.Context, userID uuid.UUID, otpHash, otpSalt []byte, expiresAt time.Time) (*domain.PasswordReset, error) {
	const query = `
        INSERT INTO password_reset (user_id, otp_hash, otp_salt, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + resetColumns
	row := r.db.QueryRowxContext(ctx, query, userID, otpHash, otpSalt, expiresAt)
	var reset domain.PasswordReset
	if err := row.StructScan(&reset); err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *PasswordResetRepository) FindLatestOpenByUser(ctx context.Context, userID uuid.UUID) (*domain.PasswordReset, error) {
	const query = `
        SELECT ` + resetColumns + `
        FROM password_reset
        WHERE user_id = $1 AND consumed = FALSE
        ORDER BY created_at DESC
        LIMIT 1
    `
	var reset domain.PasswordReset
	if err := r.db.GetContext(ctx, &reset, query, userID); err != nil {
		return nil, err
	}
	return &reset, nil
}

// ClaimOTP retires the OTP and attaches the reset-token hash in one
// conditional update. The consumed guard makes concurrent verifications race
// for a single winner; losers see sql.ErrNoRows.
func (r *PasswordResetRepository) ClaimOTP(ctx context.Context, id int64, tokenHash string, tokenExpiresAt time.Time) error {
	const query = `
        UPDATE password_reset
        SET consumed = TRUE,
            token_hash = $2,
            token_expires_at = $3
        WHERE id = $1 AND consumed = FALSE AND expires_at > NOW()
    `
	res, err := r.db.ExecContext(ctx, query, id, tokenHash, tokenExpiresAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PasswordResetRepository) FindActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.PasswordReset, error) {
	const query = `
        SELECT ` + resetColumns + `
        FROM password_reset
        WHERE token_hash = $1 AND token_used = FALSE AND token_expires_at > $2
        LIMIT 1
    `
	var reset domain.PasswordReset
	if err := r.db.GetContext(ctx, &reset, query, tokenHash, now); err != nil {
		return nil, err
	}
	return &reset, nil
}

// ClaimToken marks the reset token spent; same single-winner contract as
// ClaimOTP.
func (r *PasswordResetRepository) ClaimToken(ctx context.Context, id int64) error {
	const query = `
        UPDATE password_reset
        SET token_used = TRUE
        WHERE id = $1 AND token_used = FALSE AND token_expires_at > NOW()
    `
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PasswordResetRepository) MarkConsumed(ctx context.Context, id int64) error {
	const query = `
        UPDATE password_reset
        SET consumed = TRUE
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ConsumeByUser retires every live secret the user still has: open OTPs and
// any reset token that was issued but not yet spent. A flow restart or a
// password change must leave nothing redeemable behind.
func (r *PasswordResetRepository) ConsumeByUser(ctx context.Context, userID uuid.UUID) error {
	const query = `
        UPDATE password_reset
        SET consumed = TRUE,
            token_used = TRUE
        WHERE user_id = $1
          AND (consumed = FALSE OR (token_hash IS NOT NULL AND token_used = FALSE))
    `
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
