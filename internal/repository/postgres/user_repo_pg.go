package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cyberpay-th/cyberpay-backend/internal/domain"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, display_name, avatar_url, password_hash, password_salt, profile_completed, created_at, updated_at`

func (r *UserRepository) CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte, username, displayName *string) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (email, password_hash, password_salt, username, display_name)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, email, passwordHash, passwordSalt, username, displayName)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpsertGoogleUser(ctx context.Context, email string, displayName *string, avatarURL *string) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (email, display_name, avatar_url, profile_completed)
        VALUES ($1, $2, $3, COALESCE(NULLIF($2, ''), NULLIF($3, '')) IS NOT NULL)
        ON CONFLICT (email) DO UPDATE
        SET display_name = COALESCE(EXCLUDED.display_name, user_account.display_name),
            avatar_url = COALESCE(EXCLUDED.avatar_url, user_account.avatar_url),
            profile_completed = user_account.profile_completed OR EXCLUDED.profile_completed,
            updated_at = NOW()
        RETURNING ` + userColumns
	row := r.db.QueryRowxContext(ctx, query, email, displayName, avatarURL)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE email = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE id = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, username, avatarURL *string, profileCompleted bool) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET display_name = COALESCE($2, display_name),
            username = COALESCE($3, username),
            avatar_url = COALESCE($4, avatar_url),
            profile_completed = $5,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns
	row := r.db.QueryRowxContext(ctx, query, id, displayName, username, avatarURL, profileCompleted)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            password_salt = $3,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, passwordHash, passwordSalt)
	return err
}
