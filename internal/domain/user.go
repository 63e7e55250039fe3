package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	Username         *string   `db:"username" json:"username,omitempty"`
	DisplayName      *string   `db:"display_name" json:"display_name,omitempty"`
	AvatarURL        *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	PasswordHash     []byte    `db:"password_hash" json:"-"`
	PasswordSalt     []byte    `db:"password_salt" json:"-"`
	ProfileCompleted bool      `db:"profile_completed" json:"profile_completed"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the account carries an email/password
// credential. Google-only accounts have neither hash nor salt.
func (u *User) HasPassword() bool {
	return len(u.PasswordHash) > 0 && len(u.PasswordSalt) > 0
}
