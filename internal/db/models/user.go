package models

import (
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt hash prefixes of accounts imported from systems that predate argon2id.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"} //nolint:gochecknoglobals

// User represents an account that can log in and hold roles.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Username is unique among non-deleted users.
	Username string `gorm:"size:100;not null;uniqueIndex:uk_users_username_live,priority:1" json:"username"`
	// Password is the Argon2id hash, or a bcrypt hash not yet upgraded.
	// It never leaves the service.
	Password string `gorm:"size:255;not null" json:"-"`
	// Email is the user's email address.
	Email string `gorm:"size:255" json:"email"`
	// FullName is the display name.
	FullName string `gorm:"size:100" json:"fullName"`
	// Enabled users may log in.
	Enabled bool `gorm:"not null" json:"enabled"`
	// CreatedAt is managed by gorm.
	CreatedAt time.Time `json:"createTime"`
	// UpdatedAt is managed by gorm.
	UpdatedAt time.Time `json:"updateTime"`
	// DeletedAt is the soft delete marker, nil while the user is live.
	DeletedAt *time.Time `gorm:"index" json:"-"`
	// DeletedMark is 0 while live and the row id once deleted.
	DeletedMark uint64 `gorm:"not null;default:0;uniqueIndex:uk_users_username_live,priority:2" json:"-"`

	// Roles is filled by services, it is not a column.
	Roles []Role `gorm:"-" json:"roles,omitempty"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HashPassword hashes a plaintext password using Argon2id with default parameters.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams) //nolint:wrapcheck
}

// VerifyPassword compares a plaintext password against the stored hash in constant time.
func (u *User) VerifyPassword(password string) bool {
	if u.NeedsRehash() {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", u.ID).Msg("failed to verify password")
		return false
	}

	return match
}

// NeedsRehash reports whether the stored hash is a legacy bcrypt hash.
func (u *User) NeedsRehash() bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(u.Password, prefix) {
			return true
		}
	}

	return false
}
