package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/db/models"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token       string              `json:"token"`
	User        *models.User        `json:"user"`
	Permissions []models.Permission `json:"permissions"`
}

// CurrentUser is the payload of the current user endpoint.
type CurrentUser struct {
	User        *Principal          `json:"user"`
	Permissions []models.Permission `json:"permissions"`
}

// Registration is the input of self registration.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Email    string `json:"email"    validate:"omitempty,email"`
	FullName string `json:"fullName" validate:"max=100"`
}

// Service provides authentication functionality.
type Service struct {
	db       *gorm.DB
	codec    *TokenCodec
	resolver *Resolver
}

// NewService creates a new auth service.
func NewService(db *gorm.DB, codec *TokenCodec) *Service {
	return &Service{
		db:       db,
		codec:    codec,
		resolver: NewResolver(db),
	}
}

// Resolver returns the principal resolver used by the service.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Codec returns the token codec used by the service.
func (s *Service) Codec() *TokenCodec {
	return s.codec
}

// Login verifies the credentials and issues a token. Unknown users, wrong
// passwords and disabled accounts all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string, now time.Time) (*LoginResult, error) {
	var user models.User

	err := s.db.WithContext(ctx).
		Scopes(models.NotDeleted).
		Where("username = ?", username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// hash anyway so response time does not reveal unknown users
		_, _ = models.HashPassword(password)

		log.Info().Str("username", username).Msg("login failed: unknown user")

		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.VerifyPassword(password) {
		log.Info().Str("username", username).Msg("login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	if !user.Enabled {
		log.Info().Str("username", username).Msg("login failed: account disabled")
		return nil, ErrInvalidCredentials
	}

	if user.NeedsRehash() {
		s.upgradeHash(ctx, &user, password)
	}

	principal, err := s.resolver.resolve(ctx, &user)
	if err != nil {
		return nil, err
	}

	perms, err := s.resolver.UserPermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(user.ID, user.Username, principal.Authorities(), now)
	if err != nil {
		return nil, err
	}

	user.Roles, err = s.resolver.UserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("username", username).Uint64("user_id", user.ID).Msg("login succeeded")

	return &LoginResult{
		Token:       token,
		User:        &user,
		Permissions: perms,
	}, nil
}

// upgradeHash replaces a legacy bcrypt hash with argon2id. Failures are
// logged only, the login itself already succeeded.
func (s *Service) upgradeHash(ctx context.Context, user *models.User, password string) {
	hash, err := models.HashPassword(password)
	if err == nil {
		err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("password", hash).Error
	}

	if err != nil {
		log.Warn().Err(err).Uint64("user_id", user.ID).Msg("failed to upgrade legacy password hash")
		return
	}

	user.Password = hash

	log.Info().Uint64("user_id", user.ID).Msg("upgraded legacy password hash")
}

// CurrentUser returns the principal with its permission rows.
func (s *Service) CurrentUser(ctx context.Context, p *Principal) (*CurrentUser, error) {
	perms, err := s.resolver.UserPermissions(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &CurrentUser{User: p, Permissions: perms}, nil
}

// UpdateCurrentUser changes only email and full name of the principal's user.
func (s *Service) UpdateCurrentUser(ctx context.Context, p *Principal, email, fullName string) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(models.NotDeleted).Where("id = ?", p.ID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}

			return fmt.Errorf("failed to query user: %w", err)
		}

		user.Email = email
		user.FullName = fullName

		return tx.Model(&user).Select("email", "full_name", "updated_at").Updates(&user).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// ChangePassword replaces the principal's password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, p *Principal, oldPassword, newPassword, confirmPassword string) error {
	var user models.User

	err := s.db.WithContext(ctx).Scopes(models.NotDeleted).Where("id = ?", p.ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to query user: %w", err)
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	hash, err := models.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("password", hash).Error
}

// Register creates an enabled user without roles.
func (s *Service) Register(ctx context.Context, in Registration) (*models.User, error) {
	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username: in.Username,
		Password: hash,
		Email:    in.Email,
		FullName: in.FullName,
		Enabled:  true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&models.User{}).
			Scopes(models.NotDeleted).
			Where("username = ?", in.Username).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}

		if count > 0 {
			return ErrUserNameExists
		}

		err := tx.Create(&user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserNameExists
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}
