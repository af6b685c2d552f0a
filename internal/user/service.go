// Package user administers user accounts and their role memberships.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/db/models"
	"github.com/authgate/authgate/internal/db/paging"
)

// RoleRef references a role by id.
type RoleRef struct {
	ID uint64 `json:"id"`
}

// CreateInput is the payload of user creation.
type CreateInput struct {
	Username string    `json:"username" validate:"required,min=3,max=100"`
	Password string    `json:"password" validate:"required,min=6,max=128"`
	Email    string    `json:"email"    validate:"omitempty,email"`
	FullName string    `json:"fullName" validate:"max=100"`
	Enabled  *bool     `json:"enabled"`
	Roles    []RoleRef `json:"roles"`
}

// UpdateInput is the payload of a user update. An empty password keeps the
// current one; nil Roles keeps the memberships, any other value replaces them.
type UpdateInput struct {
	Username string    `json:"username" validate:"omitempty,min=3,max=100"`
	Password string    `json:"password" validate:"omitempty,min=6,max=128"`
	Email    string    `json:"email"    validate:"omitempty,email"`
	FullName string    `json:"fullName" validate:"max=100"`
	Enabled  *bool     `json:"enabled"`
	Roles    []RoleRef `json:"roles"`
}

// Service provides user administration.
type Service struct {
	db *gorm.DB
}

// NewService creates a new user service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Page lists live users with their roles, optionally filtered by a username fragment.
func (s *Service) Page(ctx context.Context, req paging.Request, username string) (paging.Page[models.User], error) {
	req = req.Normalize()
	db := s.db.WithContext(ctx)

	query := db.Model(&models.User{}).Scopes(models.NotDeleted)
	if username != "" {
		query = query.Where("username LIKE ?", "%"+username+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return paging.Page[models.User]{}, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := query.Scopes(req.Scope).Order("id").Find(&users).Error; err != nil {
		return paging.Page[models.User]{}, fmt.Errorf("failed to list users: %w", err)
	}

	if err := attachRoles(db, users); err != nil {
		return paging.Page[models.User]{}, err
	}

	return paging.NewPage(req, users, total), nil
}

// attachRoles fills Roles of every user with two queries.
func attachRoles(db *gorm.DB, users []models.User) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	var links []models.UserRole
	if err := db.Where("user_id IN ?", ids).Order("role_id").Find(&links).Error; err != nil {
		return fmt.Errorf("failed to load user roles: %w", err)
	}

	roleIDs := make([]uint64, 0, len(links))
	for _, l := range links {
		roleIDs = append(roleIDs, l.RoleID)
	}

	roles := map[uint64]models.Role{}

	if len(roleIDs) > 0 {
		var rows []models.Role
		if err := db.Scopes(models.NotDeleted).Where("id IN ?", roleIDs).Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to load roles: %w", err)
		}

		for _, r := range rows {
			roles[r.ID] = r
		}
	}

	byUser := map[uint64][]models.Role{}

	for _, l := range links {
		if r, ok := roles[l.RoleID]; ok {
			byUser[l.UserID] = append(byUser[l.UserID], r)
		}
	}

	for i := range users {
		users[i].Roles = byUser[users[i].ID]
		if users[i].Roles == nil {
			users[i].Roles = []models.Role{}
		}
	}

	return nil
}

// Detail returns a live user with its roles.
func (s *Service) Detail(ctx context.Context, id uint64) (*models.User, error) {
	db := s.db.WithContext(ctx)

	u, err := get(db, id)
	if err != nil {
		return nil, err
	}

	u.Roles, err = auth.UserRoles(ctx, db, id)
	if err != nil {
		return nil, err
	}

	return u, nil
}

func get(db *gorm.DB, id uint64) (*models.User, error) {
	var u models.User

	err := db.Scopes(models.NotDeleted).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &u, nil
}

// Create hashes the password and inserts the user with its roles.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := models.User{
		Username: in.Username,
		Password: hash,
		Email:    in.Email,
		FullName: in.FullName,
		Enabled:  in.Enabled == nil || *in.Enabled,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uniqueUsername(tx, 0, in.Username); err != nil {
			return err
		}

		if err := tx.Create(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserNameExists
			}

			return fmt.Errorf("failed to create user: %w", err)
		}

		return replaceRoles(tx, u.ID, in.Roles)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("user_id", u.ID).Str("username", u.Username).Msg("user created")

	return s.Detail(ctx, u.ID)
}

// Update changes a live user. A non-empty password is re-hashed and a
// non-nil role list replaces every membership.
func (s *Service) Update(ctx context.Context, id uint64, in UpdateInput) (*models.User, error) {
	columns := []string{"email", "full_name", "updated_at"}

	var hash string

	if in.Password != "" {
		var err error

		hash, err = models.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}

		columns = append(columns, "password")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := get(tx, id)
		if err != nil {
			return err
		}

		if in.Username != "" && in.Username != u.Username {
			if err = uniqueUsername(tx, id, in.Username); err != nil {
				return err
			}

			u.Username = in.Username
			columns = append(columns, "username")
		}

		if in.Enabled != nil {
			u.Enabled = *in.Enabled
			columns = append(columns, "enabled")
		}

		u.Email = in.Email
		u.FullName = in.FullName

		if hash != "" {
			u.Password = hash
		}

		if err = tx.Model(u).Select(columns).Updates(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserNameExists
			}

			return fmt.Errorf("failed to update user: %w", err)
		}

		if in.Roles == nil {
			return nil
		}

		return replaceRoles(tx, id, in.Roles)
	})
	if err != nil {
		return nil, err
	}

	return s.Detail(ctx, id)
}

// replaceRoles drops every membership of userID and links the given roles.
func replaceRoles(tx *gorm.DB, userID uint64, refs []RoleRef) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
		return fmt.Errorf("failed to delete user roles: %w", err)
	}

	seen := make(map[uint64]struct{}, len(refs))
	links := make([]models.UserRole, 0, len(refs))

	for _, r := range refs {
		if _, dup := seen[r.ID]; dup {
			continue
		}

		seen[r.ID] = struct{}{}
		links = append(links, models.UserRole{UserID: userID, RoleID: r.ID})
	}

	if len(links) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.RoleID)
	}

	var found []uint64

	err := tx.Model(&models.Role{}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
		Scopes(models.NotDeleted).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return fmt.Errorf("failed to check roles: %w", err)
	}

	if len(found) != len(ids) {
		return ErrUnknownRole
	}

	if err = tx.Create(&links).Error; err != nil {
		return fmt.Errorf("failed to insert user roles: %w", err)
	}

	return nil
}

func uniqueUsername(tx *gorm.DB, self uint64, username string) error {
	var count int64

	q := tx.Model(&models.User{}).Scopes(models.NotDeleted).Where("username = ?", username)
	if self != 0 {
		q = q.Where("id <> ?", self)
	}

	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}

	if count > 0 {
		return ErrUserNameExists
	}

	return nil
}

// Delete soft deletes the user and hard deletes its role links.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get(tx, id); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("failed to delete user roles: %w", err)
		}

		return models.SoftDelete(tx, &models.User{}, id)
	})
	if err != nil {
		return err
	}

	log.Info().Uint64("user_id", id).Msg("user deleted")

	return nil
}
