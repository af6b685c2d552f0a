package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/db/models"
)

// Resolver loads principals from the database. It keeps no cache.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a resolver on db.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveByUsername loads the live user named username with its roles and
// the permissions directly linked to those roles. Disabled users resolve;
// callers decide what to do with them.
func (r *Resolver) ResolveByUsername(ctx context.Context, username string) (*Principal, error) {
	var user models.User

	err := r.db.WithContext(ctx).
		Scopes(models.NotDeleted).
		Where("username = ?", username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return r.resolve(ctx, &user)
}

// ResolveByID is ResolveByUsername keyed by id.
func (r *Resolver) ResolveByID(ctx context.Context, userID uint64) (*Principal, error) {
	var user models.User

	err := r.db.WithContext(ctx).
		Scopes(models.NotDeleted).
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return r.resolve(ctx, &user)
}

func (r *Resolver) resolve(ctx context.Context, user *models.User) (*Principal, error) {
	roles, err := r.UserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	perms, err := r.UserPermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return NewPrincipal(user, roles, perms), nil
}

// UserRoles returns the live roles assigned to a user.
func (r *Resolver) UserRoles(ctx context.Context, userID uint64) ([]models.Role, error) {
	return UserRoles(ctx, r.db, userID)
}

// UserPermissions returns the live permissions granted to a user through
// its live roles, ordered by sort and id. Children of a granted menu are
// not implied.
func (r *Resolver) UserPermissions(ctx context.Context, userID uint64) ([]models.Permission, error) {
	var perms []models.Permission

	err := r.db.WithContext(ctx).
		Table("permissions").
		Select("DISTINCT permissions.*").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Scopes(models.NotDeletedIn("permissions"), models.NotDeletedIn("roles")).
		Order("permissions.sort, permissions.id").
		Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return perms, nil
}

// UserRoles returns the live roles assigned to userID. It is shared with the
// user service which attaches roles to list results.
func UserRoles(ctx context.Context, db *gorm.DB, userID uint64) ([]models.Role, error) {
	var roles []models.Role

	err := db.WithContext(ctx).
		Table("roles").
		Select("roles.*").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Scopes(models.NotDeletedIn("roles")).
		Order("roles.id").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	return roles, nil
}

// Codes returns the codes of perms in order.
func Codes(perms []models.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.Code)
	}

	return out
}
