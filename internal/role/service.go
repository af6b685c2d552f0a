package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/authgate/authgate/internal/db/models"
	"github.com/authgate/authgate/internal/db/paging"
)

// PermissionRef is the legacy permission object shape. Only the id is used.
type PermissionRef struct {
	ID uint64 `json:"id"`
}

// Input is the writable part of a role plus its optional link update.
type Input struct {
	Code          string          `json:"code"          validate:"required,max=64"`
	Name          string          `json:"name"          validate:"required,max=100"`
	Description   string          `json:"description"   validate:"max=255"`
	PermissionIDs []uint64        `json:"permissionIds"`
	Permissions   []PermissionRef `json:"permissions"`
}

// Service provides role administration.
type Service struct {
	db *gorm.DB
}

// NewService creates a new role service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Page lists live roles, optionally filtered by a name fragment.
func (s *Service) Page(ctx context.Context, req paging.Request, name string) (paging.Page[models.Role], error) {
	req = req.Normalize()

	q := s.db.WithContext(ctx).Model(&models.Role{}).Scopes(models.NotDeleted)
	if name != "" {
		q = q.Where("name LIKE ?", "%"+name+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return paging.Page[models.Role]{}, fmt.Errorf("failed to count roles: %w", err)
	}

	var roles []models.Role
	if err := q.Scopes(req.Scope).Order("id").Find(&roles).Error; err != nil {
		return paging.Page[models.Role]{}, fmt.Errorf("failed to list roles: %w", err)
	}

	return paging.NewPage(req, roles, total), nil
}

// All returns every live role.
func (s *Service) All(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role

	if err := s.db.WithContext(ctx).Scopes(models.NotDeleted).Order("id").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

// Detail returns a live role with its live permissions and their ids.
func (s *Service) Detail(ctx context.Context, id uint64) (*models.Role, error) {
	db := s.db.WithContext(ctx)

	r, err := get(db, id)
	if err != nil {
		return nil, err
	}

	err = db.Table("permissions").
		Select("permissions.*").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", id).
		Scopes(models.NotDeletedIn("permissions")).
		Order("permissions.sort, permissions.id").
		Find(&r.Permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}

	r.PermissionIDs = make([]uint64, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		r.PermissionIDs = append(r.PermissionIDs, p.ID)
	}

	return r, nil
}

func get(db *gorm.DB, id uint64) (*models.Role, error) {
	var r models.Role

	err := db.Scopes(models.NotDeleted).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query role: %w", err)
	}

	return &r, nil
}

// Create inserts a role and its initial links in one transaction.
func (s *Service) Create(ctx context.Context, in Input) (*models.Role, error) {
	r := models.Role{Code: in.Code, Name: in.Name, Description: in.Description}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := unique(tx, 0, in); err != nil {
			return err
		}

		if err := tx.Create(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrRoleExists
			}

			return fmt.Errorf("failed to create role: %w", err)
		}

		return applyLinks(ctx, tx, r.ID, in)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("role_id", r.ID).Str("code", r.Code).Msg("role created")

	return &r, nil
}

// Update changes the role's scalar fields and its links as one unit. The
// role row is locked first so concurrent updates of one role serialize.
func (s *Service) Update(ctx context.Context, id uint64, in Input) (*models.Role, error) {
	var r models.Role

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Scopes(models.NotDeleted).
			Where("id = ?", id).
			First(&r).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to lock role: %w", err)
		}

		if err = unique(tx, id, in); err != nil {
			return err
		}

		r.Code = in.Code
		r.Name = in.Name
		r.Description = in.Description

		if err = tx.Model(&r).Select("code", "name", "description", "updated_at").Updates(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrRoleExists
			}

			return fmt.Errorf("failed to update role: %w", err)
		}

		return applyLinks(ctx, tx, id, in)
	})
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// applyLinks picks the link update shape: a non-empty id set is reconciled,
// otherwise a non-nil object list replaces all links, otherwise nothing.
func applyLinks(ctx context.Context, tx *gorm.DB, roleID uint64, in Input) error {
	switch {
	case len(in.PermissionIDs) > 0:
		_, err := Reconcile(ctx, tx, roleID, in.PermissionIDs)
		return err
	case in.Permissions != nil:
		return ReconcileLegacy(ctx, tx, roleID, in.Permissions)
	default:
		return nil
	}
}

func unique(tx *gorm.DB, self uint64, in Input) error {
	exists := func(column, value string) (bool, error) {
		var count int64

		q := tx.Model(&models.Role{}).Scopes(models.NotDeleted).Where(column+" = ?", value)
		if self != 0 {
			q = q.Where("id <> ?", self)
		}

		if err := q.Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to check role %s: %w", column, err)
		}

		return count > 0, nil
	}

	taken, err := exists("code", in.Code)
	if err != nil {
		return err
	}

	if taken {
		return ErrCodeExists
	}

	taken, err = exists("name", in.Name)
	if err != nil {
		return err
	}

	if taken {
		return ErrNameExists
	}

	return nil
}

// Delete soft deletes the role and hard deletes its permission and user links.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get(tx, id); err != nil {
			return err
		}

		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to delete role permissions: %w", err)
		}

		if err := tx.Where("role_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("failed to delete user roles: %w", err)
		}

		return models.SoftDelete(tx, &models.Role{}, id)
	})
	if err != nil {
		return err
	}

	log.Info().Uint64("role_id", id).Msg("role deleted")

	return nil
}
