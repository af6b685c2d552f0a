package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/db/models"
)

// Input is the writable part of a permission.
type Input struct {
	Code        string `json:"code"        validate:"required,max=100"`
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
	Type        string `json:"type"        validate:"required,oneof=menu button"`
	Path        string `json:"path"        validate:"max=255"`
	Component   string `json:"component"   validate:"max=255"`
	Icon        string `json:"icon"        validate:"max=100"`
	Sort        int    `json:"sort"`
	ParentID    uint64 `json:"parentId"`
}

func (in Input) apply(p *models.Permission) {
	p.Code = in.Code
	p.Name = in.Name
	p.Description = in.Description
	p.Type = in.Type
	p.Path = in.Path
	p.Component = in.Component
	p.Icon = in.Icon
	p.Sort = in.Sort
	p.ParentID = in.ParentID
}

var updatable = []string{
	"code", "name", "description", "type", "path", "component", "icon", "sort", "parent_id", "updated_at",
}

// Service provides the permission projections and administration.
type Service struct {
	db       *gorm.DB
	resolver *auth.Resolver
}

// NewService creates a new permission service.
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:       db,
		resolver: auth.NewResolver(db),
	}
}

// List returns every live permission ordered by sort and id.
func (s *Service) List(ctx context.Context) ([]models.Permission, error) {
	return list(s.db.WithContext(ctx))
}

func list(db *gorm.DB) ([]models.Permission, error) {
	var perms []models.Permission

	if err := db.Scopes(models.NotDeleted).Order("sort, id").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	return perms, nil
}

// Tree returns the live permission forest.
func (s *Service) Tree(ctx context.Context) ([]Node, error) {
	perms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	return BuildTree(perms).Forest(), nil
}

// Menus returns every live menu ordered by sort.
func (s *Service) Menus(ctx context.Context) ([]models.Permission, error) {
	return s.byType(ctx, models.PermissionTypeMenu)
}

// Buttons returns every live button.
func (s *Service) Buttons(ctx context.Context) ([]models.Permission, error) {
	return s.byType(ctx, models.PermissionTypeButton)
}

func (s *Service) byType(ctx context.Context, typ string) ([]models.Permission, error) {
	var perms []models.Permission

	err := s.db.WithContext(ctx).
		Scopes(models.NotDeleted).
		Where("type = ?", typ).
		Order("sort, id").
		Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s permissions: %w", typ, err)
	}

	return perms, nil
}

// UserMenus returns the menus granted to a user.
func (s *Service) UserMenus(ctx context.Context, userID uint64) ([]models.Permission, error) {
	return s.userByType(ctx, userID, models.PermissionTypeMenu)
}

// UserButtons returns the buttons granted to a user.
func (s *Service) UserButtons(ctx context.Context, userID uint64) ([]models.Permission, error) {
	return s.userByType(ctx, userID, models.PermissionTypeButton)
}

func (s *Service) userByType(ctx context.Context, userID uint64, typ string) ([]models.Permission, error) {
	perms, err := s.resolver.UserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Permission, 0, len(perms))

	for _, p := range perms {
		if p.Type == typ {
			out = append(out, p)
		}
	}

	return out, nil
}

// Get returns a live permission.
func (s *Service) Get(ctx context.Context, id uint64) (*models.Permission, error) {
	return get(s.db.WithContext(ctx), id)
}

func get(db *gorm.DB, id uint64) (*models.Permission, error) {
	var p models.Permission

	err := db.Scopes(models.NotDeleted).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPermissionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query permission: %w", err)
	}

	return &p, nil
}

// Create inserts a permission below a live parent or at the root.
func (s *Service) Create(ctx context.Context, in Input) (*models.Permission, error) {
	var p models.Permission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := check(tx, 0, in); err != nil {
			return err
		}

		in.apply(&p)

		return duplicateCode(tx.Create(&p).Error)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("permission_id", p.ID).Str("code", p.Code).Msg("permission created")

	return &p, nil
}

// Update changes a live permission. Moving it below itself or one of its
// descendants is rejected.
func (s *Service) Update(ctx context.Context, id uint64, in Input) (*models.Permission, error) {
	var p *models.Permission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		p, err = get(tx, id)
		if err != nil {
			return err
		}

		if err = check(tx, id, in); err != nil {
			return err
		}

		if in.ParentID != models.RootParentID {
			if in.ParentID == id {
				return ErrParentCycle
			}

			perms, err := list(tx)
			if err != nil {
				return err
			}

			for _, d := range BuildTree(perms).Descendants(id) {
				if d == in.ParentID {
					return ErrParentCycle
				}
			}
		}

		in.apply(p)

		return duplicateCode(tx.Model(p).Select(updatable).Updates(p).Error)
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// duplicateCode maps a live code index violation to ErrCodeExists.
func duplicateCode(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCodeExists
	}

	return err
}

// check validates type, code uniqueness and parent of in. self is the id of
// the permission being updated, 0 on create.
func check(tx *gorm.DB, self uint64, in Input) error {
	if in.Type != models.PermissionTypeMenu && in.Type != models.PermissionTypeButton {
		return ErrInvalidType
	}

	var count int64

	q := tx.Model(&models.Permission{}).Scopes(models.NotDeleted).Where("code = ?", in.Code)
	if self != 0 {
		q = q.Where("id <> ?", self)
	}

	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check permission code: %w", err)
	}

	if count > 0 {
		return ErrCodeExists
	}

	if in.ParentID == models.RootParentID {
		return nil
	}

	// share lock the parent so it cannot be deleted before this write commits
	locked := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthShare})
	if _, err := get(locked, in.ParentID); err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			return ErrParentNotFound
		}

		return err
	}

	return nil
}

// DeleteWithChildren soft deletes the permission and every descendant and
// hard deletes their role links, all in one transaction. It returns the
// deleted ids.
func (s *Service) DeleteWithChildren(ctx context.Context, id uint64) ([]uint64, error) {
	var ids []uint64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get(tx, id); err != nil {
			return err
		}

		ids = []uint64{id}
		visited := map[uint64]bool{id: true}
		frontier := []uint64{id}

		for len(frontier) > 0 {
			var children []uint64

			if err := tx.Model(&models.Permission{}).
				Scopes(models.NotDeleted).
				Where("parent_id IN ?", frontier).
				Order("id").
				Pluck("id", &children).Error; err != nil {
				return fmt.Errorf("failed to query child permissions: %w", err)
			}

			frontier = frontier[:0]

			for _, c := range children {
				if visited[c] {
					continue
				}

				visited[c] = true
				ids = append(ids, c)
				frontier = append(frontier, c)
			}
		}

		if err := tx.Where("permission_id IN ?", ids).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to delete role links: %w", err)
		}

		if err := models.SoftDelete(tx, &models.Permission{}, ids...); err != nil {
			return fmt.Errorf("failed to delete permissions: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint64("permission_id", id).Int("deleted", len(ids)).Msg("permission deleted with children")

	return ids, nil
}
