package role

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/authgate/authgate/internal/db/models"
)

// Diff is the link change between two permission id sets.
type Diff struct {
	Add    []uint64 `json:"add"`
	Remove []uint64 `json:"remove"`
}

// Empty reports whether the diff changes nothing.
func (d Diff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// ComputeDiff returns desired minus current as Add and current minus
// desired as Remove, both sorted and free of duplicates.
func ComputeDiff(current, desired []uint64) Diff {
	cur := toSet(current)
	want := toSet(desired)

	d := Diff{}

	for id := range want {
		if _, ok := cur[id]; !ok {
			d.Add = append(d.Add, id)
		}
	}

	for id := range cur {
		if _, ok := want[id]; !ok {
			d.Remove = append(d.Remove, id)
		}
	}

	slices.Sort(d.Add)
	slices.Sort(d.Remove)

	return d
}

func toSet(ids []uint64) map[uint64]struct{} {
	s := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}

	return s
}

// LinkedPermissionIDs returns the permission ids linked to a role, sorted.
func LinkedPermissionIDs(ctx context.Context, tx *gorm.DB, roleID uint64) ([]uint64, error) {
	var ids []uint64

	err := tx.WithContext(ctx).
		Model(&models.RolePermission{}).
		Where("role_id = ?", roleID).
		Order("permission_id").
		Pluck("permission_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role links: %w", err)
	}

	return ids, nil
}

// Reconcile moves the links of roleID to exactly desired. Only links in the
// symmetric difference are touched; stable links keep their row. tx must be
// a transaction holding the role row lock so that the read and the writes
// form one unit.
func Reconcile(ctx context.Context, tx *gorm.DB, roleID uint64, desired []uint64) (Diff, error) {
	current, err := LinkedPermissionIDs(ctx, tx, roleID)
	if err != nil {
		return Diff{}, err
	}

	diff := ComputeDiff(current, desired)
	if diff.Empty() {
		return diff, nil
	}

	if err = requireLive(ctx, tx, diff.Add); err != nil {
		return Diff{}, err
	}

	if len(diff.Remove) > 0 {
		res := tx.WithContext(ctx).
			Where("role_id = ? AND permission_id IN ?", roleID, diff.Remove).
			Delete(&models.RolePermission{})
		if res.Error != nil {
			return Diff{}, fmt.Errorf("failed to remove role links: %w", res.Error)
		}

		log.Debug().Uint64("role_id", roleID).Int64("removed", res.RowsAffected).Msg("role links removed")
	}

	if err = insertLinks(ctx, tx, roleID, diff.Add); err != nil {
		return Diff{}, err
	}

	log.Info().Uint64("role_id", roleID).
		Interface("add", diff.Add).
		Interface("remove", diff.Remove).
		Msg("role permissions reconciled")

	return diff, nil
}

// ReconcileLegacy drops every link of roleID and inserts one per supplied
// permission. Repeated ids collapse into one link.
func ReconcileLegacy(ctx context.Context, tx *gorm.DB, roleID uint64, perms []PermissionRef) error {
	ids := make([]uint64, 0, len(perms))
	seen := make(map[uint64]struct{}, len(perms))

	for _, p := range perms {
		if _, dup := seen[p.ID]; dup {
			continue
		}

		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}

	if err := requireLive(ctx, tx, ids); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Where("role_id = ?", roleID).Delete(&models.RolePermission{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove role links: %w", res.Error)
	}

	if err := insertLinks(ctx, tx, roleID, ids); err != nil {
		return err
	}

	log.Info().Uint64("role_id", roleID).
		Int64("removed", res.RowsAffected).
		Int("inserted", len(ids)).
		Msg("role permissions replaced")

	return nil
}

func insertLinks(ctx context.Context, tx *gorm.DB, roleID uint64, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	links := make([]models.RolePermission, 0, len(ids))
	for _, id := range ids {
		links = append(links, models.RolePermission{RoleID: roleID, PermissionID: id})
	}

	if err := tx.WithContext(ctx).Create(&links).Error; err != nil {
		return fmt.Errorf("failed to insert role links: %w", err)
	}

	return nil
}

// requireLive fails with ErrUnknownPermission unless every id names a live
// permission. ids must be distinct. The rows stay share locked until the
// transaction ends, so a concurrent delete cannot orphan the new links.
func requireLive(ctx context.Context, tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	var found []uint64

	err := tx.WithContext(ctx).
		Model(&models.Permission{}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
		Scopes(models.NotDeleted).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return fmt.Errorf("failed to check permissions: %w", err)
	}

	if len(found) != len(ids) {
		return ErrUnknownPermission
	}

	return nil
}
