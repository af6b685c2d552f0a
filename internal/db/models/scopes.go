package models

import (
	"time"

	"gorm.io/gorm"
)

// NotDeleted restricts a single table query on users, roles or permissions to live rows.
func NotDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}

// NotDeletedIn is NotDeleted for joined queries, qualified by table.
func NotDeletedIn(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table + ".deleted_at IS NULL")
	}
}

// SoftDelete marks the live rows with the given ids as deleted. Copying the
// id into deleted_mark takes the row out of the live unique indexes.
func SoftDelete(db *gorm.DB, model any, ids ...uint64) error {
	if len(ids) == 0 {
		return nil
	}

	return db.Model(model).
		Where("id IN ?", ids).
		Where("deleted_at IS NULL").
		Updates(map[string]any{
			"deleted_at":   time.Now().UTC(),
			"deleted_mark": gorm.Expr("id"),
		}).Error
}

// All returns every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Role{},
		&Permission{},
		&UserRole{},
		&RolePermission{},
	}
}
