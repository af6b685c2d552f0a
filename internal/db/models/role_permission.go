package models

import "time"

// RolePermission links a role to a permission.
// Stable links keep their ID and CreatedAt across differential updates.
type RolePermission struct {
	ID           uint64 `gorm:"primaryKey"`
	RoleID       uint64 `gorm:"not null;uniqueIndex:idx_role_permission"`
	PermissionID uint64 `gorm:"not null;uniqueIndex:idx_role_permission;index"`
	CreatedAt    time.Time
}

// TableName specifies the database table name for the RolePermission model.
func (RolePermission) TableName() string {
	return "role_permissions"
}
