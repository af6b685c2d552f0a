package models

import "time"

// Role is a named authorization group.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Code is unique among non-deleted roles, e.g. ADMIN. Principals carry it as ROLE_<code>.
	Code string `gorm:"size:64;not null;uniqueIndex:uk_roles_code_live,priority:1" json:"code"`
	// Name is the unique display name.
	Name string `gorm:"size:100;not null;uniqueIndex:uk_roles_name_live,priority:1" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// CreatedAt is managed by gorm.
	CreatedAt time.Time `json:"createTime"`
	// UpdatedAt is managed by gorm.
	UpdatedAt time.Time `json:"updateTime"`
	// DeletedAt is the soft delete marker.
	DeletedAt *time.Time `gorm:"index" json:"-"`
	// DeletedMark frees code and name for reuse, see User.DeletedMark.
	DeletedMark uint64 `gorm:"not null;default:0;uniqueIndex:uk_roles_code_live,priority:2;uniqueIndex:uk_roles_name_live,priority:2" json:"-"`

	// Permissions and PermissionIDs are filled by the role service.
	Permissions   []Permission `gorm:"-" json:"permissions,omitempty"`
	PermissionIDs []uint64     `gorm:"-" json:"permissionIds,omitempty"`
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
