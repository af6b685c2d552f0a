package models

import "time"

// Permission types.
const (
	PermissionTypeMenu   = "menu"
	PermissionTypeButton = "button"
)

// RootParentID is the parent of top level permissions.
const RootParentID uint64 = 0

// Permission is one node of the permission forest.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Code is the authority string, e.g. system:user:add.
	Code string `gorm:"size:100;not null;uniqueIndex:uk_permissions_code_live,priority:1" json:"code"`
	// Name is the display name.
	Name string `gorm:"size:100;not null" json:"name"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`
	// Type is menu or button.
	Type string `gorm:"size:16;not null;index" json:"type"`
	// Path, Component and Icon are front-end routing metadata passed through untouched.
	Path      string `gorm:"size:255" json:"path"`
	Component string `gorm:"size:255" json:"component"`
	Icon      string `gorm:"size:100" json:"icon"`
	// Sort orders siblings and menus.
	Sort int `gorm:"not null;default:0" json:"sort"`
	// ParentID references a live permission or is RootParentID.
	ParentID uint64 `gorm:"not null;default:0;index" json:"parentId"`
	// CreatedAt is managed by gorm.
	CreatedAt time.Time `json:"createTime"`
	// UpdatedAt is managed by gorm.
	UpdatedAt time.Time `json:"updateTime"`
	// DeletedAt is the soft delete marker.
	DeletedAt *time.Time `gorm:"index" json:"-"`
	// DeletedMark frees the code for reuse, see User.DeletedMark.
	DeletedMark uint64 `gorm:"not null;default:0;uniqueIndex:uk_permissions_code_live,priority:2" json:"-"`
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
