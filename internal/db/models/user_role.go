package models

import "time"

// UserRole links a user to a role. Rows are recreated on every membership change.
type UserRole struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"not null;uniqueIndex:idx_user_role"`
	RoleID    uint64 `gorm:"not null;uniqueIndex:idx_user_role;index"`
	CreatedAt time.Time
}

// TableName specifies the database table name for the UserRole model.
func (UserRole) TableName() string {
	return "user_roles"
}
