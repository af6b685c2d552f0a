// Package models contains the gorm models of users, roles, permissions and
// their join tables.
//
// Users, roles and permissions are soft deleted through DeletedAt. Soft
// deletion is not left to gorm: every read path must apply NotDeleted
// explicitly. Join rows (UserRole, RolePermission) are hard deleted.
package models
