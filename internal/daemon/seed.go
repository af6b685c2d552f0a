package daemon

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/db/models"
)

const (
	// AdminUsername is the user created on an empty database.
	AdminUsername = "admin"
	// AdminRoleCode is the role granted every seeded permission.
	AdminRoleCode = "ADMIN"
)

type seedNode struct {
	perm     models.Permission
	children []seedNode
}

func menu(code, name, path, icon string, sort int, children ...seedNode) seedNode {
	return seedNode{
		perm: models.Permission{
			Code: code, Name: name, Type: models.PermissionTypeMenu,
			Path: path, Icon: icon, Sort: sort,
		},
		children: children,
	}
}

func button(code, name string, sort int) seedNode {
	return seedNode{perm: models.Permission{Code: code, Name: name, Type: models.PermissionTypeButton, Sort: sort}}
}

func defaultPermissions() []seedNode {
	return []seedNode{
		menu("system", "System", "/system", "setting", 1,
			menu(auth.PermUserList, "Users", "/system/user", "user", 1,
				button(auth.PermUserQuery, "Query user", 1),
				button(auth.PermUserAdd, "Add user", 2),
				button(auth.PermUserEdit, "Edit user", 3),
				button(auth.PermUserDelete, "Delete user", 4),
			),
			menu(auth.PermRoleList, "Roles", "/system/role", "team", 2,
				button(auth.PermRoleQuery, "Query role", 1),
				button(auth.PermRoleAdd, "Add role", 2),
				button(auth.PermRoleEdit, "Edit role", 3),
				button(auth.PermRoleDelete, "Delete role", 4),
			),
			menu(auth.PermPermissionList, "Permissions", "/system/permission", "lock", 3,
				button(auth.PermPermissionAdd, "Add permission", 1),
				button(auth.PermPermissionEdit, "Edit permission", 2),
				button(auth.PermPermissionDelete, "Delete permission", 3),
			),
		),
	}
}

// Seed fills an empty database with the system permission tree, the ADMIN
// role holding all of it and the admin user. A database that has any user is
// left alone. An empty adminPassword is replaced by a random one that is logged.
func Seed(db *gorm.DB, adminPassword string) error {
	var count int64

	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to count users")
	}

	if count > 0 {
		return nil
	}

	generated := adminPassword == ""
	if generated {
		adminPassword = uuid.NewString()
	}

	hash, err := models.HashPassword(adminPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash admin password")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var ids []uint64

		if err := createTree(tx, models.RootParentID, defaultPermissions(), &ids); err != nil {
			return err
		}

		role := models.Role{Code: AdminRoleCode, Name: "Administrator", Description: "Full access"}
		if err := tx.Create(&role).Error; err != nil {
			return err
		}

		links := make([]models.RolePermission, 0, len(ids))
		for _, id := range ids {
			links = append(links, models.RolePermission{RoleID: role.ID, PermissionID: id})
		}

		if err := tx.Create(&links).Error; err != nil {
			return err
		}

		user := models.User{Username: AdminUsername, Password: hash, FullName: "Administrator", Enabled: true}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		return tx.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error
	})
	if err != nil {
		return errors.Wrap(err, "failed to seed database")
	}

	event := log.Info().Str("username", AdminUsername)
	if generated {
		event = log.Warn().Str("username", AdminUsername).Str("password", adminPassword)
	}

	event.Msg("seeded empty database with admin user")

	return nil
}

func createTree(tx *gorm.DB, parentID uint64, nodes []seedNode, ids *[]uint64) error {
	for _, n := range nodes {
		p := n.perm
		p.ParentID = parentID

		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		*ids = append(*ids, p.ID)

		if err := createTree(tx, p.ID, n.children, ids); err != nil {
			return err
		}
	}

	return nil
}
