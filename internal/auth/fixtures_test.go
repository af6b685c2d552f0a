package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/db/dbtest"
	"github.com/authgate/authgate/internal/db/models"
)

type fixture struct {
	db      *gorm.DB
	service *Service
	alice   models.User
	editor  models.Role
	edit    models.Permission
	view    models.Permission
	publish models.Permission
}

// newFixture creates alice with role EDITOR granted content:edit and
// content:view. content:publish exists but is not granted.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)

	hash, err := models.HashPassword("s3cret!")
	require.NoError(t, err)

	f := &fixture{
		db:      db,
		alice:   models.User{Username: "alice", Password: hash, Email: "alice@example.com", Enabled: true},
		editor:  models.Role{Code: "EDITOR", Name: "Editor"},
		edit:    models.Permission{Code: "content:edit", Name: "Edit", Type: models.PermissionTypeButton, Sort: 2},
		view:    models.Permission{Code: "content:view", Name: "View", Type: models.PermissionTypeMenu, Sort: 1},
		publish: models.Permission{Code: "content:publish", Name: "Publish", Type: models.PermissionTypeButton},
	}

	dbtest.MustCreate(t, db, &f.alice, &f.editor, &f.edit, &f.view, &f.publish)
	dbtest.MustCreate(t, db,
		&models.UserRole{UserID: f.alice.ID, RoleID: f.editor.ID},
		&models.RolePermission{RoleID: f.editor.ID, PermissionID: f.edit.ID},
		&models.RolePermission{RoleID: f.editor.ID, PermissionID: f.view.ID},
	)

	codec, err := NewTokenCodec(testSecret, time.Hour, "authgate")
	require.NoError(t, err)

	f.service = NewService(db, codec)

	return f
}
