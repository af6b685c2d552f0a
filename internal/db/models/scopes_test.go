package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/db/dbtest"
	"github.com/authgate/authgate/internal/db/models"
)

func TestLiveUsernameIsUnique(t *testing.T) {
	db := dbtest.New(t)

	first := models.User{Username: "alice", Password: "x", Enabled: true}
	dbtest.MustCreate(t, db, &first)

	err := db.Create(&models.User{Username: "alice", Password: "x"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, models.SoftDelete(db, &models.User{}, first.ID))

	second := models.User{Username: "alice", Password: "x", Enabled: true}
	dbtest.MustCreate(t, db, &second)
	require.NoError(t, models.SoftDelete(db, &models.User{}, second.ID))

	dbtest.MustCreate(t, db, &models.User{Username: "alice", Password: "x"})

	var deleted []models.User
	require.NoError(t, db.Where("deleted_at IS NOT NULL").Order("id").Find(&deleted).Error)
	require.Len(t, deleted, 2)
	assert.Equal(t, first.ID, deleted[0].DeletedMark)
	assert.Equal(t, second.ID, deleted[1].DeletedMark)
}

func TestLiveRoleCodeAndNameAreUnique(t *testing.T) {
	db := dbtest.New(t)

	admin := models.Role{Code: "ADMIN", Name: "Administrator"}
	dbtest.MustCreate(t, db, &admin)

	err := db.Create(&models.Role{Code: "ADMIN", Name: "Other"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = db.Create(&models.Role{Code: "OTHER", Name: "Administrator"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, models.SoftDelete(db, &models.Role{}, admin.ID))
	dbtest.MustCreate(t, db, &models.Role{Code: "ADMIN", Name: "Administrator"})
}

func TestLivePermissionCodeIsUnique(t *testing.T) {
	db := dbtest.New(t)

	view := models.Permission{Code: "content:view", Name: "View", Type: models.PermissionTypeMenu}
	dbtest.MustCreate(t, db, &view)

	err := db.Create(&models.Permission{Code: "content:view", Name: "Again", Type: models.PermissionTypeButton}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, models.SoftDelete(db, &models.Permission{}, view.ID))
	dbtest.MustCreate(t, db, &models.Permission{Code: "content:view", Name: "View", Type: models.PermissionTypeMenu})
}
