package db

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/authgate/authgate/internal/db/models"
)

// usersBeforeDeletedMark is the users table as deployed before deleted_mark.
type usersBeforeDeletedMark struct {
	ID        uint64 `gorm:"primaryKey"`
	Username  string `gorm:"size:100;not null;index"`
	Password  string `gorm:"size:255;not null"`
	Enabled   bool   `gorm:"not null"`
	DeletedAt *time.Time
}

func (usersBeforeDeletedMark) TableName() string { return "users" }

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	return gdb
}

func TestMigrateBackfillsDeletedMark(t *testing.T) {
	gdb := memoryDB(t)
	require.NoError(t, gdb.AutoMigrate(&usersBeforeDeletedMark{}))

	deletedAt := time.Now().UTC()
	gone := usersBeforeDeletedMark{Username: "alice", Password: "x", DeletedAt: &deletedAt}
	live := usersBeforeDeletedMark{Username: "alice", Password: "x", Enabled: true}
	require.NoError(t, gdb.Create(&gone).Error)
	require.NoError(t, gdb.Create(&live).Error)

	require.NoError(t, Migrate(gdb))

	var users []models.User
	require.NoError(t, gdb.Order("id").Find(&users).Error)
	require.Len(t, users, 2)
	assert.Equal(t, gone.ID, users[0].DeletedMark)
	assert.Zero(t, users[1].DeletedMark)

	err := gdb.Create(&models.User{Username: "alice", Password: "x"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMigrateFreshDatabase(t *testing.T) {
	gdb := memoryDB(t)

	require.NoError(t, Migrate(gdb))
	require.NoError(t, Migrate(gdb), "migrate twice")

	for _, model := range models.All() {
		assert.True(t, gdb.Migrator().HasTable(model))
	}
}
