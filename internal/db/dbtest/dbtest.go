// Package dbtest provides a migrated in-memory database for tests.
package dbtest

import (
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/authgate/authgate/internal/db/models"
)

// New returns a fresh in-memory sqlite database with every table migrated.
// A single connection keeps the in-memory database alive and shared.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(models.All()...))

	return gdb
}

// MustCreate inserts each value and fails the test on error.
func MustCreate(t *testing.T, gdb *gorm.DB, values ...any) {
	t.Helper()

	for _, v := range values {
		require.NoError(t, gdb.Create(v).Error)
	}
}

// Locks records the row lock requested by each query as "table:STRENGTH".
// sqlite drops the clause when building SQL, the request is still visible here.
type Locks struct {
	mu   sync.Mutex
	seen []string
}

// RecordLocks starts recording the locks of every query run on gdb.
func RecordLocks(t *testing.T, gdb *gorm.DB) *Locks {
	t.Helper()

	l := &Locks{}

	err := gdb.Callback().Query().Before("gorm:query").Register("dbtest:locks", func(tx *gorm.DB) {
		c, ok := tx.Statement.Clauses["FOR"]
		if !ok {
			return
		}

		if locking, ok := c.Expression.(clause.Locking); ok {
			l.mu.Lock()
			l.seen = append(l.seen, tx.Statement.Table+":"+locking.Strength)
			l.mu.Unlock()
		}
	})
	require.NoError(t, err)

	return l
}

// Seen returns the recorded locks in query order.
func (l *Locks) Seen() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.seen...)
}
