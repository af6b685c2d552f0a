// Package db opens the gorm connection for the configured engine.
package db

import (
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/db/dsn"
	"github.com/authgate/authgate/internal/db/models"
)

// Open connects to the database described by cfg.
func Open(cfg *config.DB, devMode bool) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.GormEngine {
	case config.GormEngineMySQL:
		dialector = gormmysql.Open(dsn.Create(cfg))
	case config.GormEnginePostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case config.GormEngineSQLite:
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		return nil, errors.Wrap(config.ErrUnknownGormEngine, cfg.GormEngine)
	}

	level := gormlogger.Warn
	if devMode {
		level = gormlogger.Info
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	log.Info().Str("engine", cfg.GormEngine).Msg("database connected")

	return gdb, nil
}

// Migrate creates or updates every table.
func Migrate(gdb *gorm.DB) error {
	if err := backfillDeletedMark(gdb); err != nil {
		return err
	}

	return errors.Wrap(gdb.AutoMigrate(models.All()...), "failed to migrate database")
}

// backfillDeletedMark adds deleted_mark to tables created before it existed
// and marks their soft deleted rows, so the live unique indexes AutoMigrate
// builds next do not trip over names reused after a delete.
func backfillDeletedMark(gdb *gorm.DB) error {
	m := gdb.Migrator()

	for _, model := range []any{&models.User{}, &models.Role{}, &models.Permission{}} {
		if !m.HasTable(model) || m.HasColumn(model, "DeletedMark") {
			continue
		}

		if err := m.AddColumn(model, "DeletedMark"); err != nil {
			return errors.Wrap(err, "failed to add deleted_mark")
		}

		res := gdb.Model(model).
			Where("deleted_at IS NOT NULL").
			UpdateColumn("deleted_mark", gorm.Expr("id"))
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to backfill deleted_mark")
		}

		log.Info().Int64("rows", res.RowsAffected).Msgf("backfilled deleted_mark of %T", model)
	}

	return nil
}
