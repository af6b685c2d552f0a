// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/authgate/authgate/internal/config"
)

// Create builds the Data Source Name for the configured engine.
// For sqlite the DSN is the database file name.
func Create(cfg *config.DB) string {
	switch cfg.GormEngine {
	case config.GormEnginePostgres:
		return postgres(cfg)
	case config.GormEngineSQLite:
		return cfg.Name
	default:
		return mysql(cfg)
	}
}

func mysql(cfg *config.DB) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		cfg.Extras,
	)
}

func postgres(cfg *config.DB) string {
	parts := []string{
		"host=" + cfg.Host,
		fmt.Sprintf("port=%d", cfg.Port),
		"user=" + cfg.User,
		"password=" + cfg.Password,
		"dbname=" + cfg.Name,
	}

	if cfg.Extras != "" {
		parts = append(parts, cfg.Extras)
	}

	return strings.Join(parts, " ")
}
