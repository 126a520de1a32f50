package db

import (
	"fmt"

	"github.com/kasuganosora/lootsim/config"
	dbmysql "github.com/kasuganosora/lootsim/db/mysql"
	dbsqlite "github.com/kasuganosora/lootsim/db/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode. Statement logs go
// to log.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gl := NewGormLogger(log, cfg.LogLevel, cfg.SlowQuery)
	switch cfg.Mode {
	case ModeSQLite, "":
		return dbsqlite.Open(cfg.SQLitePath, gl)
	case ModeMySQL:
		db, err := dbmysql.Open(cfg, gl)
		if err != nil {
			return nil, fmt.Errorf("db: mysql: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
