package mysql

import (
	"errors"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/kasuganosora/lootsim/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrEmptyDSN is returned when mysql mode is selected without a DSN.
var ErrEmptyDSN = errors.New("mysql dsn is empty")

// NormalizeDSN parses dsn and forces time columns to scan into time.Time,
// in UTC unless the DSN names a location.
func NormalizeDSN(dsn string) (string, error) {
	if dsn == "" {
		return "", ErrEmptyDSN
	}
	c, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	c.ParseTime = true
	if c.Loc == nil {
		c.Loc = time.UTC
	}
	return c.FormatDSN(), nil
}

// Open connects to MySQL with cfg's DSN and pool limits.
func Open(cfg config.DatabaseConfig, log logger.Interface) (*gorm.DB, error) {
	dsn, err := NormalizeDSN(cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: log})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MySQLMaxOpen)
	sqlDB.SetMaxIdleConns(cfg.MySQLMaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.MySQLMaxLife)
	return db, nil
}
