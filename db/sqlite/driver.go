package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a GORM *DB backed by SQLite. A file::memory: DSN with
// cache=shared gives an in-process database that all pool connections see.
func Open(path string, log logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: log})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; the run log writes from its own goroutine.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
