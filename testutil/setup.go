package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kasuganosora/lootsim/cache"
	"github.com/kasuganosora/lootsim/cache/local"
	"github.com/kasuganosora/lootsim/config"
	dbadapter "github.com/kasuganosora/lootsim/db"
	"github.com/kasuganosora/lootsim/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupTestDB creates a private in-memory SQLite DB and runs AutoMigrate.
// Each test gets its own database named after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel:   "silent",
	}, zap.NewNop())
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupTestCache creates a LocalCache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{})
	require.NoError(t, err, "SetupTestCache: NewCache")
	if lc, ok := c.(*local.LocalCache); ok {
		t.Cleanup(lc.Close)
	}
	return c
}
