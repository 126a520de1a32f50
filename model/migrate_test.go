package model_test

import (
	"testing"

	"github.com/kasuganosora/lootsim/model"
	"github.com/kasuganosora/lootsim/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	acc := &model.Account{Username: "test_user", PasswordHash: "hash", Status: 1}
	require.NoError(t, db.Create(acc).Error)
	assert.Greater(t, acc.ID, int64(0))

	var found model.Account
	require.NoError(t, db.First(&found, acc.ID).Error)
	assert.Equal(t, "test_user", found.Username)

	po := &model.PriceOverride{AccountID: acc.ID, ItemID: "/items/cheese", Price: 250}
	require.NoError(t, db.Create(po).Error)

	run := &model.SimulationRun{
		AccountID:  acc.ID,
		ZoneID:     "/actions/combat/fly",
		Throughput: 100,
		Seed:       7,
		Encounters: 100,
		Rates:      datatypes.JSON(`[{"monster_id":"/monsters/fly","rate":1}]`),
	}
	require.NoError(t, db.Create(run).Error)

	var got model.SimulationRun
	require.NoError(t, db.First(&got, run.ID).Error)
	assert.JSONEq(t, `[{"monster_id":"/monsters/fly","rate":1}]`, string(got.Rates))
}

func TestPriceOverride_UniquePerAccountItem(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, db.Create(&model.PriceOverride{AccountID: 1, ItemID: "/items/cheese", Price: 1}).Error)
	require.NoError(t, db.Create(&model.PriceOverride{AccountID: 2, ItemID: "/items/cheese", Price: 2}).Error)
	assert.Error(t, db.Create(&model.PriceOverride{AccountID: 1, ItemID: "/items/cheese", Price: 3}).Error)
}
