package rest_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/kasuganosora/lootsim/api/rest"
	"github.com/kasuganosora/lootsim/game/loot"
	"github.com/kasuganosora/lootsim/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pricesResp struct {
	Prices []struct {
		ItemID      string  `json:"item_id"`
		Name        string  `json:"name"`
		Price       float64 `json:"price"`
		MarketPrice float64 `json:"market_price"`
	} `json:"prices"`
}

func TestPrices_PutListDelete(t *testing.T) {
	s := newTestServer(t)
	auth := login(t, s.r, "pat")

	w := doJSON(s.r, http.MethodPut, "/api/prices/cheese", map[string]float64{"price": 250}, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Upsert replaces the existing row.
	w = doJSON(s.r, http.MethodPut, "/api/prices/cheese", map[string]float64{"price": 275}, auth...)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(s.r, http.MethodGet, "/api/prices", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	var resp pricesResp
	decode(t, w, &resp)
	require.Len(t, resp.Prices, 1)
	assert.Equal(t, "/items/cheese", resp.Prices[0].ItemID)
	assert.Equal(t, "Cheese", resp.Prices[0].Name)
	assert.Equal(t, 275.0, resp.Prices[0].Price)
	assert.Equal(t, 300.0, resp.Prices[0].MarketPrice)

	w = doJSON(s.r, http.MethodDelete, "/api/prices/cheese", nil, auth...)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(s.r, http.MethodDelete, "/api/prices/cheese", nil, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrices_ZeroOverrideKept(t *testing.T) {
	s := newTestServer(t)
	auth := login(t, s.r, "pat")

	w := doJSON(s.r, http.MethodPut, "/api/prices/green_tea_leaf", map[string]float64{"price": 0}, auth...)
	require.Equal(t, http.StatusOK, w.Code)

	var acc model.Account
	require.NoError(t, s.db.Where("username = ?", "pat").First(&acc).Error)
	o, err := rest.LoadOverrides(context.Background(), s.db, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, loot.Overrides{"/items/green_tea_leaf": 0}, o)
}

func TestPrices_Rejections(t *testing.T) {
	s := newTestServer(t)
	auth := login(t, s.r, "pat")

	w := doJSON(s.r, http.MethodPut, "/api/prices/coin", map[string]float64{"price": 5}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code, "currency is fixed")

	w = doJSON(s.r, http.MethodPut, "/api/prices/unobtainium", map[string]float64{"price": 5}, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(s.r, http.MethodPut, "/api/prices/cheese", map[string]float64{"price": -1}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(s.r, http.MethodPut, "/api/prices/cheese", map[string]string{}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrices_PerAccount(t *testing.T) {
	s := newTestServer(t)
	alice := login(t, s.r, "alice")
	bob := login(t, s.r, "bob")

	w := doJSON(s.r, http.MethodPut, "/api/prices/cheese", map[string]float64{"price": 1}, alice...)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(s.r, http.MethodGet, "/api/prices", nil, bob...)
	var resp pricesResp
	decode(t, w, &resp)
	assert.Empty(t, resp.Prices)
}
