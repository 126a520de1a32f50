package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/lootsim/game/loot"
	mw "github.com/kasuganosora/lootsim/middleware"
	"github.com/kasuganosora/lootsim/model"
	"github.com/kasuganosora/lootsim/resource"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoadOverrides returns an account's price overrides.
func LoadOverrides(ctx context.Context, db *gorm.DB, accountID int64) (loot.Overrides, error) {
	var rows []model.PriceOverride
	if err := db.WithContext(ctx).Where("account_id = ?", accountID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(loot.Overrides, len(rows))
	for _, r := range rows {
		out[r.ItemID] = r.Price
	}
	return out, nil
}

// PriceHandler manages per-account item price overrides.
type PriceHandler struct {
	db  *gorm.DB
	res *resource.ResourceLoader
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(db *gorm.DB, res *resource.ResourceLoader) *PriceHandler {
	return &PriceHandler{db: db, res: res}
}

type priceView struct {
	ItemID      string  `json:"item_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	MarketPrice float64 `json:"market_price"`
}

// List handles GET /api/prices.
func (h *PriceHandler) List(c *gin.Context) {
	var rows []model.PriceOverride
	err := h.db.WithContext(c.Request.Context()).
		Where("account_id = ?", mw.GetAccountID(c)).
		Order("item_id").Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	out := make([]priceView, 0, len(rows))
	for _, r := range rows {
		v := priceView{ItemID: r.ItemID, Name: r.ItemID, Price: r.Price}
		if it := h.res.ItemByID(r.ItemID); it != nil {
			v.Name = it.Name
		}
		v.MarketPrice = loot.UnitPrice(h.res, r.ItemID, nil)
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"prices": out})
}

type putPriceRequest struct {
	Price *float64 `json:"price" binding:"required"`
}

// Put handles PUT /api/prices/:item. The item may be given by id or slug.
// The currency item's price is fixed at 1 and cannot be overridden.
func (h *PriceHandler) Put(c *gin.Context) {
	it := h.res.ResolveItem(c.Param("item"))
	if it == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if h.res.IsCurrency(it.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currency price cannot be overridden"})
		return
	}
	var req putPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}

	row := model.PriceOverride{
		AccountID: mw.GetAccountID(c),
		ItemID:    it.ID,
		Price:     *req.Price,
	}
	err := h.db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, priceView{
		ItemID:      it.ID,
		Name:        it.Name,
		Price:       row.Price,
		MarketPrice: loot.UnitPrice(h.res, it.ID, nil),
	})
}

// Delete handles DELETE /api/prices/:item, restoring the market price.
func (h *PriceHandler) Delete(c *gin.Context) {
	itemID := c.Param("item")
	if it := h.res.ResolveItem(itemID); it != nil {
		itemID = it.ID
	}
	result := h.db.WithContext(c.Request.Context()).
		Where("account_id = ? AND item_id = ?", mw.GetAccountID(c), itemID).
		Delete(&model.PriceOverride{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no override for item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
