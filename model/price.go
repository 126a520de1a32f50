package model

import "time"

// PriceOverride is a player-supplied unit price for one item. It replaces the
// market midpoint in that player's loot reports.
type PriceOverride struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	AccountID int64     `gorm:"uniqueIndex:idx_override_item;not null" json:"-"`
	ItemID    string    `gorm:"uniqueIndex:idx_override_item;size:128;not null" json:"item_id"`
	Price     float64   `gorm:"not null" json:"price"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
