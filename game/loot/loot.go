// Package loot turns monster encounter rates into expected item drops and
// coin value per hour.
package loot

import (
	"fmt"
	"math"

	"github.com/kasuganosora/lootsim/game/encounter"
	"github.com/kasuganosora/lootsim/resource"
)

// Data is the read-only game data the aggregator reads.
// *resource.ResourceLoader implements it.
type Data interface {
	MonsterByID(id string) *resource.Monster
	ItemByID(id string) *resource.Item
	MarketPrice(itemID string) (resource.MarketPrice, bool)
	IsCurrency(itemID string) bool
}

// Overrides are player-supplied unit prices keyed by item id.
type Overrides map[string]float64

// Record is the expected yield of one item over an hour.
type Record struct {
	ItemID       string  `json:"item_id"`
	ItemName     string  `json:"item_name"`
	DropsPerHour float64 `json:"drops_per_hour"`
	CoinPerItem  float64 `json:"coin_per_item"`
	CoinPerHour  float64 `json:"coin_per_hour"`
}

// UnitPrice resolves the coin value of one item: the override when present,
// 1 for the currency item, otherwise the rounded midpoint of the market ask
// and bid. Items without usable market data are worth 0.
func UnitPrice(data Data, itemID string, overrides Overrides) float64 {
	if p, ok := overrides[itemID]; ok {
		return p
	}
	if data.IsCurrency(itemID) {
		return 1
	}
	mp, ok := data.MarketPrice(itemID)
	if !ok || !mp.Available() {
		return 0
	}
	return math.Round((mp.Ask + mp.Bid) / 2)
}

// AvgDropPerKill is the expected quantity one kill yields for a drop entry.
func AvgDropPerKill(d resource.Drop) float64 {
	return d.DropRate * float64(d.MinCount+d.MaxCount) / 2
}

// Aggregate computes per-item hourly drops and coin value for n encounters
// per hour split according to rates.
//
// Records are merged by item in first-seen order. DropsPerHour and CoinPerHour
// are summed across monsters; CoinPerItem keeps the value of the monster
// processed last. An unknown monster or item fails with
// resource.ErrMissingReference.
func Aggregate(data Data, rates []encounter.Rate, n int, overrides Overrides) ([]Record, error) {
	if n <= 0 {
		return []Record{}, nil
	}
	records := make([]Record, 0)
	index := make(map[string]int)

	for _, r := range rates {
		monster := data.MonsterByID(r.MonsterID)
		if monster == nil {
			return nil, fmt.Errorf("%w: monster %s", resource.ErrMissingReference, r.MonsterID)
		}
		for _, d := range monster.DropTable {
			item := data.ItemByID(d.ItemID)
			if item == nil {
				return nil, fmt.Errorf("%w: item %s dropped by %s", resource.ErrMissingReference, d.ItemID, monster.ID)
			}
			dropsPerHour := AvgDropPerKill(d) * float64(n) * r.Rate
			coinPerItem := UnitPrice(data, d.ItemID, overrides)
			coinPerHour := coinPerItem * dropsPerHour

			if i, ok := index[d.ItemID]; ok {
				rec := &records[i]
				rec.DropsPerHour += dropsPerHour
				rec.CoinPerHour += coinPerHour
				rec.CoinPerItem = coinPerItem
				continue
			}
			index[d.ItemID] = len(records)
			records = append(records, Record{
				ItemID:       d.ItemID,
				ItemName:     item.Name,
				DropsPerHour: dropsPerHour,
				CoinPerItem:  coinPerItem,
				CoinPerHour:  coinPerHour,
			})
		}
	}
	return records, nil
}

// Total is the summed coin value of all records.
func Total(records []Record) float64 {
	total := 0.0
	for _, r := range records {
		total += r.CoinPerHour
	}
	return total
}
