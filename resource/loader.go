package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingReference is returned when game data points at a zone, monster or
// item that does not exist. It signals a data-integrity problem, not a
// computation failure.
var ErrMissingReference = errors.New("resource: missing reference data")

// DefaultCurrencyItemID is the item whose unit price is always 1.
const DefaultCurrencyItemID = "/items/coin"

// ---- Game data structures ----

// Spawn is one monster entry in a zone's spawn list.
type Spawn struct {
	MonsterID string  `json:"monster_id" yaml:"monster_id"`
	Rate      float64 `json:"rate" yaml:"rate"`
	Strength  float64 `json:"strength" yaml:"strength"`
}

// SpawnInfo is a zone's monster spawn configuration.
type SpawnInfo struct {
	Spawns            []Spawn  `json:"spawns" yaml:"spawns"`
	MaxSpawnCount     int      `json:"max_spawn_count" yaml:"max_spawn_count"`
	MaxTotalStrength  float64  `json:"max_total_strength" yaml:"max_total_strength"`
	BossFightMonsters []string `json:"boss_fight_monsters,omitempty" yaml:"boss_fight_monsters,omitempty"`
}

// Zone is a combat action (map area) a player can farm.
type Zone struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	SortIndex int       `json:"sort_index" yaml:"sort_index"`
	SpawnInfo SpawnInfo `json:"monster_spawn_info" yaml:"monster_spawn_info"`
}

// Drop is one entry of a monster's drop table.
type Drop struct {
	ItemID   string  `json:"item_id" yaml:"item_id"`
	DropRate float64 `json:"drop_rate" yaml:"drop_rate"` // 0..1
	MinCount int     `json:"min_count" yaml:"min_count"`
	MaxCount int     `json:"max_count" yaml:"max_count"`
}

// Monster is a combat monster definition.
type Monster struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	DropTable []Drop `json:"drop_table" yaml:"drop_table"`
}

// Item is an item definition.
type Item struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	IsCurrency bool   `json:"is_currency,omitempty" yaml:"is_currency,omitempty"`
}

// MarketPrice is the current order-book top for an item. A negative side means
// there are no orders on it.
type MarketPrice struct {
	Ask float64 `json:"ask" yaml:"ask"`
	Bid float64 `json:"bid" yaml:"bid"`
}

// Available reports whether both sides of the book have a price.
func (p MarketPrice) Available() bool { return p.Ask >= 0 && p.Bid >= 0 }

// MarketData is the market snapshot file.
type MarketData struct {
	Time   int64                  `json:"time" yaml:"time"`
	Market map[string]MarketPrice `json:"market" yaml:"market"`
}

// ---- ResourceLoader ----

// ResourceLoader reads and holds the static game data files. Lookups are safe
// for concurrent use with Load and ReloadMarket.
type ResourceLoader struct {
	DataPath       string
	CurrencyItemID string

	mu         sync.RWMutex
	zones      map[string]*Zone
	monsters   map[string]*Monster
	items      map[string]*Item
	market     map[string]MarketPrice
	marketTime int64
	version    int64
}

// NewLoader creates a ResourceLoader for the given data directory.
func NewLoader(dataPath string) *ResourceLoader {
	return &ResourceLoader{
		DataPath:       dataPath,
		CurrencyItemID: DefaultCurrencyItemID,
		zones:          make(map[string]*Zone),
		monsters:       make(map[string]*Monster),
		items:          make(map[string]*Item),
		market:         make(map[string]MarketPrice),
	}
}

// Load reads zones, monsters and items (required) and the market snapshot
// (optional), then swaps them in atomically.
func (rl *ResourceLoader) Load() error {
	zones, err := loadList[Zone](rl, "zones")
	if err != nil {
		return err
	}
	monsters, err := loadList[Monster](rl, "monsters")
	if err != nil {
		return err
	}
	items, err := loadList[Item](rl, "items")
	if err != nil {
		return err
	}
	market, err := rl.readMarket()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	zm := make(map[string]*Zone, len(zones))
	for _, z := range zones {
		if z != nil {
			zm[z.ID] = z
		}
	}
	mm := make(map[string]*Monster, len(monsters))
	for _, m := range monsters {
		if m != nil {
			mm[m.ID] = m
		}
	}
	im := make(map[string]*Item, len(items))
	for _, it := range items {
		if it != nil {
			im[it.ID] = it
		}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.zones, rl.monsters, rl.items = zm, mm, im
	rl.bumpVersion()
	if market != nil {
		rl.market, rl.marketTime = market.Market, market.Time
	}
	return nil
}

// ReloadMarket re-reads only the market snapshot.
func (rl *ResourceLoader) ReloadMarket() error {
	market, err := rl.readMarket()
	if err != nil {
		return err
	}
	rl.mu.Lock()
	rl.market, rl.marketTime = market.Market, market.Time
	rl.mu.Unlock()
	return nil
}

func (rl *ResourceLoader) readMarket() (*MarketData, error) {
	path, err := rl.find("market")
	if err != nil {
		return nil, err
	}
	md := &MarketData{}
	if err := decodeFile(path, md); err != nil {
		return nil, err
	}
	if md.Market == nil {
		md.Market = make(map[string]MarketPrice)
	}
	return md, nil
}

var dataExts = []string{".json", ".yaml", ".yml"}

// find returns the first existing data file named base with a known extension.
func (rl *ResourceLoader) find(base string) (string, error) {
	for _, ext := range dataExts {
		p := filepath.Join(rl.DataPath, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("resource: %s data file in %s: %w", base, rl.DataPath, os.ErrNotExist)
}

func loadList[T any](rl *ResourceLoader, base string) ([]*T, error) {
	path, err := rl.find(base)
	if err != nil {
		return nil, err
	}
	var arr []*T
	if err := decodeFile(path, &arr); err != nil {
		return nil, err
	}
	return arr, nil
}

func decodeFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("resource: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return nil
}

// ---- Lookups ----

// ZoneByID returns the zone with the given id, or nil.
func (rl *ResourceLoader) ZoneByID(id string) *Zone {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.zones[id]
}

// MonsterByID returns the monster with the given id, or nil.
func (rl *ResourceLoader) MonsterByID(id string) *Monster {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.monsters[id]
}

// ItemByID returns the item with the given id, or nil.
func (rl *ResourceLoader) ItemByID(id string) *Item {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.items[id]
}

// Slug is the last path segment of a hierarchical id, e.g. "fly" for
// "/actions/combat/fly".
func Slug(id string) string { return path.Base(id) }

// ResolveZone finds a zone by full id or by slug.
func (rl *ResourceLoader) ResolveZone(ref string) *Zone {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if z, ok := rl.zones[ref]; ok {
		return z
	}
	for id, z := range rl.zones {
		if Slug(id) == ref {
			return z
		}
	}
	return nil
}

// ResolveItem finds an item by full id or by slug.
func (rl *ResourceLoader) ResolveItem(ref string) *Item {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if it, ok := rl.items[ref]; ok {
		return it
	}
	for id, it := range rl.items {
		if Slug(id) == ref {
			return it
		}
	}
	return nil
}

// Counts returns the number of loaded zones, monsters, items and market entries.
func (rl *ResourceLoader) Counts() (zones, monsters, items, market int) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.zones), len(rl.monsters), len(rl.items), len(rl.market)
}

// MarketPrice returns the market price of an item and whether the snapshot
// has an entry for it.
func (rl *ResourceLoader) MarketPrice(itemID string) (MarketPrice, bool) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	p, ok := rl.market[itemID]
	return p, ok
}

// MarketTime returns the timestamp of the loaded market snapshot.
func (rl *ResourceLoader) MarketTime() int64 {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.marketTime
}

// IsCurrency reports whether itemID is the currency item.
func (rl *ResourceLoader) IsCurrency(itemID string) bool {
	if itemID == rl.CurrencyItemID {
		return true
	}
	it := rl.ItemByID(itemID)
	return it != nil && it.IsCurrency
}

// Zones returns all zones ordered by SortIndex, then id.
func (rl *ResourceLoader) Zones() []*Zone {
	rl.mu.RLock()
	out := make([]*Zone, 0, len(rl.zones))
	for _, z := range rl.zones {
		out = append(out, z)
	}
	rl.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortIndex != out[j].SortIndex {
			return out[i].SortIndex < out[j].SortIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Set replaces the loaded data. Intended for tests and embedded data sets.
func (rl *ResourceLoader) Set(zones []*Zone, monsters []*Monster, items []*Item, market map[string]MarketPrice) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.zones = make(map[string]*Zone, len(zones))
	for _, z := range zones {
		rl.zones[z.ID] = z
	}
	rl.monsters = make(map[string]*Monster, len(monsters))
	for _, m := range monsters {
		rl.monsters[m.ID] = m
	}
	rl.items = make(map[string]*Item, len(items))
	for _, it := range items {
		rl.items[it.ID] = it
	}
	if market == nil {
		market = make(map[string]MarketPrice)
	}
	rl.market = market
	rl.bumpVersion()
}

// Version identifies the loaded zones, monsters and items. It increases on
// every Load or Set; market refreshes leave it unchanged.
func (rl *ResourceLoader) Version() int64 {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.version
}

// bumpVersion must be called with rl.mu held. Wall-clock based so versions
// stay distinct across restarts.
func (rl *ResourceLoader) bumpVersion() {
	v := time.Now().UnixNano()
	if v <= rl.version {
		v = rl.version + 1
	}
	rl.version = v
}

// ---- Validation ----

// Validate checks that every monster referenced by a zone and every item
// referenced by a drop table exists. All problems are reported, each wrapping
// ErrMissingReference.
func (rl *ResourceLoader) Validate() error {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	var errs []error
	zoneIDs := make([]string, 0, len(rl.zones))
	for id := range rl.zones {
		zoneIDs = append(zoneIDs, id)
	}
	sort.Strings(zoneIDs)
	for _, id := range zoneIDs {
		z := rl.zones[id]
		for _, sp := range z.SpawnInfo.Spawns {
			if rl.monsters[sp.MonsterID] == nil {
				errs = append(errs, fmt.Errorf("%w: zone %s spawns monster %s", ErrMissingReference, id, sp.MonsterID))
			}
		}
		for _, b := range z.SpawnInfo.BossFightMonsters {
			if rl.monsters[b] == nil {
				errs = append(errs, fmt.Errorf("%w: zone %s boss monster %s", ErrMissingReference, id, b))
			}
		}
	}

	monsterIDs := make([]string, 0, len(rl.monsters))
	for id := range rl.monsters {
		monsterIDs = append(monsterIDs, id)
	}
	sort.Strings(monsterIDs)
	for _, id := range monsterIDs {
		for _, d := range rl.monsters[id].DropTable {
			if rl.items[d.ItemID] == nil {
				errs = append(errs, fmt.Errorf("%w: monster %s drops item %s", ErrMissingReference, id, d.ItemID))
			}
		}
	}
	return errors.Join(errs...)
}
