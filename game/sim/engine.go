// Package sim runs the encounter and loot pipeline for a zone and memoizes the
// random part of it.
package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/lootsim/game/encounter"
	"github.com/kasuganosora/lootsim/game/loot"
	"github.com/kasuganosora/lootsim/resource"
	"go.uber.org/zap"
)

// ErrUnknownZone is returned for a zone id that is not in the game data.
var ErrUnknownZone = errors.New("sim: unknown zone")

// Data is the game data the engine reads. *resource.ResourceLoader
// implements it.
type Data interface {
	loot.Data
	ZoneByID(id string) *resource.Zone
}

// Key identifies a snapshot: a new random draw happens only when it changes.
type Key struct {
	ZoneID     string `json:"zone_id"`
	Throughput int    `json:"throughput"`
}

// Snapshot is the random half of a simulation: the encounter rates drawn for
// one zone and throughput. Loot is derived from it deterministically.
type Snapshot struct {
	Key
	Seed        int64            `json:"seed"`
	Encounters  int              `json:"encounters"`
	BossFights  int              `json:"boss_fights"`
	Kills       map[string]int   `json:"kills"`
	Rates       []encounter.Rate `json:"rates"`
	CreatedAt   time.Time        `json:"created_at"`
	DataVersion int64            `json:"data_version"` // game data the draw used
}

// RateRow is an encounter rate with the monster's display name.
type RateRow struct {
	MonsterID string  `json:"monster_id"`
	Name      string  `json:"name"`
	Rate      float64 `json:"rate"`
}

// Report is the loot table for a snapshot at a presentation scale.
type Report struct {
	Key
	Scale   loot.Scale    `json:"per"`
	Records []loot.Record `json:"records"`
	Total   float64       `json:"total"`
}

// Engine runs the pipeline against game data.
type Engine struct {
	data   Data
	seed   int64
	logger *zap.Logger
}

// NewEngine creates an Engine. A non-zero seed makes every snapshot use the
// same random sequence; zero draws a fresh crypto seed per snapshot.
func NewEngine(data Data, seed int64, logger *zap.Logger) *Engine {
	return &Engine{data: data, seed: seed, logger: logger}
}

// SpawnGroup converts a zone's spawn configuration.
func SpawnGroup(z *resource.Zone) encounter.SpawnGroup {
	si := z.SpawnInfo
	g := encounter.SpawnGroup{
		Candidates:       make([]encounter.SpawnCandidate, 0, len(si.Spawns)),
		MaxSpawnCount:    si.MaxSpawnCount,
		MaxTotalStrength: si.MaxTotalStrength,
	}
	for _, sp := range si.Spawns {
		g.Candidates = append(g.Candidates, encounter.SpawnCandidate{
			MonsterID: sp.MonsterID,
			Rate:      sp.Rate,
			Strength:  sp.Strength,
		})
	}
	if len(si.BossFightMonsters) > 0 {
		g.BossMonsters = append([]string(nil), si.BossFightMonsters...)
	}
	return g
}

// Run draws a new snapshot with a fresh (or the configured) seed.
func (e *Engine) Run(key Key) (*Snapshot, error) {
	seed := e.seed
	if seed == 0 {
		var err error
		if seed, err = NewSeed(); err != nil {
			return nil, err
		}
	}
	snap, err := e.Snapshot(key, NewRNG(seed))
	if err != nil {
		return nil, err
	}
	snap.Seed = seed
	return snap, nil
}

// Snapshot generates the session for key using rng and estimates encounter
// rates. A zone without valid spawns yields an empty snapshot rather than an
// error.
func (e *Engine) Snapshot(key Key, rng encounter.RNG) (*Snapshot, error) {
	zone := e.data.ZoneByID(key.ZoneID)
	if zone == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownZone, key.ZoneID)
	}
	group := SpawnGroup(zone)

	snap := &Snapshot{
		Key:       key,
		Kills:     map[string]int{},
		Rates:     []encounter.Rate{},
		CreatedAt: time.Now(),
	}
	session, err := encounter.GenerateSession(group, key.Throughput, rng)
	if errors.Is(err, encounter.ErrNoSpawns) {
		e.logger.Warn("zone has no valid spawns",
			zap.String("zone_id", key.ZoneID), zap.Error(err))
		return snap, nil
	}
	if err != nil {
		return nil, err
	}

	tally := encounter.Tally(session)
	snap.Encounters = len(session)
	if group.HasBoss() {
		snap.BossFights = encounter.BossFights(key.Throughput)
	}
	snap.Kills = tally.Map()
	snap.Rates = encounter.EstimateRates(tally, key.Throughput, group.BossMonsters)

	e.logger.Debug("snapshot generated",
		zap.String("zone_id", key.ZoneID),
		zap.Int("throughput", key.Throughput),
		zap.Int("monsters", len(snap.Rates)))
	return snap, nil
}

// RateRows resolves monster names for a snapshot's rates.
func (e *Engine) RateRows(snap *Snapshot) ([]RateRow, error) {
	rows := make([]RateRow, 0, len(snap.Rates))
	for _, r := range snap.Rates {
		m := e.data.MonsterByID(r.MonsterID)
		if m == nil {
			return nil, fmt.Errorf("%w: monster %s", resource.ErrMissingReference, r.MonsterID)
		}
		rows = append(rows, RateRow{MonsterID: r.MonsterID, Name: m.Name, Rate: r.Rate})
	}
	return rows, nil
}

// Loot prices the snapshot's drops with the given overrides. Records and
// total are scaled for presentation; the scaling never triggers a new draw.
func (e *Engine) Loot(snap *Snapshot, overrides loot.Overrides, scale loot.Scale) (*Report, error) {
	hourly, err := loot.Aggregate(e.data, snap.Rates, snap.Throughput, overrides)
	if err != nil {
		return nil, err
	}
	return &Report{
		Key:     snap.Key,
		Scale:   scale,
		Records: loot.Scaled(hourly, scale),
		Total:   scale.Apply(loot.Total(hourly)),
	}, nil
}
