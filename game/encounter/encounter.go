// Package encounter samples monster spawns for a combat zone and estimates how
// often each monster is met over an hour of encounters.
package encounter

import "errors"

// BossCycle is the number of encounters per boss fight: every BossCycle-th
// encounter is replaced by the zone's boss group when one is configured.
const BossCycle = 10

// ErrNoSpawns is returned when a spawn group has no candidate with a positive
// weight, so no encounter can be drawn from it.
var ErrNoSpawns = errors.New("encounter: no valid spawn configuration")

// SpawnCandidate is one monster that can appear in a zone's encounters.
type SpawnCandidate struct {
	MonsterID string  `json:"monster_id"`
	Rate      float64 `json:"rate"` // relative weight
	Strength  float64 `json:"strength"`
}

// SpawnGroup describes how encounters are assembled in a zone.
type SpawnGroup struct {
	Candidates       []SpawnCandidate `json:"candidates"`
	MaxSpawnCount    int              `json:"max_spawn_count"`
	MaxTotalStrength float64          `json:"max_total_strength"`
	// BossMonsters replaces every BossCycle-th encounter verbatim. Nil when the
	// zone has no boss fight.
	BossMonsters []string `json:"boss_monsters,omitempty"`
}

// HasBoss reports whether the group has a boss fight.
func (g SpawnGroup) HasBoss() bool { return len(g.BossMonsters) > 0 }

// Boss returns the designated boss monster (first boss id), or "" when the
// group has no boss fight.
func (g SpawnGroup) Boss() string {
	if !g.HasBoss() {
		return ""
	}
	return g.BossMonsters[0]
}

// Encounter is the ordered list of monster ids met in one fight.
type Encounter []string

// Session is the sequence of encounters for one hour of throughput.
type Session []Encounter

// RNG is the random source used by the sampler. *math/rand.Rand satisfies it.
type RNG interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// SequenceRNG replays a fixed list of values, wrapping around at the end.
// An empty sequence always yields 0.
type SequenceRNG struct {
	Values []float64
	pos    int
}

// NewSequenceRNG creates a SequenceRNG over values.
func NewSequenceRNG(values ...float64) *SequenceRNG {
	return &SequenceRNG{Values: values}
}

// Float64 returns the next value of the sequence.
func (s *SequenceRNG) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}

// Draws returns how many values have been consumed.
func (s *SequenceRNG) Draws() int { return s.pos }
