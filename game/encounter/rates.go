package encounter

import "math"

// KillTally counts how often each monster appears across a session. Monsters
// are kept in the order they were first seen.
type KillTally struct {
	order  []string
	counts map[string]int
}

// NewKillTally returns an empty tally.
func NewKillTally() *KillTally {
	return &KillTally{counts: make(map[string]int)}
}

// Add records one occurrence of monsterID.
func (t *KillTally) Add(monsterID string) {
	if _, ok := t.counts[monsterID]; !ok {
		t.order = append(t.order, monsterID)
	}
	t.counts[monsterID]++
}

// Count returns the occurrences of monsterID.
func (t *KillTally) Count(monsterID string) int { return t.counts[monsterID] }

// Monsters returns the tallied monster ids in first-seen order.
func (t *KillTally) Monsters() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Total returns the number of monsters tallied.
func (t *KillTally) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Map returns the tally as a plain map.
func (t *KillTally) Map() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// Tally flattens a session and counts every monster occurrence.
func Tally(s Session) *KillTally {
	t := NewKillTally()
	for _, enc := range s {
		for _, id := range enc {
			t.Add(id)
		}
	}
	return t
}

// Rate is the fraction of an hour's encounters attributable to one monster.
type Rate struct {
	MonsterID string  `json:"monster_id"`
	Rate      float64 `json:"rate"`
}

// EstimateRates normalizes a tally over n encounters.
//
// Every monster gets count/n, except the designated boss (first id of
// bossMonsters) when n is not a multiple of BossCycle: its rate becomes
// (frac(n/BossCycle) + count)/n, crediting the partial boss cycle at the end of
// the hour. This correction is a heuristic and the rates need not sum to 1.
// n <= 0 yields an empty table.
func EstimateRates(t *KillTally, n int, bossMonsters []string) []Rate {
	if n <= 0 || t == nil {
		return []Rate{}
	}
	boss := ""
	if len(bossMonsters) > 0 {
		boss = bossMonsters[0]
	}
	partial := n%BossCycle != 0
	remainder := math.Mod(float64(n)/BossCycle, 1)

	rates := make([]Rate, 0, len(t.order))
	for _, id := range t.order {
		count := float64(t.counts[id])
		r := count / float64(n)
		if boss != "" && id == boss && partial {
			r = (remainder + count) / float64(n)
		}
		rates = append(rates, Rate{MonsterID: id, Rate: r})
	}
	return rates
}

// RateMap indexes rates by monster id.
func RateMap(rates []Rate) map[string]float64 {
	out := make(map[string]float64, len(rates))
	for _, r := range rates {
		out[r.MonsterID] = r.Rate
	}
	return out
}

// SumRates adds up all rates.
func SumRates(rates []Rate) float64 {
	sum := 0.0
	for _, r := range rates {
		sum += r.Rate
	}
	return sum
}
