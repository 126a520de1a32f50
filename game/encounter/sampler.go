package encounter

import "fmt"

// TotalWeight sums the spawn weights of candidates.
func TotalWeight(candidates []SpawnCandidate) float64 {
	total := 0.0
	for _, c := range candidates {
		total += c.Rate
	}
	return total
}

// SampleSpawn draws one candidate with probability proportional to its Rate.
// A uniform value in [0, total) is drawn and the candidates are walked until
// the cumulative weight meets or exceeds it.
func SampleSpawn(candidates []SpawnCandidate, rng RNG) (SpawnCandidate, error) {
	for _, c := range candidates {
		if c.Rate < 0 {
			return SpawnCandidate{}, fmt.Errorf("%w: negative weight for %s", ErrNoSpawns, c.MonsterID)
		}
	}
	total := TotalWeight(candidates)
	if total <= 0 {
		return SpawnCandidate{}, ErrNoSpawns
	}

	draw := total * rng.Float64()
	cumulative := 0.0
	last := -1
	for i, c := range candidates {
		if c.Rate == 0 {
			continue // never selectable
		}
		last = i
		cumulative += c.Rate
		if cumulative >= draw {
			return c, nil
		}
	}
	// Rounding can leave cumulative a hair below draw.
	return candidates[last], nil
}
