package encounter

// BuildEncounter assembles one encounter from the group.
//
// Up to MaxSpawnCount spawns are drawn. Each draw adds its strength to the
// running total; the monster joins the encounter only while the total stays
// within MaxTotalStrength. The first draw that overflows ends the encounter:
// the remaining slots are not filled and the draw is not retried.
func BuildEncounter(g SpawnGroup, rng RNG) (Encounter, error) {
	if TotalWeight(g.Candidates) <= 0 {
		return nil, ErrNoSpawns
	}

	enc := make(Encounter, 0, g.MaxSpawnCount)
	totalStrength := 0.0
	for i := 0; i < g.MaxSpawnCount; i++ {
		c, err := SampleSpawn(g.Candidates, rng)
		if err != nil {
			return nil, err
		}
		totalStrength += c.Strength
		if totalStrength > g.MaxTotalStrength {
			break
		}
		enc = append(enc, c.MonsterID)
	}
	return enc, nil
}
