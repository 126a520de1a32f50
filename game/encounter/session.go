package encounter

// GenerateSession produces n encounters. When the group has a boss fight,
// every BossCycle-th encounter (1-based) is the boss group verbatim; all others
// come from BuildEncounter. n <= 0 yields an empty session.
func GenerateSession(g SpawnGroup, n int, rng RNG) (Session, error) {
	if n <= 0 {
		return Session{}, nil
	}
	session := make(Session, 0, n)
	for i := 1; i <= n; i++ {
		if g.HasBoss() && i%BossCycle == 0 {
			boss := make(Encounter, len(g.BossMonsters))
			copy(boss, g.BossMonsters)
			session = append(session, boss)
			continue
		}
		enc, err := BuildEncounter(g, rng)
		if err != nil {
			return nil, err
		}
		session = append(session, enc)
	}
	return session, nil
}

// BossFights returns how many full boss encounters a session of n encounters
// contains.
func BossFights(n int) int {
	if n <= 0 {
		return 0
	}
	return n / BossCycle
}
