package encounter

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func singleMonsterGroup() SpawnGroup {
	return SpawnGroup{
		Candidates:       []SpawnCandidate{{MonsterID: "monsterA", Rate: 1, Strength: 1}},
		MaxSpawnCount:    1,
		MaxTotalStrength: 1,
	}
}

func TestGenerateSession_SingleMonster(t *testing.T) {
	s, err := GenerateSession(singleMonsterGroup(), 20, NewSequenceRNG(0.3))
	require.NoError(t, err)
	require.Len(t, s, 20)
	for i, enc := range s {
		assert.Equal(t, Encounter{"monsterA"}, enc, "encounter %d", i+1)
	}
}

func TestGenerateSession_BossEveryTenth(t *testing.T) {
	g := singleMonsterGroup()
	g.BossMonsters = []string{"bossM", "minion"}

	s, err := GenerateSession(g, 25, NewSequenceRNG(0.3))
	require.NoError(t, err)
	require.Len(t, s, 25)
	for i, enc := range s {
		if (i+1)%BossCycle == 0 {
			assert.Equal(t, Encounter{"bossM", "minion"}, enc, "encounter %d", i+1)
		} else {
			assert.Equal(t, Encounter{"monsterA"}, enc, "encounter %d", i+1)
		}
	}
}

func TestGenerateSession_BossEncounterIsCopy(t *testing.T) {
	g := singleMonsterGroup()
	g.BossMonsters = []string{"bossM"}
	s, err := GenerateSession(g, 10, NewSequenceRNG(0.3))
	require.NoError(t, err)

	s[9][0] = "changed"
	assert.Equal(t, "bossM", g.BossMonsters[0])
}

func TestGenerateSession_NonPositiveThroughput(t *testing.T) {
	for _, n := range []int{0, -5} {
		s, err := GenerateSession(singleMonsterGroup(), n, NewSequenceRNG(0.3))
		require.NoError(t, err)
		assert.Empty(t, s)
	}
}

func TestGenerateSession_NoSpawns(t *testing.T) {
	g := SpawnGroup{MaxSpawnCount: 1, MaxTotalStrength: 1, BossMonsters: []string{"bossM"}}
	_, err := GenerateSession(g, 20, NewSequenceRNG(0.3))
	assert.ErrorIs(t, err, ErrNoSpawns)
}

func TestBossFights(t *testing.T) {
	assert.Equal(t, 0, BossFights(0))
	assert.Equal(t, 0, BossFights(9))
	assert.Equal(t, 1, BossFights(10))
	assert.Equal(t, 2, BossFights(25))
	assert.Equal(t, 0, BossFights(-10))
}

func TestGenerateSession_BossCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := genSpawnGroup(t)
		g.BossMonsters = []string{"boss"}
		n := rapid.IntRange(0, 300).Draw(t, "n")
		rng := rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed")))

		s, err := GenerateSession(g, n, rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(s) != n {
			t.Fatalf("session length %d, want %d", len(s), n)
		}
		bosses := 0
		for _, enc := range s {
			if len(enc) == 1 && enc[0] == "boss" {
				bosses++
			}
		}
		if bosses != n/BossCycle {
			t.Fatalf("got %d boss encounters, want %d", bosses, n/BossCycle)
		}
	})
}
