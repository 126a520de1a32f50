package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kasuganosora/lootsim/cache"
	"github.com/kasuganosora/lootsim/cache/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixedVersion is game data that never reloads unless bumped.
type fixedVersion struct{ v atomic.Int64 }

func (f *fixedVersion) Version() int64 { return f.v.Load() }

func newTestStore(t *testing.T) (*SnapshotStore, *local.LocalCache) {
	c, err := local.NewCache(local.Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return NewSnapshotStore(c, &fixedVersion{}, 0, zap.NewNop()), c
}

func TestSnapshotStore_PerOwnerSlots(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	e := newTestEngine(t)
	key := Key{ZoneID: smellyZone, Throughput: 200}

	a, hit, err := s.Get(ctx, "1", key, e.Run)
	require.NoError(t, err)
	assert.False(t, hit)

	again, hit, err := s.Get(ctx, "1", key, e.Run)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, a.Rates, again.Rates)
	assert.Equal(t, a.Kills, again.Kills)

	_, hit, err = s.Get(ctx, "2", key, e.Run)
	require.NoError(t, err)
	assert.False(t, hit, "owners do not share slots")
}

func TestSnapshotStore_KeyChangeReplaces(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	e := newTestEngine(t)

	_, _, err := s.Get(ctx, "1", Key{ZoneID: flyZone, Throughput: 10}, e.Run)
	require.NoError(t, err)
	snap, hit, err := s.Get(ctx, "1", Key{ZoneID: flyZone, Throughput: 11}, e.Run)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 11, snap.Encounters)

	peek, err := s.Peek(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 11, peek.Throughput)
}

func TestSnapshotStore_CorruptSlotRebuilt(t *testing.T) {
	s, c := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "snapshot:1", "{not json", 0))

	calls := 0
	_, hit, err := s.Get(ctx, "1", Key{ZoneID: flyZone, Throughput: 10}, countingBuild(&calls))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, calls)
}

func TestSnapshotStore_Invalidate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	calls := 0
	_, _, _ = s.Get(ctx, "1", Key{ZoneID: flyZone, Throughput: 10}, countingBuild(&calls))

	require.NoError(t, s.Invalidate(ctx, "1"))
	_, err := s.Peek(ctx, "1")
	assert.True(t, cache.IsNotFound(err))
}

func TestSnapshotStore_ConcurrentNewKeyDrawsOnce(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	key := Key{ZoneID: smellyZone, Throughput: 50}

	var calls atomic.Int32
	build := func(k Key) (*Snapshot, error) {
		n := calls.Add(1)
		time.Sleep(5 * time.Millisecond)
		return &Snapshot{Key: k, Seed: int64(n)}, nil
	}

	const workers = 8
	seeds := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, _, err := s.Get(ctx, "1", key, build)
			if assert.NoError(t, err) {
				seeds[i] = snap.Seed
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, seed := range seeds {
		assert.Equal(t, int64(1), seed)
	}
	peek, err := s.Peek(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), peek.Seed)
}

func TestSnapshotStore_DataReloadRedraws(t *testing.T) {
	c, err := local.NewCache(local.Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	data := &fixedVersion{}
	data.v.Store(1)
	s := NewSnapshotStore(c, data, 0, zap.NewNop())
	ctx := context.Background()
	key := Key{ZoneID: flyZone, Throughput: 10}

	calls := 0
	snap, _, err := s.Get(ctx, "1", key, countingBuild(&calls))
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.DataVersion)

	_, hit, _ := s.Get(ctx, "1", key, countingBuild(&calls))
	assert.True(t, hit)

	data.v.Store(2)
	snap, hit, err = s.Get(ctx, "1", key, countingBuild(&calls))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), snap.DataVersion)
}

func TestSnapshotStore_StaleVersionInCacheIgnored(t *testing.T) {
	s, c := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "snapshot:1",
		`{"zone_id":"/actions/combat/fly","throughput":10,"data_version":99}`, 0))

	calls := 0
	_, hit, err := s.Get(ctx, "1", Key{ZoneID: flyZone, Throughput: 10}, countingBuild(&calls))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, calls)
}

func TestSnapshotStore_SlotFromCacheCountsAsHit(t *testing.T) {
	s, c := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "snapshot:1",
		`{"zone_id":"/actions/combat/fly","throughput":10,"encounters":10}`, 0))

	calls := 0
	snap, hit, err := s.Get(ctx, "1", Key{ZoneID: flyZone, Throughput: 10}, countingBuild(&calls))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Zero(t, calls)
	assert.Equal(t, 10, snap.Encounters)
}

func TestSnapshotStore_ExpiredSlotRedraws(t *testing.T) {
	c, err := local.NewCache(local.Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	s := NewSnapshotStore(c, &fixedVersion{}, 20*time.Millisecond, zap.NewNop())
	ctx := context.Background()
	key := Key{ZoneID: flyZone, Throughput: 10}

	calls := 0
	_, _, _ = s.Get(ctx, "1", key, countingBuild(&calls))
	time.Sleep(40 * time.Millisecond)

	_, hit, err := s.Get(ctx, "1", key, countingBuild(&calls))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}

func TestSnapshotStore_InvalidateDropsMemo(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	key := Key{ZoneID: flyZone, Throughput: 10}
	calls := 0
	_, _, _ = s.Get(ctx, "1", key, countingBuild(&calls))
	require.NoError(t, s.Invalidate(ctx, "1"))

	_, hit, err := s.Get(ctx, "1", key, countingBuild(&calls))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}
