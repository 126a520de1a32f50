package sim

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/lootsim/cache"
	"go.uber.org/zap"
)

const snapshotKeyPrefix = "snapshot:"

// Versioned reports the version of the game data snapshots are drawn from.
// *resource.ResourceLoader implements it.
type Versioned interface {
	Version() int64
}

// SnapshotStore keeps one memo slot per owner in a cache.Cache, so every
// player keeps a stable snapshot across requests until they pick another zone
// or throughput, or the game data is reloaded.
//
// Each owner also has a process-local Memo in front of the cache slot. It
// serializes that owner's draws, so concurrent requests for a new key draw
// once within a process. Server instances sharing a Redis slot are
// last-writer-wins.
type SnapshotStore struct {
	cache  cache.Cache
	data   Versioned
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	memos   map[string]*Memo
	version int64
}

// NewSnapshotStore creates a SnapshotStore. ttl <= 0 keeps slots forever.
func NewSnapshotStore(c cache.Cache, data Versioned, ttl time.Duration, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		cache:  c,
		data:   data,
		ttl:    ttl,
		logger: logger,
		memos:  make(map[string]*Memo),
	}
}

// memo returns owner's Memo and the current data version. A version change
// drops every memo.
func (s *SnapshotStore) memo(owner string) (*Memo, int64) {
	v := s.data.Version()
	s.mu.Lock()
	defer s.mu.Unlock()
	if v != s.version {
		s.memos = make(map[string]*Memo)
		s.version = v
	}
	m, ok := s.memos[owner]
	if !ok {
		m = &Memo{}
		s.memos[owner] = m
	}
	return m, v
}

// Get returns owner's snapshot when it was drawn for key against the current
// game data, otherwise builds a new one and replaces the slot.
func (s *SnapshotStore) Get(ctx context.Context, owner string, key Key, build func(Key) (*Snapshot, error)) (*Snapshot, bool, error) {
	slot := snapshotKeyPrefix + owner
	m, version := s.memo(owner)

	// An expired or deleted slot must not be served from the memo.
	live, err := s.cache.Exists(ctx, slot)
	if err != nil {
		return nil, false, err
	}
	if !live {
		m.Invalidate()
	}

	stored := false
	snap, hit, err := m.Get(key, func(k Key) (*Snapshot, error) {
		prev, err := s.load(ctx, owner, slot, k, version)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			stored = true
			return prev, nil
		}
		fresh, err := build(k)
		if err != nil {
			return nil, err
		}
		fresh.DataVersion = version
		return fresh, s.save(ctx, slot, fresh)
	})
	if err != nil {
		return nil, false, err
	}
	return snap, hit || stored, nil
}

// load reads the slot and returns it when it matches key and version. A
// missing, stale or corrupt slot yields nil.
func (s *SnapshotStore) load(ctx context.Context, owner, slot string, key Key, version int64) (*Snapshot, error) {
	raw, err := s.cache.Get(ctx, slot)
	if cache.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn("discarding corrupt snapshot", zap.String("owner", owner), zap.Error(err))
		return nil, nil
	}
	if snap.Key != key || snap.DataVersion != version {
		return nil, nil
	}
	return &snap, nil
}

func (s *SnapshotStore) save(ctx context.Context, slot string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, slot, string(data), s.ttl)
}

// Peek returns owner's current snapshot without building one.
func (s *SnapshotStore) Peek(ctx context.Context, owner string) (*Snapshot, error) {
	raw, err := s.cache.Get(ctx, snapshotKeyPrefix+owner)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Invalidate clears owner's slot.
func (s *SnapshotStore) Invalidate(ctx context.Context, owner string) error {
	s.mu.Lock()
	delete(s.memos, owner)
	s.mu.Unlock()
	return s.cache.Del(ctx, snapshotKeyPrefix+owner)
}
