package sim

import "sync"

// Memo holds the most recent snapshot and hands it back until the key
// changes. Get holds the lock while building, so concurrent callers with the
// same new key share one draw. The zero value is ready to use.
type Memo struct {
	mu   sync.Mutex
	snap *Snapshot
}

// Get returns the memoized snapshot when its key equals key, otherwise calls
// build and keeps the result. hit reports whether build was skipped.
func (m *Memo) Get(key Key, build func(Key) (*Snapshot, error)) (snap *Snapshot, hit bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap != nil && m.snap.Key == key {
		return m.snap, true, nil
	}
	s, err := build(key)
	if err != nil {
		return nil, false, err
	}
	m.snap = s
	return s, false, nil
}

// Invalidate drops the memoized snapshot.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	m.snap = nil
	m.mu.Unlock()
}
