package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func counter(n *int32) TaskFn {
	return func() error {
		atomic.AddInt32(n, 1)
		return nil
	}
}

func TestAddTicker_Fires(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.AddTicker("tick", 20*time.Millisecond, counter(&count))

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}

func TestAddTicker_Replaces(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count1, count2 int32
	s.AddTicker("task", 20*time.Millisecond, counter(&count1))
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("task", 20*time.Millisecond, counter(&count2))
	time.Sleep(80 * time.Millisecond)

	snap1 := atomic.LoadInt32(&count1)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&count1), "old ticker must stop after replacement")
	assert.Positive(t, atomic.LoadInt32(&count2))
}

func TestRemove_Ticker(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.AddTicker("task", 20*time.Millisecond, counter(&count))
	time.Sleep(50 * time.Millisecond)
	s.Remove("task")
	time.Sleep(10 * time.Millisecond)
	snap := atomic.LoadInt32(&count)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count), "ticker must stop after Remove")
}

func TestRemove_NonExistent(t *testing.T) {
	s := New(newNop())
	defer s.Stop()
	s.Remove("nope")
}

func TestStop_StopsAllTickers(t *testing.T) {
	s := New(newNop())

	var c1, c2 int32
	s.AddTicker("a", 20*time.Millisecond, counter(&c1))
	s.AddTicker("b", 20*time.Millisecond, counter(&c2))
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	// Give goroutines time to observe the stop signal before snapping counts.
	time.Sleep(30 * time.Millisecond)
	snap1, snap2 := atomic.LoadInt32(&c1), atomic.LoadInt32(&c2)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&c1))
	assert.Equal(t, snap2, atomic.LoadInt32(&c2))
}

func TestStop_Idempotent(t *testing.T) {
	s := New(newNop())
	s.Stop()
	s.Stop()
}

func TestListTickers(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	require.Empty(t, s.ListTickers())
	s.AddTicker("market_refresh", time.Hour, counter(new(int32)))
	s.AddTicker("alpha", time.Hour, counter(new(int32)))
	assert.Equal(t, []string{"alpha", "market_refresh"}, s.ListTickers())

	s.Remove("alpha")
	assert.Equal(t, []string{"market_refresh"}, s.ListTickers())
}

func TestRunNow_RecordsStatus(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	fail := true
	s.AddTicker("market_refresh", time.Hour, func() error {
		if fail {
			return errors.New("market file unreadable")
		}
		return nil
	})

	assert.EqualError(t, s.RunNow("market_refresh"), "market file unreadable")
	st := s.Status()
	require.Len(t, st, 1)
	assert.Equal(t, int64(1), st[0].Runs)
	assert.Equal(t, int64(1), st[0].Failures)
	assert.Equal(t, "market file unreadable", st[0].LastError)
	assert.Equal(t, time.Hour, st[0].Interval)

	fail = false
	require.NoError(t, s.RunNow("market_refresh"))
	st = s.Status()
	assert.Equal(t, int64(2), st[0].Runs)
	assert.Empty(t, st[0].LastError)
	assert.False(t, st[0].LastRun.IsZero())
}

func TestRunNow_Unknown(t *testing.T) {
	s := New(newNop())
	defer s.Stop()
	assert.Error(t, s.RunNow("nope"))
}

func TestTicker_PanicRecovery(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	s.AddTicker("panic", time.Hour, func() error { panic("oops") })
	err := s.RunNow("panic")
	assert.ErrorContains(t, err, "panic: oops")
	assert.Equal(t, int64(1), s.Status()[0].Failures)
}
