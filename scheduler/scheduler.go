// Package scheduler runs named periodic background tasks, such as the market
// price refresh, and keeps their last outcome for the admin API.
package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func() error

// TaskStatus is a task's registration and its most recent run.
type TaskStatus struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Runs      int64         `json:"runs"`
	Failures  int64         `json:"failures"`
	LastRun   time.Time     `json:"last_run,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

type task struct {
	fn     TaskFn
	ticker *time.Ticker
	stopCh chan struct{}

	mu     sync.Mutex
	status TaskStatus
}

// Scheduler manages named periodic tasks.
type Scheduler struct {
	mu       sync.Mutex
	tasks    map[string]*task
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tasks:  make(map[string]*task),
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

// AddTicker registers a task to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tasks[name]; ok {
		close(old.stopCh)
		delete(s.tasks, name)
	}

	t := &task{
		fn:     fn,
		ticker: time.NewTicker(interval),
		stopCh: make(chan struct{}),
		status: TaskStatus{Name: name, Interval: interval},
	}
	s.tasks[name] = t

	go func() {
		defer t.ticker.Stop()
		for {
			select {
			case <-t.ticker.C:
				s.run(t)
			case <-t.stopCh:
				return
			case <-s.stopCh:
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

// RunNow runs a registered task synchronously, outside its interval.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("scheduler: no task %q", name)
	}
	return s.run(t)
}

func (s *Scheduler) run(t *task) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		t.status.Runs++
		t.status.LastRun = time.Now()
		t.status.LastError = ""
		if err != nil {
			t.status.Failures++
			t.status.LastError = err.Error()
			s.logger.Error("scheduler task failed",
				zap.String("task", t.status.Name), zap.Error(err))
		}
	}()
	return t.fn()
}

// Remove stops and removes a task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		close(t.stopCh)
		delete(s.tasks, name)
	}
}

// Stop stops all tasks.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// ListTickers returns the names of all registered tasks, sorted.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status returns every task's status, sorted by name.
func (s *Scheduler) Status() []TaskStatus {
	s.mu.Lock()
	tasks := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	out := make([]TaskStatus, 0, len(tasks))
	for _, t := range tasks {
		t.mu.Lock()
		out = append(out, t.status)
		t.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
