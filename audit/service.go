// Package audit keeps the simulation run log: every freshly drawn snapshot is
// written to the database in the background.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/lootsim/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunEntry describes one snapshot draw.
type RunEntry struct {
	TraceID    string
	AccountID  int64
	ZoneID     string
	Throughput int
	Seed       int64
	Encounters int
	BossFights int
	Rates      interface{}
	Duration   time.Duration
}

// Options tunes batching. Zero values fall back to 100 rows / 2s.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
}

// Service logs run entries asynchronously in batches.
type Service struct {
	db       *gorm.DB
	ch       chan *model.SimulationRun
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *zap.Logger
	batch    int
	interval time.Duration
}

// New creates a new run log Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	svc := &Service{
		db:       db,
		ch:       make(chan *model.SimulationRun, 1024),
		stopCh:   make(chan struct{}),
		logger:   logger,
		batch:    opts.BatchSize,
		interval: opts.FlushInterval,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues a run for async DB write. It never blocks; when the queue is
// full the entry is dropped with a warning.
func (svc *Service) Log(entry RunEntry) {
	ratesJSON, err := json.Marshal(entry.Rates)
	if err != nil {
		svc.logger.Warn("run rates not serializable", zap.Error(err))
		ratesJSON = []byte("null")
	}
	record := &model.SimulationRun{
		TraceID:    entry.TraceID,
		AccountID:  entry.AccountID,
		ZoneID:     entry.ZoneID,
		Throughput: entry.Throughput,
		Seed:       entry.Seed,
		Encounters: entry.Encounters,
		BossFights: entry.BossFights,
		Rates:      datatypes.JSON(ratesJSON),
		DurationMs: int(entry.Duration.Milliseconds()),
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("run log queue full, dropping entry",
			zap.String("zone_id", entry.ZoneID))
	}
}

// Recent returns the newest runs, optionally filtered by account (0 = all).
func (svc *Service) Recent(ctx context.Context, accountID int64, limit int) ([]model.SimulationRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := svc.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if accountID > 0 {
		q = q.Where("account_id = ?", accountID)
	}
	var runs []model.SimulationRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	batch := make([]*model.SimulationRun, 0, svc.batch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("run log batch write failed",
				zap.Int("rows", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= svc.batch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
