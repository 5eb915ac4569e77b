package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Anil1013/mob13r-platform-sub000/internal/data/repos"
	types "github.com/Anil1013/mob13r-platform-sub000/internal/domain"
	"github.com/Anil1013/mob13r-platform-sub000/internal/observability"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/dbctx"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

// Recorder persists audit rows and advertiser metrics off the response path.
// Work is never dropped: a full queue runs the write on the caller's
// goroutine and Close drains everything already queued.
type Recorder interface {
	RecordLogs(ctx context.Context, rows ...*types.PinRequestLog)
	RecordOutcome(ctx context.Context, advertiserID uuid.UUID, success bool, latency time.Duration)
	Close(ctx context.Context) error
}

type RecorderConfig struct {
	// Workers <= 0 makes every write synchronous.
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

type recordJob struct {
	kind string
	ctx  context.Context
	run  func(ctx context.Context) error
}

type recorder struct {
	log     *logger.Logger
	logs    repos.PinRequestLogRepo
	metrics repos.AdvertiserMetricRepo
	obs     *observability.Metrics

	cfg    RecorderConfig
	jobs   chan recordJob
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewRecorder(cfg RecorderConfig, logs repos.PinRequestLogRepo, metrics repos.AdvertiserMetricRepo, obs *observability.Metrics, baseLog *logger.Logger) Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	r := &recorder{
		log:     baseLog.With("service", "Recorder"),
		logs:    logs,
		metrics: metrics,
		obs:     obs,
		cfg:     cfg,
	}
	if cfg.Workers > 0 {
		r.jobs = make(chan recordJob, cfg.QueueSize)
		r.log.Info("Starting recorder pool", "workers", cfg.Workers, "queue", cfg.QueueSize)
		for i := 0; i < cfg.Workers; i++ {
			r.wg.Add(1)
			go r.runLoop(i + 1)
		}
	}
	return r
}

func (r *recorder) RecordLogs(ctx context.Context, rows ...*types.PinRequestLog) {
	if len(rows) == 0 {
		return
	}
	r.submit(ctx, "request_log", func(ctx context.Context) error {
		return r.logs.Create(dbctx.Context{Ctx: ctx}, rows)
	})
}

func (r *recorder) RecordOutcome(ctx context.Context, advertiserID uuid.UUID, success bool, latency time.Duration) {
	if advertiserID == uuid.Nil {
		return
	}
	ms := float64(latency) / float64(time.Millisecond)
	r.submit(ctx, "advertiser_metric", func(ctx context.Context) error {
		return r.metrics.Record(dbctx.Context{Ctx: ctx}, advertiserID, success, ms)
	})
}

func (r *recorder) submit(ctx context.Context, kind string, run func(ctx context.Context) error) {
	job := recordJob{kind: kind, ctx: context.WithoutCancel(ctx), run: run}

	r.mu.RLock()
	if r.jobs == nil || r.closed {
		r.mu.RUnlock()
		r.execute(job)
		return
	}
	select {
	case r.jobs <- job:
		r.obs.SetRecorderQueueDepth(len(r.jobs))
		r.mu.RUnlock()
		return
	default:
	}
	r.mu.RUnlock()

	r.obs.IncRecorderInline()
	r.execute(job)
}

func (r *recorder) runLoop(workerID int) {
	defer r.wg.Done()
	for job := range r.jobs {
		r.execute(job)
		r.obs.SetRecorderQueueDepth(len(r.jobs))
	}
	r.log.Debug("Recorder worker stopped", "worker_id", workerID)
}

func (r *recorder) execute(job recordJob) {
	defer func() {
		if rec := recover(); rec != nil {
			r.obs.IncRecorderError(job.kind)
			r.log.Error("Recorder write panic", "kind", job.kind, "panic", fmt.Sprint(rec))
		}
	}()
	ctx, cancel := context.WithTimeout(job.ctx, r.cfg.WriteTimeout)
	defer cancel()
	if err := job.run(ctx); err != nil {
		r.obs.IncRecorderError(job.kind)
		r.log.Warn("Recorder write failed", "kind", job.kind, "error", err)
	}
}

// Close stops accepting queued work and waits for workers to drain. Writes
// submitted after Close run synchronously.
func (r *recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	if r.jobs != nil {
		close(r.jobs)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("recorder drain: %w", ctx.Err())
	}
}
