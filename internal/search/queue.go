package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/model"

	"golang.org/x/time/rate"
)

const (
	DefaultRetryInterval = 30 * time.Second
	DefaultProbeTimeout  = 5 * time.Second
)

// Target applies queue entries. *Synchronizer is the production Target.
type Target interface {
	Ping(ctx context.Context) error
	Upsert(ctx context.Context, typeName string, record any) error
	Delete(ctx context.Context, typeName, id string) error
	Reconnect() error
}

// Entry is one pending index mutation. Payload is the record snapshot for
// create and update, or the record id for delete.
type Entry struct {
	Op       string
	TypeName string
	Payload  any
	Attempts int
	Enqueued time.Time
}

type QueueConfig struct {
	RetryInterval time.Duration
	ProbeTimeout  time.Duration
	// Rate caps entries applied per second; zero means unlimited
	Rate    float64
	Metrics *Metrics
	Logger  *slog.Logger
}

// Queue is an in-process FIFO of index mutations drained by at most one
// goroutine at a time. Nothing survives a restart.
type Queue struct {
	target        Target
	retryInterval time.Duration
	probeTimeout  time.Duration
	limiter       *rate.Limiter
	metrics       *Metrics
	logger        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	entries    []*Entry
	processing bool
	available  bool
	closed     bool
	retry      *time.Timer
}

func NewQueue(target Target, cfg QueueConfig) *Queue {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		target:        target,
		retryInterval: cfg.RetryInterval,
		probeTimeout:  cfg.ProbeTimeout,
		limiter:       rate.NewLimiter(limit, 1),
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Enqueue appends an entry and wakes the drain loop. It never blocks on the backend.
func (q *Queue) Enqueue(op, typeName string, payload any) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("sync queue closed, dropping entry", slog.String("op", op), slog.String("type", typeName))
		return
	}
	q.entries = append(q.entries, &Entry{Op: op, TypeName: typeName, Payload: payload, Enqueued: time.Now()})
	q.metrics.setQueueLength(len(q.entries))
	q.mu.Unlock()

	q.Drain()
}

// Drain starts a drain pass in the background unless one is already running.
func (q *Queue) Drain() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.processing || len(q.entries) == 0 {
		return
	}
	q.processing = true
	q.wg.Add(1)
	go q.run()
}

func (q *Queue) run() {
	defer q.wg.Done()

	if !q.probe() {
		q.finish(true)
		return
	}

	for {
		q.mu.Lock()
		if q.closed || len(q.entries) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		entry := q.entries[0]
		q.entries = q.entries[1:]
		q.metrics.setQueueLength(len(q.entries))
		q.mu.Unlock()

		if err := q.limiter.Wait(q.ctx); err != nil {
			q.requeue(entry)
			q.finish(false)
			return
		}

		entry.Attempts++
		err := q.apply(q.ctx, entry)
		switch {
		case err == nil:
			q.metrics.incProcessed(entry.Op)
		case q.ctx.Err() != nil:
			q.requeue(entry)
			q.finish(false)
			return
		case errors.Is(err, apperrors.ErrBackendUnavailable):
			q.logger.Warn("search backend unavailable, entry requeued",
				slog.String("op", entry.Op),
				slog.String("type", entry.TypeName),
				slog.Int("attempts", entry.Attempts),
				slog.Any("error", err),
			)
			q.requeue(entry)
			q.setAvailable(false)
			q.finish(true)
			return
		default:
			q.logger.Error("dropping sync entry",
				slog.String("op", entry.Op),
				slog.String("type", entry.TypeName),
				slog.Int("attempts", entry.Attempts),
				slog.Any("error", err),
			)
			q.metrics.incDropped(entry.Op)
		}
	}
}

func (q *Queue) probe() bool {
	ctx, cancel := context.WithTimeout(q.ctx, q.probeTimeout)
	defer cancel()

	if err := q.target.Ping(ctx); err != nil {
		q.logger.Warn("search backend not reachable", slog.Any("error", err))
		q.setAvailable(false)
		return false
	}
	q.setAvailable(true)
	return true
}

func (q *Queue) apply(ctx context.Context, e *Entry) error {
	switch e.Op {
	case model.SyncOpCreate, model.SyncOpUpdate:
		return q.target.Upsert(ctx, e.TypeName, e.Payload)
	case model.SyncOpDelete:
		return q.target.Delete(ctx, e.TypeName, entryID(e.Payload))
	default:
		return errors.New("unknown sync operation " + e.Op)
	}
}

func entryID(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case *model.Product:
		if v != nil {
			return v.ID
		}
	case model.Product:
		return v.ID
	}
	return ""
}

// requeue puts the entry back at the head so per-record order holds.
func (q *Queue) requeue(e *Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append([]*Entry{e}, q.entries...)
	q.metrics.setQueueLength(len(q.entries))
	q.metrics.incRequeued()
}

func (q *Queue) finish(scheduleRetry bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processing = false
	if scheduleRetry && !q.closed && len(q.entries) > 0 {
		q.armRetryLocked()
	}
}

// armRetryLocked replaces any pending retry so only one timer exists.
func (q *Queue) armRetryLocked() {
	if q.retry != nil {
		q.retry.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(q.retryInterval, func() {
		q.mu.Lock()
		// a replaced or stopped timer that already fired must not touch its successor
		if q.retry != t {
			q.mu.Unlock()
			return
		}
		q.retry = nil
		q.mu.Unlock()
		q.logger.Info("retrying search sync")
		q.Drain()
	})
	q.retry = t
}

func (q *Queue) setAvailable(up bool) {
	q.mu.Lock()
	q.available = up
	q.mu.Unlock()
	q.metrics.setBackendUp(up)
}

// Status probes the backend and reports the queue state.
func (q *Queue) Status(ctx context.Context) model.SyncStatus {
	probeCtx, cancel := context.WithTimeout(ctx, q.probeTimeout)
	err := q.target.Ping(probeCtx)
	cancel()
	q.setAvailable(err == nil)

	q.mu.Lock()
	defer q.mu.Unlock()
	return model.SyncStatus{
		QueueLength:      len(q.entries),
		Processing:       q.processing,
		BackendAvailable: q.available,
	}
}

// Len is the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Reset clears pending entries, cancels the retry timer and reconnects the backend.
func (q *Queue) Reset() error {
	q.mu.Lock()
	dropped := len(q.entries)
	q.entries = nil
	if q.retry != nil {
		q.retry.Stop()
		q.retry = nil
	}
	q.metrics.setQueueLength(0)
	q.mu.Unlock()

	q.logger.Info("sync queue reset", slog.Int("dropped", dropped))
	return q.target.Reconnect()
}

// Close stops the retry timer and waits for the running drain pass to return.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	if q.retry != nil {
		q.retry.Stop()
		q.retry = nil
	}
	remaining := len(q.entries)
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	if remaining > 0 {
		q.logger.Warn("sync queue closed with pending entries", slog.Int("pending", remaining))
	}
}
