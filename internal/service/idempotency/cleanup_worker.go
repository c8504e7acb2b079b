package idempotency

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
)

const (
	defaultCleanupInterval  = 10 * time.Minute
	defaultCleanupBatchSize = 500
	// defaultMaxBatches ограничивает один проход; остаток дочищается на следующем тике.
	defaultMaxBatches = 100
)

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupWorker)

func WithLogger(logger *log.Entry) CleanupOption {
	return func(w *CleanupWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithMetrics(m *metrics.IdempotencyMetrics) CleanupOption {
	return func(w *CleanupWorker) {
		if m != nil {
			w.metrics = m
		}
	}
}

// WithInterval задаёт паузу между проходами; значения <= 0 игнорируются.
func WithInterval(interval time.Duration) CleanupOption {
	return func(w *CleanupWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithBatchSize задаёт размер одного DeleteExpired; значения <= 0 игнорируются.
func WithBatchSize(size int) CleanupOption {
	return func(w *CleanupWorker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithMaxBatches ограничивает число порций за проход; значения <= 0 игнорируются.
func WithMaxBatches(n int) CleanupOption {
	return func(w *CleanupWorker) {
		if n > 0 {
			w.maxBatches = n
		}
	}
}

// CleanupWorker удаляет истёкшие ключи для хранилищ без собственного TTL (memory, postgres).
type CleanupWorker struct {
	repo       domain.IdempotencyRepository
	logger     *log.Entry
	metrics    *metrics.IdempotencyMetrics
	interval   time.Duration
	batchSize  int
	maxBatches int
	now        func() time.Time
}

func NewCleanupWorker(repo domain.IdempotencyRepository, options ...CleanupOption) *CleanupWorker {
	w := &CleanupWorker{
		repo:       repo,
		interval:   defaultCleanupInterval,
		batchSize:  defaultCleanupBatchSize,
		maxBatches: defaultMaxBatches,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	if w.logger == nil {
		w.logger = log.WithField("component", "idempotency-cleanup")
	}
	if w.metrics == nil {
		w.metrics = metrics.NewIdempotencyMetrics(nil)
	}
	return w
}

// SweepResult: итог одного прохода.
type SweepResult struct {
	Deleted int
	Batches int
	// More выставлен, если проход упёрся в maxBatches и истёкшие ключи ещё остались.
	More bool
}

// Run делает проход сразу, затем раз в interval; после неполного прохода
// следующий начинается без паузы.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("idempotency cleanup disabled: no repository")
		return
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		res, err := w.Sweep(ctx, w.now())
		w.report(res, err)

		next := w.interval
		if err == nil && res.More {
			next = 0
		}
		timer.Reset(next)
	}
}

// Sweep удаляет ключи с ttl_at <= before порциями по batchSize.
func (w *CleanupWorker) Sweep(ctx context.Context, before time.Time) (SweepResult, error) {
	var res SweepResult
	for res.Batches < w.maxBatches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		deleted, err := w.repo.DeleteExpired(ctx, before, w.batchSize)
		if err != nil {
			return res, err
		}
		res.Batches++
		res.Deleted += deleted
		w.metrics.AddDeleted(deleted)
		if deleted < w.batchSize {
			return res, nil
		}
	}
	res.More = true
	return res, nil
}

func (w *CleanupWorker) report(res SweepResult, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	case err != nil:
		w.metrics.RecordCleanupRun("error", res.Deleted)
		w.logger.WithError(err).WithField("deleted", res.Deleted).Warn("idempotency cleanup failed")
	default:
		w.metrics.RecordCleanupRun("ok", res.Deleted)
		if res.Deleted > 0 {
			w.logger.WithFields(log.Fields{"deleted": res.Deleted, "batches": res.Batches}).Info("idempotency keys cleaned up")
		}
	}
}
