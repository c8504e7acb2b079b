package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// Значения label result метрики catalog_outbox_publish_attempts_total.
const (
	resultSent       = "sent"
	resultRetryError = "retry_error"
	resultFailed     = "failed"
	resultDLQFailed  = "dlq_failed"
)

type settings struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Option настраивает Worker. Невалидные значения оставляют значение по умолчанию.
type Option func(*Worker)

func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics задаёт метрики; без опции они регистрируются в DefaultRegisterer.
func WithMetrics(m *metrics.OutboxMetrics) Option {
	return func(w *Worker) {
		if m != nil {
			w.metrics = m
		}
	}
}

// WithDLQPublisher включает DLQ для событий, исчерпавших попытки.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlq = publisher }
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.cfg.PollInterval = interval
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.cfg.BatchSize = size
		}
	}
}

func WithMaxAttempts(attempts int) Option {
	return func(w *Worker) {
		if attempts > 0 {
			w.cfg.MaxAttempts = attempts
		}
	}
}

// WithRetryBaseDelay задаёт первую паузу backoff; отрицательное значение означает 0.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) { w.cfg.RetryBaseDelay = max(delay, 0) }
}

// BatchResult: итог одного цикла опроса.
type BatchResult struct {
	Published int
	Failed    int
}

// Worker переносит события каталога из outbox в брокер.
type Worker struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher
	logger    *log.Entry
	metrics   *metrics.OutboxMetrics
	cfg       settings
	now       func() time.Time
}

func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:      repo,
		publisher: publisher,
		cfg: settings{
			PollInterval:   defaultPollInterval,
			BatchSize:      defaultBatchSize,
			MaxAttempts:    defaultMaxAttempts,
			RetryBaseDelay: defaultRetryBaseDelay,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	if w.logger == nil {
		w.logger = log.WithField("component", "outbox-worker")
	}
	if w.metrics == nil {
		w.metrics = metrics.NewOutboxMetrics(nil)
	}
	return w
}

// Run опрашивает outbox до отмены ctx. Полный батч означает backlog,
// следующий опрос тогда идёт без паузы.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker disabled: repo or publisher is nil")
		return
	}
	w.logger.WithFields(log.Fields{
		"poll_interval": w.cfg.PollInterval.String(),
		"batch_size":    w.cfg.BatchSize,
		"max_attempts":  w.cfg.MaxAttempts,
		"dlq":           w.dlq != nil,
	}).Info("outbox worker started")

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-timer.C:
		}

		res := w.ProcessOnce(ctx)
		next := w.cfg.PollInterval
		if res.Published+res.Failed == w.cfg.BatchSize {
			next = 0
		}
		timer.Reset(next)
	}
}

// ProcessOnce публикует один батч pending-событий. Отказавшее событие уходит в DLQ
// и помечается failed, не останавливая остаток батча.
func (w *Worker) ProcessOnce(ctx context.Context) BatchResult {
	var res BatchResult
	if ctx.Err() != nil {
		return res
	}
	defer w.refreshBacklog(ctx)

	batch, err := w.repo.PullPending(ctx, w.cfg.BatchSize)
	if err != nil {
		w.logger.WithError(err).Warn("outbox pull failed")
		return res
	}

	for _, event := range batch {
		if ctx.Err() != nil {
			break
		}
		if w.deliver(ctx, event) {
			res.Published++
		} else {
			res.Failed++
		}
	}
	return res
}

// deliver публикует событие и фиксирует итог в outbox; false означает отказ.
func (w *Worker) deliver(ctx context.Context, event domain.OutboxMessage) bool {
	entry := w.logger.WithFields(log.Fields{
		"outbox_id":    event.ID,
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
	})

	publishErr := w.publishWithRetry(ctx, event)
	if publishErr == nil {
		if err := w.repo.MarkSent(ctx, event.ID); err != nil {
			entry.WithError(err).Warn("outbox mark as sent rejected")
		}
		return true
	}

	entry.WithError(publishErr).Error("outbox publish failed after retries")
	w.metrics.RecordAttempt(resultFailed)
	if err := w.publishToDLQ(event, publishErr); err != nil {
		entry.WithError(err).Warn("dlq publish failed")
		w.metrics.RecordAttempt(resultDLQFailed)
	}
	if err := w.repo.MarkFailed(ctx, event.ID); err != nil {
		entry.WithError(err).Warn("outbox mark as failed rejected")
	}
	return false
}

func (w *Worker) publishWithRetry(ctx context.Context, event domain.OutboxMessage) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = w.publisher.Publish(event); err == nil {
			w.metrics.RecordAttempt(resultSent)
			return nil
		}
		w.metrics.RecordAttempt(resultRetryError)
		if attempt == w.cfg.MaxAttempts {
			return fmt.Errorf("publish failed after %d attempts: %w", attempt, err)
		}
		if err := sleep(ctx, backoff(w.cfg.RetryBaseDelay, attempt)); err != nil {
			return err
		}
	}
}

func (w *Worker) refreshBacklog(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	stats, err := w.repo.Stats(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("outbox backlog stats failed")
		return
	}
	w.metrics.SetBacklog(stats.PendingCount, stats.Age(w.now()))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoff удваивает base на каждую следующую попытку и не переполняет Duration.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	const ceiling = time.Duration(1<<63 - 1)
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > ceiling/2 {
			return ceiling
		}
		delay *= 2
	}
	return delay
}

// deadLetter: тело сообщения в DLQ, исходное событие плюс причина отказа.
type deadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
	FailedAt      time.Time       `json:"failed_at"`
}

func newDeadLetter(event domain.OutboxMessage, cause error, now time.Time) (domain.OutboxMessage, error) {
	payload := json.RawMessage(event.Payload)
	if !json.Valid(payload) {
		payload, _ = json.Marshal(string(event.Payload))
	}
	body, err := json.Marshal(deadLetter{
		OutboxID:      event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       payload,
		PublishError:  cause.Error(),
		FailedAt:      now,
	})
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal dead letter: %w", err)
	}
	event.Payload = body
	return event, nil
}

func (w *Worker) publishToDLQ(event domain.OutboxMessage, cause error) error {
	if w.dlq == nil {
		return nil
	}
	dead, err := newDeadLetter(event, cause, w.now())
	if err != nil {
		return err
	}
	if err := w.dlq.Publish(dead); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}
