package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics: метрики публикации transactional outbox.
type OutboxMetrics struct {
	attempts  *prometheus.CounterVec
	pending   prometheus.Gauge
	oldestAge prometheus.Gauge
}

// NewOutboxMetrics регистрирует метрики outbox worker.
func NewOutboxMetrics(registerer prometheus.Registerer) *OutboxMetrics {
	return &OutboxMetrics{
		attempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result.",
		}, []string{"result"}),
		pending: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "outbox_pending_records",
			Help: "Current number of pending records in transactional outbox.",
		}),
		oldestAge: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record.",
		}),
	}
}

// RecordAttempt увеличивает счётчик попыток с результатом result (sent, retry_error, failed, dlq_failed).
func (m *OutboxMetrics) RecordAttempt(result string) {
	m.attempts.WithLabelValues(result).Inc()
}

// SetBacklog выставляет размер backlog и возраст самой старой записи.
func (m *OutboxMetrics) SetBacklog(pending int, oldestAge time.Duration) {
	m.pending.Set(float64(pending))
	m.oldestAge.Set(oldestAge.Seconds())
}

// IdempotencyMetrics: метрики очистки idempotency-ключей.
type IdempotencyMetrics struct {
	runs        *prometheus.CounterVec
	deleted     prometheus.Counter
	lastDeleted prometheus.Gauge
	replays     prometheus.Counter
}

// NewIdempotencyMetrics регистрирует метрики idempotency.
func NewIdempotencyMetrics(registerer prometheus.Registerer) *IdempotencyMetrics {
	return &IdempotencyMetrics{
		runs: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup runs grouped by result.",
		}, []string{"result"}),
		deleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "idempotency_cleanup_deleted_total",
			Help: "Total number of deleted expired idempotency records.",
		}),
		lastDeleted: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "idempotency_cleanup_last_deleted",
			Help: "Number of deleted records during the last cleanup run.",
		}),
		replays: registerCounter(registerer, prometheus.CounterOpts{
			Name: "idempotency_replays_total",
			Help: "Total number of responses replayed for a repeated idempotency key.",
		}),
	}
}

// RecordCleanupRun фиксирует результат цикла очистки.
func (m *IdempotencyMetrics) RecordCleanupRun(result string, deleted int) {
	m.runs.WithLabelValues(result).Inc()
	if result == "ok" {
		m.lastDeleted.Set(float64(deleted))
	}
}

// AddDeleted увеличивает общий счётчик удалённых записей.
func (m *IdempotencyMetrics) AddDeleted(n int) {
	if n > 0 {
		m.deleted.Add(float64(n))
	}
}

// RecordReplay увеличивает счётчик повторно отданных ответов.
func (m *IdempotencyMetrics) RecordReplay() {
	m.replays.Inc()
}

// CatalogMetrics: доменные счётчики операций каталога.
type CatalogMetrics struct {
	mutations        *prometheus.CounterVec
	versionConflicts *prometheus.CounterVec
}

// NewCatalogMetrics регистрирует доменные метрики.
func NewCatalogMetrics(registerer prometheus.Registerer) *CatalogMetrics {
	return &CatalogMetrics{
		mutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "mutations_total",
			Help: "Total number of successful mutations grouped by aggregate and operation.",
		}, []string{"aggregate", "operation"}),
		versionConflicts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "version_conflicts_total",
			Help: "Total number of rejected stale writes grouped by aggregate.",
		}, []string{"aggregate"}),
	}
}

// RecordMutation фиксирует успешное изменение агрегата.
func (m *CatalogMetrics) RecordMutation(aggregate, operation string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(aggregate, operation).Inc()
}

// RecordVersionConflict фиксирует отклонённую запись с устаревшей версией.
func (m *CatalogMetrics) RecordVersionConflict(aggregate string) {
	if m == nil {
		return
	}
	m.versionConflicts.WithLabelValues(aggregate).Inc()
}
