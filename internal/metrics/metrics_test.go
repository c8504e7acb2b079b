package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return nil
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if want != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

func TestHTTPMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.RequestStarted()
	m.ObserveRequest("GET", "/api/v1/beer/{beerId}", 200, 15*time.Millisecond)
	m.RequestStarted()
	m.ObserveRequest("GET", "/api/v1/beer/{beerId}", 404, time.Millisecond)

	ok := gatherMetric(t, reg, "catalog_http_requests_total", map[string]string{"route": "/api/v1/beer/{beerId}", "status": "200"})
	if got := ok.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 request with status 200, got %v", got)
	}

	latency := gatherMetric(t, reg, "catalog_http_request_duration_seconds", map[string]string{"method": "GET"})
	if got := latency.GetHistogram().GetSampleCount(); got != 2 {
		t.Fatalf("expected 2 latency samples, got %d", got)
	}

	inFlight := gatherMetric(t, reg, "catalog_http_requests_in_flight", nil)
	if got := inFlight.GetGauge().GetValue(); got != 0 {
		t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
	}
}

func TestOutboxMetrics_SetBacklog(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.SetBacklog(3, 10*time.Second)
	if got := gatherMetric(t, reg, "catalog_outbox_pending_records", nil).GetGauge().GetValue(); got != 3 {
		t.Fatalf("expected pending=3, got %v", got)
	}
	if got := gatherMetric(t, reg, "catalog_outbox_oldest_pending_age_seconds", nil).GetGauge().GetValue(); got != 10 {
		t.Fatalf("expected age=10s, got %v", got)
	}

	m.SetBacklog(0, 0)
	if got := gatherMetric(t, reg, "catalog_outbox_oldest_pending_age_seconds", nil).GetGauge().GetValue(); got != 0 {
		t.Fatalf("expected age reset to 0, got %v", got)
	}

	m.RecordAttempt("sent")
	m.RecordAttempt("sent")
	if got := gatherMetric(t, reg, "catalog_outbox_publish_attempts_total", map[string]string{"result": "sent"}).GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 sent attempts, got %v", got)
	}
}

func TestIdempotencyMetrics_CleanupRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIdempotencyMetrics(reg)

	m.AddDeleted(4)
	m.AddDeleted(0)
	m.RecordCleanupRun("ok", 4)
	m.RecordCleanupRun("error", 0)

	if got := gatherMetric(t, reg, "catalog_idempotency_cleanup_deleted_total", nil).GetCounter().GetValue(); got != 4 {
		t.Fatalf("expected deleted=4, got %v", got)
	}
	if got := gatherMetric(t, reg, "catalog_idempotency_cleanup_last_deleted", nil).GetGauge().GetValue(); got != 4 {
		t.Fatalf("expected last_deleted=4, got %v", got)
	}
	if got := gatherMetric(t, reg, "catalog_idempotency_cleanup_runs_total", map[string]string{"result": "error"}).GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
}

func TestCatalogMetrics_NilSafe(t *testing.T) {
	var m *CatalogMetrics
	m.RecordMutation("beer", "create")
	m.RecordVersionConflict("beer")

	reg := prometheus.NewRegistry()
	m = NewCatalogMetrics(reg)
	m.RecordMutation("beer", "create")
	m.RecordVersionConflict("beer")

	if got := gatherMetric(t, reg, "catalog_mutations_total", map[string]string{"aggregate": "beer", "operation": "create"}).GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 mutation, got %v", got)
	}
}

func TestRegister_ReusesExistingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewOutboxMetrics(reg)
	second := NewOutboxMetrics(reg)

	first.RecordAttempt("failed")
	second.RecordAttempt("failed")

	if got := gatherMetric(t, reg, "catalog_outbox_publish_attempts_total", map[string]string{"result": "failed"}).GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected shared counter value 2, got %v", got)
	}
}

func TestRegister_PanicsOnTypeMismatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "mutations_total", Help: "gauge"}))

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on collector type mismatch")
		}
	}()
	NewCatalogMetrics(reg)
}
