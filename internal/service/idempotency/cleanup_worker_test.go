package idempotency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
)

var _ domain.IdempotencyRepository = (*stubCleanupRepo)(nil)

func testMetrics() *metrics.IdempotencyMetrics {
	return metrics.NewIdempotencyMetrics(prometheus.NewRegistry())
}

func TestCleanupWorker_Sweep(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		results    []int
		errs       []error
		maxBatches int
		want       SweepResult
		wantCalls  int
		wantErr    bool
	}{
		"drains until short batch": {
			results:   []int{2, 2, 1},
			want:      SweepResult{Deleted: 5, Batches: 3},
			wantCalls: 3,
		},
		"stops at max batches": {
			results:    []int{2, 2, 2},
			maxBatches: 2,
			want:       SweepResult{Deleted: 4, Batches: 2, More: true},
			wantCalls:  2,
		},
		"storage error": {
			results:   []int{2},
			errs:      []error{nil, errors.New("boom")},
			want:      SweepResult{Deleted: 2, Batches: 1},
			wantCalls: 2,
			wantErr:   true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			repo := &stubCleanupRepo{deleteResults: tc.results, deleteErrors: tc.errs}
			worker := NewCleanupWorker(repo, WithBatchSize(2), WithMaxBatches(tc.maxBatches), WithMetrics(testMetrics()))

			got, err := worker.Sweep(context.Background(), time.Now().UTC())
			require.Equal(t, tc.wantErr, err != nil, "err = %v", err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.wantCalls, repo.calls())
		})
	}
}

func TestCleanupWorker_SweepMemoryRepository(t *testing.T) {
	t.Parallel()

	repo := memory.NewIdempotencyRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	for i, ttl := range []time.Duration{-3 * time.Minute, -2 * time.Minute, -time.Minute, time.Hour} {
		record, err := domain.NewIdempotencyRecord(string(rune('a'+i)), "hash", now.Add(ttl), now)
		require.NoError(t, err)
		_, err = repo.Reserve(ctx, record)
		require.NoError(t, err)
	}

	worker := NewCleanupWorker(repo, WithBatchSize(2), WithMetrics(testMetrics()))
	res, err := worker.Sweep(ctx, now)
	require.NoError(t, err)
	require.Equal(t, SweepResult{Deleted: 3, Batches: 2}, res)

	_, err = repo.Get(ctx, "d")
	require.NoError(t, err, "live key must survive cleanup")
}

func TestCleanupWorker_RunContinuesUnfinishedSweep(t *testing.T) {
	t.Parallel()

	// Первый проход упирается в лимит, второй должен начаться без ожидания interval.
	repo := &stubCleanupRepo{deleteResults: []int{1, 1, 0}}
	worker := NewCleanupWorker(repo,
		WithInterval(time.Hour),
		WithBatchSize(1),
		WithMaxBatches(2),
		WithMetrics(testMetrics()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	require.Eventually(t, func() bool { return repo.calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestCleanupWorker_RunWithoutRepo(t *testing.T) {
	t.Parallel()

	// Без репозитория Run сразу возвращается.
	NewCleanupWorker(nil).Run(context.Background())
}

type stubCleanupRepo struct {
	mu sync.Mutex

	deleteResults []int
	deleteErrors  []error
	callCount     int
}

func (s *stubCleanupRepo) Reserve(context.Context, domain.IdempotencyRecord) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *stubCleanupRepo) Get(context.Context, string) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *stubCleanupRepo) Complete(context.Context, string, domain.IdempotentResponse) error {
	panic("not implemented")
}

func (s *stubCleanupRepo) DeleteExpired(context.Context, time.Time, int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++

	if len(s.deleteErrors) > 0 {
		err := s.deleteErrors[0]
		s.deleteErrors = s.deleteErrors[1:]
		if err != nil {
			return 0, err
		}
	}

	if len(s.deleteResults) == 0 {
		return 0, nil
	}
	result := s.deleteResults[0]
	s.deleteResults = s.deleteResults[1:]
	return result, nil
}

func (s *stubCleanupRepo) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}
