package memory_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
)

func reserve(t *testing.T, repo *memory.IdempotencyRepository, key, hash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	t.Helper()
	record, err := domain.NewIdempotencyRecord(key, hash, ttlAt, time.Now().UTC())
	if err != nil {
		t.Fatalf("NewIdempotencyRecord(%s): %v", key, err)
	}
	return repo.Reserve(context.Background(), record)
}

func TestIdempotencyRepository_ReserveConflicts(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	if _, err := reserve(t, repo, "POST-beer-1", "hash-a", ttl); err != nil {
		t.Fatalf("first Reserve: %v", err)
	}

	existing, err := reserve(t, repo, "POST-beer-1", "hash-a", ttl)
	if !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}
	if existing.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("conflict must return the stored record, got status %q", existing.Status)
	}

	if _, err := reserve(t, repo, "POST-beer-1", "hash-b", ttl); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}
}

func TestIdempotencyRepository_ExpiredKeyIsReusable(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	if _, err := reserve(t, repo, "stale", "hash-old", time.Now().UTC().Add(-time.Second)); err != nil {
		t.Fatalf("Reserve stale: %v", err)
	}
	reused, err := reserve(t, repo, "stale", "hash-new", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("expired key must be reusable, got %v", err)
	}
	if reused.RequestHash != "hash-new" {
		t.Fatalf("expected the new record, got hash %q", reused.RequestHash)
	}
}

func TestIdempotencyRepository_CompleteStoresResponse(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()

	if _, err := reserve(t, repo, "create-customer", "hash", time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	body := []byte(`{"id":"c-1"}`)
	created := domain.IdempotentResponse{HTTPStatus: http.StatusCreated, Location: "/api/v1/customer/c-1", Body: body}
	if err := repo.Complete(ctx, "create-customer", created); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	body[2] = 'X'

	got, err := repo.Get(ctx, "create-customer")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.IdempotencyStatusDone || got.HTTPStatus != http.StatusCreated {
		t.Fatalf("expected done/201, got %s/%d", got.Status, got.HTTPStatus)
	}
	if got.Location != "/api/v1/customer/c-1" {
		t.Fatalf("expected stored location, got %q", got.Location)
	}
	if string(got.ResponseBody) != `{"id":"c-1"}` {
		t.Fatalf("stored body must not alias the caller's slice, got %s", got.ResponseBody)
	}

	if err := repo.Complete(ctx, "missing", domain.IdempotentResponse{HTTPStatus: http.StatusOK}); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}
	if err := repo.Complete(ctx, " ", domain.IdempotentResponse{HTTPStatus: http.StatusOK}); !errors.Is(err, domain.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
}

func TestIdempotencyRepository_DeleteExpiredOldestFirst(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()

	for i, key := range []string{"old", "older", "oldest"} {
		if _, err := reserve(t, repo, key, "hash-"+key, now.Add(-time.Duration(i+1)*time.Minute)); err != nil {
			t.Fatalf("Reserve %s: %v", key, err)
		}
	}
	if _, err := reserve(t, repo, "alive", "hash", now.Add(time.Hour)); err != nil {
		t.Fatalf("Reserve alive: %v", err)
	}

	removed, err := repo.DeleteExpired(ctx, now, 2)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, err := repo.Get(ctx, "old"); err != nil {
		t.Fatalf("newest expired key must survive the batch: %v", err)
	}

	removed, err = repo.DeleteExpired(ctx, time.Time{}, 0)
	if err != nil || removed != 1 {
		t.Fatalf("expected the rest removed, got %d, %v", removed, err)
	}
	if _, err := repo.Get(ctx, "alive"); err != nil {
		t.Fatalf("live key deleted: %v", err)
	}
}
