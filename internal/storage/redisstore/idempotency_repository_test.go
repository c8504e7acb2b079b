package redisstore

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func newTestRepo(t *testing.T) (*IdempotencyRepository, *redis.Client) {
	t.Helper()

	addr := os.Getenv("CATALOG_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	// уникальный префикс на прогон
	return NewIdempotencyRepository(client, "catalog-test:"+uuid.NewString()+":"), client
}

func record(t *testing.T, key, hash string, ttl time.Duration) domain.IdempotencyRecord {
	t.Helper()
	now := time.Now().UTC()
	rec, err := domain.NewIdempotencyRecord(key, hash, now.Add(ttl), now)
	require.NoError(t, err)
	return rec
}

func TestRedisIdempotency_ReserveAndComplete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Reserve(ctx, record(t, "create-beer", "hash-1", time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.Complete(ctx, "create-beer", domain.IdempotentResponse{
		HTTPStatus: http.StatusCreated,
		Location:   "/api/v1/beer/b-1",
		Body:       []byte(`{"id":"b-1"}`),
	}))

	got, err := repo.Get(ctx, "create-beer")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusDone, got.Status)
	require.Equal(t, http.StatusCreated, got.HTTPStatus)
	require.Equal(t, "/api/v1/beer/b-1", got.Location)
	require.JSONEq(t, `{"id":"b-1"}`, string(got.ResponseBody))
	require.True(t, got.Replayable())
}

func TestRedisIdempotency_ReserveConflicts(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Reserve(ctx, record(t, "k", "hash-a", time.Hour))
	require.NoError(t, err)

	existing, err := repo.Reserve(ctx, record(t, "k", "hash-a", time.Hour))
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)
	require.Equal(t, domain.IdempotencyStatusProcessing, existing.Status)

	_, err = repo.Reserve(ctx, record(t, "k", "hash-b", time.Hour))
	require.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)
}

func TestRedisIdempotency_CompleteKeepsTTL(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Reserve(ctx, record(t, "ttl", "hash", time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Complete(ctx, "ttl", domain.IdempotentResponse{HTTPStatus: http.StatusInternalServerError}))

	ttl, err := client.TTL(ctx, repo.prefix+"ttl").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 50*time.Minute)

	got, err := repo.Get(ctx, "ttl")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusFailed, got.Status)
}

func TestRedisIdempotency_ExpiredKeyIsReusable(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Reserve(ctx, record(t, "stale", "old", -time.Second))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := repo.Reserve(ctx, record(t, "stale", "new", time.Hour))
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestRedisIdempotency_MissingKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	require.ErrorIs(t, repo.Complete(ctx, "missing", domain.IdempotentResponse{HTTPStatus: http.StatusOK}), domain.ErrIdempotencyKeyNotFound)

	removed, err := repo.DeleteExpired(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestRedisIdempotency_ValidatesKeyWithoutRedis(t *testing.T) {
	repo := NewIdempotencyRepository(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	ctx := context.Background()

	_, err := repo.Reserve(ctx, domain.IdempotencyRecord{Key: " "})
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)
	_, err = repo.Get(ctx, "")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)
	require.ErrorIs(t, repo.Complete(ctx, "", domain.IdempotentResponse{HTTPStatus: http.StatusOK}), domain.ErrIdempotencyKeyRequired)
	require.Equal(t, defaultKeyPrefix, repo.prefix)
}
