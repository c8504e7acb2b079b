package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

const defaultKeyPrefix = "catalog:idempotency:"

// replaceIfExists перезаписывает значение живого ключа, сохраняя его TTL.
var replaceIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'KEEPTTL')
return 1
`)

// entry: JSON-представление записи в Redis; ключ хранится в имени.
type entry struct {
	RequestHash  string    `json:"request_hash"`
	Status       string    `json:"status"`
	ResponseBody []byte    `json:"response_body,omitempty"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	Location     string    `json:"location,omitempty"`
	TTLAt        time.Time `json:"ttl_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newEntry(r domain.IdempotencyRecord) entry {
	return entry{
		RequestHash:  r.RequestHash,
		Status:       string(r.Status),
		ResponseBody: r.ResponseBody,
		HTTPStatus:   r.HTTPStatus,
		Location:     r.Location,
		TTLAt:        r.TTLAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (e entry) record(key string) (domain.IdempotencyRecord, error) {
	status, err := domain.ParseIdempotencyStatus(e.Status)
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("key %s: %w", key, err)
	}
	return domain.IdempotencyRecord{
		Key:          key,
		RequestHash:  e.RequestHash,
		Status:       status,
		ResponseBody: e.ResponseBody,
		HTTPStatus:   e.HTTPStatus,
		Location:     e.Location,
		TTLAt:        e.TTLAt,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}, nil
}

// IdempotencyRepository хранит idempotency-ключи в Redis. Срок жизни ключа:
// это TTL самого Redis, поэтому DeleteExpired ничего не делает, а истёкший ключ
// исчезает и занимается заново через обычный SET NX.
type IdempotencyRepository struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewIdempotencyRepository создаёт репозиторий поверх готового клиента.
func NewIdempotencyRepository(client redis.UniversalClient, prefix string) *IdempotencyRepository {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	return &IdempotencyRepository{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *IdempotencyRepository) Reserve(ctx context.Context, record domain.IdempotencyRecord) (domain.IdempotencyRecord, error) {
	if strings.TrimSpace(record.Key) == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}

	payload, err := json.Marshal(newEntry(record))
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("marshal idempotency record: %w", err)
	}
	// Redis не принимает нулевой TTL: уже истёкшая запись живёт миллисекунду.
	ttl := max(record.TTLAt.Sub(r.now()), time.Millisecond)

	ok, err := r.client.SetNX(ctx, r.prefix+record.Key, payload, ttl).Result()
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("redis setnx idempotency key: %w", err)
	}
	if ok {
		return record, nil
	}

	existing, err := r.Get(ctx, record.Key)
	if err != nil {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyAlreadyExists
	}
	return existing, existing.Conflict(record.RequestHash)
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}

	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("redis get idempotency key: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("decode idempotency key %s: %w", key, err)
	}
	return e.record(key)
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key string, response domain.IdempotentResponse) error {
	current, err := r.Get(ctx, key)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(newEntry(current.Complete(response, r.now())))
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	replaced, err := replaceIfExists.Run(ctx, r.client, []string{r.prefix + current.Key}, payload).Int()
	if err != nil {
		return fmt.Errorf("redis update idempotency key: %w", err)
	}
	if replaced == 0 {
		return domain.ErrIdempotencyKeyNotFound
	}
	return nil
}

// DeleteExpired ничего не удаляет: просроченные ключи Redis удаляет сам.
func (r *IdempotencyRepository) DeleteExpired(context.Context, time.Time, int) (int, error) {
	return 0, nil
}

// Ping проверяет доступность Redis для health-проверки.
func (r *IdempotencyRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ domain.IdempotencyRepository = (*IdempotencyRepository)(nil)
