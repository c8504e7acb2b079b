package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
)

// DefaultTTL: время жизни ключа, если не задано иное.
const DefaultTTL = domain.DefaultIdempotencyTTL

// ErrRequestInProgress: запрос с тем же ключом ещё выполняется.
var ErrRequestInProgress = errors.New("request with the same idempotency key is already processing")

// Guard резервирует idempotency-ключ до выполнения запроса и сохраняет его ответ.
type Guard struct {
	repo    domain.IdempotencyRepository
	ttl     time.Duration
	logger  *log.Entry
	metrics *metrics.IdempotencyMetrics
	now     func() time.Time
}

// NewGuard создаёт Guard. ttl <= 0 заменяется на DefaultTTL.
func NewGuard(repo domain.IdempotencyRepository, ttl time.Duration, m *metrics.IdempotencyMetrics, logger *log.Entry) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.WithField("component", "idempotency-guard")
	}
	if m == nil {
		m = metrics.NewIdempotencyMetrics(nil)
	}
	return &Guard{
		repo:    repo,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// HashRequest строит отпечаток запроса: метод, путь и тело.
func HashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(strings.ToUpper(method)))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Begin резервирует ключ. Если по ключу уже есть завершённый ответ, он возвращается
// как replay и запрос выполнять не нужно. Тот же ключ с другим телом даёт
// domain.ErrIdempotencyHashMismatch, незавершённый запрос: ErrRequestInProgress.
func (g *Guard) Begin(ctx context.Context, key, requestHash string) (*domain.IdempotentResponse, error) {
	now := g.now()
	record, err := domain.NewIdempotencyRecord(key, requestHash, now.Add(g.ttl), now)
	if err != nil {
		return nil, err
	}

	existing, err := g.repo.Reserve(ctx, record)
	switch {
	case err == nil:
		return nil, nil
	case !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		return nil, err
	case !existing.Replayable():
		return nil, ErrRequestInProgress
	}

	g.metrics.RecordReplay()
	resp := existing.Response()
	return &resp, nil
}

// Complete сохраняет ответ под ключом. Ошибка хранилища только логируется:
// ответ клиенту уже сформирован.
func (g *Guard) Complete(ctx context.Context, key string, resp domain.IdempotentResponse) {
	if err := g.repo.Complete(ctx, key, resp); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
}
