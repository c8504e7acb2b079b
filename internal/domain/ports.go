package domain

import (
	"context"
	"time"
)

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	// Reserve сохраняет запись, собранную NewIdempotencyRecord. Занятый живой ключ
	// возвращает существующую запись и ошибку record.Conflict. Ключ, истёкший к
	// record.CreatedAt, перезаписывается, не дожидаясь DeleteExpired.
	Reserve(ctx context.Context, record IdempotencyRecord) (IdempotencyRecord, error)
	Get(ctx context.Context, key string) (IdempotencyRecord, error)
	// Complete сохраняет ответ, статус выбирается через StatusForHTTP.
	Complete(ctx context.Context, key string, response IdempotentResponse) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}
