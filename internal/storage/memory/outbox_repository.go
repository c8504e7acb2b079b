package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type outboxEntry struct {
	msg      domain.OutboxMessage
	status   domain.OutboxStatus
	queuedAt time.Time
}

// OutboxRepository держит сообщения в журнале в порядке постановки.
type OutboxRepository struct {
	mu    sync.RWMutex
	log   []*outboxEntry
	index map[string]*outboxEntry
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{index: make(map[string]*outboxEntry)}
}

func (r *OutboxRepository) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[msg.ID]; ok {
		return domain.OutboxMessage{}, fmt.Errorf("outbox message %s: %w", msg.ID, domain.ErrAlreadyExists)
	}
	entry := &outboxEntry{msg: msg, status: domain.OutboxStatusPending, queuedAt: time.Now().UTC()}
	r.log = append(r.log, entry)
	r.index[msg.ID] = entry
	return msg, nil
}

func (r *OutboxRepository) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var batch []domain.OutboxMessage
	for _, entry := range r.log {
		if len(batch) == limit {
			break
		}
		if entry.status == domain.OutboxStatusPending {
			batch = append(batch, entry.msg)
		}
	}
	return batch, nil
}

func (r *OutboxRepository) Stats(_ context.Context) (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OutboxStats
	for _, entry := range r.log {
		if entry.status != domain.OutboxStatusPending {
			continue
		}
		if stats.PendingCount == 0 {
			stats.OldestPendingAt = entry.queuedAt
		}
		stats.PendingCount++
	}
	return stats, nil
}

func (r *OutboxRepository) MarkSent(_ context.Context, id string) error {
	return r.settle(id, domain.OutboxStatusSent)
}

func (r *OutboxRepository) MarkFailed(_ context.Context, id string) error {
	return r.settle(id, domain.OutboxStatusFailed)
}

// AllPending нужен тестам сервисов, которые проверяют поставленные события.
func (r *OutboxRepository) AllPending() []domain.OutboxMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []domain.OutboxMessage
	for _, entry := range r.log {
		if entry.status == domain.OutboxStatusPending {
			pending = append(pending, entry.msg)
		}
	}
	return pending
}

func (r *OutboxRepository) settle(id string, status domain.OutboxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.index[id]
	switch {
	case !ok:
		return fmt.Errorf("%w: %s", domain.ErrOutboxMessageNotFound, id)
	case entry.status != domain.OutboxStatusPending:
		return fmt.Errorf("%w: %s is %s", domain.ErrOutboxMessageSettled, id, entry.status)
	}
	entry.status = status
	return nil
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
