package domain

import (
	"errors"
	"fmt"
	"time"
)

// Агрегаты, события которых попадают в outbox.
const (
	AggregateBeer     = "beer"
	AggregateCustomer = "customer"
	AggregateOrder    = "beer_order"
)

// Типы событий каталога.
const (
	EventBeerCreated        = "beer.created"
	EventBeerUpdated        = "beer.updated"
	EventBeerDeleted        = "beer.deleted"
	EventBeerCategoryLinked = "beer.category_linked"
	EventBeerCategoryUnlink = "beer.category_unlinked"
	EventCustomerCreated    = "customer.created"
	EventCustomerUpdated    = "customer.updated"
	EventCustomerDeleted    = "customer.deleted"
	EventOrderCreated       = "order.created"
	EventOrderDeleted       = "order.deleted"
)

var (
	// ErrOutboxMessageNotFound возвращается при отметке неизвестного сообщения.
	ErrOutboxMessageNotFound = fmt.Errorf("outbox message %w", ErrNotFound)
	// ErrOutboxMessageSettled: сообщение уже отправлено или отброшено, повторная отметка запрещена.
	ErrOutboxMessageSettled = errors.New("outbox message already settled")
)

// OutboxStatus описывает состояние сообщения. Переходы только из pending.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// Age возвращает возраст самого старого pending-сообщения; пустой backlog даёт ноль.
func (s OutboxStats) Age(now time.Time) time.Duration {
	if s.PendingCount == 0 || s.OldestPendingAt.IsZero() || now.Before(s.OldestPendingAt) {
		return 0
	}
	return now.Sub(s.OldestPendingAt)
}
