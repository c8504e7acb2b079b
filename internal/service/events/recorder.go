// Package events складывает доменные события каталога в transactional outbox.
package events

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// Recorder сериализует событие и кладёт его в outbox.
// Нулевой Recorder и Recorder без outbox ничего не делают.
type Recorder struct {
	outbox domain.OutboxRepository
	logger *log.Entry
}

// NewRecorder создаёт Recorder поверх outbox-репозитория.
func NewRecorder(outbox domain.OutboxRepository, logger *log.Entry) *Recorder {
	if logger == nil {
		logger = log.WithField("component", "events")
	}
	return &Recorder{outbox: outbox, logger: logger}
}

// Record ставит событие в очередь. Ошибки только логируются: мутация к этому
// моменту уже сохранена и откатывать её из-за outbox нельзя.
func (r *Recorder) Record(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) {
	if r == nil || r.outbox == nil {
		return
	}

	fields := log.Fields{
		"aggregate_type": aggregateType,
		"aggregate_id":   aggregateID,
		"event":          eventType,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.WithError(err).WithFields(fields).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
	}
	if _, err := r.outbox.Enqueue(ctx, msg); err != nil {
		r.logger.WithError(err).WithFields(fields).Error("enqueue event failed")
		return
	}
	r.logger.WithFields(fields).Debug("event enqueued")
}
