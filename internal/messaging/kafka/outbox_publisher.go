package kafka

import (
	"errors"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в один topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	// sourceTopic задан только у DLQ-паблишера и уходит в x-original-topic.
	sourceTopic string
	now         func() time.Time
}

// NewOutboxPublisher публикует события каталога; пустой topic означает catalog.events.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	return &OutboxTopicPublisher{producer: producer, topic: orDefault(topic, TopicCatalogEvents), now: time.Now}
}

// NewDLQPublisher публикует отказавшие события в dlqTopic с пометкой исходного topic.
func NewDLQPublisher(producer *Producer, dlqTopic, sourceTopic string) *OutboxTopicPublisher {
	return &OutboxTopicPublisher{
		producer:    producer,
		topic:       orDefault(dlqTopic, TopicDeadLetterQueue),
		sourceTopic: orDefault(sourceTopic, TopicCatalogEvents),
		now:         time.Now,
	}
}

func (p *OutboxTopicPublisher) Topic() string {
	return p.topic
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka outbox publisher is not initialized")
	}

	msg, err := NewEnvelope(event, p.now()).Message(p.topic)
	if err != nil {
		return err
	}
	if p.sourceTopic != "" {
		msg.Headers[HeaderOriginalTopic] = p.sourceTopic
	}
	return p.producer.Send(msg)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
