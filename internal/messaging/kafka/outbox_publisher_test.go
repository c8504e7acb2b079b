package kafka

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func headerMap(msg *sarama.ProducerMessage) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[string(h.Key)] = string(h.Value)
	}
	return out
}

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		headers := headerMap(msg)
		if headers[HeaderEventType] != domain.EventBeerCreated {
			return fmt.Errorf("unexpected event type header %q", headers[HeaderEventType])
		}
		if headers[HeaderAggregateType] != domain.AggregateBeer {
			return fmt.Errorf("unexpected aggregate header %q", headers[HeaderAggregateType])
		}
		if _, ok := headers[HeaderOriginalTopic]; ok {
			return fmt.Errorf("original topic header must be absent outside DLQ")
		}

		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		if env.AggregateID != "beer-123" || env.ID != "outbox-1" {
			return fmt.Errorf("unexpected envelope %+v", env)
		}
		return nil
	})

	producer := WrapSyncProducer(mockProducer, log.WithField("component", "kafka-outbox-publisher-test"))
	publisher := NewOutboxPublisher(producer, "")
	if publisher.Topic() != TopicCatalogEvents {
		t.Fatalf("expected default topic %s, got %s", TopicCatalogEvents, publisher.Topic())
	}

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateBeer,
		AggregateID:   "beer-123",
		EventType:     domain.EventBeerCreated,
		Payload:       []byte(`{"beerName":"Galaxy Cat"}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(WrapSyncProducer(mockProducer, nil), TopicCatalogEvents)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-234",
		EventType:     domain.EventOrderCreated,
		Payload:       []byte(`{}`),
	})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDLQPublisher_SetsOriginalTopic(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicDeadLetterQueue {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		if got := headerMap(msg)[HeaderOriginalTopic]; got != TopicCatalogEvents {
			return fmt.Errorf("unexpected original topic %q", got)
		}
		return nil
	})

	publisher := NewDLQPublisher(WrapSyncProducer(mockProducer, nil), "", "")
	if err := publisher.Publish(domain.OutboxMessage{ID: "outbox-3", EventType: domain.EventBeerDeleted}); err != nil {
		t.Fatalf("publish to dlq failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicCatalogEvents)
	if err := publisher.Publish(domain.OutboxMessage{ID: "outbox-4"}); err == nil {
		t.Fatal("expected error for nil producer")
	}
}
