package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/vladislavdragonenkov/catalog/internal/messaging/kafka"
)

func TestParseBrokers(t *testing.T) {
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, parseBrokers(" broker-1:9092, ,broker-2:9092 "))
	require.Empty(t, parseBrokers(" , "))
}

func TestReadConfig(t *testing.T) {
	read := func(args ...string) (config, error) {
		var cfg config
		app := newApp()
		app.Action = func(c *cli.Context) error {
			var err error
			cfg, err = readConfig(c)
			return err
		}
		err := app.Run(append([]string{"dlq-replay"}, args...))
		return cfg, err
	}

	cfg, err := read("--brokers", "b1:9092,b2:9092", "--aggregate", "beer", "--limit", "10", "--execute", "--from-newest", "--idle-timeout", "3s")
	require.NoError(t, err)
	require.Equal(t, config{
		brokers:     []string{"b1:9092", "b2:9092"},
		sourceTopic: kafka.TopicDeadLetterQueue,
		targetTopic: kafka.TopicCatalogEvents,
		aggregate:   "beer",
		limit:       10,
		execute:     true,
		fromNewest:  true,
		idleTimeout: 3 * time.Second,
	}, cfg)

	t.Setenv("CATALOG_KAFKA_BROKERS", "")
	cases := map[string][]string{
		"kafka brokers are required": {},
		"source-topic is required":   {"--brokers", "b:9092", "--source-topic", " "},
		"target-topic is required":   {"--brokers", "b:9092", "--target-topic", ""},
		"limit must be > 0":          {"--brokers", "b:9092", "--limit", "0"},
		"idle-timeout must be > 0":   {"--brokers", "b:9092", "--idle-timeout", "0s"},
	}
	for want, args := range cases {
		_, err := read(args...)
		require.ErrorContains(t, err, want)
	}
}

func TestExtract(t *testing.T) {
	r := testReplayer(config{targetTopic: kafka.TopicCatalogEvents}, nil, nil, nil)

	got, err := r.extract(dlqMessage(0, "beer", "beer-1", "beer.updated", "catalog.custom"))
	require.NoError(t, err)
	require.Equal(t, "catalog.custom", got.topic)
	require.Equal(t, "beer-1", got.envelope.PartitionKey())
	require.Equal(t, "outbox-beer-1", got.envelope.ID)
	require.Equal(t, "beer.updated", got.envelope.EventType)
	require.JSONEq(t, `{"id":"beer-1","version":2}`, string(got.envelope.Payload))

	got, err = r.extract(dlqMessage(0, "customer", "", "customer.created", ""))
	require.NoError(t, err)
	require.Equal(t, kafka.TopicCatalogEvents, got.topic)
	require.Equal(t, "outbox-", got.envelope.PartitionKey())

	for name, value := range map[string]string{
		"not json":            `oops`,
		"no payload":          `{"id":"x"}`,
		"no original payload": `{"id":"x","payload":{"outbox_id":"x","event_type":"beer.deleted"}}`,
	} {
		_, err := r.extract(&sarama.ConsumerMessage{Value: []byte(value)})
		require.Error(t, err, name)
	}
}

func TestReplayer_DryRun(t *testing.T) {
	client := &stubOffsetClient{partitions: []int32{0}, offsets: map[int32]offsetRange{0: {oldest: 0, newest: 2}}}
	consumer := &stubConsumerSource{consumers: map[int32]partitionConsumer{
		0: closedPartitionConsumer(
			dlqMessage(0, "beer", "beer-1", "beer.created", ""),
			&sarama.ConsumerMessage{Offset: 1, Value: []byte(`{"foo":"bar"}`)},
		),
	}}

	st, err := testReplayer(config{sourceTopic: "dlq", targetTopic: "events", limit: 10, idleTimeout: 50 * time.Millisecond}, client, consumer, nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, stats{processed: 2, replayed: 1, skipped: 1}, st)
	require.Equal(t, []consumeCall{{partition: 0, offset: 0}}, consumer.calls)
}

func TestReplayer_ExecutePublishesOriginalEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "events" {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[string(h.Key)] = string(h.Value)
		}
		if headers[kafka.HeaderEventType] != "order.created" || headers[kafka.HeaderOutboxID] != "outbox-order-7" {
			return fmt.Errorf("unexpected headers %v", headers)
		}
		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var envelope kafka.Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return err
		}
		if envelope.AggregateID != "order-7" || string(envelope.Payload) != `{"id":"order-7","version":2}` {
			return fmt.Errorf("unexpected envelope %+v", envelope)
		}
		return nil
	})
	producer := kafka.WrapSyncProducer(mockProducer, nil)
	defer func() { require.NoError(t, producer.Close()) }()

	client := &stubOffsetClient{partitions: []int32{1, 0}, offsets: map[int32]offsetRange{
		0: {oldest: 0, newest: 0},
		1: {oldest: 5, newest: 7},
	}}
	consumer := &stubConsumerSource{consumers: map[int32]partitionConsumer{
		1: closedPartitionConsumer(
			dlqMessage(5, "beer", "beer-1", "beer.created", ""),
			dlqMessage(6, "order", "order-7", "order.created", ""),
		),
	}}

	cfg := config{sourceTopic: "dlq", targetTopic: "events", aggregate: "order", limit: 10, execute: true, idleTimeout: 50 * time.Millisecond}
	st, err := testReplayer(cfg, client, consumer, producer).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, stats{processed: 2, replayed: 1, skipped: 1}, st)
	require.Equal(t, []consumeCall{{partition: 1, offset: 5}}, consumer.calls)
}

func TestReplayer_FromNewestRespectsLimit(t *testing.T) {
	client := &stubOffsetClient{partitions: []int32{0}, offsets: map[int32]offsetRange{0: {oldest: 0, newest: 10}}}
	consumer := &stubConsumerSource{consumers: map[int32]partitionConsumer{
		0: closedPartitionConsumer(
			dlqMessage(8, "beer", "beer-8", "beer.updated", ""),
			dlqMessage(9, "beer", "beer-9", "beer.updated", ""),
		),
	}}

	cfg := config{sourceTopic: "dlq", targetTopic: "events", limit: 2, fromNewest: true, idleTimeout: 50 * time.Millisecond}
	st, err := testReplayer(cfg, client, consumer, nil).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, st.replayed)
	require.Equal(t, []consumeCall{{partition: 0, offset: 8}}, consumer.calls)
}

func TestReplayer_Errors(t *testing.T) {
	cfg := config{sourceTopic: "dlq", targetTopic: "events", limit: 1, execute: true, idleTimeout: 20 * time.Millisecond}

	_, err := testReplayer(cfg, &stubOffsetClient{}, &stubConsumerSource{}, nil).Run(context.Background())
	require.ErrorContains(t, err, "producer is required")

	cfg.execute = false
	_, err = testReplayer(cfg, &stubOffsetClient{partitionsErr: errors.New("metadata")}, &stubConsumerSource{}, nil).Run(context.Background())
	require.ErrorContains(t, err, "get partitions")

	offsetErr := &stubOffsetClient{partitions: []int32{0}, offsetErr: errors.New("offset")}
	_, err = testReplayer(cfg, offsetErr, &stubConsumerSource{}, nil).Run(context.Background())
	require.ErrorContains(t, err, "oldest offset")

	client := &stubOffsetClient{partitions: []int32{0}, offsets: map[int32]offsetRange{0: {oldest: 0, newest: 2}}}
	_, err = testReplayer(cfg, client, &stubConsumerSource{consumeErr: errors.New("consume")}, nil).Run(context.Background())
	require.ErrorContains(t, err, "consume partition 0")

	withErr := &stubPartitionConsumer{messages: make(chan *sarama.ConsumerMessage), errors: make(chan *sarama.ConsumerError, 1)}
	withErr.errors <- &sarama.ConsumerError{Topic: "dlq", Err: errors.New("boom")}
	_, err = testReplayer(cfg, client, &stubConsumerSource{consumers: map[int32]partitionConsumer{0: withErr}}, nil).Run(context.Background())
	require.ErrorContains(t, err, "consumer error")

	idle := &stubPartitionConsumer{messages: make(chan *sarama.ConsumerMessage), errors: make(chan *sarama.ConsumerError)}
	st, err := testReplayer(cfg, client, &stubConsumerSource{consumers: map[int32]partitionConsumer{0: idle}}, nil).Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, st.processed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg.idleTimeout = time.Second
	blocked := &stubPartitionConsumer{messages: make(chan *sarama.ConsumerMessage), errors: make(chan *sarama.ConsumerError)}
	_, err = testReplayer(cfg, client, &stubConsumerSource{consumers: map[int32]partitionConsumer{0: blocked}}, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReplayer_PublishFailure(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer := kafka.WrapSyncProducer(mockProducer, nil)
	defer func() { _ = producer.Close() }()

	client := &stubOffsetClient{partitions: []int32{0}, offsets: map[int32]offsetRange{0: {oldest: 0, newest: 1}}}
	consumer := &stubConsumerSource{consumers: map[int32]partitionConsumer{
		0: closedPartitionConsumer(dlqMessage(0, "beer", "beer-1", "beer.created", "")),
	}}

	cfg := config{sourceTopic: "dlq", targetTopic: "events", limit: 1, execute: true, idleTimeout: 50 * time.Millisecond}
	_, err := testReplayer(cfg, client, consumer, producer).Run(context.Background())
	require.ErrorContains(t, err, "publish replay message")
}

func TestRun_UsesDependencies(t *testing.T) {
	original := newReplayDependencies
	t.Cleanup(func() { newReplayDependencies = original })

	client := &stubOffsetClient{partitions: []int32{0}, offsets: map[int32]offsetRange{0: {oldest: 0, newest: 0}}}
	consumer := &stubConsumerSource{}
	newReplayDependencies = func(config) (offsetClient, partitionConsumerSource, publisher, error) {
		return client, consumer, nil, nil
	}
	require.NoError(t, run(context.Background(), config{sourceTopic: "dlq", limit: 1, idleTimeout: time.Millisecond}))
	require.True(t, client.closed)
	require.True(t, consumer.closed)

	newReplayDependencies = func(config) (offsetClient, partitionConsumerSource, publisher, error) {
		return nil, nil, nil, errors.New("no kafka")
	}
	require.ErrorContains(t, run(context.Background(), config{}), "no kafka")
}

func testReplayer(cfg config, client offsetClient, consumer partitionConsumerSource, producer publisher) *replayer {
	r := newReplayer(cfg, client, consumer, producer)
	r.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	return r
}

// dlqMessage собирает сообщение в том виде, в каком его пишет outbox worker через DLQ-паблишер.
func dlqMessage(offset int64, aggregateType, aggregateID, eventType, originalTopic string) *sarama.ConsumerMessage {
	dead, _ := json.Marshal(map[string]any{
		"outbox_id":      "outbox-" + aggregateID,
		"aggregate_type": aggregateType,
		"aggregate_id":   aggregateID,
		"event_type":     eventType,
		"payload":        json.RawMessage(fmt.Sprintf(`{"id":%q,"version":2}`, aggregateID)),
		"publish_error":  "kafka: client has run out of available brokers",
	})
	outer, _ := json.Marshal(kafka.Envelope{
		ID:            "outbox-" + aggregateID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       dead,
	})

	msg := &sarama.ConsumerMessage{Offset: offset, Value: outer}
	if originalTopic != "" {
		msg.Headers = []*sarama.RecordHeader{{Key: []byte(kafka.HeaderOriginalTopic), Value: []byte(originalTopic)}}
	}
	return msg
}

type offsetRange struct {
	oldest int64
	newest int64
}

type stubOffsetClient struct {
	partitions    []int32
	partitionsErr error
	offsets       map[int32]offsetRange
	offsetErr     error
	closed        bool
}

func (s *stubOffsetClient) GetOffset(_ string, partition int32, marker int64) (int64, error) {
	if s.offsetErr != nil {
		return 0, s.offsetErr
	}
	r := s.offsets[partition]
	if marker == sarama.OffsetOldest {
		return r.oldest, nil
	}
	return r.newest, nil
}

func (s *stubOffsetClient) Partitions(string) ([]int32, error) {
	return s.partitions, s.partitionsErr
}

func (s *stubOffsetClient) Close() error {
	s.closed = true
	return nil
}

type consumeCall struct {
	partition int32
	offset    int64
}

type stubConsumerSource struct {
	consumers  map[int32]partitionConsumer
	consumeErr error
	calls      []consumeCall
	closed     bool
}

func (s *stubConsumerSource) ConsumePartition(_ string, partition int32, offset int64) (partitionConsumer, error) {
	s.calls = append(s.calls, consumeCall{partition: partition, offset: offset})
	if s.consumeErr != nil {
		return nil, s.consumeErr
	}
	pc, ok := s.consumers[partition]
	if !ok {
		return closedPartitionConsumer(), nil
	}
	return pc, nil
}

func (s *stubConsumerSource) Close() error {
	s.closed = true
	return nil
}

type stubPartitionConsumer struct {
	messages chan *sarama.ConsumerMessage
	errors   chan *sarama.ConsumerError
}

func (s *stubPartitionConsumer) Messages() <-chan *sarama.ConsumerMessage { return s.messages }
func (s *stubPartitionConsumer) Errors() <-chan *sarama.ConsumerError     { return s.errors }
func (s *stubPartitionConsumer) Close() error                             { return nil }

func closedPartitionConsumer(messages ...*sarama.ConsumerMessage) *stubPartitionConsumer {
	pc := &stubPartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage, len(messages)),
		errors:   make(chan *sarama.ConsumerError),
	}
	for _, msg := range messages {
		pc.messages <- msg
	}
	close(pc.messages)
	close(pc.errors)
	return pc
}
