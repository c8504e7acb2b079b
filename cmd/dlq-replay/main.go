// dlq-replay возвращает события каталога из DLQ в рабочий topic.
// По умолчанию работает в dry-run и только печатает кандидатов.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vladislavdragonenkov/catalog/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/catalog/internal/version"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
)

type config struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	// aggregate ограничивает replay одним типом агрегата (beer, customer, order).
	aggregate   string
	limit       int
	execute     bool
	fromNewest  bool
	idleTimeout time.Duration
}

// deadLetter: тело DLQ-сообщения, которое пишет outbox worker.
type deadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
}

// candidate: событие, готовое к повторной публикации.
type candidate struct {
	topic    string
	envelope kafka.Envelope
}

type offsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Partitions(topic string) ([]int32, error)
	Close() error
}

type partitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

type partitionConsumerSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error)
	Close() error
}

type publisher interface {
	Send(msg kafka.Message) error
	Close() error
}

type saramaConsumerAdapter struct {
	consumer sarama.Consumer
}

func (a saramaConsumerAdapter) ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error) {
	return a.consumer.ConsumePartition(topic, partition, offset)
}

func (a saramaConsumerAdapter) Close() error {
	return a.consumer.Close()
}

var newReplayDependencies = func(cfg config) (offsetClient, partitionConsumerSource, publisher, error) {
	consumerConfig := sarama.NewConfig()
	consumerConfig.ClientID = version.UserAgent("dlq-replay")
	consumerConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, consumerConfig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create kafka client: %w", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	if !cfg.execute {
		return client, saramaConsumerAdapter{consumer: consumer}, nil, nil
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:  cfg.brokers,
		ClientID: version.UserAgent("dlq-replay"),
	})
	if err != nil {
		_ = consumer.Close()
		_ = client.Close()
		return nil, nil, nil, err
	}
	return client, saramaConsumerAdapter{consumer: consumer}, producer, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "dlq-replay",
		Usage:   "повторная публикация событий каталога из DLQ",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "brokers", EnvVars: []string{"CATALOG_KAFKA_BROKERS"}, Usage: "Kafka brokers через запятую"},
			&cli.StringFlag{Name: "source-topic", Value: kafka.TopicDeadLetterQueue},
			&cli.StringFlag{Name: "target-topic", Value: kafka.TopicCatalogEvents, Usage: "topic, если в сообщении нет x-original-topic"},
			&cli.StringFlag{Name: "aggregate", Usage: "только события агрегата: beer|customer|order"},
			&cli.IntFlag{Name: "limit", Value: defaultReplayLimit},
			&cli.BoolFlag{Name: "execute", Usage: "публиковать; без флага только dry-run"},
			&cli.BoolFlag{Name: "from-newest", Usage: "начинать с последних limit сообщений"},
			&cli.DurationFlag{Name: "idle-timeout", Value: defaultIdleTimeout},
		},
		Action: func(c *cli.Context) error {
			cfg, err := readConfig(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if err := newApp().Run(os.Args); err != nil {
		log.WithError(err).Fatal("dlq replay failed")
	}
}

func readConfig(c *cli.Context) (config, error) {
	cfg := config{
		brokers:     parseBrokers(c.String("brokers")),
		sourceTopic: strings.TrimSpace(c.String("source-topic")),
		targetTopic: strings.TrimSpace(c.String("target-topic")),
		aggregate:   strings.TrimSpace(c.String("aggregate")),
		limit:       c.Int("limit"),
		execute:     c.Bool("execute"),
		fromNewest:  c.Bool("from-newest"),
		idleTimeout: c.Duration("idle-timeout"),
	}

	switch {
	case len(cfg.brokers) == 0:
		return config{}, errors.New("kafka brokers are required (--brokers or CATALOG_KAFKA_BROKERS)")
	case cfg.sourceTopic == "":
		return config{}, errors.New("source-topic is required")
	case cfg.targetTopic == "":
		return config{}, errors.New("target-topic is required")
	case cfg.limit <= 0:
		return config{}, errors.New("limit must be > 0")
	case cfg.idleTimeout <= 0:
		return config{}, errors.New("idle-timeout must be > 0")
	}
	return cfg, nil
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, chunk := range strings.Split(raw, ",") {
		if broker := strings.TrimSpace(chunk); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func run(ctx context.Context, cfg config) error {
	client, consumer, producer, err := newReplayDependencies(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if producer != nil {
			_ = producer.Close()
		}
		_ = consumer.Close()
		_ = client.Close()
	}()

	_, err = newReplayer(cfg, client, consumer, producer).Run(ctx)
	return err
}

type stats struct {
	processed int
	replayed  int
	skipped   int
}

func (s *stats) add(other stats) {
	s.processed += other.processed
	s.replayed += other.replayed
	s.skipped += other.skipped
}

type replayer struct {
	cfg       config
	client    offsetClient
	consumer  partitionConsumerSource
	publisher publisher
	logger    *log.Entry
	now       func() time.Time
}

func newReplayer(cfg config, client offsetClient, consumer partitionConsumerSource, producer publisher) *replayer {
	return &replayer{
		cfg:       cfg,
		client:    client,
		consumer:  consumer,
		publisher: producer,
		logger:    log.WithField("component", "dlq-replay"),
		now:       time.Now,
	}
}

// Run сканирует партиции source-topic по возрастанию номера, пока не наберёт limit сообщений.
func (r *replayer) Run(ctx context.Context) (stats, error) {
	var total stats
	if r.cfg.execute && r.publisher == nil {
		return total, errors.New("producer is required in execute mode")
	}

	partitions, err := r.client.Partitions(r.cfg.sourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", r.cfg.sourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		remaining := r.cfg.limit - total.processed
		if remaining <= 0 {
			break
		}
		got, err := r.replayPartition(ctx, partition, remaining)
		total.add(got)
		if err != nil {
			return total, err
		}
	}

	mode := "dry-run"
	if r.cfg.execute {
		mode = "execute"
	}
	r.logger.WithFields(log.Fields{
		"mode":      mode,
		"processed": total.processed,
		"replayed":  total.replayed,
		"skipped":   total.skipped,
	}).Info("dlq replay finished")
	return total, nil
}

func (r *replayer) replayPartition(ctx context.Context, partition int32, limit int) (stats, error) {
	var st stats

	oldest, err := r.client.GetOffset(r.cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return st, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := r.client.GetOffset(r.cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return st, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return st, nil
	}

	start := oldest
	if r.cfg.fromNewest && newest-int64(limit) > oldest {
		start = newest - int64(limit)
	}

	pc, err := r.consumer.ConsumePartition(r.cfg.sourceTopic, partition, start)
	if err != nil {
		return st, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(r.cfg.idleTimeout)
	defer idle.Stop()

	errs := pc.Errors()
	for st.processed < limit {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-idle.C:
			return st, nil
		case cerr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if cerr != nil {
				return st, fmt.Errorf("partition %d consumer error: %w", partition, cerr)
			}
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil || msg.Offset >= newest {
				return st, nil
			}
			idle.Reset(r.cfg.idleTimeout)

			st.processed++
			if err := r.handle(msg, &st); err != nil {
				return st, err
			}
			if msg.Offset+1 >= newest {
				return st, nil
			}
		}
	}
	return st, nil
}

func (r *replayer) handle(msg *sarama.ConsumerMessage, st *stats) error {
	fields := log.Fields{"partition": msg.Partition, "offset": msg.Offset}

	c, err := r.extract(msg)
	if err != nil {
		st.skipped++
		r.logger.WithError(err).WithFields(fields).Warn("skip unsupported dlq message")
		return nil
	}
	if r.cfg.aggregate != "" && c.envelope.AggregateType != r.cfg.aggregate {
		st.skipped++
		return nil
	}

	fields["target_topic"] = c.topic
	fields["event_type"] = c.envelope.EventType
	fields["key"] = c.envelope.PartitionKey()
	if !r.cfg.execute {
		st.replayed++
		r.logger.WithFields(fields).Info("dlq replay candidate")
		return nil
	}

	replay, err := c.envelope.Message(c.topic)
	if err != nil {
		return err
	}
	if err := r.publisher.Send(replay); err != nil {
		return fmt.Errorf("publish replay message: %w", err)
	}
	st.replayed++
	r.logger.WithFields(fields).Info("dlq message replayed")
	return nil
}

// extract разбирает DLQ-сообщение: внешний kafka.Envelope несёт deadLetter,
// в котором лежит исходный payload события.
func (r *replayer) extract(msg *sarama.ConsumerMessage) (candidate, error) {
	var outer kafka.Envelope
	if err := json.Unmarshal(msg.Value, &outer); err != nil {
		return candidate{}, fmt.Errorf("decode dlq envelope: %w", err)
	}
	if len(outer.Payload) == 0 {
		return candidate{}, errors.New("dlq envelope has no payload")
	}

	var dead deadLetter
	if err := json.Unmarshal(outer.Payload, &dead); err != nil {
		return candidate{}, fmt.Errorf("decode dead letter: %w", err)
	}
	if len(dead.Payload) == 0 {
		return candidate{}, errors.New("dead letter does not contain original event payload")
	}

	envelope := kafka.Envelope{
		ID:            firstNonEmpty(dead.OutboxID, outer.ID),
		AggregateType: firstNonEmpty(dead.AggregateType, outer.AggregateType),
		AggregateID:   firstNonEmpty(dead.AggregateID, outer.AggregateID),
		EventType:     firstNonEmpty(dead.EventType, outer.EventType),
		Payload:       dead.Payload,
		PublishedAt:   r.now().UTC(),
	}

	topic := r.cfg.targetTopic
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == kafka.HeaderOriginalTopic && len(h.Value) > 0 {
			topic = string(h.Value)
		}
	}

	return candidate{
		topic:    topic,
		envelope: envelope,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
