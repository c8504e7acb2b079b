package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

var compressionCodecs = map[string]sarama.CompressionCodec{
	"none":   sarama.CompressionNone,
	"gzip":   sarama.CompressionGZIP,
	"snappy": sarama.CompressionSnappy,
	"lz4":    sarama.CompressionLZ4,
	"zstd":   sarama.CompressionZSTD,
}

// ProducerConfig описывает подключение producer'а к кластеру.
type ProducerConfig struct {
	Brokers  []string
	ClientID string
	// Compression: none, gzip, snappy, lz4 или zstd; пустая строка означает snappy.
	Compression string
	MaxRetries  int
}

func (c ProducerConfig) sarama() (*sarama.Config, error) {
	codec := sarama.CompressionSnappy
	if name := strings.ToLower(strings.TrimSpace(c.Compression)); name != "" {
		var ok bool
		if codec, ok = compressionCodecs[name]; !ok {
			return nil, fmt.Errorf("unknown kafka compression %q", c.Compression)
		}
	}

	cfg := sarama.NewConfig()
	if id := clientID(c.ClientID); id != "" {
		cfg.ClientID = id
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = codec
	cfg.Producer.Retry.Max = 5
	if c.MaxRetries > 0 {
		cfg.Producer.Retry.Max = c.MaxRetries
	}
	// Идемпотентный producer требует одного запроса в полёте на соединение.
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	return cfg, cfg.Validate()
}

// clientID оставляет в идентификаторе только символы, которые принимают все версии брокеров.
func clientID(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(raw))
}

// Message: запись для отправки, Value уже сериализован.
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

func (m Message) sarama() *sarama.ProducerMessage {
	out := &sarama.ProducerMessage{
		Topic:     m.Topic,
		Key:       sarama.StringEncoder(m.Key),
		Value:     sarama.ByteEncoder(m.Value),
		Timestamp: time.Now(),
	}
	names := make([]string, 0, len(m.Headers))
	for name := range m.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.Headers = append(out.Headers, sarama.RecordHeader{Key: []byte(name), Value: []byte(m.Headers[name])})
	}
	return out
}

// Producer отправляет сообщения синхронно и отдаёт состояние кластера для health check.
type Producer struct {
	sync   sarama.SyncProducer
	client sarama.Client
	logger *log.Entry
}

// NewProducer подключается к brokers. Клиент общий для producer'а и Ping.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	saramaCfg, err := cfg.sarama()
	if err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("connect kafka %v: %w", cfg.Brokers, err)
	}
	syncProducer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{sync: syncProducer, client: client, logger: log.WithField("component", "kafka-producer")}, nil
}

// WrapSyncProducer оборачивает готовый sarama.SyncProducer (например, mocks.SyncProducer).
// У такого producer'а нет клиента, Ping всегда успешен.
func WrapSyncProducer(producer sarama.SyncProducer, logger *log.Entry) *Producer {
	if logger == nil {
		logger = log.WithField("component", "kafka-producer")
	}
	return &Producer{sync: producer, logger: logger}
}

func (p *Producer) Send(msg Message) error {
	partition, offset, err := p.sync.SendMessage(msg.sarama())
	fields := log.Fields{"topic": msg.Topic, "key": msg.Key}
	if err != nil {
		p.logger.WithError(err).WithFields(fields).Error("kafka send failed")
		return fmt.Errorf("send to %s: %w", msg.Topic, err)
	}
	fields["partition"], fields["offset"] = partition, offset
	p.logger.WithFields(fields).Debug("kafka message sent")
	return nil
}

// Ping обновляет метаданные кластера; ошибка означает, что ни один брокер не ответил.
func (p *Producer) Ping(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	if p.client.Closed() {
		return errors.New("kafka client is closed")
	}

	done := make(chan error, 1)
	go func() { done <- p.client.RefreshMetadata() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("kafka metadata: %w", err)
		}
	}
	if len(p.client.Brokers()) == 0 {
		return sarama.ErrOutOfBrokers
	}
	return nil
}

// Close закрывает producer и затем клиент: NewSyncProducerFromClient клиент не закрывает.
func (p *Producer) Close() error {
	err := p.sync.Close()
	if p.client != nil {
		err = errors.Join(err, p.client.Close())
	}
	if err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
