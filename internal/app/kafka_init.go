package app

import (
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/catalog/internal/health"
	"github.com/vladislavdragonenkov/catalog/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/catalog/internal/version"
)

// newKafkaProducer подключается к брокерам из cfg; без брокеров возвращает nil, nil.
// Ошибка подключения не фатальна для Run: события остаются в outbox.
func newKafkaProducer(cfg Config, logger *log.Entry) (*kafka.Producer, error) {
	if !cfg.KafkaEnabled() {
		return nil, nil
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:     cfg.KafkaBrokers,
		ClientID:    version.UserAgent("service"),
		Compression: cfg.KafkaCompression,
	})
	if err != nil {
		logger.WithError(err).Warn("kafka unavailable, catalog events stay in outbox")
		return nil, err
	}
	logger.WithFields(log.Fields{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaTopic}).Info("kafka producer connected")
	return producer, nil
}

// kafkaChecker: Kafka некритична, её падение переводит сервис в degraded.
func kafkaChecker(producer *kafka.Producer) healthcheck.Checker {
	return healthcheck.NewPingChecker("kafka", false, producer.Ping)
}

func closeKafkaProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("kafka producer close failed")
		return
	}
	logger.Info("kafka producer closed")
}
