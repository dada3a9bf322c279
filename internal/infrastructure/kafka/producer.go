package kafka_infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer interface {
	Produce(ctx context.Context, topic, key string, value []byte) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer returns a synchronous producer: Produce returns only after the
// brokers acknowledged the message, so callers can rely on its error.
func NewProducer(brokerURLs []string, logger *zap.Logger) Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerURLs...),
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	}

	return &kafkaProducer{
		writer: writer,
		logger: logger,
	}
}

func (p *kafkaProducer) Produce(ctx context.Context, topic, key string, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	produceCtx, cancel := context.WithTimeout(ctx, p.writer.WriteTimeout)
	defer cancel()

	err := p.writer.WriteMessages(produceCtx, msg)
	if err != nil {
		p.logger.Error("Failed to produce message to Kafka",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to produce message to Kafka: %w", err)
	}
	p.logger.Debug("Message produced to Kafka successfully",
		zap.String("topic", topic),
		zap.String("key", key),
	)
	return nil
}

func (p *kafkaProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	if err != nil {
		p.logger.Error("Failed to close Kafka producer", zap.Error(err))
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	p.logger.Info("Kafka Producer closed.")
	return nil
}

// IsPermanent reports whether err is a broker rejection that resending the
// same message cannot fix, such as MessageSizeTooLarge.
func IsPermanent(err error) bool {
	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		for _, e := range writeErrs {
			if e != nil && !IsPermanent(e) {
				return false
			}
		}
		return writeErrs.Count() > 0
	}
	var kafkaErr kafka.Error
	return errors.As(err, &kafkaErr) && !kafkaErr.Temporary()
}
