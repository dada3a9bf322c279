package kafka_infra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EnsureTopics creates the given topics through the cluster controller.
// Topics that already exist are left untouched.
func EnsureTopics(ctx context.Context, brokerURLs []string, topics []string, logger *zap.Logger) error {
	if len(brokerURLs) == 0 {
		return errors.New("no kafka brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokerURLs[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker for admin operations: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get kafka controller: %w", err)
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to dial kafka controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}

	err = controllerConn.CreateTopics(topicConfigs...)
	if err != nil {
		if errors.Is(err, kafka.TopicAlreadyExists) {
			logger.Info("Kafka topics already exist, skipping creation", zap.Strings("topics", topics))
			return nil
		}
		return fmt.Errorf("failed to create Kafka topics: %w", err)
	}
	logger.Info("Kafka topics ensured", zap.Strings("topics", topics))
	return nil
}
