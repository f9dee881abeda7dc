package kafka

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"lyceum/internal/config"
)

// MessageHandler processes a single consumed Kafka message.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

// confluentKafkaConsumer implements MessageConsumer using confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
}

// NewConfluentKafkaConsumer creates a new Kafka consumer instance. The group
// is assigned in Consume so one constructor serves multiple pipelines.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig) (MessageConsumer, error) {
	return &confluentKafkaConsumer{cfg: cfg}, nil
}

// Consume blocks, polling the given topics and dispatching each message to
// the handler. Offsets are committed manually only after the handler returns
// nil, so a crashed handler leads to redelivery rather than loss.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           c.groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}

	log.Printf("Kafka consumer started for GroupID: %s, subscribed to Topics: %v", groupID, topics)

	run := true
	for run {
		select {
		case <-ctx.Done():
			log.Printf("Context canceled for consumer group %s. Shutting down.", groupID)
			run = false
		default:
			ev := c.consumer.Poll(1000)
			if ev == nil {
				continue
			}

			switch e := ev.(type) {
			case *kafka.Message:
				if err := handler(ctx, e); err != nil {
					log.Printf("Error processing Kafka message for group %s (Topic: %s, Offset: %v): %v",
						groupID, *e.TopicPartition.Topic, e.TopicPartition.Offset, err)
				} else {
					if _, err := c.consumer.CommitMessage(e); err != nil {
						log.Printf("Failed to commit offset for group %s (Topic: %s, Offset: %v): %v",
							groupID, *e.TopicPartition.Topic, e.TopicPartition.Offset, err)
					}
				}
			case kafka.Error:
				log.Printf("Kafka consumer error for group %s: %v (Code: %d, Fatal: %t, Retriable: %t)",
					groupID, e, e.Code(), e.IsFatal(), e.IsRetriable())
				if e.IsFatal() {
					run = false
					return e
				}
			case kafka.AssignedPartitions:
				log.Printf("Partitions assigned for group %s: %v", groupID, e.Partitions)
				c.consumer.Assign(e.Partitions)
			case kafka.RevokedPartitions:
				log.Printf("Partitions revoked for group %s: %v", groupID, e.Partitions)
				c.consumer.Unassign()
			default:
			}
		}
	}
	log.Printf("Kafka consumer loop for group %s finished.", groupID)
	return nil
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer != nil {
		log.Printf("Closing Kafka consumer for group %s...", c.groupID)
		if err := c.consumer.Close(); err != nil {
			log.Printf("Error closing Kafka consumer for group %s: %v", c.groupID, err)
		}
		c.consumer = nil
	}
}
