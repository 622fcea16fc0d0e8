package emitters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"toronet-wallet/internal/models"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaEmitter.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter implements EventEmitter using Kafka
type KafkaEmitter struct {
	writer  MessageWriter
	timeout time.Duration
	logger  *zerolog.Logger
	mu      sync.Mutex
}

// NewKafkaEmitter creates a new KafkaEmitter
func NewKafkaEmitter(brokerAddress, topic string, logger *zerolog.Logger) *KafkaEmitter {
	return NewKafkaEmitterWithWriter(&kafka.Writer{
		Addr:     kafka.TCP(brokerAddress),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}, logger)
}

func NewKafkaEmitterWithWriter(w MessageWriter, logger *zerolog.Logger) *KafkaEmitter {
	return &KafkaEmitter{writer: w, timeout: 10 * time.Second, logger: logger}
}

// Message builds the Kafka message for event, keyed by wallet address so one
// wallet's events stay ordered on a partition.
func Message(event models.TransactionEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.Address),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "kind", Value: []byte(event.Kind)},
		},
		Time: event.Timestamp,
	}, nil
}

func (k *KafkaEmitter) EmitEvent(event models.TransactionEvent) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer == nil {
		return fmt.Errorf("kafka emitter closed")
	}

	msg, err := Message(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	if k.logger != nil {
		k.logger.Debug().
			Str("id", event.ID).
			Str("kind", event.Kind.String()).
			Str("asset", event.AssetID).
			Msg("Successfully emitted event to Kafka")
	}
	return nil
}

func (k *KafkaEmitter) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer != nil {
		err := k.writer.Close()
		k.writer = nil
		return err
	}
	return nil
}
