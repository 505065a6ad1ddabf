package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-target-service/internal/config"
	"github.com/couchcryptid/hazard-target-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes resolved target lists to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured target topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTargetTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one target list into a single message keyed by hazard
// mode, so each mode's lists stay ordered on one partition.
func (w *Writer) Publish(ctx context.Context, list domain.TargetList) error {
	msg, err := serializeToMessage(list)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s targets: %w", list.Mode, err)
	}
	w.logger.Debug("target list published", "mode", list.Mode, "targets", len(list.Targets))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a TargetList into a Kafka message.
func serializeToMessage(list domain.TargetList) (kafkago.Message, error) {
	data, err := json.Marshal(list)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize target list: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(list.Mode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(list.Mode)},
			{Key: "generated_at", Value: []byte(list.GeneratedAt.Format(time.RFC3339))},
			{Key: "target_count", Value: []byte(strconv.Itoa(len(list.Targets)))},
		},
	}, nil
}
