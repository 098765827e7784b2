package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/aftershock-forecast-service/internal/config"
	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
)

// Writer produces forecast tables to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes forecast tables to the sink topic in a
// single WriteMessages call. Tables are keyed by request ID so every
// forecast for one mainshock lands on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, tables []domain.ForecastTable) error {
	if len(tables) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(tables))
	for i := range tables {
		msg, err := serializeToMessage(tables[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ForecastTable into a Kafka message.
func serializeToMessage(table domain.ForecastTable) (kafkago.Message, error) {
	data, err := json.Marshal(table)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast %q: %w", table.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(table.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "profile", Value: []byte(table.Profile)},
			{Key: "generated_at", Value: []byte(table.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
