// Package kafka adapts the raw-reading source topic to the collector.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/lakewatch/sonde-site-service/internal/collector"
)

// Reader consumes raw sonde readings from the source topic. It implements
// collector.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the configured readings topic.
func NewReader(brokers []string, topic, groupID string, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // explicit commits only, after the batch is on disk
	})
	return &Reader{reader: r, logger: logger}
}

// ExtractBatch fetches up to batchSize messages, returning early when the
// deadline passes with a partial (possibly empty) batch. An empty batch with
// a nil error means "nothing new yet".
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int, deadline time.Duration) ([]collector.RawReading, error) {
	batchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var batch []collector.RawReading
	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(batchCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return batch, nil
			}
			return batch, fmt.Errorf("fetch message: %w", err)
		}
		batch = append(batch, mapMessageToRawReading(r.reader, msg))
	}
	return batch, nil
}

// Close shuts the consumer down, committing nothing further.
func (r *Reader) Close() error {
	return r.reader.Close()
}

func mapMessageToRawReading(reader *kafkago.Reader, msg kafkago.Message) collector.RawReading {
	return collector.RawReading{
		Key:       msg.Key,
		Value:     msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return reader.CommitMessages(ctx, msg)
		},
	}
}
