package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-alert-polygons/internal/adapter/geojson"
	"github.com/couchcryptid/storm-alert-polygons/internal/config"
	"github.com/couchcryptid/storm-alert-polygons/internal/domain"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes one message per rendered map to a Kafka topic, keyed by
// map name ("conus" or a region name). It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: false,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every document of the map and writes them in a single
// WriteMessages call.
func (w *Writer) Publish(ctx context.Context, m domain.AlertMap) error {
	docs := geojson.Documents(m)
	msgs := make([]kafkago.Message, len(docs))
	for i, doc := range docs {
		msg, err := serializeToMessage(doc)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish alert maps: %w", err)
	}
	w.logger.Info("published alert maps to kafka", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage encodes a document into a Kafka message.
func serializeToMessage(doc *geojson.Document) (kafkago.Message, error) {
	data, err := geojson.Encode(doc)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(doc.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "valid_at", Value: []byte(doc.ValidAt.Format(time.RFC3339))},
			{Key: "feature_count", Value: []byte(strconv.Itoa(len(doc.Features)))},
		},
	}, nil
}
