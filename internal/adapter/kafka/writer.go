package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/regain-housing-analysis/internal/config"
	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

// Record types carried in the record_type header.
const (
	RecordTypeObservation   = "observation"
	RecordTypeAnnualSummary = "annual_summary"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per observation and per annual summary.
// It implements pipeline.Publisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (p *Publisher) Name() string { return "kafka" }

// Publish serializes the result and writes it in a single WriteMessages call.
// Keys are stable per period so consumers can compact the topic.
func (p *Publisher) Publish(ctx context.Context, result *domain.Result) error {
	msgs, err := buildMessages(result)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write messages: %w", err)
	}
	p.logger.Debug("kafka messages written", "count", len(msgs))
	return nil
}

// Close flushes pending writes and releases the connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func buildMessages(result *domain.Result) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(result.Observations)+len(result.Annual))
	for _, o := range result.Observations {
		msg, err := serializeToMessage(o.Key(), RecordTypeObservation, o, result.GeneratedAt)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	for _, s := range result.Annual {
		msg, err := serializeToMessage(strconv.Itoa(s.Year), RecordTypeAnnualSummary, s, result.GeneratedAt)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals v into a Kafka message with the standard headers.
func serializeToMessage(key, recordType string, v any, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s %s: %w", recordType, key, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_type", Value: []byte(recordType)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
