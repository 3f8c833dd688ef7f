// Package kafka publishes incident lifecycle events for downstream
// consumers (map front end, alerting).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/poamaps/incident-etl/internal/config"
	"github.com/poamaps/incident-etl/internal/domain"
)

// Publisher produces lifecycle events to a Kafka topic.
// It implements pipeline.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

func (p *Publisher) IncidentCreated(ctx context.Context, inc domain.Incident) error {
	return p.publish(ctx, "created", inc)
}

func (p *Publisher) IncidentResolved(ctx context.Context, inc domain.Incident) error {
	return p.publish(ctx, "resolved", inc)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) publish(ctx context.Context, action string, inc domain.Incident) error {
	msg, err := serializeToMessage(action, inc)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event for %s: %w", action, inc.ExternalID, err)
	}
	p.logger.Debug("event published", "action", action, "id", inc.ExternalID)
	return nil
}

// serializeToMessage marshals an incident into a Kafka message keyed by its
// external ID, so both lifecycle events of one incident land on the same
// partition in order.
func serializeToMessage(action string, inc domain.Incident) (kafkago.Message, error) {
	data, err := json.Marshal(inc)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize incident %s: %w", inc.ExternalID, err)
	}
	return kafkago.Message{
		Key:   []byte(inc.ExternalID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "action", Value: []byte(action)},
			{Key: "type_code", Value: []byte(inc.TypeCode)},
			{Key: "created_at", Value: []byte(inc.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
