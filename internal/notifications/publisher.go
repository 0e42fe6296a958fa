package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"tablebook/internal/shared/config"
	"tablebook/pkg/logger"
)

// Publisher delivers domain events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// NewPublisher builds the publisher selected by NOTIFY_BROKER.
func NewPublisher(cfg config.NotificationsConfig) (Publisher, error) {
	switch cfg.Broker {
	case "", "none":
		return NoopPublisher{}, nil
	case "kafka":
		return NewKafkaPublisher(DefaultKafkaConfig(cfg.KafkaBrokers, cfg.KafkaTopic))
	case "rabbitmq":
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
	default:
		return nil, fmt.Errorf("unknown notification broker %q", cfg.Broker)
	}
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *Event) error { return nil }
func (NoopPublisher) Close() error                          { return nil }

// PublishAll sends events one by one and logs failures. Events are sent after the change
// they describe has committed, so a broker outage never fails the request.
func PublishAll(ctx context.Context, p Publisher, events ...*Event) {
	if p == nil {
		return
	}
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			logger.GetDefault().ErrorContext(ctx, "failed to publish reservation event",
				slog.String("event_type", string(e.Type)),
				slog.String("reservation_id", e.ReservationID.String()),
				slog.Any("error", err),
			)
		}
	}
}
