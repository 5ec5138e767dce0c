// Package queue_publisher publishes zone-change events to RabbitMQ.
// Publish failures are logged and returned so callers can treat them as
// best-effort: the mutation has already committed and the snapshot heals
// on the next event or on expiry.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/iliyamo/parking-zone-service/internal/queue"
)

// Publisher sends ZoneChangedEvents to the durable zone.changed queue.
type Publisher struct {
	URL string
	Log *zap.Logger
}

func New(url string, log *zap.Logger) *Publisher {
	return &Publisher{URL: url, Log: log}
}

// PublishZoneChanged publishes one event. Each call dials the broker,
// declares the queue (idempotent) and publishes a persistent message.
func (p *Publisher) PublishZoneChanged(ctx context.Context, ev q.ZoneChangedEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(q.ZoneChangedQueueName, true, false, false, false, nil); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.ZoneChangedQueueName, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}
