package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-zone-service/internal/availability"
	"github.com/iliyamo/parking-zone-service/internal/repository"
)

// ZoneLister provides the current zone set for a location. Implemented by
// *repository.ZoneRepo.
type ZoneLister interface {
	ListByLocation(ctx context.Context, locationID uint64) ([]repository.Zone, error)
}

// SnapshotSaver persists a computed availability snapshot. Implemented by
// *availability.SnapshotStore.
type SnapshotSaver interface {
	Save(ctx context.Context, locationID uint64, stats availability.Stats) error
}

// AvailabilityConsumer listens on the zone.changed queue and recomputes the
// availability snapshot of the affected location from the full current zone
// set. A missed event is tolerated: the next event for the location, or
// snapshot expiry, heals the drift.
type AvailabilityConsumer struct {
	URL       string
	Zones     ZoneLister
	Snapshots SnapshotSaver
	Log       *zap.Logger
}

// Run connects to RabbitMQ, declares the durable zone.changed queue and
// consumes until ctx is cancelled, reconnecting with backoff on broker
// failures. Processing errors are logged and the message rejected without
// requeue so a poison message cannot wedge the loop.
func (c *AvailabilityConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("zone-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(ctx, conn); err != nil {
			c.Log.Warn("zone-consumer: consume loop ended", zap.Error(err))
		}
		_ = conn.Close()
	}
}

func (c *AvailabilityConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("zone-consumer: set QoS failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(ZoneChangedQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(ZoneChangedQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.Log.Error("zone-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handle recomputes and stores the snapshot for the event's location.
func (c *AvailabilityConsumer) handle(ctx context.Context, body []byte) error {
	var ev ZoneChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.LocationID == 0 {
		return errors.New("event missing location_id")
	}

	zones, err := c.Zones.ListByLocation(ctx, ev.LocationID)
	if err != nil {
		return fmt.Errorf("list zones for location %d: %w", ev.LocationID, err)
	}
	slots := make([]availability.ZoneSlots, 0, len(zones))
	for _, z := range zones {
		slots = append(slots, z.Slots())
	}
	stats := availability.Compute(slots)

	if err := c.Snapshots.Save(ctx, ev.LocationID, stats); err != nil {
		return fmt.Errorf("save snapshot for location %d: %w", ev.LocationID, err)
	}
	c.Log.Debug("zone-consumer: snapshot updated",
		zap.Uint64("location_id", ev.LocationID),
		zap.String("action", ev.Action),
		zap.Uint64("total_slots", stats.TotalSlots),
		zap.Uint64("available_slots", stats.AvailableSlots))
	return nil
}
