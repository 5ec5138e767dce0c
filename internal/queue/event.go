// Package queue defines the zone-change event payload and the background
// consumer that keeps availability snapshots current.
package queue

import "time"

// ZoneChangedQueueName is the durable queue carrying zone mutation events.
const ZoneChangedQueueName = "zone.changed"

// Zone change actions.
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionAvailability = "availability"
	ActionDeleted      = "deleted"
	ActionOwnerRemoved = "owner_removed"
)

// ZoneChangedEvent is published after any committed zone mutation. It is a
// notification, not a delta: consumers re-fetch the full zone set for the
// location, so at-least-once and unordered delivery are both tolerated.
type ZoneChangedEvent struct {
	LocationID uint64    `json:"location_id"`
	ZoneID     uint64    `json:"zone_id,omitempty"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}
