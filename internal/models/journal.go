package models

import "time"

// Journal event types.
const (
	JournalPickupScheduled  = "PICKUP_SCHEDULED"
	JournalPointTimeChanged = "POINT_TIME_CHANGED"
)

// JournalEntry is one scheduling event as operators browse it.
type JournalEntry struct {
	ID          uint64
	EventID     string
	EventType   string
	OwnerKey    string
	PointID     string
	ContainerID string
	PickupID    *string
	Day         *time.Time
	Cadence     string
	Detail      string
	OccurredAt  time.Time
	CreatedAt   time.Time
}
