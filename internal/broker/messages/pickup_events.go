package messages

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Event types carried on the pickup events topic.
const (
	TypePickupScheduled  = "pickup.scheduled"
	TypePointTimeChanged = "point.time_changed"
)

// PickupEvent is published for every accepted pickup and every time-of-day
// reconciliation. The message key is the owner key, so one owner's events
// stay ordered within a partition.
type PickupEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	OwnerKey    string `json:"owner_key"`
	PointID     string `json:"point_id"`
	ContainerID string `json:"container_id,omitempty"`

	PickupID string `json:"pickup_id,omitempty"`
	Day      string `json:"day,omitempty"` // YYYY-MM-DD
	Cadence  string `json:"cadence,omitempty"`
	Holiday  string `json:"holiday,omitempty"`

	PreviousTimeOfDay  string `json:"previous_time_of_day,omitempty"`
	RequestedTimeOfDay string `json:"requested_time_of_day,omitempty"`
	InEffectTimeOfDay  string `json:"in_effect_time_of_day,omitempty"`
	Applied            *bool  `json:"applied,omitempty"`
}

func (e *PickupEvent) Marshal() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "marshal pickup event")
	}
	return b, nil
}

func UnmarshalPickupEvent(b []byte) (*PickupEvent, error) {
	var e PickupEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, errors.Wrap(err, "unmarshal pickup event")
	}
	if e.EventID == "" || e.Type == "" {
		return nil, errors.New("pickup event without id or type")
	}
	return &e, nil
}
