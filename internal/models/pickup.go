package models

import "time"

type Pickup struct {
	ID            string
	ContainerID   string
	RequestDate   time.Time
	EstimatedDate time.Time
	// nil while the pickup is pending.
	ActualDate *time.Time
	Incident   *string
	Cadence    string
}

func (p *Pickup) Completed() bool {
	return p.ActualDate != nil
}

type PickupInput struct {
	ContainerID   string
	RequestDate   time.Time
	EstimatedDate time.Time
	Cadence       string
}
