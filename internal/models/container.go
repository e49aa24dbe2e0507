package models

type Container struct {
	ID             string
	PointID        string
	CapacityLiters int
	WasteCategory  int
	Cadence        string
	// Punctual containers exist only to carry one ad-hoc pickup.
	Punctual bool
}

type ContainerInput struct {
	PointID        string
	CapacityLiters int
	WasteCategory  int
	Cadence        string
	Punctual       bool
}
