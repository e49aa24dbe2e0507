package models

// Time-of-day backend codes shared by every container of a point.
const (
	TimeOfDayMorning   = "M"
	TimeOfDayAfternoon = "T"
	TimeOfDayNight     = "N"
)

type CollectionPoint struct {
	ID         string
	OwnerKey   string
	Address    string
	Locality   string
	PostalCode string
	Province   string
	SourceType string
	TimeOfDay  string
}

type CollectionPointInput struct {
	OwnerKey   string
	Address    string
	Locality   string
	PostalCode string
	Province   string
	SourceType string
	TimeOfDay  string
}
