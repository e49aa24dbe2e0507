package scheduling

import (
	"time"

	cal "github.com/rickar/cal/v2"
)

// Spanish national public holidays. Regional ones are not included.
var nationalHolidays = []*cal.Holiday{
	{Name: "Año Nuevo", Type: cal.ObservancePublic, Month: time.January, Day: 1, Func: cal.CalcDayOfMonth},
	{Name: "Epifanía del Señor", Type: cal.ObservancePublic, Month: time.January, Day: 6, Func: cal.CalcDayOfMonth},
	{Name: "Viernes Santo", Type: cal.ObservancePublic, Offset: -2, Func: cal.CalcEasterOffset},
	{Name: "Fiesta del Trabajo", Type: cal.ObservancePublic, Month: time.May, Day: 1, Func: cal.CalcDayOfMonth},
	{Name: "Asunción de la Virgen", Type: cal.ObservancePublic, Month: time.August, Day: 15, Func: cal.CalcDayOfMonth},
	{Name: "Fiesta Nacional de España", Type: cal.ObservancePublic, Month: time.October, Day: 12, Func: cal.CalcDayOfMonth},
	{Name: "Todos los Santos", Type: cal.ObservancePublic, Month: time.November, Day: 1, Func: cal.CalcDayOfMonth},
	{Name: "Día de la Constitución", Type: cal.ObservancePublic, Month: time.December, Day: 6, Func: cal.CalcDayOfMonth},
	{Name: "Inmaculada Concepción", Type: cal.ObservancePublic, Month: time.December, Day: 8, Func: cal.CalcDayOfMonth},
	{Name: "Navidad", Type: cal.ObservancePublic, Month: time.December, Day: 25, Func: cal.CalcDayOfMonth},
}

// Holidays answers whether a day is a public holiday. It only annotates
// schedules; holidays never block a pickup.
type Holidays struct {
	c *cal.BusinessCalendar
}

func NewHolidays() *Holidays {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(nationalHolidays...)
	return &Holidays{c: c}
}

// Name returns the holiday name for day, or "" when it is a regular day.
func (h *Holidays) Name(day time.Time) string {
	if h == nil {
		return ""
	}
	// noon keeps the lookup on the right date whatever the calendar location.
	d := Day(day).Add(12 * time.Hour)
	actual, _, hol := h.c.IsHoliday(d)
	if !actual || hol == nil {
		return ""
	}
	return hol.Name
}
