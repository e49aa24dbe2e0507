// Package prefs maps the portal's user-facing choices to the record store's
// canonical codes and back. Every mapping is total: unknown input yields the
// zero value instead of an error.
package prefs

import (
	"sort"
	"strings"

	"github.com/BearBump/PickupBox/internal/models"
)

// UI labels for the time-of-day preference.
const (
	LabelMorning   = "Mañana"
	LabelAfternoon = "Tarde"
	LabelNight     = "Noche"
)

var timeOfDayCodes = map[string]string{
	"mañana":    models.TimeOfDayMorning,
	"manana":    models.TimeOfDayMorning,
	"morning":   models.TimeOfDayMorning,
	"tarde":     models.TimeOfDayAfternoon,
	"afternoon": models.TimeOfDayAfternoon,
	"noche":     models.TimeOfDayNight,
	"night":     models.TimeOfDayNight,
}

var timeOfDayLabels = map[string]string{
	models.TimeOfDayMorning:   LabelMorning,
	models.TimeOfDayAfternoon: LabelAfternoon,
	models.TimeOfDayNight:     LabelNight,
}

// TimeOfDayCode returns M, T or N for a UI value. Codes themselves are
// accepted too. Unknown input returns "".
func TimeOfDayCode(ui string) string {
	v := strings.TrimSpace(ui)
	if _, ok := timeOfDayLabels[strings.ToUpper(v)]; ok {
		return strings.ToUpper(v)
	}
	return timeOfDayCodes[strings.ToLower(v)]
}

// TimeOfDayLabel is the inverse of TimeOfDayCode.
func TimeOfDayLabel(code string) string {
	return timeOfDayLabels[strings.ToUpper(strings.TrimSpace(code))]
}

// TimeOfDayLabels lists the UI labels in display order.
func TimeOfDayLabels() []string {
	return []string{LabelMorning, LabelAfternoon, LabelNight}
}

// Waste categories; ids are the record store's.
var wasteCategories = []string{
	1: "Doméstico",
	2: "Supermercado",
	3: "Frutería",
	4: "Comedor",
	5: "Hostelería",
	6: "Restos de poda",
	7: "Restos agrícolas",
}

// WasteCategoryID returns the category id for a UI label, 0 if unknown.
// Matching ignores case and surrounding spaces.
func WasteCategoryID(ui string) int {
	v := strings.TrimSpace(ui)
	for id, label := range wasteCategories {
		if label != "" && strings.EqualFold(label, v) {
			return id
		}
	}
	return 0
}

// WasteCategoryLabel is the inverse of WasteCategoryID.
func WasteCategoryLabel(id int) string {
	if id <= 0 || id >= len(wasteCategories) {
		return ""
	}
	return wasteCategories[id]
}

// WasteCategoryLabels lists the labels ordered by id.
func WasteCategoryLabels() []string {
	return append([]string(nil), wasteCategories[1:]...)
}

var sizeLabels = map[int]string{
	16:   "Cubo 16L",
	160:  "Contenedor 160L",
	800:  "Contenedor 800L",
	1200: "Contenedor 1200L",
}

// SizeLabel returns the container size label for a capacity in liters.
func SizeLabel(liters int) string {
	return sizeLabels[liters]
}

// SizeCapacity is the inverse of SizeLabel; 0 if the label is unknown.
func SizeCapacity(label string) int {
	v := strings.TrimSpace(label)
	for liters, l := range sizeLabels {
		if strings.EqualFold(l, v) {
			return liters
		}
	}
	return 0
}

// Capacities returns the supported capacities in ascending order.
func Capacities() []int {
	out := make([]int, 0, len(sizeLabels))
	for liters := range sizeLabels {
		out = append(out, liters)
	}
	sort.Ints(out)
	return out
}
