package scheduler

import (
	"strconv"
	"strings"

	"github.com/BearBump/PickupBox/internal/prefs"
)

func prefsTimeOfDay(v string) string {
	return prefs.TimeOfDayCode(v)
}

// prefsWasteCategory accepts a portal label or a category id.
func prefsWasteCategory(v string) int {
	if id, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		if prefs.WasteCategoryLabel(id) != "" {
			return id
		}
		return 0
	}
	return prefs.WasteCategoryID(v)
}

// prefsCapacity accepts a size label or a capacity in liters.
func prefsCapacity(v string) int {
	if liters, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		if prefs.SizeLabel(liters) != "" {
			return liters
		}
		return 0
	}
	return prefs.SizeCapacity(v)
}
