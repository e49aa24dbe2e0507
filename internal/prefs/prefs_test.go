package prefs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimeOfDay_RoundTrip(t *testing.T) {
	for _, label := range TimeOfDayLabels() {
		code := TimeOfDayCode(label)
		require.NotEmpty(t, code, label)
		require.Equal(t, label, TimeOfDayLabel(code))
	}
	for _, code := range []string{"M", "T", "N"} {
		require.Equal(t, code, TimeOfDayCode(TimeOfDayLabel(code)))
	}
}

func TestTimeOfDay_Aliases(t *testing.T) {
	require.Equal(t, "M", TimeOfDayCode("  mañana "))
	require.Equal(t, "T", TimeOfDayCode("afternoon"))
	require.Equal(t, "N", TimeOfDayCode("n"))
}

func TestTimeOfDay_UnknownIsEmpty(t *testing.T) {
	require.Equal(t, "", TimeOfDayCode("madrugada"))
	require.Equal(t, "", TimeOfDayCode(""))
	require.Equal(t, "", TimeOfDayLabel("X"))
}

func TestWasteCategory_RoundTrip(t *testing.T) {
	labels := WasteCategoryLabels()
	require.Len(t, labels, 7)
	for _, label := range labels {
		id := WasteCategoryID(label)
		require.NotZero(t, id, label)
		require.Equal(t, label, WasteCategoryLabel(id))
	}
	for id := 1; id <= 7; id++ {
		require.Equal(t, id, WasteCategoryID(WasteCategoryLabel(id)))
	}
}

func TestWasteCategory_Unknown(t *testing.T) {
	require.Equal(t, 0, WasteCategoryID("Plástico"))
	require.Equal(t, "", WasteCategoryLabel(0))
	require.Equal(t, "", WasteCategoryLabel(8))
	require.Equal(t, 2, WasteCategoryID("supermercado"))
}

func TestSize_RoundTrip(t *testing.T) {
	require.Equal(t, []int{16, 160, 800, 1200}, Capacities())
	for _, liters := range Capacities() {
		label := SizeLabel(liters)
		require.NotEmpty(t, label)
		require.Equal(t, liters, SizeCapacity(label))
	}
	require.Equal(t, "", SizeLabel(240))
	require.Equal(t, 0, SizeCapacity("Contenedor 240L"))
}
