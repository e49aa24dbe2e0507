package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func keys(ts []time.Time) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, DayKey(t))
	}
	return out
}

func TestGenerate_Daily(t *testing.T) {
	got := Generate(d("2024-03-10"), "Diaria", 5)
	require.Equal(t, []string{"2024-03-10", "2024-03-11", "2024-03-12", "2024-03-13", "2024-03-14"}, keys(got))
}

func TestGenerate_WeeklyN(t *testing.T) {
	got := Generate(d("2024-03-10"), "3 por semana", 4)
	require.Equal(t, []string{"2024-03-10", "2024-03-12", "2024-03-14", "2024-03-16"}, keys(got))
}

func TestGenerate_Monthly_ClampsToMonthEnd(t *testing.T) {
	got := Generate(d("2024-01-31"), "Mensual", 2)
	require.Equal(t, []string{"2024-01-31", "2024-02-29"}, keys(got))

	got = Generate(d("2024-01-31"), "Mensual", 4)
	require.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, keys(got))

	got = Generate(d("2023-01-31"), "mensual", 2)
	require.Equal(t, []string{"2023-01-31", "2023-02-28"}, keys(got))

	got = Generate(d("2024-11-15"), "Monthly", 3)
	require.Equal(t, []string{"2024-11-15", "2024-12-15", "2025-01-15"}, keys(got))
}

func TestGenerate_WeeklyAndBiweekly(t *testing.T) {
	require.Equal(t, []string{"2024-03-10", "2024-03-17", "2024-03-24"}, keys(Generate(d("2024-03-10"), "Semanal", 3)))
	require.Equal(t, []string{"2024-03-10", "2024-03-25", "2024-04-09"}, keys(Generate(d("2024-03-10"), "Quincenal", 3)))
}

func TestGenerate_UnknownLabelIsDaily(t *testing.T) {
	require.Equal(t, []string{"2024-03-10", "2024-03-11"}, keys(Generate(d("2024-03-10"), "cuando se pueda", 2)))
	require.Equal(t, []string{"2024-03-10", "2024-03-11"}, keys(Generate(d("2024-03-10"), "", 2)))
}

func TestGenerate_DropsTimeOfDay(t *testing.T) {
	start := time.Date(2024, 3, 10, 18, 45, 0, 0, time.FixedZone("CET", 3600))
	got := Generate(start, "Diaria", 2)
	require.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got[0])
	require.Equal(t, []string{"2024-03-10", "2024-03-11"}, keys(got))
}

func TestGenerate_CountAndOrder(t *testing.T) {
	labels := []string{"Diaria", "1 por semana", "2 por semana", "3 por semana", "10 por semana",
		"0 por semana", "Semanal", "Quincenal", "Mensual", "Ocasional", "???"}
	for _, label := range labels {
		for n := -2; n <= 8; n++ {
			got := Generate(d("2024-01-31"), label, n)
			if n <= 0 {
				require.Empty(t, got, label)
				continue
			}
			require.Len(t, got, n, label)
			require.Equal(t, d("2024-01-31"), got[0], label)
			for i := 1; i < len(got); i++ {
				require.False(t, got[i].Before(got[i-1]), "%s: %v before %v", label, got[i], got[i-1])
			}
		}
	}
}

func TestParseCadence(t *testing.T) {
	cases := []struct {
		label    string
		kind     CadenceKind
		interval int
	}{
		{"Diaria", CadenceDaily, 1},
		{"DIARIA", CadenceDaily, 1},
		{"1 por semana", CadenceWeeklyN, 7},
		{"2 por semana", CadenceWeeklyN, 3},
		{"3 veces por semana", CadenceWeeklyN, 2},
		{"0 por semana", CadenceWeeklyN, 7},
		{"10 por semana", CadenceWeeklyN, 1},
		{"Semanal", CadenceWeekly, 7},
		{"una vez a la semana", CadenceWeekly, 7},
		{"Quincenal", CadenceBiweekly, 15},
		{"Mensual", CadenceMonthly, 0},
		{"Ocasional", CadenceOccasional, 1},
		{"desconocida", CadenceUnknown, 1},
	}
	for _, tc := range cases {
		c := ParseCadence(tc.label)
		require.Equal(t, tc.kind, c.Kind, tc.label)
		require.Equal(t, tc.interval, c.IntervalDays, tc.label)
	}
	require.True(t, ParseCadence(" ocasional ").Occasional())
	require.False(t, ParseCadence("Diaria").Occasional())
	require.Equal(t, "WEEKLY_N", CadenceWeeklyN.String())
}

func TestDayKey(t *testing.T) {
	require.Equal(t, "2024-02-29", DayKey(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))
	_, err := ParseDay("29/02/2024")
	require.Error(t, err)
}
