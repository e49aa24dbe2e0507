package scheduling

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHolidays_Name(t *testing.T) {
	h := NewHolidays()
	require.Equal(t, "Navidad", h.Name(d("2024-12-25")))
	require.Equal(t, "Fiesta Nacional de España", h.Name(d("2025-10-12")))
	// Easter 2024 was March 31
	require.Equal(t, "Viernes Santo", h.Name(d("2024-03-29")))
	require.Equal(t, "", h.Name(d("2024-03-28")))

	var none *Holidays
	require.Equal(t, "", none.Name(d("2024-12-25")))
}
