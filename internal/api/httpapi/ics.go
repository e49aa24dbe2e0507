package httpapi

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/prefs"
	"github.com/BearBump/PickupBox/internal/services/scheduler"
)

const icsProductID = "-//PickupBox//Recogidas//ES"

// writeICS renders the pickups as all-day events. Lines end in CRLF.
func writeICS(w io.Writer, v *scheduler.ContainerView, pickups []*models.Pickup, now time.Time) {
	line := func(format string, args ...any) {
		fmt.Fprintf(w, format+"\r\n", args...)
	}
	category := prefs.WasteCategoryLabel(v.Container.WasteCategory)
	location := icsEscape(strings.TrimSpace(v.Point.Address + ", " + v.Point.Locality))

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", icsProductID)
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")
	line("X-WR-CALNAME:%s", icsEscape("Recogidas "+category))
	for _, p := range pickups {
		day := p.EstimatedDate
		line("BEGIN:VEVENT")
		line("UID:%s@pickupbox", p.ID)
		line("DTSTAMP:%s", now.UTC().Format("20060102T150405Z"))
		line("DTSTART;VALUE=DATE:%s", day.Format("20060102"))
		line("DTEND;VALUE=DATE:%s", day.AddDate(0, 0, 1).Format("20060102"))
		line("SUMMARY:%s", icsEscape(fmt.Sprintf("Recogida %s (%s)", category, p.Cadence)))
		line("DESCRIPTION:%s", icsEscape(fmt.Sprintf("Contenedor %d L, franja %s", v.Container.CapacityLiters, prefs.TimeOfDayLabel(v.Point.TimeOfDay))))
		line("LOCATION:%s", location)
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

func icsEscape(s string) string {
	return icsEscaper.Replace(s)
}
