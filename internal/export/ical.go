package export

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/Wei1024/embase-conference-dashboard/internal/model"
)

// Calendar serializes the given records as an iCalendar feed of all-day
// events. Records without a known start date have nothing to anchor an
// event to and are skipped; an end date, when present, is included with
// the exclusive-DTEND convention. Zero records produce a valid empty
// calendar.
func Calendar(records []model.Conference) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	now := time.Now().UTC()
	for _, rec := range records {
		if rec.StartDate == nil {
			continue
		}

		ev := cal.AddEvent(eventUID(rec.Key))
		ev.SetDtStampTime(now)
		ev.SetSummary(rec.Event)

		loc := rec.Location
		if rec.Country != "" && loc != "" {
			loc = loc + ", " + rec.Country
		} else if rec.Country != "" {
			loc = rec.Country
		}
		if loc != "" {
			ev.SetLocation(loc)
		}

		ev.SetAllDayStartAt(*rec.StartDate)
		end := *rec.StartDate
		if rec.EndDate != nil {
			end = *rec.EndDate
		}
		// DTEND is exclusive for all-day events.
		ev.SetAllDayEndAt(end.AddDate(0, 0, 1))
	}

	return []byte(cal.Serialize()), nil
}

// eventUID hashes the identity key into a UID-safe token. The key itself
// contains separators and spaces that have no business in a UID, but the
// hash keeps the UID stable across exports of the same conference.
func eventUID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + "@confdash"
}
