package model

import (
	"sort"
	"strconv"
	"time"
)

// DateLayout is the canonical date string form used for display and for
// identity keys. Every key computation goes through Key so that a key
// derived at load time and a key derived at lookup time always agree.
const DateLayout = "2006-01-02"

// Field names a column of the normalized conference table. Values match
// the source workbook headers so field lookup, the search engine and the
// export share one vocabulary.
type Field string

const (
	FieldEvent     Field = "Conference Event"
	FieldLocation  Field = "Conference location"
	FieldCountry   Field = "Country"
	FieldStartDate Field = "Start Date"
	FieldEndDate   Field = "End Date"
	FieldAbstracts Field = "Number of abstracts"
	FieldYear      Field = "Year"
)

// SearchFields are the columns fuzzy search runs over.
var SearchFields = []Field{FieldEvent, FieldLocation}

// ExportFields is the column order for the pinned-set spreadsheet export,
// mirroring the dashboard table.
var ExportFields = []Field{
	FieldEvent,
	FieldLocation,
	FieldCountry,
	FieldStartDate,
	FieldEndDate,
	FieldAbstracts,
	FieldYear,
}

// Conference is one row of the normalized table. StartDate, EndDate and
// Abstracts are nil when the source cell was empty or unparseable.
type Conference struct {
	Key       string
	Event     string
	Location  string
	Country   string
	StartDate *time.Time
	EndDate   *time.Time
	Abstracts *int
	Year      string
}

// Key derives the stable identity key for a conference from its name,
// start date and location. Two rows with identical name/date/location
// collapse to the same key; an unknown start date contributes the empty
// string. The key is what the pinned set stores, so it must stay
// derivable the same way across reloads.
func Key(event string, start *time.Time, location string) string {
	s := ""
	if start != nil {
		s = start.Format(DateLayout)
	}
	return event + "|" + s + "|" + location
}

// FieldValue returns the stringified value of the given field and whether
// the field is present. Nil dates and abstract counts report ok=false so
// they never accidentally match a search query.
func (c Conference) FieldValue(f Field) (string, bool) {
	switch f {
	case FieldEvent:
		return c.Event, c.Event != ""
	case FieldLocation:
		return c.Location, c.Location != ""
	case FieldCountry:
		return c.Country, c.Country != ""
	case FieldStartDate:
		if c.StartDate == nil {
			return "", false
		}
		return c.StartDate.Format(DateLayout), true
	case FieldEndDate:
		if c.EndDate == nil {
			return "", false
		}
		return c.EndDate.Format(DateLayout), true
	case FieldAbstracts:
		if c.Abstracts == nil {
			return "", false
		}
		return strconv.Itoa(*c.Abstracts), true
	case FieldYear:
		return c.Year, c.Year != ""
	default:
		return "", false
	}
}

// Table is the normalized conference table: sheet order first, original
// row order within each sheet. It is rebuilt wholesale on every load and
// never mutated in place.
type Table []Conference

// Keys returns the identity keys of all rows in table order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for _, c := range t {
		keys = append(keys, c.Key)
	}
	return keys
}

// Countries returns the distinct non-empty country values, sorted, for
// the country filter dropdown.
func (t Table) Countries() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, c := range t {
		if c.Country == "" {
			continue
		}
		if _, ok := seen[c.Country]; ok {
			continue
		}
		seen[c.Country] = struct{}{}
		out = append(out, c.Country)
	}
	sort.Strings(out)
	return out
}

// Years returns the distinct year-sheet labels, newest first.
func (t Table) Years() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, c := range t {
		if _, ok := seen[c.Year]; ok {
			continue
		}
		seen[c.Year] = struct{}{}
		out = append(out, c.Year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
