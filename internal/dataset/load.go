package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	appLog "github.com/Wei1024/embase-conference-dashboard/internal/log"
	"github.com/Wei1024/embase-conference-dashboard/internal/model"
)

// ErrDataUnavailable signals that the source workbook is missing or
// unreadable. Callers receive an empty table alongside it and should
// prompt for a refresh rather than abort.
var ErrDataUnavailable = errors.New("conference data unavailable")

// dateLayouts are the cell text forms accepted for date columns. Cells
// that excelize renders as a serial number are handled separately.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"2-Jan-06",
	"Jan 2, 2006",
	"2 January 2006",
}

// Load reads every data sheet of the workbook at path into one normalized
// table. The sheet named headerSheet is metadata and skipped; every other
// sheet contributes rows tagged with Year = sheet name, in sheet order
// then original row order. Date cells that fail to parse degrade to nil
// rather than failing the row or the load.
//
// A missing or unreadable file yields an empty table wrapped in
// ErrDataUnavailable; no error escapes past that.
func Load(path, headerSheet string) (model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		appLog.Error("conference workbook unreadable", err, "path", path)
		return model.Table{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	table := make(model.Table, 0)
	for _, sheet := range f.GetSheetList() {
		if sheet == headerSheet {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			// One bad sheet must not abort the batch.
			appLog.Error("sheet read failed; skipping", err, "sheet", sheet)
			continue
		}
		table = append(table, parseSheet(sheet, rows)...)
	}

	appLog.Info("conference workbook loaded", "path", path, "rows", len(table))
	return table, nil
}

// parseSheet converts one sheet's rows (header row first) into records.
func parseSheet(sheet string, rows [][]string) []model.Conference {
	if len(rows) < 2 {
		return nil
	}

	cols := headerIndex(rows[0])
	out := make([]model.Conference, 0, len(rows)-1)
	skipped := 0

	for _, row := range rows[1:] {
		c := model.Conference{
			Event:    cell(row, cols[model.FieldEvent]),
			Location: cell(row, cols[model.FieldLocation]),
			Country:  cell(row, cols[model.FieldCountry]),
			Year:     sheet,
		}
		if c.Event == "" && c.Location == "" {
			// Blank padding row.
			skipped++
			continue
		}

		c.StartDate = parseDate(sheet, model.FieldStartDate, cell(row, cols[model.FieldStartDate]))
		c.EndDate = parseDate(sheet, model.FieldEndDate, cell(row, cols[model.FieldEndDate]))
		c.Abstracts = parseCount(cell(row, cols[model.FieldAbstracts]))
		c.Key = model.Key(c.Event, c.StartDate, c.Location)

		out = append(out, c)
	}

	if skipped > 0 {
		appLog.Warn("blank rows skipped", "sheet", sheet, "skipped", skipped, "rows", len(out))
	}

	return out
}

// headerIndex maps known fields to their column positions in the header
// row. Header matching is case-insensitive and whitespace-tolerant;
// absent columns map to -1.
func headerIndex(header []string) map[model.Field]int {
	cols := map[model.Field]int{
		model.FieldEvent:     -1,
		model.FieldLocation:  -1,
		model.FieldCountry:   -1,
		model.FieldStartDate: -1,
		model.FieldEndDate:   -1,
		model.FieldAbstracts: -1,
	}
	for i, name := range header {
		n := strings.ToLower(strings.TrimSpace(name))
		for field := range cols {
			if n == strings.ToLower(string(field)) {
				cols[field] = i
			}
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseDate coerces a date cell to a time. Empty cells are simply absent;
// non-empty cells that match no accepted form degrade to nil with a
// warning, per the malformed-row policy.
func parseDate(sheet string, field model.Field, s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	// Excel serial date, e.g. "45567" or "45567.5".
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return &t
		}
	}
	appLog.Warn("unparseable date cell; treating as unknown", "sheet", sheet, "field", string(field), "value", s)
	return nil
}

// parseCount coerces the abstracts column, accepting both integer and
// float renderings ("123", "123.0").
func parseCount(s string) *int {
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}
