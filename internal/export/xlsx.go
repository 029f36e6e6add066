// Package export serializes the pinned subset of the conference table
// for download, as a spreadsheet and as an iCalendar feed.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Wei1024/embase-conference-dashboard/internal/model"
)

// SheetName is the single sheet of the exported workbook.
const SheetName = "Pinned Conferences"

// Workbook serializes the given records into an in-memory xlsx blob with
// one sheet: a header row naming the requested fields, then one row per
// record in the order given. Zero records produce a valid header-only
// workbook.
func Workbook(records []model.Conference, fields []model.Field) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, field := range fields {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, string(field)); err != nil {
			return nil, err
		}
	}

	for r, rec := range records {
		for i, field := range fields {
			v, ok := cellValue(rec, field)
			if !ok {
				// Absent value leaves the cell blank.
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue picks a typed value for numeric columns so the exported sheet
// keeps numbers as numbers; everything else goes through FieldValue.
func cellValue(rec model.Conference, f model.Field) (any, bool) {
	if f == model.FieldAbstracts && rec.Abstracts != nil {
		return *rec.Abstracts, true
	}
	v, ok := rec.FieldValue(f)
	return v, ok
}
