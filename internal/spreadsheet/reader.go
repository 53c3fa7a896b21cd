// Package spreadsheet reads work logs and spreadsheet invoices from .xlsx
// workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"medrecon/internal/domain"
	"medrecon/internal/normalize"
	"medrecon/internal/tabular"
)

// Numeric cells in the date column are read as serial dates only inside
// this range: 1950-01-01 to 9999-12-31.
const (
	minSerial = 18264
	maxSerial = 2958465
)

// ReadRecords reads the first sheet of the workbook in r. The first
// non-empty row is the header; the remaining rows become records. A blank
// sheet contributes no records. source names the file in errors.
func ReadRecords(source string, r io.Reader) ([]domain.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %q: %w", source, err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %q has no sheets", source)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %q: %w", sheet, source, err)
	}

	start := 0
	for start < len(rows) && blank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return []domain.Record{}, nil
	}

	header, body := rows[start], rows[start+1:]
	records, err := tabular.SheetRecords(source, header, body)
	if err != nil {
		return nil, err
	}

	date1904 := uses1904(f)
	for i := range records {
		records[i].Date = serialToDate(records[i].Date, date1904)
	}
	return records, nil
}

// serialToDate renders a raw numeric cell as dd/mm/yyyy. Anything else is
// returned untouched.
func serialToDate(raw string, date1904 bool) string {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial < minSerial || serial > maxSerial {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return raw
	}
	return normalize.FormatDate(t)
}

func uses1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
