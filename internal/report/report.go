// Package report renders unpaid exam lists as spreadsheet or CSV files.
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"medrecon/internal/domain"
	"medrecon/internal/normalize"
)

// Column headers shared by every output format.
var columns = []string{
	"Nombre del paciente",
	"Fecha (dd/mm/aaaa)",
	"Descripción del examen",
}

// Format is an output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "xlsx" or "csv" in any case. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// ContentType returns the MIME type of files in this format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Write renders records to w in format f.
func Write(w io.Writer, f Format, records []domain.Record) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return fmt.Errorf("unsupported report format %q", f)
	}
}

// Sort orders records chronologically, then by patient. Rows with equal
// keys keep their relative order. Dates that do not parse sort last.
func Sort(records []domain.Record) {
	slices.SortStableFunc(records, func(a, b domain.Record) int {
		ta, okA := normalize.ParseDate(a.Date)
		tb, okB := normalize.ParseDate(b.Date)
		switch {
		case okA && !okB:
			return -1
		case !okA && okB:
			return 1
		case okA && okB:
			if c := ta.Compare(tb); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Patient, b.Patient)
	})
}

func recordRow(r domain.Record) []string {
	return []string{r.Patient, r.Date, r.Exam}
}
