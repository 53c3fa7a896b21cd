// Package tabular turns raw header-plus-rows tables from spreadsheets and
// invoice documents into patient/date/exam records.
package tabular

import (
	"medrecon/internal/normalize"
)

// Canonical column names.
const (
	ColPatient = "patient"
	ColDate    = "date"
	ColExam    = "exam"
)

// Required lists the columns every source must provide, in output order.
var Required = []string{ColPatient, ColDate, ColExam}

// SheetAliases maps normalized header text to a canonical column for
// spreadsheets (work logs and spreadsheet invoices).
var SheetAliases = buildAliases(map[string][]string{
	ColPatient: {"nombre del paciente", "nombre paciente", "paciente", "patient", "nombre", "nombre y apellidos"},
	ColDate:    {"fecha", "fecha examen", "fecha del examen", "date", "fecha (dd/mm/aaaa)"},
	ColExam:    {"descripción del examen", "descripcion del examen", "descripción", "descripcion", "examen", "exam", "nombre examen"},
})

// InvoiceAliases maps normalized header text to a canonical column for
// tables extracted from PDF invoices.
var InvoiceAliases = buildAliases(map[string][]string{
	ColPatient: {"nombre del paciente", "paciente", "patient", "nombre paciente"},
	ColDate:    {"fecha", "date", "fecha examen"},
	ColExam:    {"procedimiento", "examen", "exam", "descripcion", "descripción"},
})

func buildAliases(byColumn map[string][]string) map[string]string {
	out := make(map[string]string)
	for col, aliases := range byColumn {
		for _, a := range aliases {
			out[normalize.Text(a)] = col
		}
	}
	return out
}

// Columns holds the position of each canonical column in a header, -1 when
// the header does not carry it.
type Columns struct {
	Patient int
	Date    int
	Exam    int
}

// MapHeader locates the canonical columns in header. Header cells are
// compared after text normalization; the first cell mapping to a column wins
// and unknown cells are ignored.
func MapHeader(header []string, aliases map[string]string) Columns {
	cols := Columns{Patient: -1, Date: -1, Exam: -1}
	for i, h := range header {
		switch aliases[normalize.Text(h)] {
		case ColPatient:
			if cols.Patient < 0 {
				cols.Patient = i
			}
		case ColDate:
			if cols.Date < 0 {
				cols.Date = i
			}
		case ColExam:
			if cols.Exam < 0 {
				cols.Exam = i
			}
		}
	}
	return cols
}

// Missing returns the canonical columns not found, in Required order.
func (c Columns) Missing() []string {
	var missing []string
	if c.Patient < 0 {
		missing = append(missing, ColPatient)
	}
	if c.Date < 0 {
		missing = append(missing, ColDate)
	}
	if c.Exam < 0 {
		missing = append(missing, ColExam)
	}
	return missing
}

// Complete reports whether all three columns were found.
func (c Columns) Complete() bool {
	return c.Patient >= 0 && c.Date >= 0 && c.Exam >= 0
}

func (c Columns) found() int {
	return len(Required) - len(c.Missing())
}
