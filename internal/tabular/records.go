package tabular

import (
	"strings"

	"medrecon/internal/domain"
)

// SheetRecords converts a spreadsheet's header and rows into records.
// Extra columns are dropped and fully blank rows skipped. A header without
// the three required columns is a MissingFieldError naming source.
func SheetRecords(source string, header []string, rows [][]string) ([]domain.Record, error) {
	cols := MapHeader(header, SheetAliases)
	if missing := cols.Missing(); len(missing) > 0 {
		return nil, &domain.MissingFieldError{Source: source, Fields: missing}
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		records = append(records, domain.Record{
			Patient: cell(row, cols.Patient),
			Date:    cell(row, cols.Date),
			Exam:    cell(row, cols.Exam),
		})
	}
	return records, nil
}

// InvoiceRecords converts the tables extracted from one invoice document.
//
// Tables whose header maps none of the columns (cover pages, totals) are
// ignored. Within an invoice table a row with an empty patient or date
// inherits the value of the previous kept row, which is how merged cells
// come out of extraction. A row without exam text is dropped, as is a row
// still lacking patient or date after carry-forward. If the
// document has tables but none of them carries all three columns, the most
// complete one is reported as a MissingFieldError.
func InvoiceRecords(source string, tables []domain.Table) ([]domain.Record, error) {
	records := make([]domain.Record, 0)
	var partial *Columns
	complete := 0

	for ti := range tables {
		t := &tables[ti]
		cols := MapHeader(t.Header, InvoiceAliases)
		if !cols.Complete() {
			if cols.found() > 0 && (partial == nil || cols.found() > partial.found()) {
				c := cols
				partial = &c
			}
			continue
		}
		complete++

		var lastPatient, lastDate string
		for _, row := range t.Rows {
			rec := domain.Record{
				Patient: cell(row, cols.Patient),
				Date:    cell(row, cols.Date),
				Exam:    cell(row, cols.Exam),
			}
			if rec.Patient == "" {
				rec.Patient = lastPatient
			}
			if rec.Date == "" {
				rec.Date = lastDate
			}
			if rec.Exam == "" {
				continue
			}
			lastPatient, lastDate = rec.Patient, rec.Date
			if rec.Patient == "" || rec.Date == "" {
				continue
			}
			records = append(records, rec)
		}
	}

	if complete == 0 && partial != nil {
		return nil, &domain.MissingFieldError{Source: source, Fields: partial.Missing()}
	}
	return records, nil
}

// cell returns the trimmed value at idx, or "" for short rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
