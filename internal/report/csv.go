package report

import (
	"encoding/csv"
	"io"

	"medrecon/internal/domain"
)

// UTF-8 BOM bytes so Excel on Windows detects the encoding.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter wraps csv.Writer for exporting unpaid records.
type CSVWriter struct {
	out io.Writer
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{out: w, csv: csv.NewWriter(w)}
}

// WriteHeader writes the BOM followed by the header row.
func (w *CSVWriter) WriteHeader() error {
	if _, err := w.out.Write(BOM); err != nil {
		return err
	}
	return w.csv.Write(columns)
}

// WriteRecords writes one row per record.
func (w *CSVWriter) WriteRecords(records []domain.Record) error {
	for _, r := range records {
		if err := w.csv.Write(recordRow(r)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a complete CSV report.
func WriteCSV(w io.Writer, records []domain.Record) error {
	cw := NewCSVWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.WriteRecords(records); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
