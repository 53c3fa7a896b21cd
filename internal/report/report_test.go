package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"medrecon/internal/domain"
)

var unpaid = []domain.Record{
	{Patient: "luis soto", Date: "02/02/2024", Exam: "ecg"},
	{Patient: "ana diaz", Date: "15/01/2024", Exam: "rx torax"},
	{Patient: "ana diaz", Date: "02/02/2024", Exam: "holter"},
}

func TestSort(t *testing.T) {
	records := []domain.Record{
		{Patient: "zoe", Date: "01/03/2024", Exam: "a"},
		{Patient: "ana", Date: "02/02/2024", Exam: "b"},
		{Patient: "ana", Date: "01/03/2024", Exam: "c"},
		{Patient: "zoe", Date: "01/03/2024", Exam: "d"},
		{Patient: "ana", Date: "31/12/2023", Exam: "e"},
	}
	Sort(records)

	var exams []string
	for _, r := range records {
		exams = append(exams, r.Exam)
	}
	// Day-first dates: 31/12/2023 < 02/02/2024 < 01/03/2024; ties keep input order.
	assert.Equal(t, []string{"e", "b", "c", "a", "d"}, exams)
}

func TestSort_UnparseableLast(t *testing.T) {
	records := []domain.Record{
		{Patient: "a", Date: "??", Exam: "x"},
		{Patient: "b", Date: "01/01/2024", Exam: "y"},
	}
	Sort(records)
	assert.Equal(t, "y", records[0].Exam)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, unpaid))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, BOM))

	rows, err := csv.NewReader(bytes.NewReader(raw[len(BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Nombre del paciente", "Fecha (dd/mm/aaaa)", "Descripción del examen"}, rows[0])
	assert.Equal(t, []string{"luis soto", "02/02/2024", "ecg"}, rows[1])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, unpaid))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, SheetName, f.GetSheetName(0))
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, []string{"ana diaz", "15/01/2024", "rx torax"}, rows[2])
}

func TestWriteXLSX_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []domain.Record{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, columns, rows[0])
}

func TestWrite_DoesNotAlterRecords(t *testing.T) {
	in := append([]domain.Record(nil), unpaid...)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, in))
	assert.Equal(t, unpaid, in)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatXLSX, false},
		{"XLSX", FormatXLSX, false},
		{" csv ", FormatCSV, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"unpaid exams", "unpaid_exams"},
		{"Clínica/Norte: marzo", "Cl_nica_Norte_marzo"},
		{"__a__b__", "a_b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeFilename(tt.input), tt.input)
	}
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "unpaid_exams_2024-02-01.xlsx", buildFilename("unpaid exams", FormatXLSX, now))
	assert.Equal(t, "unpaid_exams_2024-02-01.csv", buildFilename("///", FormatCSV, now))
	assert.Regexp(t, `^marzo_\d{4}-\d{2}-\d{2}\.csv$`, BuildFilename("marzo", FormatCSV))
}
