package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrecon/internal/domain"
	"medrecon/internal/normalize"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"accents and case", "José García", "jose garcia"},
		{"already canonical", "jose garcia", "jose garcia"},
		{"exam with accents", "Radiografía de Tórax", "radiografia de torax"},
		{"collapse whitespace", "  Ana \t  Díaz\n", "ana diaz"},
		{"strip punctuation", "Rx. tórax (PA/lateral)", "rx torax palateral"},
		{"punctuation between spaces", "ECG - control", "ecg control"},
		{"enye", "Muñoz", "munoz"},
		{"underscore stripped", "eco_abdominal", "ecoabdominal"},
		{"digits kept", "TAC 3D", "tac 3d"},
		{"non-breaking space", "ana\u00a0diaz", "ana diaz"},
		{"empty", "", ""},
		{"only punctuation", " -- ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalize.Text(tt.input))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"José García", "ECG - control", "Rx. tórax (PA/lateral)", "  a  -  b  ", "Ñandú ²", "",
	}
	for _, in := range inputs {
		once := normalize.Text(in)
		assert.Equal(t, once, normalize.Text(once), "input %q", in)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"day first", "03/04/2024", time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC), true},
		{"single digits", "1/2/2024", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"dashes", "01-02-2024", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"dots", "01.02.2024", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"two digit year", "01/02/24", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"unambiguous month first", "12/25/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), true},
		{"iso", "2024-02-01", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"iso with time", "2024-02-01 00:00:00", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"surrounding space", "  01/02/2024 ", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"blank", "   ", time.Time{}, false},
		{"garbage", "??", time.Time{}, false},
		{"impossible day", "31/02/2024", time.Time{}, false},
		{"both parts over twelve", "13/13/2024", time.Time{}, false},
		{"bare digits", "01022024", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalize.ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
			}
		})
	}
}

func TestDate(t *testing.T) {
	assert.Equal(t, "01/02/2024", normalize.Date("1-2-24"))
	assert.Equal(t, "01/02/2024", normalize.Date("2024-02-01"))
	assert.Equal(t, "", normalize.Date("31/02/2024"))
	assert.Equal(t, "", normalize.Date(""))
}

func TestRecords(t *testing.T) {
	in := []domain.Record{
		{Patient: "Ana Díaz", Date: "01/02/2024", Exam: "Radiografía de tórax"},
		{Patient: " JOSÉ  GARCÍA ", Date: "??", Exam: "ECG."},
	}

	out := normalize.Records(in)

	require.Len(t, out, 2)
	assert.Equal(t, domain.Record{Patient: "ana diaz", Date: "01/02/2024", Exam: "radiografia de torax"}, out[0])
	assert.Equal(t, domain.Record{Patient: "jose garcia", Date: "", Exam: "ecg"}, out[1])
	// input untouched
	assert.Equal(t, "Ana Díaz", in[0].Patient)
}

func TestRecords_FixedPoint(t *testing.T) {
	in := []domain.Record{
		{Patient: "Ana Díaz", Date: "3-4-24", Exam: "Eco - abdominal"},
		{Patient: "", Date: "", Exam: ""},
	}
	once := normalize.Records(in)
	assert.Equal(t, once, normalize.Records(once))
}

func TestRecords_EmptyInput(t *testing.T) {
	out := normalize.Records(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
