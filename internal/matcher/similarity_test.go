package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"medrecon/internal/matcher"
)

func TestTokenSortRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "chest xray", "chest xray", 100},
		{"word order", "chest xray", "xray chest", 100},
		{"case", "Chest XRAY", "xray chest", 100},
		{"extra whitespace", "  chest   xray ", "xray chest", 100},
		{"both empty", "", "", 100},
		{"one empty", "ecg", "", 0},
		{"disjoint", "abc", "xyz", 0},
		// "rx torax" vs "torax": 2*5 / (8+5)
		{"subset", "torax", "torax rx", 100 * 10.0 / 13.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, matcher.TokenSortRatio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTokenSortRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"ecografia abdominal", "eco abdomen"},
		{"radiografia de torax", "rx torax"},
		{"resonancia magnetica", "tac"},
	}
	for _, p := range pairs {
		assert.InDelta(t, matcher.TokenSortRatio(p[0], p[1]), matcher.TokenSortRatio(p[1], p[0]), 1e-9)
	}
}
