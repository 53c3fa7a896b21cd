package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"medrecon/internal/domain"
)

// DecodeTables parses the model's JSON answer into tables. Markdown code
// fences around the JSON are tolerated. Tables without a header are
// dropped.
func DecodeTables(text string) ([]domain.Table, error) {
	raw := stripFences(text)

	var parsed struct {
		Tables []domain.Table `json:"tables"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w (raw: %s)", err, Truncate(text, 500))
	}

	tables := make([]domain.Table, 0, len(parsed.Tables))
	for _, t := range parsed.Tables {
		if len(t.Header) == 0 {
			continue
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Truncate shortens s to maxLen bytes for error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
