package port

import (
	"context"

	"medrecon/internal/domain"
)

// ExtractInput carries a document whose tables should be extracted.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
	SourceName  string
}

// ExtractOutput holds the tables found in a document, in page order.
type ExtractOutput struct {
	Tables    []domain.Table
	ModelUsed string
}

// TableExtractor abstracts LLM-based table extraction from PDF invoices.
type TableExtractor interface {
	ExtractTables(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
