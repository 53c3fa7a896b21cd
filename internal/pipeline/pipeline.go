// Package pipeline runs a full reconciliation: read every source document,
// normalize, match and order the unpaid rows.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"medrecon/internal/domain"
	"medrecon/internal/logger"
	"medrecon/internal/matcher"
	"medrecon/internal/normalize"
	"medrecon/internal/port"
	"medrecon/internal/report"
	"medrecon/internal/spreadsheet"
	"medrecon/internal/tabular"
	"medrecon/internal/telemetry"
)

// ErrNoExtractor is returned when invoice PDFs are supplied but no table
// extractor is configured.
var ErrNoExtractor = errors.New("pdf invoices supplied but no extractor configured")

// SourceFile is one uploaded document.
type SourceFile struct {
	Name string
	Data []byte
}

// Sources groups the documents of one run. At least one work log is
// required; invoices may be absent, in which case every performed exam is
// unpaid.
type Sources struct {
	WorkLogs      []SourceFile
	InvoiceSheets []SourceFile
	InvoicePDFs   []SourceFile
}

// Outcome is the result of a run. Unpaid is never nil.
type Outcome struct {
	Unpaid  []domain.Record
	Stats   matcher.Stats
	Sources []domain.SourceRef
}

// Pipeline holds the collaborators shared by every run.
type Pipeline struct {
	extractor   port.TableExtractor
	concurrency int
}

// New creates a Pipeline. extractor may be nil when PDF invoices are not
// used; concurrency bounds parallel PDF extractions.
func New(extractor port.TableExtractor, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{extractor: extractor, concurrency: concurrency}
}

// Run reconciles sources at threshold. Any unreadable source aborts the run
// with an error naming the file.
func (p *Pipeline) Run(ctx context.Context, src Sources, threshold float64) (out *Outcome, err error) {
	ctx, span := telemetry.StartSpan(ctx, "pipeline.run",
		attribute.Int("work_logs", len(src.WorkLogs)),
		attribute.Int("invoice_sheets", len(src.InvoiceSheets)),
		attribute.Int("invoice_pdfs", len(src.InvoicePDFs)),
		attribute.Float64("threshold", threshold),
	)
	defer func() { telemetry.End(span, err) }()

	if len(src.WorkLogs) == 0 {
		return nil, domain.ErrNoWorkLogs
	}
	if err := matcher.ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if len(src.InvoicePDFs) > 0 && p.extractor == nil {
		return nil, ErrNoExtractor
	}

	var refs []domain.SourceRef

	performed, workRefs, err := readSheets(domain.SourceWorkLog, src.WorkLogs)
	if err != nil {
		return nil, err
	}
	refs = append(refs, workRefs...)

	paid, sheetRefs, err := readSheets(domain.SourceInvoiceSheet, src.InvoiceSheets)
	if err != nil {
		return nil, err
	}
	refs = append(refs, sheetRefs...)

	pdfRecords, pdfRefs, err := p.readPDFs(ctx, src.InvoicePDFs)
	if err != nil {
		return nil, err
	}
	paid = append(paid, pdfRecords...)
	refs = append(refs, pdfRefs...)

	res, err := matcher.Reconcile(normalize.Records(performed), normalize.Records(paid), threshold)
	if err != nil {
		return nil, err
	}
	report.Sort(res.Unpaid)
	span.SetAttributes(attribute.Int("matched", res.Stats.Matched), attribute.Int("unpaid", res.Stats.Unpaid))

	log := logger.Component("pipeline")
	log.Info().
		Int("sources", len(refs)).
		Int("performed", res.Stats.Performed).
		Int("paid", res.Stats.Paid).
		Int("excluded_performed", res.Stats.ExcludedPerformed).
		Int("excluded_paid", res.Stats.ExcludedPaid).
		Int("matched", res.Stats.Matched).
		Int("unpaid", res.Stats.Unpaid).
		Float64("threshold", threshold).
		Msg("reconciliation complete")

	return &Outcome{Unpaid: res.Unpaid, Stats: res.Stats, Sources: refs}, nil
}

func readSheets(kind domain.SourceKind, files []SourceFile) ([]domain.Record, []domain.SourceRef, error) {
	var all []domain.Record
	refs := make([]domain.SourceRef, 0, len(files))
	for _, f := range files {
		records, err := spreadsheet.ReadRecords(f.Name, bytes.NewReader(f.Data))
		if err != nil {
			return nil, nil, fmt.Errorf("%s %q: %w", kind, f.Name, err)
		}
		all = append(all, records...)
		refs = append(refs, domain.SourceRef{Kind: kind, Name: f.Name, Rows: len(records)})
	}
	return all, refs, nil
}

// readPDFs extracts every invoice PDF concurrently. Results are merged in
// input order regardless of completion order.
func (p *Pipeline) readPDFs(ctx context.Context, files []SourceFile) ([]domain.Record, []domain.SourceRef, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	perFile := make([][]domain.Record, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, f := range files {
		g.Go(func() (err error) {
			ectx, span := telemetry.StartSpan(gctx, "pipeline.extract_pdf", attribute.Int("index", i))
			defer func() { telemetry.End(span, err) }()

			out, err := p.extractor.ExtractTables(ectx, port.ExtractInput{
				FileBytes:   f.Data,
				ContentType: domain.AllowedFileTypes[domain.FileTypePDF],
				SourceName:  f.Name,
			})
			if err != nil {
				return fmt.Errorf("%w: %q: %w", domain.ErrExtractionFailed, f.Name, err)
			}
			records, err := tabular.InvoiceRecords(f.Name, out.Tables)
			if err != nil {
				return fmt.Errorf("%s %q: %w", domain.SourceInvoicePDF, f.Name, err)
			}
			perFile[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var all []domain.Record
	refs := make([]domain.SourceRef, 0, len(files))
	for i, f := range files {
		all = append(all, perFile[i]...)
		refs = append(refs, domain.SourceRef{Kind: domain.SourceInvoicePDF, Name: f.Name, Rows: len(perFile[i])})
	}
	return all, refs, nil
}
