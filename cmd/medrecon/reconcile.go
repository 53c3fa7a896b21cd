package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"medrecon/internal/config"
	"medrecon/internal/domain"
	"medrecon/internal/extractor"
	"medrecon/internal/logger"
	"medrecon/internal/pipeline"
	"medrecon/internal/port"
	"medrecon/internal/report"
	"medrecon/internal/service"
)

type reconcileOptions struct {
	workLogs      []string
	invoiceSheets []string
	invoicePDFs   []string
	threshold     float64
	out           string
	format        string
}

func reconcileCmd() *cobra.Command {
	opts := &reconcileOptions{}
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Write the report of performed exams that no invoice pays",
		Example: "  medrecon reconcile --work-log jan.xlsx --invoice-sheet insurer.xlsx --invoice-pdf inv1.pdf\n" +
			"  medrecon reconcile --work-log jan.xlsx --threshold 85 --out unpaid.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.InitWithWriter(cfg.Log, cmd.ErrOrStderr())
			if !cmd.Flags().Changed("threshold") {
				opts.threshold = cfg.Match.Threshold
			}

			var tables port.TableExtractor
			if len(opts.invoicePDFs) > 0 {
				if cfg.Extractor.Primary.APIKey == "" {
					return fmt.Errorf("pdf invoices need MEDRECON_EXTRACTOR_PRIMARY_API_KEY: %w", pipeline.ErrNoExtractor)
				}
				tables, err = extractor.NewFromConfig(&cfg.Extractor)
				if err != nil {
					return fmt.Errorf("pdf invoices need an extractor: %w", err)
				}
			}
			runner := pipeline.New(tables, cfg.Extractor.Concurrency)
			return runReconcile(cmd.Context(), runner, opts, cfg.Upload.MaxBytes(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.workLogs, "work-log", "w", nil, "work log workbook (xlsx); repeatable")
	f.StringSliceVarP(&opts.invoiceSheets, "invoice-sheet", "s", nil, "invoice workbook (xlsx); repeatable")
	f.StringSliceVarP(&opts.invoicePDFs, "invoice-pdf", "p", nil, "invoice document (pdf); repeatable")
	f.Float64VarP(&opts.threshold, "threshold", "t", 75, "minimum exam similarity (0-100) to count as paid")
	f.StringVarP(&opts.out, "out", "o", "", "output file; defaults to unpaid_exams_<date>.<format>")
	f.StringVarP(&opts.format, "format", "f", "", "xlsx or csv; defaults to the --out extension, else xlsx")
	_ = cmd.MarkFlagRequired("work-log")
	return cmd
}

func runReconcile(ctx context.Context, runner service.Runner, opts *reconcileOptions, maxBytes int64, stdout io.Writer) error {
	format, err := outputFormat(opts.format, opts.out)
	if err != nil {
		return err
	}

	var src pipeline.Sources
	if src.WorkLogs, err = readFiles(domain.SourceWorkLog, opts.workLogs, maxBytes); err != nil {
		return err
	}
	if src.InvoiceSheets, err = readFiles(domain.SourceInvoiceSheet, opts.invoiceSheets, maxBytes); err != nil {
		return err
	}
	if src.InvoicePDFs, err = readFiles(domain.SourceInvoicePDF, opts.invoicePDFs, maxBytes); err != nil {
		return err
	}

	out, err := runner.Run(ctx, src, opts.threshold)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, out.Unpaid); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	path := opts.out
	if path == "" {
		path = report.BuildFilename(report.DefaultBaseName, format)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	printSummary(stdout, out, opts.threshold, path)
	return nil
}

// outputFormat resolves the report format from the flag, then the output
// file's extension.
func outputFormat(flag, out string) (report.Format, error) {
	if flag != "" {
		return report.ParseFormat(flag)
	}
	if ext := strings.TrimPrefix(filepath.Ext(out), "."); ext != "" {
		return report.ParseFormat(ext)
	}
	return report.FormatXLSX, nil
}

func readFiles(kind domain.SourceKind, paths []string, maxBytes int64) ([]pipeline.SourceFile, error) {
	files := make([]pipeline.SourceFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", kind, err)
		}
		name := filepath.Base(p)
		if err := service.ValidateSource(kind, name, int64(len(data)), data, maxBytes); err != nil {
			return nil, err
		}
		files = append(files, pipeline.SourceFile{Name: name, Data: data})
	}
	return files, nil
}

func printSummary(w io.Writer, out *pipeline.Outcome, threshold float64, path string) {
	for _, s := range out.Sources {
		fmt.Fprintf(w, "%-14s %-40s %6d rows\n", s.Kind, s.Name, s.Rows)
	}
	st := out.Stats
	fmt.Fprintf(w, "\nthreshold %.0f: %d performed, %d paid, %d matched, %d unpaid\n",
		threshold, st.Performed, st.Paid, st.Matched, st.Unpaid)
	if st.ExcludedPerformed > 0 || st.ExcludedPaid > 0 {
		fmt.Fprintf(w, "skipped rows with unreadable dates: %d performed, %d paid\n",
			st.ExcludedPerformed, st.ExcludedPaid)
	}
	fmt.Fprintf(w, "report written to %s\n", path)
}
