package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"

	"medrecon/internal/config"
	"medrecon/internal/domain"
	"medrecon/internal/logger"
	"medrecon/internal/pipeline"
	"medrecon/internal/port"
	"medrecon/internal/report"
)

// Runner executes one reconciliation over already loaded sources.
type Runner interface {
	Run(ctx context.Context, src pipeline.Sources, threshold float64) (*pipeline.Outcome, error)
}

// ReconcileInput is the DTO for a reconciliation request. Threshold is
// optional; nil means the configured default.
type ReconcileInput struct {
	WorkLogs      []*multipart.FileHeader
	InvoiceSheets []*multipart.FileHeader
	InvoicePDFs   []*multipart.FileHeader
	Threshold     *float64
	CreatedBy     string
}

// ReconcileResult is an archived run together with its unpaid rows.
type ReconcileResult struct {
	Run    *domain.ReconciliationRun `json:"run"`
	Unpaid []domain.Record           `json:"unpaid"`
}

// ReconciliationService defines the reconciliation contract.
type ReconciliationService interface {
	// Reconcile runs, archives the xlsx report and records the run.
	Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileResult, error)
	// Export runs without archiving anything.
	Export(ctx context.Context, input ReconcileInput) (*pipeline.Outcome, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ReconciliationRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.ReconciliationRun, int, error)
	ReportURL(ctx context.Context, id uuid.UUID) (string, error)
	Ready(ctx context.Context) error
}

type reconciliationService struct {
	runner    Runner
	runRepo   port.RunRepository
	storage   port.ObjectStorage
	s3Cfg     *config.S3Config
	uploadCfg config.UploadConfig
	matchCfg  config.MatchConfig
}

// NewReconciliationService creates a new ReconciliationService implementation.
func NewReconciliationService(
	runner Runner,
	runRepo port.RunRepository,
	storage port.ObjectStorage,
	s3Cfg *config.S3Config,
	uploadCfg config.UploadConfig,
	matchCfg config.MatchConfig,
) ReconciliationService {
	return &reconciliationService{
		runner:    runner,
		runRepo:   runRepo,
		storage:   storage,
		s3Cfg:     s3Cfg,
		uploadCfg: uploadCfg,
		matchCfg:  matchCfg,
	}
}

func (s *reconciliationService) threshold(in *float64) float64 {
	if in == nil {
		return s.matchCfg.Threshold
	}
	return *in
}

func (s *reconciliationService) run(ctx context.Context, input ReconcileInput) (*pipeline.Outcome, float64, error) {
	threshold := s.threshold(input.Threshold)
	src, err := loadSources(input, s.uploadCfg.MaxBytes())
	if err != nil {
		return nil, threshold, err
	}
	out, err := s.runner.Run(ctx, src, threshold)
	if err != nil {
		return nil, threshold, err
	}
	return out, threshold, nil
}

func (s *reconciliationService) Export(ctx context.Context, input ReconcileInput) (*pipeline.Outcome, error) {
	out, _, err := s.run(ctx, input)
	return out, err
}

func (s *reconciliationService) Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileResult, error) {
	log := logger.Component("reconciliation")

	out, threshold, err := s.run(ctx, input)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, out.Unpaid); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	runID := uuid.New()
	filename := report.BuildFilename(report.DefaultBaseName, report.FormatXLSX)
	key := fmt.Sprintf("reports/%s/%s", runID, filename)

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: report.FormatXLSX.ContentType(),
		Filename:    filename,
	})
	if err != nil {
		log.Error().Err(err).Str("run_id", runID.String()).Str("key", key).Msg("report upload failed")
		return nil, domain.ErrUploadFailed
	}

	run := &domain.ReconciliationRun{
		ID:                runID,
		Threshold:         threshold,
		PerformedCount:    out.Stats.Performed,
		PaidCount:         out.Stats.Paid,
		ExcludedPerformed: out.Stats.ExcludedPerformed,
		ExcludedPaid:      out.Stats.ExcludedPaid,
		MatchedCount:      out.Stats.Matched,
		UnpaidCount:       out.Stats.Unpaid,
		Sources:           domain.SourceList(out.Sources),
		ReportBucket:      s.s3Cfg.Bucket,
		ReportKey:         key,
		CreatedBy:         input.CreatedBy,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		if delErr := s.storage.Delete(ctx, s.s3Cfg.Bucket, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("removing orphaned report failed")
		}
		return nil, fmt.Errorf("recording run: %w", err)
	}

	log.Info().
		Str("run_id", runID.String()).
		Str("created_by", input.CreatedBy).
		Int("unpaid", run.UnpaidCount).
		Msg("run archived")

	return &ReconcileResult{Run: run, Unpaid: out.Unpaid}, nil
}

func (s *reconciliationService) Get(ctx context.Context, id uuid.UUID) (*domain.ReconciliationRun, error) {
	return s.runRepo.GetByID(ctx, id)
}

func (s *reconciliationService) List(ctx context.Context, offset, limit int) ([]domain.ReconciliationRun, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runRepo.List(ctx, offset, limit)
}

func (s *reconciliationService) ReportURL(ctx context.Context, id uuid.UUID) (string, error) {
	run, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.storage.GetPresignedURL(ctx, run.ReportBucket, run.ReportKey, s.s3Cfg.PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("generating report url: %w", err)
	}
	return url, nil
}

func (s *reconciliationService) Ready(ctx context.Context) error {
	if err := s.runRepo.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := s.storage.Ping(ctx, s.s3Cfg.Bucket); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}
