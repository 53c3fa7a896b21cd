package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"medrecon/internal/domain"
	"medrecon/internal/port"
)

const runsTable = "reconciliation_runs"

var runColumns = []interface{}{
	"id", "threshold", "performed_count", "paid_count",
	"excluded_performed", "excluded_paid", "matched_count", "unpaid_count",
	"sources", "report_bucket", "report_key", "created_by", "created_at",
}

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a PostgreSQL-backed RunRepository.
func NewRunRepo(db *sqlx.DB) port.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *domain.ReconciliationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.CreatedAt = time.Now().UTC()

	sources, err := run.Sources.Value()
	if err != nil {
		return fmt.Errorf("runRepo.Create sources: %w", err)
	}

	query, args, err := dialect.Insert(runsTable).Prepared(true).Rows(goqu.Record{
		"id":                 run.ID,
		"threshold":          run.Threshold,
		"performed_count":    run.PerformedCount,
		"paid_count":         run.PaidCount,
		"excluded_performed": run.ExcludedPerformed,
		"excluded_paid":      run.ExcludedPaid,
		"matched_count":      run.MatchedCount,
		"unpaid_count":       run.UnpaidCount,
		"sources":            sources,
		"report_bucket":      run.ReportBucket,
		"report_key":         run.ReportKey,
		"created_by":         run.CreatedBy,
		"created_at":         run.CreatedAt,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("runRepo.Create build: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("runRepo.Create: %w", err)
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReconciliationRun, error) {
	query, args, err := dialect.From(runsTable).Prepared(true).
		Select(runColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("runRepo.GetByID build: %w", err)
	}

	var run domain.ReconciliationRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("runRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *runRepo) List(ctx context.Context, offset, limit int) ([]domain.ReconciliationRun, int, error) {
	countQuery, _, err := dialect.From(runsTable).Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List build count: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("runRepo.List count: %w", err)
	}

	query, args, err := dialect.From(runsTable).Prepared(true).
		Select(runColumns...).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List build: %w", err)
	}

	runs := make([]domain.ReconciliationRun, 0, limit)
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("runRepo.List: %w", err)
	}
	return runs, total, nil
}

func (r *runRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
