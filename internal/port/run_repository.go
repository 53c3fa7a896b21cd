package port

import (
	"context"

	"github.com/google/uuid"

	"medrecon/internal/domain"
)

// RunRepository persists the audit trail of reconciliation runs.
type RunRepository interface {
	Create(ctx context.Context, run *domain.ReconciliationRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReconciliationRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.ReconciliationRun, int, error)
	Ping(ctx context.Context) error
}
