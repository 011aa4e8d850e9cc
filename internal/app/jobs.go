/**
 * @description
 * Scheduled job implementations for the pricing service.
 */
package app

import (
	"context"
	"log/slog"
)

// AccrualService defines the operations the jobs need from the service layer.
type AccrualService interface {
	ReconcileAccruals(ctx context.Context, limit int) (int, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	service AccrualService
	logger  *slog.Logger
	limit   int
}

// NewJobs creates a new Jobs runner.
func NewJobs(service AccrualService, logger *slog.Logger, limit int) *Jobs {
	if limit <= 0 {
		limit = 100
	}
	return &Jobs{service: service, logger: logger, limit: limit}
}

// ReconcileLoyaltyAccruals sweeps delivered orders whose loyalty accrual
// never ran and accrues them.
func (j *Jobs) ReconcileLoyaltyAccruals() {
	j.logger.Info("starting loyalty accrual reconciliation job")
	ctx := context.Background()

	accrued, err := j.service.ReconcileAccruals(ctx, j.limit)
	if err != nil {
		j.logger.Error("failed to reconcile loyalty accruals", "error", err)
		return
	}

	if accrued == 0 {
		j.logger.Info("no delivered orders pending loyalty accrual")
		return
	}
	j.logger.Info("loyalty accrual reconciliation job finished", "accrued", accrued)
}
