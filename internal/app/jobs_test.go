package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type accrualServiceStub struct {
	accrued   int
	err       error
	lastLimit int
}

func (s *accrualServiceStub) ReconcileAccruals(ctx context.Context, limit int) (int, error) {
	s.lastLimit = limit
	return s.accrued, s.err
}

func newTestJobs(service AccrualService, limit int) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewJobs(service, logger, limit)
}

func TestReconcileLoyaltyAccruals_PassesLimit(t *testing.T) {
	service := &accrualServiceStub{accrued: 2}
	jobs := newTestJobs(service, 25)

	jobs.ReconcileLoyaltyAccruals()

	if service.lastLimit != 25 {
		t.Fatalf("limit: got %d, want 25", service.lastLimit)
	}
}

func TestReconcileLoyaltyAccruals_DefaultsLimit(t *testing.T) {
	service := &accrualServiceStub{}
	jobs := newTestJobs(service, 0)

	jobs.ReconcileLoyaltyAccruals()

	if service.lastLimit != 100 {
		t.Fatalf("limit: got %d, want default 100", service.lastLimit)
	}
}

func TestReconcileLoyaltyAccruals_SurvivesServiceError(t *testing.T) {
	service := &accrualServiceStub{err: errors.New("db unavailable")}
	jobs := newTestJobs(service, 10)

	// Must not panic; the next scheduled run will retry.
	jobs.ReconcileLoyaltyAccruals()
}
