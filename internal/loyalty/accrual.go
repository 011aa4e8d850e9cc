/**
 * @description
 * Loyalty (fidelity) accrual: the pure transition applied to a client's
 * reward counters when one of their orders reaches the delivered status.
 *
 * Milestones are derived from the before/after counters rather than from
 * incrementally maintained flags, so operator adjustments to the counters
 * cannot make the reward state drift.
 */
package loyalty

import (
	"github.com/shopspring/decimal"

	"github.com/kandjiabdou/yessal-sub001/internal/domain"
)

// Rules holds the accrual thresholds.
type Rules struct {
	// WashesPerFreeWash awards one free 6 kg wash every Nth delivered
	// base-machine order.
	WashesPerFreeWash int64
	// DetailMilestoneKg awards one free 6 kg wash each time the client's
	// cumulative weight crosses a multiple of this many kilograms, for
	// detail-formula orders.
	DetailMilestoneKg decimal.Decimal
}

// DefaultRules returns the deployed accrual thresholds.
func DefaultRules() Rules {
	return Rules{
		WashesPerFreeWash: 10,
		DetailMilestoneKg: decimal.NewFromInt(70),
	}
}

// Accrue returns the updated loyalty record after one delivered order.
//
// It is invoked exactly once per order by the surrounding order management;
// it is deliberately not idempotent against duplicate calls. Persistence of
// the returned record is the caller's responsibility. A negative finalized
// weight is a caller bug, not a recoverable condition.
func (r Rules) Accrue(rec domain.LoyaltyRecord, formula domain.Formula, finalizedWeightKg decimal.Decimal) domain.LoyaltyRecord {
	if finalizedWeightKg.IsNegative() {
		panic("loyalty: negative finalized weight")
	}

	previousWeight := rec.TotalWeightKg
	rec.TotalWashes++
	rec.TotalWeightKg = previousWeight.Add(finalizedWeightKg)

	switch formula {
	case domain.FormulaBaseMachine:
		if r.WashesPerFreeWash > 0 && rec.TotalWashes%r.WashesPerFreeWash == 0 {
			rec.FreeWashCredits6kg++
		}
	case domain.FormulaDetail:
		if r.DetailMilestoneKg.IsPositive() {
			rec.FreeWashCredits6kg += milestones(rec.TotalWeightKg, r.DetailMilestoneKg) -
				milestones(previousWeight, r.DetailMilestoneKg)
		}
	}

	return rec
}

// milestones counts how many whole milestone thresholds a cumulative weight
// has crossed.
func milestones(totalKg, milestoneKg decimal.Decimal) int64 {
	count, _ := totalKg.QuoRem(milestoneKg, 0)
	return count.IntPart()
}
