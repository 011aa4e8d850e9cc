package loyalty

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kandjiabdou/yessal-sub001/internal/domain"
)

func TestAccrue_AlwaysCountsWashAndWeight(t *testing.T) {
	rules := DefaultRules()

	rec := domain.LoyaltyRecord{TotalWashes: 3, TotalWeightKg: decimal.RequireFromString("41.5")}
	updated := rules.Accrue(rec, domain.FormulaBaseMachine, decimal.RequireFromString("12.5"))

	if updated.TotalWashes != 4 {
		t.Fatalf("total washes: got %d, want 4", updated.TotalWashes)
	}
	if !updated.TotalWeightKg.Equal(decimal.RequireFromString("54")) {
		t.Fatalf("total weight: got %s, want 54", updated.TotalWeightKg)
	}
	if updated.FreeWashCredits6kg != 0 || updated.FreeWashCredits20kg != 0 {
		t.Fatalf("unexpected credits: %+v", updated)
	}
}

func TestAccrue_TenthBaseMachineWashEarnsCredit(t *testing.T) {
	rules := DefaultRules()

	rec := domain.LoyaltyRecord{TotalWashes: 9}
	updated := rules.Accrue(rec, domain.FormulaBaseMachine, decimal.NewFromInt(20))

	if updated.TotalWashes != 10 {
		t.Fatalf("total washes: got %d, want 10", updated.TotalWashes)
	}
	if updated.FreeWashCredits6kg != 1 {
		t.Fatalf("credits after 10th wash: got %d, want 1", updated.FreeWashCredits6kg)
	}

	// The 11th wash earns nothing.
	updated = rules.Accrue(updated, domain.FormulaBaseMachine, decimal.NewFromInt(20))
	if updated.FreeWashCredits6kg != 1 {
		t.Fatalf("credits after 11th wash: got %d, want still 1", updated.FreeWashCredits6kg)
	}
}

func TestAccrue_DetailMilestoneCrossing(t *testing.T) {
	rules := DefaultRules()

	// 65 kg + 20 kg crosses the 70 kg boundary exactly once.
	rec := domain.LoyaltyRecord{TotalWeightKg: decimal.NewFromInt(65)}
	updated := rules.Accrue(rec, domain.FormulaDetail, decimal.NewFromInt(20))
	if updated.FreeWashCredits6kg != 1 {
		t.Fatalf("credits after crossing 70 kg: got %d, want 1", updated.FreeWashCredits6kg)
	}

	// The weight landing on a multiple earns the credit at the boundary.
	rec = domain.LoyaltyRecord{TotalWeightKg: decimal.NewFromInt(60)}
	updated = rules.Accrue(rec, domain.FormulaDetail, decimal.NewFromInt(10))
	if updated.FreeWashCredits6kg != 1 {
		t.Fatalf("credits at exactly 70 kg: got %d, want 1", updated.FreeWashCredits6kg)
	}
}

func TestAccrue_DetailOrderCrossingTwoMilestones(t *testing.T) {
	rules := DefaultRules()

	// 5 kg + 140 kg crosses both 70 and 140: two credits from one order.
	rec := domain.LoyaltyRecord{TotalWeightKg: decimal.NewFromInt(5)}
	updated := rules.Accrue(rec, domain.FormulaDetail, decimal.NewFromInt(140))
	if updated.FreeWashCredits6kg != 2 {
		t.Fatalf("credits after crossing two milestones: got %d, want 2", updated.FreeWashCredits6kg)
	}
}

func TestAccrue_BaseMachineWeightDoesNotFeedDetailMilestones(t *testing.T) {
	rules := DefaultRules()

	// Base-machine orders grow the cumulative weight but only the wash
	// counter rule can award their credits.
	rec := domain.LoyaltyRecord{TotalWashes: 2, TotalWeightKg: decimal.NewFromInt(69)}
	updated := rules.Accrue(rec, domain.FormulaBaseMachine, decimal.NewFromInt(20))
	if updated.FreeWashCredits6kg != 0 {
		t.Fatalf("base-machine order must not award milestone credits, got %d", updated.FreeWashCredits6kg)
	}
}

func TestAccrue_PanicsOnNegativeWeight(t *testing.T) {
	rules := DefaultRules()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for negative finalized weight")
		}
	}()
	rules.Accrue(domain.LoyaltyRecord{}, domain.FormulaDetail, decimal.NewFromInt(-1))
}
