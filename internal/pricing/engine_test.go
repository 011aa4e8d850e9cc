package pricing

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kandjiabdou/yessal-sub001/internal/domain"
)

func standardInput(formula domain.Formula, weight string) Input {
	return Input{
		Formula:    formula,
		WeightKg:   decimal.RequireFromString(weight),
		ClientTier: domain.TierStandard,
	}
}

func TestComputePrice_BaseMachineWithFullOptionChain(t *testing.T) {
	engine := newTestEngine(t)

	in := standardInput(domain.FormulaBaseMachine, "26")
	in.Options = domain.OrderOptions{Delivery: true, Drying: true, Ironing: true, Express: true}
	in.DiscountKind = domain.DiscountStudent

	breakdown, err := engine.ComputePrice(in)
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}

	if breakdown.BasePrice != 6000 {
		t.Fatalf("base price: got %d, want 6000", breakdown.BasePrice)
	}
	if breakdown.MachineAllocation == nil ||
		breakdown.MachineAllocation.Machines20kg != 1 || breakdown.MachineAllocation.Machines6kg != 1 {
		t.Fatalf("unexpected machine allocation: %+v", breakdown.MachineAllocation)
	}
	// delivery 1000 + drying 26*150 + ironing 26*200 + express 1000
	if breakdown.OptionsPrice != 1000+3900+5200+1000 {
		t.Fatalf("options price: got %d, want 11100", breakdown.OptionsPrice)
	}
	if breakdown.Subtotal != 17100 {
		t.Fatalf("subtotal: got %d, want 17100", breakdown.Subtotal)
	}
	if breakdown.DiscountAmount != 1710 || breakdown.FinalPrice != 15390 {
		t.Fatalf("discount/final: got %d/%d, want 1710/15390", breakdown.DiscountAmount, breakdown.FinalPrice)
	}
}

func TestComputePrice_OptionDependencyChain(t *testing.T) {
	engine := newTestEngine(t)

	// Drying, ironing and express all require delivery under the
	// base-machine formula: without it nothing is billed.
	in := standardInput(domain.FormulaBaseMachine, "20")
	in.Options = domain.OrderOptions{Drying: true, Ironing: true, Express: true}

	breakdown, err := engine.ComputePrice(in)
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}
	if breakdown.OptionsPrice != 0 {
		t.Fatalf("options without delivery: got %d, want 0", breakdown.OptionsPrice)
	}

	// Ironing requires drying even when delivery is on.
	in.Options = domain.OrderOptions{Delivery: true, Ironing: true}
	breakdown, err = engine.ComputePrice(in)
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}
	if breakdown.OptionsPrice != 1000 {
		t.Fatalf("ironing without drying: got options %d, want delivery fee only", breakdown.OptionsPrice)
	}
}

func TestComputePrice_DetailFormulaBundlesServices(t *testing.T) {
	engine := newTestEngine(t)

	in := standardInput(domain.FormulaDetail, "10")
	in.Options = domain.OrderOptions{Delivery: true, Drying: true, Ironing: true}

	breakdown, err := engine.ComputePrice(in)
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}
	if breakdown.BasePrice != 6000 {
		t.Fatalf("detail base price: got %d, want 6000", breakdown.BasePrice)
	}
	// Everything but express is bundled into the per-kg rate.
	if breakdown.OptionsPrice != 0 {
		t.Fatalf("detail options price: got %d, want 0", breakdown.OptionsPrice)
	}
	if breakdown.MachineAllocation != nil {
		t.Fatalf("detail formula must not report a machine allocation")
	}

	in.Options.Express = true
	breakdown, err = engine.ComputePrice(in)
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}
	if breakdown.OptionsPrice != 1000 {
		t.Fatalf("express on detail: got options %d, want 1000", breakdown.OptionsPrice)
	}
}

func TestComputePrice_StandardMinimumWeight(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ComputePrice(standardInput(domain.FormulaBaseMachine, "5.9"))
	if !errors.Is(err, ErrInvalidWeight) {
		t.Fatalf("expected ErrInvalidWeight below 6 kg, got %v", err)
	}

	if _, err := engine.ComputePrice(standardInput(domain.FormulaBaseMachine, "6")); err != nil {
		t.Fatalf("6 kg must be accepted, got %v", err)
	}
}

func TestComputePrice_RejectsClosedSetViolations(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ComputePrice(standardInput(domain.Formula("dry_clean"), "10"))
	if !errors.Is(err, ErrInvalidFormula) {
		t.Fatalf("expected ErrInvalidFormula, got %v", err)
	}

	in := standardInput(domain.FormulaDetail, "10")
	in.ClientTier = domain.ClientTier("vip")
	if _, err := engine.ComputePrice(in); !errors.Is(err, ErrInvalidClientTier) {
		t.Fatalf("expected ErrInvalidClientTier, got %v", err)
	}

	in = standardInput(domain.FormulaDetail, "10")
	in.DiscountKind = domain.DiscountKind("mystery")
	if _, err := engine.ComputePrice(in); !errors.Is(err, ErrUnknownDiscountKind) {
		t.Fatalf("expected ErrUnknownDiscountKind, got %v", err)
	}

	if _, err := engine.ComputePrice(standardInput(domain.FormulaDetail, "0")); !errors.Is(err, ErrInvalidWeight) {
		t.Fatalf("expected ErrInvalidWeight for zero weight, got %v", err)
	}
}

func premiumInput(formula domain.Formula, weight, usage string) Input {
	return Input{
		Formula:        formula,
		WeightKg:       decimal.RequireFromString(weight),
		ClientTier:     domain.TierPremium,
		MonthlyUsageKg: decimal.RequireFromString(usage),
	}
}

func TestComputePrice_PremiumFullyCovered(t *testing.T) {
	engine := newTestEngine(t)

	breakdown, err := engine.ComputePrice(premiumInput(domain.FormulaBaseMachine, "20", "10"))
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}
	if breakdown.BasePrice != 0 || breakdown.FinalPrice != 0 {
		t.Fatalf("covered premium order: got base %d final %d, want 0/0", breakdown.BasePrice, breakdown.FinalPrice)
	}
	if breakdown.Premium == nil || !breakdown.Premium.Covered {
		t.Fatalf("expected covered premium details, got %+v", breakdown.Premium)
	}
	if !breakdown.Premium.SurplusKg.IsZero() {
		t.Fatalf("expected zero surplus, got %s", breakdown.Premium.SurplusKg)
	}

	// Premium clients are exempt from the 6 kg floor.
	if _, err := engine.ComputePrice(premiumInput(domain.FormulaBaseMachine, "3", "0")); err != nil {
		t.Fatalf("premium order below 6 kg must be accepted, got %v", err)
	}
}

func TestComputePrice_PremiumCoveredExpressStillBilled(t *testing.T) {
	engine := newTestEngine(t)

	in := premiumInput(domain.FormulaBaseMachine, "20", "10")
	in.Options.Express = true

	breakdown, err := engine.ComputePrice(in)
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}
	if breakdown.BasePrice != 0 || breakdown.OptionsPrice != 1000 || breakdown.FinalPrice != 1000 {
		t.Fatalf("covered premium with express: got base %d options %d final %d, want 0/1000/1000",
			breakdown.BasePrice, breakdown.OptionsPrice, breakdown.FinalPrice)
	}
}

func TestComputePrice_PremiumForcedDetailSurplus(t *testing.T) {
	engine := newTestEngine(t)

	// 40 kg quota, 36 used: 8 kg order leaves a 4 kg surplus, below the
	// machine minimum, so the per-kg formula is mandatory.
	breakdown, err := engine.ComputePrice(premiumInput(domain.FormulaBaseMachine, "8", "36"))
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}
	if breakdown.Premium == nil || !breakdown.Premium.SurplusDetailRequired {
		t.Fatalf("expected mandatory detail surplus, got %+v", breakdown.Premium)
	}
	if breakdown.Premium.SurplusReason == "" {
		t.Fatal("expected a surplus reason for the forced detail formula")
	}
	if breakdown.BasePrice != 2400 {
		t.Fatalf("forced detail surplus: got base %d, want 4*600=2400", breakdown.BasePrice)
	}
	if breakdown.MachineAllocation != nil {
		t.Fatal("forced detail surplus must not report a machine allocation")
	}
}

func TestComputePrice_PremiumSurplusFormulaChoice(t *testing.T) {
	engine := newTestEngine(t)

	// 38 used of 40: an 8 kg order leaves exactly 6 kg of surplus, so the
	// client keeps the choice of formula.
	breakdown, err := engine.ComputePrice(premiumInput(domain.FormulaBaseMachine, "8", "38"))
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}
	if breakdown.Premium == nil || breakdown.Premium.SurplusDetailRequired {
		t.Fatalf("6 kg surplus must not force the detail formula: %+v", breakdown.Premium)
	}
	if !breakdown.Premium.SurplusKg.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("surplus: got %s, want 6", breakdown.Premium.SurplusKg)
	}
	if breakdown.BasePrice != 2000 {
		t.Fatalf("base-machine surplus: got %d, want one 6 kg machine at 2000", breakdown.BasePrice)
	}
	if breakdown.MachineAllocation == nil || breakdown.MachineAllocation.Machines6kg != 1 {
		t.Fatalf("unexpected surplus allocation: %+v", breakdown.MachineAllocation)
	}

	breakdown, err = engine.ComputePrice(premiumInput(domain.FormulaDetail, "8", "38"))
	if err != nil {
		t.Fatalf("ComputePrice returned error: %v", err)
	}
	if breakdown.BasePrice != 3600 {
		t.Fatalf("detail surplus: got %d, want 6*600=3600", breakdown.BasePrice)
	}
}

func TestComputePrice_InvariantsAndIdempotence(t *testing.T) {
	engine := newTestEngine(t)

	inputs := []Input{
		standardInput(domain.FormulaBaseMachine, "26"),
		standardInput(domain.FormulaDetail, "13.5"),
		premiumInput(domain.FormulaBaseMachine, "8", "36"),
		premiumInput(domain.FormulaDetail, "50", "0"),
		premiumInput(domain.FormulaBaseMachine, "20", "10"),
	}
	inputs[0].Options = domain.OrderOptions{Delivery: true, Drying: true, Express: true}
	inputs[0].DiscountKind = domain.DiscountStudent
	inputs[1].DiscountKind = domain.DiscountOpeningPromo

	for i, in := range inputs {
		first, err := engine.ComputePrice(in)
		if err != nil {
			t.Fatalf("input %d: ComputePrice returned error: %v", i, err)
		}
		second, err := engine.ComputePrice(in)
		if err != nil {
			t.Fatalf("input %d: second ComputePrice returned error: %v", i, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("input %d: repeated calls differ: %+v vs %+v", i, first, second)
		}

		if first.Subtotal != first.BasePrice+first.OptionsPrice {
			t.Fatalf("input %d: subtotal %d != base %d + options %d", i, first.Subtotal, first.BasePrice, first.OptionsPrice)
		}
		if first.FinalPrice != first.Subtotal-first.DiscountAmount {
			t.Fatalf("input %d: final %d != subtotal %d - discount %d", i, first.FinalPrice, first.Subtotal, first.DiscountAmount)
		}
		if first.FinalPrice < 0 || first.BasePrice < 0 || first.OptionsPrice < 0 || first.DiscountAmount < 0 {
			t.Fatalf("input %d: negative amount in breakdown %+v", i, first)
		}
	}
}
