/**
 * @description
 * The pricing engine: a pure, deterministic calculator turning an order's
 * weight, formula, options, client tier and monthly premium usage into a
 * PriceBreakdown. It performs no I/O and holds no mutable state, so it is
 * safe to call concurrently and to re-run with identical results.
 *
 * It is the only implementation of the pricing rules in the platform; both
 * the authoritative order path and the client preview endpoint go through it.
 */
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kandjiabdou/yessal-sub001/internal/domain"
)

var (
	// ErrInvalidWeight is returned when an order's weight is not positive or
	// a non-premium order is below the minimum billable weight.
	ErrInvalidWeight = errors.New("invalid order weight")
	// ErrInvalidFormula is returned for a formula outside the closed set.
	ErrInvalidFormula = errors.New("invalid formula")
	// ErrInvalidClientTier is returned for a client tier outside the closed set.
	ErrInvalidClientTier = errors.New("invalid client tier")
	// ErrUnknownDiscountKind is returned for a discount kind outside the closed set.
	ErrUnknownDiscountKind = errors.New("unknown discount kind")
)

// Input is one pricing request. MonthlyUsageKg is the kilograms already
// billed against the client's premium quota this calendar month; it is
// ignored for standard clients.
type Input struct {
	Formula        domain.Formula
	WeightKg       decimal.Decimal
	Options        domain.OrderOptions
	ClientTier     domain.ClientTier
	MonthlyUsageKg decimal.Decimal
	DiscountKind   domain.DiscountKind
}

// Engine computes price breakdowns against an injected tariff.
type Engine struct {
	tariff Tariff
}

// NewEngine creates a pricing engine for the given tariff.
func NewEngine(tariff Tariff) (*Engine, error) {
	if err := tariff.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tariff: %w", err)
	}
	return &Engine{tariff: tariff}, nil
}

// Tariff returns the tariff the engine was built with.
func (e *Engine) Tariff() Tariff {
	return e.tariff
}

// ComputePrice validates the input and assembles the full price breakdown.
//
// All failures are deterministic input errors; callers must treat them as
// permanent, never retryable.
func (e *Engine) ComputePrice(in Input) (*domain.PriceBreakdown, error) {
	if !in.WeightKg.IsPositive() {
		return nil, fmt.Errorf("%w: weight must be positive, got %s kg", ErrInvalidWeight, in.WeightKg)
	}

	switch in.Formula {
	case domain.FormulaBaseMachine, domain.FormulaDetail:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormula, in.Formula)
	}

	var breakdown domain.PriceBreakdown
	switch in.ClientTier {
	case domain.TierStandard:
		if in.WeightKg.LessThan(e.tariff.MinOrderWeightKg) {
			return nil, fmt.Errorf("%w: %s kg is below the %s kg minimum",
				ErrInvalidWeight, in.WeightKg, e.tariff.MinOrderWeightKg)
		}
		e.priceFormula(&breakdown, in.Formula, in.WeightKg, in.Options)
	case domain.TierPremium:
		e.pricePremium(&breakdown, in)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidClientTier, in.ClientTier)
	}

	breakdown.Subtotal = breakdown.BasePrice + breakdown.OptionsPrice
	discount, err := e.discountAmount(breakdown.Subtotal, in.DiscountKind)
	if err != nil {
		return nil, err
	}
	breakdown.DiscountAmount = discount
	breakdown.FinalPrice = breakdown.Subtotal - discount

	return &breakdown, nil
}

// priceFormula fills base and options prices for a billable weight under the
// requested formula.
func (e *Engine) priceFormula(breakdown *domain.PriceBreakdown, formula domain.Formula, weightKg decimal.Decimal, opts domain.OrderOptions) {
	switch formula {
	case domain.FormulaBaseMachine:
		alloc, base := e.allocateMachines(weightKg)
		breakdown.BasePrice = base
		breakdown.MachineAllocation = &alloc
		breakdown.OptionsPrice = e.baseMachineOptionsPrice(weightKg, opts)
	case domain.FormulaDetail:
		// The per-kg rate bundles collection, wash, dry, iron and delivery.
		breakdown.BasePrice = perKg(weightKg, e.tariff.DetailRatePerKg)
		if opts.Express {
			breakdown.OptionsPrice = e.tariff.ExpressFee
		}
	}
}

// baseMachineOptionsPrice accumulates option surcharges for the base-machine
// formula. The nesting encodes the dependency chain: nothing is billed
// without delivery, drying requires delivery, ironing requires drying, and
// express rides on delivery.
func (e *Engine) baseMachineOptionsPrice(weightKg decimal.Decimal, opts domain.OrderOptions) int64 {
	if !opts.Delivery {
		return 0
	}
	total := e.tariff.DeliveryFee
	if opts.Drying {
		total += perKg(weightKg, e.tariff.DryingRatePerKg)
		if opts.Ironing {
			total += perKg(weightKg, e.tariff.IroningRatePerKg)
		}
	}
	if opts.Express {
		total += e.tariff.ExpressFee
	}
	return total
}

// pricePremium splits a premium order between the monthly quota and the
// billable surplus, then prices only the surplus.
func (e *Engine) pricePremium(breakdown *domain.PriceBreakdown, in Input) {
	quota := e.tariff.PremiumMonthlyQuotaKg
	used := in.MonthlyUsageKg
	if used.IsNegative() {
		used = decimal.Zero
	}

	remaining := quota.Sub(used)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	covered := decimal.Min(in.WeightKg, remaining)
	surplus := in.WeightKg.Sub(covered)

	details := &domain.PremiumDetails{
		QuotaKg:     quota,
		UsedKg:      used,
		RemainingKg: remaining,
		CoveredKg:   covered,
		SurplusKg:   surplus,
	}
	breakdown.Premium = details

	switch {
	case surplus.IsZero():
		// Fully covered by the subscription: every service except express
		// is already included.
		details.Covered = true
		if in.Options.Express {
			breakdown.OptionsPrice = e.tariff.ExpressFee
		}
	case surplus.LessThan(e.tariff.MinOrderWeightKg):
		// The surplus is a forced charge, so the minimum-weight rule is
		// waived and the per-kg formula is mandatory.
		details.SurplusDetailRequired = true
		details.SurplusReason = fmt.Sprintf(
			"surplus of %s kg is below the %s kg machine minimum and is billed at the per-kg rate",
			surplus, e.tariff.MinOrderWeightKg)
		breakdown.BasePrice = perKg(surplus, e.tariff.DetailRatePerKg)
		if in.Options.Express {
			breakdown.OptionsPrice = e.tariff.ExpressFee
		}
	default:
		// Surplus large enough for either formula: the order's declared
		// formula applies to the surplus weight.
		e.priceFormula(breakdown, in.Formula, surplus, in.Options)
	}
}

// perKg bills a weight at a per-kilogram rate, rounded half-up to a whole
// currency unit for fractional weights.
func perKg(weightKg decimal.Decimal, rate int64) int64 {
	return weightKg.Mul(decimal.NewFromInt(rate)).Round(0).IntPart()
}
