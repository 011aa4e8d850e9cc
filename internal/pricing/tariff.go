/**
 * @description
 * The Tariff is the single source of truth for every tunable pricing
 * constant. It is injected into the Engine at construction time so the
 * price table can be changed through configuration without code changes.
 */
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tariff holds the pricing table. Amounts are whole currency units (CFA),
// rates are per kilogram, discount rates are fractions in [0, 1).
type Tariff struct {
	Machine20kgPrice int64
	Machine6kgPrice  int64
	DetailRatePerKg  int64
	DeliveryFee      int64
	DryingRatePerKg  int64
	IroningRatePerKg int64
	ExpressFee       int64

	StudentDiscountRate      decimal.Decimal
	OpeningPromoDiscountRate decimal.Decimal

	// PremiumMonthlyQuotaKg is the kilograms included in a premium
	// subscription per calendar month.
	PremiumMonthlyQuotaKg decimal.Decimal

	// MinOrderWeightKg is the weight floor for non-premium orders.
	MinOrderWeightKg decimal.Decimal

	// SmallMachineSlackKg is the sub-6 kg leftover above which one extra
	// small machine is billed. Leftovers at or below it ride for free.
	// This is a billing-compatibility constant; changing it changes
	// customer-facing prices.
	SmallMachineSlackKg decimal.Decimal
}

// DefaultTariff returns the deployed price table.
func DefaultTariff() Tariff {
	return Tariff{
		Machine20kgPrice:         4000,
		Machine6kgPrice:          2000,
		DetailRatePerKg:          600,
		DeliveryFee:              1000,
		DryingRatePerKg:          150,
		IroningRatePerKg:         200,
		ExpressFee:               1000,
		StudentDiscountRate:      decimal.New(1, -1), // 10%
		OpeningPromoDiscountRate: decimal.New(5, -2), // 5%
		PremiumMonthlyQuotaKg:    decimal.NewFromInt(40),
		MinOrderWeightKg:         decimal.NewFromInt(6),
		SmallMachineSlackKg:      decimal.New(15, -1),
	}
}

// Validate rejects tariffs that would produce nonsensical or negative prices.
func (t Tariff) Validate() error {
	if t.Machine20kgPrice <= 0 || t.Machine6kgPrice <= 0 {
		return fmt.Errorf("machine prices must be positive")
	}
	if t.DetailRatePerKg <= 0 {
		return fmt.Errorf("detail per-kg rate must be positive")
	}
	if t.DeliveryFee < 0 || t.DryingRatePerKg < 0 || t.IroningRatePerKg < 0 || t.ExpressFee < 0 {
		return fmt.Errorf("option fees must not be negative")
	}
	one := decimal.NewFromInt(1)
	if t.StudentDiscountRate.IsNegative() || t.StudentDiscountRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("student discount rate must be in [0, 1)")
	}
	if t.OpeningPromoDiscountRate.IsNegative() || t.OpeningPromoDiscountRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("opening promo discount rate must be in [0, 1)")
	}
	if !t.PremiumMonthlyQuotaKg.IsPositive() {
		return fmt.Errorf("premium monthly quota must be positive")
	}
	if !t.MinOrderWeightKg.IsPositive() {
		return fmt.Errorf("minimum order weight must be positive")
	}
	if t.SmallMachineSlackKg.IsNegative() {
		return fmt.Errorf("small machine slack must not be negative")
	}
	return nil
}
