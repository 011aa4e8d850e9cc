/**
 * @description
 * Machine allocation for the base-machine formula: choose the mix of
 * 20 kg and 6 kg machines covering a given weight, where partial loads
 * are billed as full machine units.
 *
 * This is the historical closed-form heuristic the business bills with,
 * not a bin-packing optimum. It must be reproduced exactly: customers
 * have been invoiced with these numbers.
 */
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kandjiabdou/yessal-sub001/internal/domain"
)

var (
	kg6  = decimal.NewFromInt(6)
	kg20 = decimal.NewFromInt(20)
)

// allocateMachines returns the machine mix and its price for weightKg.
//
// Fill 20 kg machines first. For the remainder, compare the continuous
// small-machine cost M6*(r/6) against one more large machine: if the large
// machine is cheaper, upgrade; otherwise bill floor(r/6) small machines,
// plus one extra only when the final leftover exceeds the tariff's slack
// threshold (1.5 kg by default). A leftover at or below the threshold is
// absorbed for free.
func (e *Engine) allocateMachines(weightKg decimal.Decimal) (domain.MachineAllocation, int64) {
	large, remainder := weightKg.QuoRem(kg20, 0)
	alloc := domain.MachineAllocation{Machines20kg: int(large.IntPart())}

	if remainder.IsZero() {
		return alloc, int64(alloc.Machines20kg) * e.tariff.Machine20kgPrice
	}

	smallCost := remainder.Div(kg6).Mul(decimal.NewFromInt(e.tariff.Machine6kgPrice))
	if smallCost.GreaterThan(decimal.NewFromInt(e.tariff.Machine20kgPrice)) {
		alloc.Machines20kg++
		return alloc, int64(alloc.Machines20kg) * e.tariff.Machine20kgPrice
	}

	whole, frac := remainder.QuoRem(kg6, 0)
	alloc.Machines6kg = int(whole.IntPart())
	if frac.GreaterThan(e.tariff.SmallMachineSlackKg) {
		alloc.Machines6kg++
	}

	price := int64(alloc.Machines20kg)*e.tariff.Machine20kgPrice +
		int64(alloc.Machines6kg)*e.tariff.Machine6kgPrice
	return alloc, price
}
