/**
 * @description
 * Discount application. A single optional discount kind applies per order;
 * kinds never stack.
 */
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kandjiabdou/yessal-sub001/internal/domain"
)

// discountAmount returns round-half-up(subtotal * rate) for the given kind,
// capped at subtotal so the final price can never go negative.
func (e *Engine) discountAmount(subtotal int64, kind domain.DiscountKind) (int64, error) {
	var rate decimal.Decimal
	switch kind {
	case domain.DiscountNone:
		return 0, nil
	case domain.DiscountStudent:
		rate = e.tariff.StudentDiscountRate
	case domain.DiscountOpeningPromo:
		rate = e.tariff.OpeningPromoDiscountRate
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDiscountKind, kind)
	}

	amount := decimal.NewFromInt(subtotal).Mul(rate).Round(0).IntPart()
	if amount > subtotal {
		amount = subtotal
	}
	return amount, nil
}
