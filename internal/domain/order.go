/**
 * @description
 * This file defines the core domain models for the pricing service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Prices are stored as `int64` in whole currency units (CFA francs), which
 *   avoids floating-point inaccuracies with monetary data.
 * - Weights are `decimal.Decimal` because customers declare fractional kilograms
 *   and the billing rules compare against fractional thresholds.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Formula identifies how an order's wash is billed.
type Formula string

const (
	// FormulaBaseMachine bills by discrete machine loads (20 kg / 6 kg units).
	FormulaBaseMachine Formula = "base_machine"
	// FormulaDetail bills a flat per-kilogram rate bundling collection, wash,
	// dry, iron and delivery.
	FormulaDetail Formula = "detail"
)

// ClientTier distinguishes pay-per-order clients from monthly subscribers.
type ClientTier string

const (
	TierStandard ClientTier = "standard"
	TierPremium  ClientTier = "premium"
)

// DiscountKind is an optional promotional discount. At most one applies per order.
type DiscountKind string

const (
	DiscountNone         DiscountKind = ""
	DiscountStudent      DiscountKind = "student"
	DiscountOpeningPromo DiscountKind = "opening_promo"
)

// OrderStatus tracks the order lifecycle. Only the transition to
// StatusDelivered matters to this service: it triggers loyalty accrual.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderOptions are the add-on services a client can toggle on an order.
// For the base-machine formula the options form a dependency chain
// (delivery -> drying -> ironing); a disabled prerequisite forces its
// dependents off during pricing.
type OrderOptions struct {
	Delivery bool `json:"delivery"`
	Drying   bool `json:"drying"`
	Ironing  bool `json:"ironing"`
	Express  bool `json:"express"`
}

// MachineAllocation is the machine mix chosen for a base-machine priced weight.
type MachineAllocation struct {
	Machines20kg int `json:"machines_20kg"`
	Machines6kg  int `json:"machines_6kg"`
}

// PremiumDetails reports how a premium order's weight was split between the
// monthly subscription quota and the billable surplus.
type PremiumDetails struct {
	QuotaKg               decimal.Decimal `json:"quota_kg"`
	UsedKg                decimal.Decimal `json:"used_kg"`
	RemainingKg           decimal.Decimal `json:"remaining_kg"`
	CoveredKg             decimal.Decimal `json:"covered_kg"`
	SurplusKg             decimal.Decimal `json:"surplus_kg"`
	Covered               bool            `json:"covered"`
	SurplusDetailRequired bool            `json:"surplus_detail_required"`
	SurplusReason         string          `json:"surplus_reason,omitempty"`
}

// PriceBreakdown is the authoritative pricing result persisted with an order.
// Invariants: Subtotal = BasePrice + OptionsPrice and
// FinalPrice = Subtotal - DiscountAmount; all amounts are non-negative.
type PriceBreakdown struct {
	BasePrice         int64              `json:"base_price"`
	OptionsPrice      int64              `json:"options_price"`
	Subtotal          int64              `json:"subtotal"`
	DiscountAmount    int64              `json:"discount_amount"`
	FinalPrice        int64              `json:"final_price"`
	MachineAllocation *MachineAllocation `json:"machine_allocation,omitempty"`
	Premium           *PremiumDetails    `json:"premium,omitempty"`
}

// Order is the persisted order record. The order lifecycle (payments,
// delivery assignment) is owned by sibling services; this service prices the
// order at creation and accrues loyalty when the status reaches delivered.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	ClientID       uuid.UUID       `json:"client_id"`
	ClientTier     ClientTier      `json:"client_tier"`
	Formula        Formula         `json:"formula"`
	WeightKg       decimal.Decimal `json:"weight_kg"`
	Options        OrderOptions    `json:"options"`
	DiscountKind   DiscountKind    `json:"discount_kind,omitempty"`
	Status         OrderStatus     `json:"status"`
	Breakdown      PriceBreakdown  `json:"breakdown"`
	CoveredKg      decimal.Decimal `json:"covered_kg"`
	LoyaltyAccrued bool            `json:"loyalty_accrued"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// QuoteRequest is the DTO for price preview requests. Client apps call this
// instead of carrying their own copy of the pricing rules.
type QuoteRequest struct {
	ClientID     *uuid.UUID      `json:"client_id,omitempty"`
	ClientTier   ClientTier      `json:"client_tier"`
	Formula      Formula         `json:"formula"`
	WeightKg     decimal.Decimal `json:"weight_kg"`
	Options      OrderOptions    `json:"options"`
	DiscountKind DiscountKind    `json:"discount_kind,omitempty"`
}

// CreateOrderRequest is the DTO for incoming order creation API requests.
type CreateOrderRequest struct {
	ClientID     uuid.UUID       `json:"client_id"`
	ClientTier   ClientTier      `json:"client_tier"`
	Formula      Formula         `json:"formula"`
	WeightKg     decimal.Decimal `json:"weight_kg"`
	Options      OrderOptions    `json:"options"`
	DiscountKind DiscountKind    `json:"discount_kind,omitempty"`
}

// PremiumStatus is the DTO returned to premium clients previewing their
// remaining monthly quota before submitting an order.
type PremiumStatus struct {
	ClientID    uuid.UUID       `json:"client_id"`
	QuotaKg     decimal.Decimal `json:"quota_kg"`
	UsedKg      decimal.Decimal `json:"used_kg"`
	RemainingKg decimal.Decimal `json:"remaining_kg"`
}
