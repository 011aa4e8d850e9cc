/**
 * @description
 * This file defines the loyalty (fidelity) domain model: per-client counters
 * tracking cumulative washes, cumulative weight and banked free-wash rewards.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltyRecord holds a client's reward counters. One row per client, created
// with zeroed counters and mutated only when an order reaches delivered.
type LoyaltyRecord struct {
	ClientID            uuid.UUID       `json:"client_id"`
	TotalWashes         int64           `json:"total_washes"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg"`
	FreeWashCredits6kg  int64           `json:"free_wash_credits_6kg"`
	FreeWashCredits20kg int64           `json:"free_wash_credits_20kg"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
