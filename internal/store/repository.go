/**
 * @description
 * This file implements the data access layer for the pricing service.
 * It contains all the SQL queries and logic for interacting with the
 * orders and loyalty_records tables.
 *
 * Loyalty accrual is a read-modify-write on a per-client row; the delivery
 * transition methods serialize it with SELECT ... FOR UPDATE inside a single
 * transaction, so concurrent deliveries for the same client cannot race.
 */
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kandjiabdou/yessal-sub001/internal/domain"
)

var (
	// ErrOrderNotFound is returned when an order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyDelivered is returned when a delivery transition is requested
	// for an order that already reached the delivered status.
	ErrAlreadyDelivered = errors.New("order already delivered")
	// ErrAlreadyAccrued is returned when an accrual is requested for an order
	// whose loyalty was already counted.
	ErrAlreadyAccrued = errors.New("order loyalty already accrued")
)

// AccrualFunc computes the updated loyalty record for a delivered order. It
// runs inside the delivery transaction while both rows are locked.
type AccrualFunc func(order domain.Order, rec domain.LoyaltyRecord) domain.LoyaltyRecord

// Repository handles database operations for orders and loyalty records.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const orderColumns = `
        id, client_id, client_tier, formula, weight_kg,
        opt_delivery, opt_drying, opt_ironing, opt_express,
        discount_kind, status,
        base_price, options_price, subtotal, discount_amount, final_price,
        machines_20kg, machines_6kg, covered_kg, loyalty_accrued,
        created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o            domain.Order
		discountKind *string
		machines20   *int
		machines6    *int
	)
	err := row.Scan(
		&o.ID,
		&o.ClientID,
		&o.ClientTier,
		&o.Formula,
		&o.WeightKg,
		&o.Options.Delivery,
		&o.Options.Drying,
		&o.Options.Ironing,
		&o.Options.Express,
		&discountKind,
		&o.Status,
		&o.Breakdown.BasePrice,
		&o.Breakdown.OptionsPrice,
		&o.Breakdown.Subtotal,
		&o.Breakdown.DiscountAmount,
		&o.Breakdown.FinalPrice,
		&machines20,
		&machines6,
		&o.CoveredKg,
		&o.LoyaltyAccrued,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if discountKind != nil {
		o.DiscountKind = domain.DiscountKind(*discountKind)
	}
	if machines20 != nil && machines6 != nil {
		o.Breakdown.MachineAllocation = &domain.MachineAllocation{
			Machines20kg: *machines20,
			Machines6kg:  *machines6,
		}
	}
	return &o, nil
}

// CreateOrder inserts a priced order and returns the stored row.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var (
		discountKind *string
		machines20   *int
		machines6    *int
	)
	if order.DiscountKind != domain.DiscountNone {
		kind := string(order.DiscountKind)
		discountKind = &kind
	}
	if alloc := order.Breakdown.MachineAllocation; alloc != nil {
		machines20 = &alloc.Machines20kg
		machines6 = &alloc.Machines6kg
	}

	query := `
        INSERT INTO orders (
            client_id, client_tier, formula, weight_kg,
            opt_delivery, opt_drying, opt_ironing, opt_express,
            discount_kind, status,
            base_price, options_price, subtotal, discount_amount, final_price,
            machines_20kg, machines_6kg, covered_kg
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        RETURNING` + orderColumns
	row := r.db.QueryRow(ctx, query,
		order.ClientID,
		order.ClientTier,
		order.Formula,
		order.WeightKg,
		order.Options.Delivery,
		order.Options.Drying,
		order.Options.Ironing,
		order.Options.Express,
		discountKind,
		domain.StatusPending,
		order.Breakdown.BasePrice,
		order.Breakdown.OptionsPrice,
		order.Breakdown.Subtotal,
		order.Breakdown.DiscountAmount,
		order.Breakdown.FinalPrice,
		machines20,
		machines6,
		order.CoveredKg,
	)

	created, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	created.Breakdown.Premium = order.Breakdown.Premium
	return created, nil
}

// GetOrderByID retrieves a single order.
func (r *Repository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// GetMonthlyPremiumUsageKg returns the kilograms already billed against the
// client's premium quota in the current calendar month.
func (r *Repository) GetMonthlyPremiumUsageKg(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error) {
	var usage decimal.Decimal
	query := `
        SELECT COALESCE(SUM(covered_kg), 0)
        FROM orders
        WHERE client_id = $1
          AND client_tier = 'premium'
          AND status <> 'cancelled'
          AND created_at >= DATE_TRUNC('month', NOW())
    `
	if err := r.db.QueryRow(ctx, query, clientID).Scan(&usage); err != nil {
		return decimal.Zero, err
	}
	return usage, nil
}

// GetLoyaltyRecord retrieves a client's loyalty counters, creating the
// zeroed row on first access.
func (r *Repository) GetLoyaltyRecord(ctx context.Context, clientID uuid.UUID) (*domain.LoyaltyRecord, error) {
	query := `
        INSERT INTO loyalty_records (client_id)
        VALUES ($1)
        ON CONFLICT (client_id) DO UPDATE SET client_id = EXCLUDED.client_id
        RETURNING client_id, total_washes, total_weight_kg,
                  free_wash_credits_6kg, free_wash_credits_20kg, updated_at
    `
	var rec domain.LoyaltyRecord
	err := r.db.QueryRow(ctx, query, clientID).Scan(
		&rec.ClientID,
		&rec.TotalWashes,
		&rec.TotalWeightKg,
		&rec.FreeWashCredits6kg,
		&rec.FreeWashCredits20kg,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkDelivered transitions an order to delivered and applies the loyalty
// accrual atomically. Returns ErrAlreadyDelivered if the order already
// reached the terminal status, so the transition fires at most once.
func (r *Repository) MarkDelivered(ctx context.Context, orderID uuid.UUID, accrue AccrualFunc) (*domain.Order, *domain.LoyaltyRecord, error) {
	return r.deliverTx(ctx, orderID, false, accrue)
}

// AccrueDelivered applies loyalty accrual to an order that is already
// delivered but was never accrued (for example when the delivered status was
// written by the operator app directly). Returns ErrAlreadyAccrued when
// nothing is left to do.
func (r *Repository) AccrueDelivered(ctx context.Context, orderID uuid.UUID, accrue AccrualFunc) (*domain.Order, *domain.LoyaltyRecord, error) {
	return r.deliverTx(ctx, orderID, true, accrue)
}

func (r *Repository) deliverTx(ctx context.Context, orderID uuid.UUID, requireDelivered bool, accrue AccrualFunc) (*domain.Order, *domain.LoyaltyRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin delivery transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	order, err := scanOrder(tx.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}

	if requireDelivered {
		if order.Status != domain.StatusDelivered {
			return nil, nil, fmt.Errorf("order %s is not delivered (status %s)", orderID, order.Status)
		}
		if order.LoyaltyAccrued {
			return nil, nil, ErrAlreadyAccrued
		}
	} else if order.Status == domain.StatusDelivered {
		return nil, nil, ErrAlreadyDelivered
	}

	// Ensure the loyalty row exists, then lock it for the read-modify-write.
	if _, err := tx.Exec(ctx,
		`INSERT INTO loyalty_records (client_id) VALUES ($1) ON CONFLICT (client_id) DO NOTHING`,
		order.ClientID,
	); err != nil {
		return nil, nil, err
	}

	var rec domain.LoyaltyRecord
	err = tx.QueryRow(ctx, `
        SELECT client_id, total_washes, total_weight_kg,
               free_wash_credits_6kg, free_wash_credits_20kg, updated_at
        FROM loyalty_records
        WHERE client_id = $1
        FOR UPDATE
    `, order.ClientID).Scan(
		&rec.ClientID,
		&rec.TotalWashes,
		&rec.TotalWeightKg,
		&rec.FreeWashCredits6kg,
		&rec.FreeWashCredits20kg,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, nil, err
	}

	updated := accrue(*order, rec)

	if _, err := tx.Exec(ctx, `
        UPDATE orders
        SET status = $2, loyalty_accrued = TRUE, updated_at = NOW()
        WHERE id = $1
    `, orderID, domain.StatusDelivered); err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(ctx, `
        UPDATE loyalty_records
        SET total_washes = $2,
            total_weight_kg = $3,
            free_wash_credits_6kg = $4,
            free_wash_credits_20kg = $5,
            updated_at = NOW()
        WHERE client_id = $1
    `, updated.ClientID,
		updated.TotalWashes,
		updated.TotalWeightKg,
		updated.FreeWashCredits6kg,
		updated.FreeWashCredits20kg,
	); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit delivery transaction: %w", err)
	}

	order.Status = domain.StatusDelivered
	order.LoyaltyAccrued = true
	return order, &updated, nil
}

// ListUnaccruedDeliveredOrderIDs returns orders that reached delivered
// without going through this service's transition, oldest first.
func (r *Repository) ListUnaccruedDeliveredOrderIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id
        FROM orders
        WHERE status = 'delivered' AND loyalty_accrued = FALSE
        ORDER BY updated_at ASC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
