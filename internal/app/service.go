/**
 * @description
 * This file contains the core business logic for the pricing service.
 * The Service layer orchestrates the pure pricing engine and loyalty rules
 * with the repository and the event publisher.
 */
package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kandjiabdou/yessal-sub001/internal/domain"
	"github.com/kandjiabdou/yessal-sub001/internal/loyalty"
	"github.com/kandjiabdou/yessal-sub001/internal/pricing"
	"github.com/kandjiabdou/yessal-sub001/internal/store"
)

// Repository defines the interface for database operations that the service needs.
type Repository interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	GetMonthlyPremiumUsageKg(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error)
	GetLoyaltyRecord(ctx context.Context, clientID uuid.UUID) (*domain.LoyaltyRecord, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID, accrue store.AccrualFunc) (*domain.Order, *domain.LoyaltyRecord, error)
	AccrueDelivered(ctx context.Context, orderID uuid.UUID, accrue store.AccrualFunc) (*domain.Order, *domain.LoyaltyRecord, error)
	ListUnaccruedDeliveredOrderIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// EventsExchange is the topic exchange this service publishes to.
const EventsExchange = "yessal.events"

// Service provides the business logic for order pricing and loyalty.
type Service struct {
	repo      Repository
	engine    *pricing.Engine
	rules     loyalty.Rules
	publisher EventPublisher
}

// NewService creates a new pricing service.
func NewService(repo Repository, engine *pricing.Engine, rules loyalty.Rules, publisher EventPublisher) Service {
	return Service{repo: repo, engine: engine, rules: rules, publisher: publisher}
}

// Quote prices a prospective order without persisting anything. This is the
// preview endpoint client apps use instead of re-implementing the rules.
func (s Service) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.PriceBreakdown, error) {
	usage := decimal.Zero
	if req.ClientTier == domain.TierPremium && req.ClientID != nil {
		var err error
		usage, err = s.repo.GetMonthlyPremiumUsageKg(ctx, *req.ClientID)
		if err != nil {
			log.Printf("Failed to resolve monthly usage for client %s: %v", req.ClientID, err)
			return nil, err
		}
	}

	return s.engine.ComputePrice(pricing.Input{
		Formula:        req.Formula,
		WeightKg:       req.WeightKg,
		Options:        req.Options,
		ClientTier:     req.ClientTier,
		MonthlyUsageKg: usage,
		DiscountKind:   req.DiscountKind,
	})
}

// CreateOrder prices the order against the client's current monthly usage
// and persists it with the computed breakdown as the source of truth.
func (s Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if req.ClientID == uuid.Nil {
		return nil, errors.New("client ID cannot be empty")
	}

	usage := decimal.Zero
	if req.ClientTier == domain.TierPremium {
		var err error
		usage, err = s.repo.GetMonthlyPremiumUsageKg(ctx, req.ClientID)
		if err != nil {
			log.Printf("Failed to resolve monthly usage for client %s: %v", req.ClientID, err)
			return nil, err
		}
	}

	breakdown, err := s.engine.ComputePrice(pricing.Input{
		Formula:        req.Formula,
		WeightKg:       req.WeightKg,
		Options:        req.Options,
		ClientTier:     req.ClientTier,
		MonthlyUsageKg: usage,
		DiscountKind:   req.DiscountKind,
	})
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ClientID:     req.ClientID,
		ClientTier:   req.ClientTier,
		Formula:      req.Formula,
		WeightKg:     req.WeightKg,
		Options:      req.Options,
		DiscountKind: req.DiscountKind,
		Status:       domain.StatusPending,
		Breakdown:    *breakdown,
	}
	if breakdown.Premium != nil {
		order.CoveredKg = breakdown.Premium.CoveredKg
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	s.publishOrderEvent(ctx, "order.priced", created)
	return created, nil
}

// GetOrder retrieves an order with its stored breakdown.
func (s Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, orderID)
}

// GetLoyalty retrieves a client's loyalty counters.
func (s Service) GetLoyalty(ctx context.Context, clientID uuid.UUID) (*domain.LoyaltyRecord, error) {
	return s.repo.GetLoyaltyRecord(ctx, clientID)
}

// GetPremiumStatus reports the client's remaining monthly premium quota.
func (s Service) GetPremiumStatus(ctx context.Context, clientID uuid.UUID) (*domain.PremiumStatus, error) {
	usage, err := s.repo.GetMonthlyPremiumUsageKg(ctx, clientID)
	if err != nil {
		return nil, err
	}

	quota := s.engine.Tariff().PremiumMonthlyQuotaKg
	remaining := quota.Sub(usage)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return &domain.PremiumStatus{
		ClientID:    clientID,
		QuotaKg:     quota,
		UsedKg:      usage,
		RemainingKg: remaining,
	}, nil
}

// MarkDelivered performs the terminal order transition: the order becomes
// delivered and the client's loyalty counters are accrued in the same
// transaction. Duplicate transitions surface store.ErrAlreadyDelivered.
func (s Service) MarkDelivered(ctx context.Context, orderID uuid.UUID) (*domain.Order, *domain.LoyaltyRecord, error) {
	order, rec, creditsEarned, err := s.deliver(ctx, orderID, s.repo.MarkDelivered)
	if err != nil {
		return nil, nil, err
	}

	s.publishOrderEvent(ctx, "order.delivered", order)
	if creditsEarned > 0 {
		s.publishLoyaltyEvent(ctx, order, rec, creditsEarned)
	}
	return order, rec, nil
}

// ReconcileAccruals sweeps orders that reached delivered without going
// through MarkDelivered (operator app writing statuses directly, consumer
// downtime) and accrues their loyalty. Returns the number of orders accrued.
func (s Service) ReconcileAccruals(ctx context.Context, limit int) (int, error) {
	ids, err := s.repo.ListUnaccruedDeliveredOrderIDs(ctx, limit)
	if err != nil {
		return 0, err
	}

	accrued := 0
	for _, id := range ids {
		order, rec, creditsEarned, err := s.deliver(ctx, id, s.repo.AccrueDelivered)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyAccrued) {
				continue
			}
			log.Printf("WARN: failed to accrue loyalty for delivered order %s: %v", id, err)
			continue
		}
		accrued++
		if creditsEarned > 0 {
			s.publishLoyaltyEvent(ctx, order, rec, creditsEarned)
		}
	}
	return accrued, nil
}

type deliverFunc func(ctx context.Context, orderID uuid.UUID, accrue store.AccrualFunc) (*domain.Order, *domain.LoyaltyRecord, error)

func (s Service) deliver(ctx context.Context, orderID uuid.UUID, transition deliverFunc) (*domain.Order, *domain.LoyaltyRecord, int64, error) {
	var creditsEarned int64
	order, rec, err := transition(ctx, orderID, func(order domain.Order, rec domain.LoyaltyRecord) domain.LoyaltyRecord {
		updated := s.rules.Accrue(rec, order.Formula, order.WeightKg)
		creditsEarned = (updated.FreeWashCredits6kg + updated.FreeWashCredits20kg) -
			(rec.FreeWashCredits6kg + rec.FreeWashCredits20kg)
		return updated
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return order, rec, creditsEarned, nil
}

type orderEvent struct {
	OrderID    uuid.UUID          `json:"order_id"`
	ClientID   uuid.UUID          `json:"client_id"`
	ClientTier domain.ClientTier  `json:"client_tier"`
	Formula    domain.Formula     `json:"formula"`
	WeightKg   decimal.Decimal    `json:"weight_kg"`
	FinalPrice int64              `json:"final_price"`
	Status     domain.OrderStatus `json:"status"`
	Timestamp  time.Time          `json:"timestamp"`
}

type loyaltyEvent struct {
	ClientID            uuid.UUID       `json:"client_id"`
	OrderID             uuid.UUID       `json:"order_id"`
	CreditsEarned       int64           `json:"credits_earned"`
	TotalWashes         int64           `json:"total_washes"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg"`
	FreeWashCredits6kg  int64           `json:"free_wash_credits_6kg"`
	FreeWashCredits20kg int64           `json:"free_wash_credits_20kg"`
	Timestamp           time.Time       `json:"timestamp"`
}

func (s Service) publishOrderEvent(ctx context.Context, routingKey string, order *domain.Order) {
	if s.publisher == nil {
		return
	}

	payload := orderEvent{
		OrderID:    order.ID,
		ClientID:   order.ClientID,
		ClientTier: order.ClientTier,
		Formula:    order.Formula,
		WeightKg:   order.WeightKg,
		FinalPrice: order.Breakdown.FinalPrice,
		Status:     order.Status,
		Timestamp:  time.Now(),
	}
	if err := s.publisher.Publish(ctx, EventsExchange, routingKey, payload); err != nil {
		log.Printf("WARN: failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}

func (s Service) publishLoyaltyEvent(ctx context.Context, order *domain.Order, rec *domain.LoyaltyRecord, creditsEarned int64) {
	if s.publisher == nil {
		return
	}

	payload := loyaltyEvent{
		ClientID:            rec.ClientID,
		OrderID:             order.ID,
		CreditsEarned:       creditsEarned,
		TotalWashes:         rec.TotalWashes,
		TotalWeightKg:       rec.TotalWeightKg,
		FreeWashCredits6kg:  rec.FreeWashCredits6kg,
		FreeWashCredits20kg: rec.FreeWashCredits20kg,
		Timestamp:           time.Now(),
	}
	if err := s.publisher.Publish(ctx, EventsExchange, "loyalty.credited", payload); err != nil {
		log.Printf("WARN: failed to publish loyalty.credited event for client %s: %v", rec.ClientID, err)
	}
}
