/**
 * @description
 * Event handlers for messages consumed from RabbitMQ. The logistics app
 * publishes order.status.delivered when a driver confirms a drop-off; this
 * service reacts by running the delivered transition and loyalty accrual.
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kandjiabdou/yessal-sub001/internal/store"
)

// DeliveredQueue is the durable queue bound for delivery confirmations.
const DeliveredQueue = "pricing-service.order-delivered"

// DeliveredRoutingKey is the routing key logistics publishes drop-offs under.
const DeliveredRoutingKey = "order.status.delivered"

// OrderDeliveredEvent is the payload published by the logistics service.
type OrderDeliveredEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	DriverID    string    `json:"driver_id,omitempty"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// DeliveryEventHandler processes delivery confirmations.
type DeliveryEventHandler struct {
	service Service
}

// NewDeliveryEventHandler creates a new DeliveryEventHandler.
func NewDeliveryEventHandler(service Service) *DeliveryEventHandler {
	return &DeliveryEventHandler{service: service}
}

// HandleOrderDelivered processes one order.status.delivered message. The
// return value drives ack/nack: malformed or unknown-order messages are
// acked to avoid requeue loops, transient database errors are nacked.
func (h *DeliveryEventHandler) HandleOrderDelivered(body []byte) bool {
	var event OrderDeliveredEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Error unmarshaling order.status.delivered event: %v", err)
		return true // Acknowledge malformed message.
	}

	if event.OrderID == uuid.Nil {
		log.Printf("order.status.delivered event missing order_id; acking")
		return true
	}

	log.Printf("Processing order.status.delivered event for order %s", event.OrderID)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, _, err := h.service.MarkDelivered(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyDelivered) {
			log.Printf("Order %s was already delivered; acking duplicate event", event.OrderID)
			return true
		}
		if errors.Is(err, store.ErrOrderNotFound) {
			log.Printf("CRITICAL: delivered event for unknown order %s. Acknowledging to avoid requeue loop.", event.OrderID)
			return true
		}
		log.Printf("ERROR: failed to process delivery for order %s: %v", event.OrderID, err)
		return false // Retryable database error.
	}

	log.Printf("Successfully accrued loyalty for delivered order %s", event.OrderID)
	return true
}
