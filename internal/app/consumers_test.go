package app

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kandjiabdou/yessal-sub001/internal/domain"
)

func TestHandleOrderDelivered_AcksMalformedMessage(t *testing.T) {
	repo := &repoStub{}
	handler := NewDeliveryEventHandler(newTestService(t, repo, &publisherStub{}))

	if !handler.HandleOrderDelivered([]byte("{not json")) {
		t.Fatal("malformed message must be acked to avoid a requeue loop")
	}
	if repo.deliverCalls != 0 {
		t.Fatal("malformed message must not reach the service")
	}
}

func TestHandleOrderDelivered_AcksMissingOrderID(t *testing.T) {
	handler := NewDeliveryEventHandler(newTestService(t, &repoStub{}, &publisherStub{}))

	body, _ := json.Marshal(OrderDeliveredEvent{})
	if !handler.HandleOrderDelivered(body) {
		t.Fatal("event without order_id must be acked")
	}
}

func TestHandleOrderDelivered_AcksUnknownOrder(t *testing.T) {
	handler := NewDeliveryEventHandler(newTestService(t, &repoStub{}, &publisherStub{}))

	body, _ := json.Marshal(OrderDeliveredEvent{OrderID: uuid.New()})
	if !handler.HandleOrderDelivered(body) {
		t.Fatal("unknown order must be acked to avoid a requeue loop")
	}
}

func TestHandleOrderDelivered_AcksDuplicateDelivery(t *testing.T) {
	orderID := uuid.New()
	repo := &repoStub{order: &domain.Order{ID: orderID, Status: domain.StatusDelivered}}
	handler := NewDeliveryEventHandler(newTestService(t, repo, &publisherStub{}))

	body, _ := json.Marshal(OrderDeliveredEvent{OrderID: orderID})
	if !handler.HandleOrderDelivered(body) {
		t.Fatal("duplicate delivery event must be acked")
	}
}

func TestHandleOrderDelivered_AccruesLoyalty(t *testing.T) {
	orderID := uuid.New()
	clientID := uuid.New()
	repo := &repoStub{
		order: &domain.Order{
			ID:       orderID,
			ClientID: clientID,
			Formula:  domain.FormulaBaseMachine,
			WeightKg: decimal.NewFromInt(20),
			Status:   domain.StatusInProgress,
		},
		loyalty: domain.LoyaltyRecord{ClientID: clientID},
	}
	handler := NewDeliveryEventHandler(newTestService(t, repo, &publisherStub{}))

	body, _ := json.Marshal(OrderDeliveredEvent{OrderID: orderID})
	if !handler.HandleOrderDelivered(body) {
		t.Fatal("valid delivery event must be acked")
	}
	if repo.order.Status != domain.StatusDelivered {
		t.Fatalf("order status: got %s, want delivered", repo.order.Status)
	}
	if repo.loyalty.TotalWashes != 1 {
		t.Fatalf("loyalty washes: got %d, want 1", repo.loyalty.TotalWashes)
	}
}
