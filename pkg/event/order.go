package event

import (
	"encoding/json"
	"time"
)

const (
	// OrderLifecycleTopic carries every committed order change.
	OrderLifecycleTopic = "orders.lifecycle"

	EventOrderPlaced            = "order.placed"
	EventOrderItemsChanged      = "order.items.changed"
	EventOrderKOTIssued         = "order.kot.issued"
	EventOrderItemStatusChanged = "order.item.status_changed"
	EventOrderStatusChanged     = "order.status_changed"
	EventOrderTableSwitched     = "order.table.switched"
	EventOrderDiscountApplied   = "order.discount.applied"
	EventOrderPaymentIntent     = "order.payment.intent"
	EventOrderBilled            = "order.billed"
	EventOrderPaid              = "order.paid"
	EventOrderCancelled         = "order.cancelled"
	EventOrderUpdated           = "order.updated"
)

// OrderEvent is published after a successful order write. Order holds the
// committed document so consumers never need to read back from the store.
type OrderEvent struct {
	EventType      string          `json:"event_type"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Origin         string          `json:"origin"`
	OrderID        string          `json:"order_id"`
	OrderType      string          `json:"order_type"`
	TableID        string          `json:"table_id,omitempty"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	Version        int64           `json:"version"`
	Total          string          `json:"total"`
	Order          json.RawMessage `json:"order,omitempty"`
}

// Settled reports whether the event leaves the order in a revenue state.
func (e OrderEvent) Settled() bool {
	return e.Status == "paid" || e.Status == "delivered"
}
