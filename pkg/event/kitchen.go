package event

import "time"

const (
	KitchenTicketsTopic          = "kitchen.tickets"
	EventKitchenTicketIssued     = "kitchen.ticket.issued"
	EventKitchenTicketItemStatus = "kitchen.ticket.item_status"
)

// KitchenTicketLine is one dish on a printed ticket.
type KitchenTicketLine struct {
	MenuItemID   string `json:"menu_item_id"`
	MenuItemName string `json:"menu_item_name"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes,omitempty"`
}

// KitchenTicketEvent is emitted when a KOT is issued or its rows progress.
type KitchenTicketEvent struct {
	EventType      string              `json:"event_type"`
	OccurredAt     time.Time           `json:"occurred_at"`
	OrderID        string              `json:"order_id"`
	KOTID          string              `json:"kot_id"`
	OrderType      string              `json:"order_type"`
	TableID        string              `json:"table_id,omitempty"`
	Platform       string              `json:"platform,omitempty"`
	Lines          []KitchenTicketLine `json:"lines,omitempty"`
	ItemStatus     string              `json:"item_status,omitempty"`
	PreviousStatus string              `json:"previous_status,omitempty"`
}
