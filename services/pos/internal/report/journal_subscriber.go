package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/payper/pkg/event"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/shopspring/decimal"
)

// JournalSubscriber copies settled orders from the durable lifecycle stream
// into the sales journal. Store failures are returned so the stream redelivers.
type JournalSubscriber struct {
	subscriber events.Subscriber
	journal    Journal
	logger     apt.Logger
}

func NewJournalSubscriber(sub events.Subscriber, journal Journal, logger apt.Logger) *JournalSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &JournalSubscriber{
		subscriber: sub,
		journal:    journal,
		logger:     logger,
	}
}

func (s *JournalSubscriber) Start(ctx context.Context) error {
	s.log().Info("starting sales journal subscriber", "topic", event.OrderLifecycleTopic)
	if s.subscriber == nil || s.journal == nil {
		return fmt.Errorf("sales journal subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.OrderLifecycleTopic, s.handleEvent)
}

func (s *JournalSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.log().Info("invalid order event", "error", err)
		return nil
	}
	if !evt.Settled() {
		return nil
	}

	sale, err := saleFrom(evt)
	if err != nil {
		s.log().Info("cannot read settled order", "order_id", evt.OrderID, "error", err)
		return nil
	}

	created, err := s.journal.Record(ctx, sale)
	if err != nil {
		return fmt.Errorf("cannot record sale %s: %w", sale.OrderID, err)
	}
	if created {
		s.log().Info("sale recorded", "order_id", sale.OrderID, "total", sale.Total.StringFixed(2))
	}
	return nil
}

func saleFrom(evt event.OrderEvent) (Sale, error) {
	sale := Sale{
		OrderID:   evt.OrderID,
		OrderType: evt.OrderType,
		TableID:   evt.TableID,
		Status:    evt.Status,
		Subtotal:  decimal.Zero,
		Discount:  decimal.Zero,
		SettledAt: evt.OccurredAt,
	}

	total, err := decimal.NewFromString(evt.Total)
	if err != nil {
		return Sale{}, fmt.Errorf("invalid total %q: %w", evt.Total, err)
	}
	sale.Total = total

	if len(evt.Order) == 0 {
		sale.Subtotal = total
		return sale, nil
	}

	var o order.Order
	if err := json.Unmarshal(evt.Order, &o); err != nil {
		return Sale{}, fmt.Errorf("invalid order document: %w", err)
	}
	sale.OnlinePlatform = o.OnlinePlatform
	sale.Subtotal = o.Subtotal()
	sale.Discount = o.DiscountValue()
	for _, item := range o.Items {
		sale.ItemCount += item.Quantity
	}
	if o.PaymentMethod != nil {
		sale.PaymentMethod = *o.PaymentMethod
	}
	return sale, nil
}

func (s *JournalSubscriber) log() apt.Logger {
	return s.logger.With("component", "JournalSubscriber")
}
