package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/payper/pkg/event"
	"github.com/google/uuid"
)

// EventPublisher turns committed changes into lifecycle and kitchen ticket
// events. Publish failures are logged, the write they describe already stands.
type EventPublisher struct {
	publisher events.Publisher
	origin    string
	logger    apt.Logger
}

func NewEventPublisher(publisher events.Publisher, origin string, logger apt.Logger) *EventPublisher {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &EventPublisher{publisher: publisher, origin: origin, logger: logger}
}

func (p *EventPublisher) Origin() string {
	return p.origin
}

func (p *EventPublisher) Notify(ctx context.Context, change Change) {
	if p.publisher == nil || change.After == nil {
		return
	}

	p.publish(ctx, event.OrderLifecycleTopic, p.lifecycleEvent(change))

	if change.KOTID == "" {
		return
	}
	switch change.Type {
	case event.EventOrderKOTIssued:
		p.publish(ctx, event.KitchenTicketsTopic, ticketIssued(change))
	case event.EventOrderItemStatusChanged:
		p.publish(ctx, event.KitchenTicketsTopic, ticketProgressed(change))
	}
}

func (p *EventPublisher) lifecycleEvent(change Change) event.OrderEvent {
	o := change.After
	evt := event.OrderEvent{
		EventType:  change.Type,
		OccurredAt: time.Now().UTC(),
		Origin:     p.origin,
		OrderID:    o.ID.String(),
		OrderType:  o.OrderType,
		Status:     o.Status,
		Version:    o.Version,
		Total:      o.Total.StringFixed(2),
	}
	if o.TableID != uuid.Nil {
		evt.TableID = o.TableID.String()
	}
	if change.Before != nil && change.Before.Status != o.Status {
		evt.PreviousStatus = change.Before.Status
	}
	if doc, err := json.Marshal(o); err == nil {
		evt.Order = doc
	} else {
		p.logger.Error("cannot marshal order snapshot", "order_id", evt.OrderID, "error", err)
	}
	return evt
}

func ticketIssued(change Change) event.KitchenTicketEvent {
	evt := ticketEvent(change, event.EventKitchenTicketIssued)
	byItem := map[uuid.UUID]int{}
	for _, row := range change.After.Items {
		if row.KOTID != change.KOTID {
			continue
		}
		idx, ok := byItem[row.MenuItem.ID]
		if !ok {
			byItem[row.MenuItem.ID] = len(evt.Lines)
			evt.Lines = append(evt.Lines, event.KitchenTicketLine{
				MenuItemID:   row.MenuItem.ID.String(),
				MenuItemName: row.MenuItem.Name,
				Quantity:     row.Quantity,
				Notes:        row.Notes,
			})
			continue
		}
		evt.Lines[idx].Quantity += row.Quantity
	}
	return evt
}

func ticketProgressed(change Change) event.KitchenTicketEvent {
	evt := ticketEvent(change, event.EventKitchenTicketItemStatus)
	evt.ItemStatus = ticketStatus(change.After, change.KOTID)
	if change.Before != nil {
		evt.PreviousStatus = ticketStatus(change.Before, change.KOTID)
	}
	return evt
}

func ticketEvent(change Change, eventType string) event.KitchenTicketEvent {
	o := change.After
	evt := event.KitchenTicketEvent{
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		OrderID:    o.ID.String(),
		KOTID:      change.KOTID,
		OrderType:  o.OrderType,
		Platform:   o.OnlinePlatform,
	}
	if o.TableID != uuid.Nil {
		evt.TableID = o.TableID.String()
	}
	return evt
}

func ticketStatus(o *Order, kotID string) string {
	for _, row := range o.Items {
		if row.KOTID == kotID && row.IsPrinted() {
			return row.ItemStatus
		}
	}
	return ""
}

func (p *EventPublisher) publish(ctx context.Context, topic string, evt any) {
	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("cannot marshal event", "topic", topic, "error", err)
		return
	}
	if err := p.publisher.Publish(ctx, topic, payload); err != nil {
		p.logger.Error("cannot publish event", "topic", topic, "error", err)
		return
	}
	p.logger.Debug("event published", "topic", topic)
}
