package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/payper/pkg/event"
)

// ChangeSubscriber keeps local live queries current with writes committed by
// other instances sharing the same store.
type ChangeSubscriber struct {
	subscriber events.Subscriber
	hub        *Hub
	origin     string
	logger     apt.Logger
}

func NewChangeSubscriber(sub events.Subscriber, hub *Hub, origin string, logger apt.Logger) *ChangeSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &ChangeSubscriber{
		subscriber: sub,
		hub:        hub,
		origin:     origin,
		logger:     logger,
	}
}

func (s *ChangeSubscriber) Start(ctx context.Context) error {
	s.log().Info("starting order change subscriber", "topic", event.OrderLifecycleTopic)
	if s.subscriber == nil {
		return fmt.Errorf("order change subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.OrderLifecycleTopic, s.handleEvent)
}

func (s *ChangeSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.log().Info("invalid order event", "error", err)
		return nil
	}
	if evt.Origin == s.origin {
		return nil
	}

	s.log().Debug("remote order change", "order_id", evt.OrderID, "event_type", evt.EventType, "origin", evt.Origin)
	s.hub.RefreshAll(ctx)
	return nil
}

func (s *ChangeSubscriber) log() apt.Logger {
	return s.logger.With("component", "ChangeSubscriber")
}
