package report

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/payper/services/pos/internal/order"
)

type MockOrders struct {
	mu      sync.Mutex
	Orders  []*order.Order
	Err     error
	Queries []order.Filter
}

func (m *MockOrders) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, f)
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*order.Order
	for _, o := range m.Orders {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

type MockJournal struct {
	mu        sync.Mutex
	Sales     map[string]Sale
	RecordErr error
	Days      []DailyTotal
	DaysErr   error
}

func NewMockJournal() *MockJournal {
	return &MockJournal{Sales: make(map[string]Sale)}
}

func (m *MockJournal) Record(ctx context.Context, sale Sale) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return false, m.RecordErr
	}
	if _, ok := m.Sales[sale.OrderID]; ok {
		return false, nil
	}
	m.Sales[sale.OrderID] = sale
	return true, nil
}

func (m *MockJournal) DailyTotals(ctx context.Context, from, to time.Time) ([]DailyTotal, error) {
	if m.DaysErr != nil {
		return nil, m.DaysErr
	}
	return m.Days, nil
}

type MockSubscriber struct {
	topic   string
	handler events.HandlerFunc
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	m.topic = topic
	m.handler = handler
	return nil
}

func (m *MockSubscriber) Deliver(ctx context.Context, v interface{}) error {
	if m.handler == nil {
		return errors.New("not subscribed")
	}
	var data []byte
	if raw, ok := v.([]byte); ok {
		data = raw
	} else {
		data, _ = json.Marshal(v)
	}
	return m.handler(ctx, data)
}
