package kitchen

import (
	"context"
	"errors"
	"sync"

	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/google/uuid"
)

// MockLister serves a mutable order set to an order.Hub.
type MockLister struct {
	mu     sync.Mutex
	orders []*order.Order
}

func (m *MockLister) Set(orders ...*order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = orders
}

func (m *MockLister) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*order.Order
	for _, o := range m.orders {
		if f.Matches(o) {
			result = append(result, o.Clone())
		}
	}
	return result, nil
}

type MockTableNames map[uuid.UUID]string

func (m MockTableNames) TableNames(ctx context.Context) (map[uuid.UUID]string, error) {
	return m, nil
}

// MockOrders records kitchen driven transitions.
type MockOrders struct {
	orders   map[uuid.UUID]*order.Order
	Advanced []string
}

func NewMockOrders(orders ...*order.Order) *MockOrders {
	m := &MockOrders{orders: make(map[uuid.UUID]*order.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *MockOrders) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, &order.NotFoundError{Resource: "order", ID: id.String()}
	}
	return o, nil
}

func (m *MockOrders) AdvanceItemStatus(ctx context.Context, id uuid.UUID, kotID, target string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, errors.New("unexpected order")
	}
	for i := range o.Items {
		if o.Items[i].KOTID == kotID {
			o.Items[i].ItemStatus = target
		}
	}
	m.Advanced = append(m.Advanced, kotID+":"+target)
	return o, nil
}
