package session

import (
	"context"
	"sync"

	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/appetiteclub/payper/services/pos/internal/settings"
	"github.com/google/uuid"
)

type mockTables map[uuid.UUID]string

func (m mockTables) Table(ctx context.Context, id uuid.UUID) (*order.TableRef, error) {
	name, ok := m[id]
	if !ok {
		return nil, nil
	}
	return &order.TableRef{ID: id, Name: name}, nil
}

type mockSettings struct {
	current *settings.Settings
}

func (m mockSettings) Current(ctx context.Context) (*settings.Settings, error) {
	return m.current.Clone(), nil
}

// MockOrders keeps just enough order state for the customer flow.
type MockOrders struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*order.Order
	Adds     int
	Payments []string
}

func NewMockOrders() *MockOrders {
	return &MockOrders{orders: make(map[uuid.UUID]*order.Order)}
}

func (m *MockOrders) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, &order.NotFoundError{Resource: "order", ID: id.String()}
	}
	return o.Clone(), nil
}

func (m *MockOrders) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for _, o := range m.orders {
		if f.Matches(o) {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

func (m *MockOrders) PlaceDineIn(ctx context.Context, req order.DineInRequest) (*order.Order, error) {
	if len(req.Items) == 0 {
		return nil, &order.ValidationError{Field: "items", Reason: "cart is empty"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TableID == req.TableID && o.IsActive() {
			return nil, &order.StateConflictError{Op: "place order", Reason: "table already has an active order"}
		}
	}
	o := order.NewOrder(order.TypeDineIn)
	o.TableID = req.TableID
	o.UserID = req.UserID
	o.SessionID = req.SessionID
	for _, ci := range req.Items {
		o.Items = append(o.Items, order.OrderItem{ID: uuid.New(), MenuItem: order.MenuItem{ID: ci.MenuItemID}, Quantity: ci.Quantity})
	}
	m.orders[o.ID] = o
	return o.Clone(), nil
}

func (m *MockOrders) AddItems(ctx context.Context, id uuid.UUID, items []order.CartItem, key string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, &order.NotFoundError{Resource: "order", ID: id.String()}
	}
	for _, ci := range items {
		o.Items = append(o.Items, order.OrderItem{ID: uuid.New(), MenuItem: order.MenuItem{ID: ci.MenuItemID}, Quantity: ci.Quantity})
	}
	m.Adds++
	return o.Clone(), nil
}

func (m *MockOrders) SetPaymentMethod(ctx context.Context, id uuid.UUID, method *string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, &order.NotFoundError{Resource: "order", ID: id.String()}
	}
	o.PaymentMethod = method
	if method != nil {
		m.Payments = append(m.Payments, *method)
	}
	return o.Clone(), nil
}

func (m *MockOrders) PendingRedirect(ctx context.Context, tableID uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.IsActive() && o.SwitchedFrom != nil && *o.SwitchedFrom == tableID {
			return o.Clone(), nil
		}
	}
	return nil, nil
}

func (m *MockOrders) ClearSwitchedFrom(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, &order.NotFoundError{Resource: "order", ID: id.String()}
	}
	o.SwitchedFrom = nil
	return o.Clone(), nil
}

// Switch moves an order the way staff do from the floor plan.
func (m *MockOrders) Switch(id, to uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	from := o.TableID
	o.TableID = to
	o.SwitchedFrom = &from
}

func (m *MockOrders) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}
