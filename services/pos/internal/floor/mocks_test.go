package floor

import (
	"context"

	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/appetiteclub/payper/services/pos/internal/tables"
)

type MockOrders struct {
	Orders []*order.Order
	Err    error
}

func (m *MockOrders) ActiveOrders(ctx context.Context) ([]*order.Order, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var active []*order.Order
	for _, o := range m.Orders {
		if o.IsActive() {
			active = append(active, o)
		}
	}
	return active, nil
}

type MockTables []*tables.Table

func (m MockTables) List(ctx context.Context) ([]*tables.Table, error) {
	return m, nil
}
