package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	tableOne   = uuid.MustParse("550e8400-e29b-41d4-a716-446655440001")
	tableTwo   = uuid.MustParse("550e8400-e29b-41d4-a716-446655440002")
	tableThree = uuid.MustParse("550e8400-e29b-41d4-a716-446655440003")

	paneerID  = uuid.MustParse("550e8400-e29b-41d4-a716-446655440010")
	naanID    = uuid.MustParse("550e8400-e29b-41d4-a716-446655440011")
	lassiID   = uuid.MustParse("550e8400-e29b-41d4-a716-446655440012")
	soldOutID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440013")

	fixedNow = time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC)
)

func testMenu() map[uuid.UUID]*MenuItem {
	return map[uuid.UUID]*MenuItem{
		paneerID:  {ID: paneerID, Name: "Paneer Tikka", Price: decimal.NewFromInt(50), Category: "Starters", Available: true},
		naanID:    {ID: naanID, Name: "Butter Naan", Price: decimal.NewFromInt(30), Category: "Breads", Available: true},
		lassiID:   {ID: lassiID, Name: "Sweet Lassi", Price: decimal.NewFromInt(20), Category: "Drinks", Available: true},
		soldOutID: {ID: soldOutID, Name: "Kulfi", Price: decimal.NewFromInt(60), Category: "Desserts", Available: false},
	}
}

// MockPublisher records every published payload.
type MockPublisher struct {
	mu          sync.Mutex
	Messages    map[string][][]byte
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages[topic] = append(m.Messages[topic], msg)
	return nil
}

func (m *MockPublisher) Count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages[topic])
}

// MockSubscriber captures the handler registered for each topic.
type MockSubscriber struct {
	mu            sync.Mutex
	Handlers      map[string]events.HandlerFunc
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{Handlers: make(map[string]events.HandlerFunc)}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Handlers[topic] = handler
	return nil
}

// MockOrderRepo is an in-memory OrderRepo with the same version and table
// occupancy guarantees as the document store.
type MockOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order

	CreateFunc func(ctx context.Context, order *Order) error
	UpdateFunc func(ctx context.Context, order *Order, expectedVersion int64) error
	ListFunc   func(ctx context.Context, f Filter) ([]*Order, error)
	Updates    int
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{orders: make(map[uuid.UUID]*Order)}
}

func (m *MockOrderRepo) Create(ctx context.Context, order *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.occupiedLocked(order) {
		return ErrTableOccupied
	}
	m.orders[order.ID] = order.Clone()
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (m *MockOrderRepo) Update(ctx context.Context, order *Order, expectedVersion int64) error {
	if m.UpdateFunc != nil {
		if err := m.UpdateFunc(ctx, order, expectedVersion); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.orders[order.ID]
	if !ok || current.Version != expectedVersion {
		return ErrVersionMismatch
	}
	if m.occupiedLocked(order) {
		return ErrTableOccupied
	}
	m.orders[order.ID] = order.Clone()
	m.Updates++
	return nil
}

func (m *MockOrderRepo) List(ctx context.Context, f Filter) ([]*Order, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if f.Matches(o) {
			result = append(result, o.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp < result[j].Timestamp })
	return result, nil
}

func (m *MockOrderRepo) FindActiveByTable(ctx context.Context, tableID uuid.UUID) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.IsDineIn() && o.IsActive() && o.TableID == tableID {
			return o.Clone(), nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepo) FindSwitchedFrom(ctx context.Context, tableID uuid.UUID) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.IsActive() && o.SwitchedFrom != nil && *o.SwitchedFrom == tableID {
			return o.Clone(), nil
		}
	}
	return nil, nil
}

// Put stores o directly, bypassing all checks.
func (m *MockOrderRepo) Put(o *Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o.Clone()
}

func (m *MockOrderRepo) occupiedLocked(order *Order) bool {
	if order.OccupiedTable == nil {
		return false
	}
	for id, o := range m.orders {
		if id == order.ID || o.OccupiedTable == nil {
			continue
		}
		if *o.OccupiedTable == *order.OccupiedTable {
			return true
		}
	}
	return false
}

func mockCatalog() Catalog {
	menu := testMenu()
	return CatalogFunc(func(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
		item, ok := menu[id]
		if !ok {
			return nil, nil
		}
		c := *item
		return &c, nil
	})
}

func mockTables() TableLookup {
	tables := map[uuid.UUID]string{tableOne: "T1", tableTwo: "T2", tableThree: "T10"}
	return TableLookupFunc(func(ctx context.Context, id uuid.UUID) (*TableRef, error) {
		name, ok := tables[id]
		if !ok {
			return nil, nil
		}
		return &TableRef{ID: id, Name: name}, nil
	})
}

// recordingNotifier keeps every change it is told about.
type recordingNotifier struct {
	mu      sync.Mutex
	changes []Change
}

func (n *recordingNotifier) Notify(ctx context.Context, change Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var types []string
	for _, c := range n.changes {
		types = append(types, c.Type)
	}
	return types
}

type serviceFixture struct {
	service  *Service
	repo     *MockOrderRepo
	keys     *MemoryKeyStore
	notifier *recordingNotifier
}

func newServiceFixture(opts ...ServiceOption) *serviceFixture {
	repo := NewMockOrderRepo()
	keys := NewMemoryKeyStore(time.Hour, nil)
	notifier := &recordingNotifier{}
	opts = append([]ServiceOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := NewService(ServiceDeps{
		Repo:     repo,
		Catalog:  mockCatalog(),
		Tables:   mockTables(),
		Keys:     keys,
		Notifier: notifier,
	}, nil, opts...)
	return &serviceFixture{service: svc, repo: repo, keys: keys, notifier: notifier}
}

func cart(items ...CartItem) []CartItem {
	return items
}

func line(id uuid.UUID, qty int) CartItem {
	return CartItem{MenuItemID: id, Quantity: qty}
}

func (f *serviceFixture) placeDineIn(ctx context.Context, table uuid.UUID, items ...CartItem) (*Order, error) {
	return f.service.PlaceDineIn(ctx, DineInRequest{UserID: "captain-1", TableID: table, Items: items})
}

func (f *serviceFixture) placeOnline(ctx context.Context, items ...CartItem) (*Order, error) {
	return f.service.PlaceOnline(ctx, OnlineRequest{UserID: "pos-1", Platform: PlatformSwiggy, PlatformOrderID: "SW-42", Items: items})
}

// serveAll moves every printed ticket of o to served.
func (f *serviceFixture) serveAll(ctx context.Context, o *Order) (*Order, error) {
	seen := map[string]bool{}
	var err error
	for _, row := range o.Items {
		if !row.IsPrinted() || seen[row.KOTID] {
			continue
		}
		seen[row.KOTID] = true
		for _, st := range []string{"preparing", "ready", "served"} {
			if o, err = f.service.AdvanceItemStatus(ctx, o.ID, row.KOTID, st); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}
