package order

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/pkg/enums/itemstatus"
	"github.com/appetiteclub/payper/pkg/enums/orderstatus"
	"github.com/appetiteclub/payper/pkg/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultWriteAttempts = 3

// Change describes a committed order write.
type Change struct {
	Type   string
	Before *Order
	After  *Order
	KOTID  string
}

// Notifier is told about every committed change.
type Notifier interface {
	Notify(ctx context.Context, change Change)
}

// Notifiers fans a change out to several notifiers in order.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, change Change) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(ctx, change)
		}
	}
}

type ServiceDeps struct {
	Repo     OrderRepo
	Catalog  Catalog
	Tables   TableLookup
	Keys     KeyStore
	Notifier Notifier
	Metrics  *Metrics
}

type ServiceOption func(*Service)

// WithWriteAttempts bounds how often a write is retried on version conflicts.
func WithWriteAttempts(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service owns every order lifecycle transition.
type Service struct {
	repo     OrderRepo
	catalog  Catalog
	tables   TableLookup
	keys     KeyStore
	notifier Notifier
	metrics  *Metrics
	logger   apt.Logger
	attempts int
	now      func() time.Time
}

func NewService(deps ServiceDeps, logger apt.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	s := &Service{
		repo:     deps.Repo,
		catalog:  deps.Catalog,
		tables:   deps.Tables,
		keys:     deps.Keys,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   logger,
		attempts: defaultWriteAttempts,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type DineInRequest struct {
	UserID         string
	SessionID      string
	TableID        uuid.UUID
	Items          []CartItem
	IdempotencyKey string
}

type OnlineRequest struct {
	UserID          string
	Platform        string
	PlatformOrderID string
	Customer        *CustomerDetails
	Items           []CartItem
	IdempotencyKey  string
}

// PlaceDineIn opens an order on a vacant table.
func (s *Service) PlaceDineIn(ctx context.Context, req DineInRequest) (result *Order, err error) {
	defer s.observe("place_order", time.Now(), &err)

	if req.UserID == "" {
		return nil, &ValidationError{Field: "session", Reason: "an authenticated session is required"}
	}
	if req.TableID == uuid.Nil {
		return nil, &ValidationError{Field: "table_id", Reason: "a table must be selected"}
	}
	lines, err := s.resolve(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTable(ctx, req.TableID); err != nil {
		return nil, err
	}

	o := NewOrder(TypeDineIn)
	o.UserID = req.UserID
	o.SessionID = req.SessionID
	o.TableID = req.TableID
	o.appendLines(lines)

	existing, err := s.claimKey(ctx, req.IdempotencyKey, o.ID)
	if err != nil || existing != nil {
		return existing, err
	}

	occupant, err := s.repo.FindActiveByTable(ctx, req.TableID)
	if err != nil {
		s.releaseKey(ctx, req.IdempotencyKey)
		return nil, &PersistenceError{Op: "check table occupancy", Err: err}
	}
	if occupant != nil {
		s.releaseKey(ctx, req.IdempotencyKey)
		return nil, &StateConflictError{Op: "place order", Reason: "table already has an active order"}
	}

	return s.create(ctx, o, req.IdempotencyKey)
}

// PlaceOnline records an aggregator order.
func (s *Service) PlaceOnline(ctx context.Context, req OnlineRequest) (result *Order, err error) {
	defer s.observe("place_online_order", time.Now(), &err)

	if req.UserID == "" {
		return nil, &ValidationError{Field: "session", Reason: "an authenticated session is required"}
	}
	if !slices.Contains([]string{PlatformZomato, PlatformSwiggy, PlatformOthers}, req.Platform) {
		return nil, &ValidationError{Field: "online_platform", Reason: "a platform must be selected"}
	}
	lines, err := s.resolve(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	o := NewOrder(TypeOnline)
	o.UserID = req.UserID
	o.OnlinePlatform = req.Platform
	o.PlatformOrderID = req.PlatformOrderID
	if req.Customer != nil {
		c := *req.Customer
		o.Customer = &c
	}
	o.appendLines(lines)

	existing, err := s.claimKey(ctx, req.IdempotencyKey, o.ID)
	if err != nil || existing != nil {
		return existing, err
	}
	return s.create(ctx, o, req.IdempotencyKey)
}

// claimKey binds an idempotency key to a new order id. When the key already
// belongs to an earlier placement that order is returned instead.
func (s *Service) claimKey(ctx context.Context, key string, orderID uuid.UUID) (*Order, error) {
	if key == "" || s.keys == nil {
		return nil, nil
	}
	existingID, reserved, err := s.keys.Reserve(ctx, key, orderID)
	if err != nil {
		return nil, &PersistenceError{Op: "reserve idempotency key", Err: err}
	}
	if reserved {
		return nil, nil
	}
	existing, err := s.repo.Get(ctx, existingID)
	if err != nil {
		return nil, &PersistenceError{Op: "load order", Err: err}
	}
	if existing == nil {
		return nil, &ConflictError{OrderID: existingID}
	}
	return existing, nil
}

// create stores a new order. The idempotency key, if any, is already claimed
// and is released again when the write fails.
func (s *Service) create(ctx context.Context, o *Order, key string) (*Order, error) {
	o.BeforeCreate(s.now())
	if err := s.repo.Create(ctx, o); err != nil {
		s.releaseKey(ctx, key)
		if errors.Is(err, ErrTableOccupied) {
			return nil, &StateConflictError{Op: "place order", Reason: "table already has an active order"}
		}
		return nil, &PersistenceError{Op: "create order", Err: err}
	}

	s.logger.Info("order placed", "order_id", o.ID.String(), "type", o.OrderType, "rows", len(o.Items), "total", o.Total.StringFixed(2))
	s.notify(ctx, Change{Type: event.EventOrderPlaced, After: o.Clone()})
	return o, nil
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if key == "" || s.keys == nil {
		return
	}
	if err := s.keys.Release(ctx, key); err != nil {
		s.logger.Error("cannot release idempotency key", "key", key, "error", err)
	}
}

// AddItems appends rows to an open order. A key already applied to the
// order makes the call a no-op.
func (s *Service) AddItems(ctx context.Context, id uuid.UUID, items []CartItem, key string) (result *Order, err error) {
	defer s.observe("add_items", time.Now(), &err)

	lines, err := s.resolve(ctx, items)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, "add items", id, func(o *Order) (Change, error) {
		if o.hasAppliedKey(key) {
			return Change{}, nil
		}
		if err := guardOpen(o, "add items"); err != nil {
			return Change{}, err
		}
		o.appendLines(lines)
		o.rememberKey(key)
		o.Status = statuses.New.Code()
		o.Timestamp = s.now().UnixMilli()
		return Change{Type: event.EventOrderItemsChanged}, nil
	})
}

// UpdateItemQuantity sets the unsent quantity of a menu item.
func (s *Service) UpdateItemQuantity(ctx context.Context, id, menuItemID uuid.UUID, quantity int) (result *Order, err error) {
	defer s.observe("update_item_quantity", time.Now(), &err)

	return s.mutate(ctx, "update item quantity", id, func(o *Order) (Change, error) {
		if err := guardOpen(o, "update item quantity"); err != nil {
			return Change{}, err
		}
		changed, err := o.setQuantity(menuItemID, quantity)
		if err != nil || !changed {
			return Change{}, err
		}
		return Change{Type: event.EventOrderItemsChanged}, nil
	})
}

// RemoveItem drops every unsent row of a menu item.
func (s *Service) RemoveItem(ctx context.Context, id, menuItemID uuid.UUID) (result *Order, err error) {
	defer s.observe("remove_item", time.Now(), &err)

	return s.mutate(ctx, "remove item", id, func(o *Order) (Change, error) {
		if err := guardOpen(o, "remove item"); err != nil {
			return Change{}, err
		}
		if err := o.removeItem(menuItemID); err != nil {
			return Change{}, err
		}
		return Change{Type: event.EventOrderItemsChanged}, nil
	})
}

// SendToKitchen prints all unsent rows on one ticket. Without unsent rows
// nothing is written.
func (s *Service) SendToKitchen(ctx context.Context, id uuid.UUID) (result *Order, err error) {
	defer s.observe("send_to_kitchen", time.Now(), &err)

	return s.mutate(ctx, "send to kitchen", id, func(o *Order) (Change, error) {
		if err := guardOpen(o, "send to kitchen"); err != nil {
			return Change{}, err
		}
		if o.IsOnline() && o.Status == statuses.New.Code() {
			kotID := o.accept()
			o.Status = statuses.Accepted.Code()
			return Change{Type: event.EventOrderKOTIssued, KOTID: kotID}, nil
		}
		kotID := o.issueKOT()
		if kotID == "" {
			return Change{}, nil
		}
		if o.IsDineIn() {
			o.Status = statuses.Confirmed.Code()
		}
		return Change{Type: event.EventOrderKOTIssued, KOTID: kotID}, nil
	})
}

// UpdateStatus moves an order along its lineage one step at a time. Online
// acceptance prints every unsent row. Billing, payment and cancellation have
// dedicated operations.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target string) (result *Order, err error) {
	defer s.observe("update_status", time.Now(), &err)

	st := orderstatus.ByName(target)
	if st == nil {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", target)}
	}
	switch target {
	case statuses.Billed.Code(), statuses.Paid.Code(), statuses.Cancelled.Code():
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("%s has its own operation", st.Label())}
	}

	return s.mutate(ctx, "update status", id, func(o *Order) (Change, error) {
		if o.Status == target {
			return Change{}, nil
		}
		if o.IsTerminal() {
			return Change{}, terminalConflict(o, "update status")
		}

		lineage := orderstatus.DineIn
		if o.IsOnline() {
			lineage = orderstatus.Online
		}
		from := indexOf(lineage, o.Status)
		to := indexOf(lineage, target)
		if to < 0 {
			return Change{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("%s is not a %s status", st.Label(), o.OrderType)}
		}
		if to != from+1 {
			return Change{}, &StateConflictError{Op: "update status", Reason: fmt.Sprintf("order cannot move from %s to %s", o.Status, target)}
		}

		// A captain confirms a dine-in order with its rows still unsent; the
		// ticket is printed afterwards by SendToKitchen.
		if o.IsDineIn() && target != statuses.Confirmed.Code() && o.HasNewItems() {
			return Change{}, &StateConflictError{Op: "update status", Reason: "order has items not yet sent to the kitchen"}
		}

		change := Change{Type: event.EventOrderStatusChanged}
		if o.IsOnline() && target == statuses.Accepted.Code() {
			change.Type = event.EventOrderKOTIssued
			change.KOTID = o.accept()
		}
		o.Status = target
		return change, nil
	})
}

// AdvanceItemStatus moves every row of a kitchen ticket to the next
// preparation status.
func (s *Service) AdvanceItemStatus(ctx context.Context, id uuid.UUID, kotID, target string) (result *Order, err error) {
	defer s.observe("advance_item_status", time.Now(), &err)

	if kotID == "" {
		return nil, &ValidationError{Field: "kot_id", Reason: "a kitchen ticket id is required"}
	}
	if itemstatus.ByName(target) == nil {
		return nil, &ValidationError{Field: "item_status", Reason: fmt.Sprintf("unknown status %q", target)}
	}

	return s.mutate(ctx, "advance item status", id, func(o *Order) (Change, error) {
		if o.IsTerminal() {
			return Change{}, terminalConflict(o, "advance item status")
		}
		changed, err := o.advanceKOT(kotID, target)
		if err != nil || changed == 0 {
			return Change{}, err
		}
		o.rollUpKitchenStatus()
		return Change{Type: event.EventOrderItemStatusChanged, KOTID: kotID}, nil
	})
}

// SwitchTable moves a dine-in order to another vacant table and leaves a
// breadcrumb pointing at the table it left.
func (s *Service) SwitchTable(ctx context.Context, id, tableID uuid.UUID) (result *Order, err error) {
	defer s.observe("switch_table", time.Now(), &err)

	if tableID == uuid.Nil {
		return nil, &ValidationError{Field: "table_id", Reason: "a table must be selected"}
	}
	if err := s.ensureTable(ctx, tableID); err != nil {
		return nil, err
	}

	return s.mutate(ctx, "switch table", id, func(o *Order) (Change, error) {
		if !o.IsDineIn() {
			return Change{}, &StateConflictError{Op: "switch table", Reason: "only dine-in orders sit at a table"}
		}
		if o.IsTerminal() {
			return Change{}, terminalConflict(o, "switch table")
		}
		if o.TableID == tableID {
			return Change{}, nil
		}
		occupant, err := s.repo.FindActiveByTable(ctx, tableID)
		if err != nil {
			return Change{}, &PersistenceError{Op: "check table occupancy", Err: err}
		}
		if occupant != nil && occupant.ID != o.ID {
			return Change{}, &StateConflictError{Op: "switch table", Reason: "target table already has an active order"}
		}
		previous := o.TableID
		o.SwitchedFrom = &previous
		o.TableID = tableID
		return Change{Type: event.EventOrderTableSwitched}, nil
	})
}

// ClearSwitchedFrom drops the table-switch breadcrumb once it was consumed.
func (s *Service) ClearSwitchedFrom(ctx context.Context, id uuid.UUID) (result *Order, err error) {
	defer s.observe("clear_switched_from", time.Now(), &err)

	return s.mutate(ctx, "clear switched from", id, func(o *Order) (Change, error) {
		if o.SwitchedFrom == nil {
			return Change{}, nil
		}
		o.SwitchedFrom = nil
		return Change{Type: event.EventOrderUpdated}, nil
	})
}

// PendingRedirect returns the active order that left tableID, if any.
func (s *Service) PendingRedirect(ctx context.Context, tableID uuid.UUID) (*Order, error) {
	o, err := s.repo.FindSwitchedFrom(ctx, tableID)
	if err != nil {
		return nil, &PersistenceError{Op: "find switched order", Err: err}
	}
	return o, nil
}

// ApplyDiscount discounts the undiscounted subtotal by a percentage or a fixed amount.
func (s *Service) ApplyDiscount(ctx context.Context, id uuid.UUID, value decimal.Decimal, discountType string) (result *Order, err error) {
	defer s.observe("apply_discount", time.Now(), &err)

	switch discountType {
	case DiscountPercentage:
		if value.GreaterThan(hundred) {
			return nil, &ValidationError{Field: "discount", Reason: "percentage cannot exceed 100"}
		}
	case DiscountAmount:
	default:
		return nil, &ValidationError{Field: "discount_type", Reason: "must be percentage or amount"}
	}
	if value.IsNegative() {
		return nil, &ValidationError{Field: "discount", Reason: "cannot be negative"}
	}

	return s.mutate(ctx, "apply discount", id, func(o *Order) (Change, error) {
		if err := guardOpen(o, "apply discount"); err != nil {
			return Change{}, err
		}
		o.applyDiscount(value, discountType)
		return Change{Type: event.EventOrderDiscountApplied}, nil
	})
}

// GenerateBill finalizes the order for payment. Calling it on a billed order
// writes nothing.
func (s *Service) GenerateBill(ctx context.Context, id uuid.UUID) (result *Order, err error) {
	defer s.observe("generate_bill", time.Now(), &err)

	return s.mutate(ctx, "generate bill", id, func(o *Order) (Change, error) {
		if o.IsBilled() {
			return Change{}, nil
		}
		if o.IsTerminal() {
			return Change{}, terminalConflict(o, "generate bill")
		}
		if !o.CanGenerateBill() {
			reason := "every kitchen item must be served first"
			if o.HasNewItems() {
				reason = "order has items not yet sent to the kitchen"
			}
			return Change{}, &StateConflictError{Op: "generate bill", Reason: reason}
		}
		o.Status = statuses.Billed.Code()
		return Change{Type: event.EventOrderBilled}, nil
	})
}

// SetPaymentMethod records or clears the customer's payment intent.
func (s *Service) SetPaymentMethod(ctx context.Context, id uuid.UUID, method *string) (result *Order, err error) {
	defer s.observe("set_payment_method", time.Now(), &err)

	if method != nil && *method != PaymentCard && *method != PaymentCashQR {
		return nil, &ValidationError{Field: "payment_method", Reason: "must be card or cash_qr"}
	}

	return s.mutate(ctx, "set payment method", id, func(o *Order) (Change, error) {
		if method == nil {
			if o.PaymentMethod == nil {
				return Change{}, nil
			}
			o.PaymentMethod = nil
			return Change{Type: event.EventOrderPaymentIntent}, nil
		}
		if o.IsTerminal() {
			return Change{}, terminalConflict(o, "set payment method")
		}
		if o.PaymentMethod != nil && *o.PaymentMethod == *method {
			return Change{}, nil
		}
		m := *method
		o.PaymentMethod = &m
		return Change{Type: event.EventOrderPaymentIntent}, nil
	})
}

// MarkPaid settles a billed order and frees its table.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (result *Order, err error) {
	defer s.observe("mark_paid", time.Now(), &err)

	return s.mutate(ctx, "mark paid", id, func(o *Order) (Change, error) {
		if o.Status == statuses.Paid.Code() {
			return Change{}, nil
		}
		if o.IsTerminal() {
			return Change{}, terminalConflict(o, "mark paid")
		}
		if !o.IsBilled() {
			return Change{}, &StateConflictError{Op: "mark paid", Reason: "order must be billed first"}
		}
		o.Status = statuses.Paid.Code()
		return Change{Type: event.EventOrderPaid}, nil
	})
}

// CancelOrder cancels an order no kitchen ticket was issued for.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID) (result *Order, err error) {
	defer s.observe("cancel_order", time.Now(), &err)

	return s.mutate(ctx, "cancel", id, func(o *Order) (Change, error) {
		if o.Status == statuses.Cancelled.Code() {
			return Change{}, nil
		}
		if o.IsTerminal() {
			return Change{}, terminalConflict(o, "cancel")
		}
		if o.IsBilled() {
			return Change{}, &StateConflictError{Op: "cancel", Reason: "order already billed"}
		}
		if !o.CanCancel() {
			return Change{}, &StateConflictError{Op: "cancel", Reason: "kitchen ticket already issued"}
		}
		o.Status = statuses.Cancelled.Code()
		return Change{Type: event.EventOrderCancelled}, nil
	})
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.load(ctx, id)
}

// List returns the orders matching a filter.
func (s *Service) List(ctx context.Context, f Filter) ([]*Order, error) {
	orders, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, &PersistenceError{Op: "list orders", Err: err}
	}
	return orders, nil
}

// ActiveOrders returns every order still holding a table or in progress.
func (s *Service) ActiveOrders(ctx context.Context) ([]*Order, error) {
	var active []string
	for _, st := range orderstatus.All {
		if st.Code() != statuses.Paid.Code() && st.Code() != statuses.Cancelled.Code() {
			active = append(active, st.Code())
		}
	}
	return s.List(ctx, Filter{Statuses: active})
}

// mutate runs a read, apply, versioned write cycle. The apply function sees a
// private copy and returns a zero Change when nothing needs to be written.
// Version conflicts re-read and re-apply up to the configured attempts.
func (s *Service) mutate(ctx context.Context, op string, id uuid.UUID, apply func(o *Order) (Change, error)) (*Order, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		change, err := apply(next)
		if err != nil {
			return nil, err
		}
		if change.Type == "" {
			return current, nil
		}

		next.Version = current.Version + 1
		next.BeforeUpdate(s.now())

		err = s.repo.Update(ctx, next, current.Version)
		switch {
		case err == nil:
			change.Before = current
			change.After = next.Clone()
			s.notify(ctx, change)
			return next, nil

		case errors.Is(err, ErrVersionMismatch):
			if attempt >= s.attempts {
				s.logger.Info("order write conflict", "order_id", id.String(), "op", op, "attempts", attempt)
				return nil, &ConflictError{OrderID: id}
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, &PersistenceError{Op: op, Err: ctxErr}
			}
			s.logger.Debug("retrying order write", "order_id", id.String(), "op", op, "attempt", attempt)

		case errors.Is(err, ErrTableOccupied):
			return nil, &StateConflictError{Op: op, Reason: "table already has an active order"}

		default:
			return nil, &PersistenceError{Op: op, Err: err}
		}
	}
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load order", Err: err}
	}
	if o == nil {
		return nil, &NotFoundError{Resource: "order", ID: id.String()}
	}
	return o, nil
}

// resolve validates a cart and snapshots its menu items.
func (s *Service) resolve(ctx context.Context, items []CartItem) ([]Line, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "cart is empty"}
	}

	seen := make(map[uuid.UUID]bool, len(items))
	lines := make([]Line, 0, len(items))
	for _, ci := range items {
		if ci.MenuItemID == uuid.Nil {
			return nil, &ValidationError{Field: "menu_item_id", Reason: "is required"}
		}
		if ci.Quantity < 1 {
			return nil, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
		}
		if seen[ci.MenuItemID] {
			return nil, &ValidationError{Field: "items", Reason: fmt.Sprintf("menu item %s listed twice", ci.MenuItemID)}
		}
		seen[ci.MenuItemID] = true

		item, err := s.catalog.MenuItem(ctx, ci.MenuItemID)
		if err != nil {
			return nil, &PersistenceError{Op: "load menu item", Err: err}
		}
		if item == nil {
			return nil, &NotFoundError{Resource: "menu item", ID: ci.MenuItemID.String()}
		}
		if !item.Available {
			return nil, &ValidationError{Field: "items", Reason: fmt.Sprintf("%s is not available", item.Name)}
		}
		if item.Price.IsNegative() {
			return nil, &ValidationError{Field: "price", Reason: fmt.Sprintf("%s has a negative price", item.Name)}
		}
		lines = append(lines, Line{Item: *item, Quantity: ci.Quantity, Notes: ci.Notes})
	}
	return lines, nil
}

func (s *Service) ensureTable(ctx context.Context, id uuid.UUID) error {
	t, err := s.tables.Table(ctx, id)
	if err != nil {
		return &PersistenceError{Op: "load table", Err: err}
	}
	if t == nil {
		return &NotFoundError{Resource: "table", ID: id.String()}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, change Change) {
	if change.KOTID != "" {
		s.metrics.TicketEvent(change.Type)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, change)
	}
}

func (s *Service) observe(op string, started time.Time, err *error) {
	s.metrics.Observe(op, time.Since(started), *err)
}

// guardOpen rejects ledger and pricing changes once an order is billed or closed.
func guardOpen(o *Order, op string) error {
	if o.IsTerminal() {
		return terminalConflict(o, op)
	}
	if o.IsBilled() {
		return &StateConflictError{Op: op, Reason: "order already billed"}
	}
	return nil
}

func terminalConflict(o *Order, op string) error {
	return &StateConflictError{Op: op, Reason: fmt.Sprintf("order is %s", o.Status)}
}

func indexOf(lineage []orderstatus.Status, code string) int {
	return slices.IndexFunc(lineage, func(s orderstatus.Status) bool {
		return s.Code() == code
	})
}
