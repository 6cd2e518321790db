package order

import (
	"slices"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/pkg/enums/itemstatus"
	"github.com/appetiteclub/payper/pkg/enums/kotstatus"
	"github.com/appetiteclub/payper/pkg/enums/orderstatus"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeDineIn = "dine-in"
	TypeOnline = "online"

	PlatformZomato = "Zomato"
	PlatformSwiggy = "Swiggy"
	PlatformOthers = "Others"

	DiscountPercentage = "percentage"
	DiscountAmount     = "amount"

	PaymentCard   = "card"
	PaymentCashQR = "cash_qr"

	maxAppliedKeys = 64
)

var (
	statuses = orderstatus.Statuses
	itemSt   = itemstatus.Statuses
	kotSt    = kotstatus.Statuses

	hundred = decimal.NewFromInt(100)
)

// MenuItem is the snapshot of a catalog entry taken when a row enters the ledger.
type MenuItem struct {
	ID          uuid.UUID       `json:"id" bson:"id"`
	Name        string          `json:"name" bson:"name"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	Price       decimal.Decimal `json:"price" bson:"price"`
	Category    string          `json:"category" bson:"category"`
	Available   bool            `json:"available" bson:"available"`
}

// OrderItem is one ledger row.
type OrderItem struct {
	ID         uuid.UUID `json:"id" bson:"id"`
	MenuItem   MenuItem  `json:"menu_item" bson:"menu_item"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	KOTStatus  string    `json:"kot_status" bson:"kot_status"`
	ItemStatus string    `json:"item_status" bson:"item_status"`
	KOTID      string    `json:"kot_id,omitempty" bson:"kot_id,omitempty"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

func (i OrderItem) IsNew() bool {
	return i.KOTStatus == kotSt.New.Code()
}

func (i OrderItem) IsPrinted() bool {
	return i.KOTStatus == kotSt.Printed.Code()
}

// Amount is price times quantity.
func (i OrderItem) Amount() decimal.Decimal {
	return i.MenuItem.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CustomerDetails struct {
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
}

type Order struct {
	ID              uuid.UUID        `json:"id" bson:"_id"`
	UserID          string           `json:"user_id" bson:"user_id"`
	SessionID       string           `json:"session_id,omitempty" bson:"session_id,omitempty"`
	OrderType       string           `json:"order_type" bson:"order_type"`
	TableID         uuid.UUID        `json:"table_id" bson:"table_id"`
	OnlinePlatform  string           `json:"online_platform,omitempty" bson:"online_platform,omitempty"`
	PlatformOrderID string           `json:"platform_order_id,omitempty" bson:"platform_order_id,omitempty"`
	Customer        *CustomerDetails `json:"customer_details,omitempty" bson:"customer_details,omitempty"`
	Items           []OrderItem      `json:"items" bson:"items"`
	Status          string           `json:"status" bson:"status"`
	Timestamp       int64            `json:"timestamp" bson:"timestamp"`
	CreatedAt       time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" bson:"updated_at"`
	Total           decimal.Decimal  `json:"total" bson:"total"`
	OriginalTotal   *decimal.Decimal `json:"original_total,omitempty" bson:"original_total,omitempty"`
	Discount        decimal.Decimal  `json:"discount" bson:"discount"`
	DiscountType    string           `json:"discount_type,omitempty" bson:"discount_type,omitempty"`
	KOTCounter      int              `json:"kot_counter" bson:"kot_counter"`
	SwitchedFrom    *uuid.UUID       `json:"switched_from,omitempty" bson:"switched_from,omitempty"`
	PaymentMethod   *string          `json:"payment_method" bson:"payment_method,omitempty"`
	Version         int64            `json:"version" bson:"version"`

	AppliedKeys   []string   `json:"-" bson:"applied_keys,omitempty"`
	OccupiedTable *uuid.UUID `json:"-" bson:"occupied_table,omitempty"`
}

func NewOrder(orderType string) *Order {
	return &Order{
		ID:        apt.GenerateNewID(),
		OrderType: orderType,
		Status:    statuses.New.Code(),
		Items:     []OrderItem{},
	}
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) SetID(id uuid.UUID) {
	o.ID = id
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *Order) BeforeCreate(now time.Time) {
	o.EnsureID()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Timestamp = now.UnixMilli()
	o.Version = 1
	o.syncOccupancy()
}

func (o *Order) BeforeUpdate(now time.Time) {
	o.UpdatedAt = now
	o.syncOccupancy()
}

// Clone returns a deep copy that shares no mutable state with o.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = slices.Clone(o.Items)
	c.AppliedKeys = slices.Clone(o.AppliedKeys)
	if o.Customer != nil {
		cd := *o.Customer
		c.Customer = &cd
	}
	if o.OriginalTotal != nil {
		ot := *o.OriginalTotal
		c.OriginalTotal = &ot
	}
	if o.SwitchedFrom != nil {
		sf := *o.SwitchedFrom
		c.SwitchedFrom = &sf
	}
	if o.PaymentMethod != nil {
		pm := *o.PaymentMethod
		c.PaymentMethod = &pm
	}
	if o.OccupiedTable != nil {
		ot := *o.OccupiedTable
		c.OccupiedTable = &ot
	}
	return &c
}

func (o *Order) IsDineIn() bool {
	return o.OrderType == TypeDineIn
}

func (o *Order) IsOnline() bool {
	return o.OrderType == TypeOnline
}

// IsActive reports whether the order still holds its table.
func (o *Order) IsActive() bool {
	return orderstatus.IsActive(o.Status)
}

func (o *Order) IsTerminal() bool {
	return orderstatus.IsTerminal(o.Status)
}

func (o *Order) IsBilled() bool {
	return o.Status == statuses.Billed.Code()
}

func (o *Order) HasNewItems() bool {
	return slices.ContainsFunc(o.Items, OrderItem.IsNew)
}

func (o *Order) HasPrintedItems() bool {
	return slices.ContainsFunc(o.Items, OrderItem.IsPrinted)
}

// CanCancel is false once any kitchen ticket has been issued.
func (o *Order) CanCancel() bool {
	return !o.HasPrintedItems()
}

// CanGenerateBill requires every row to be sent and every sent row to be served.
func (o *Order) CanGenerateBill() bool {
	if o.HasNewItems() {
		return false
	}
	if o.IsBilled() {
		return true
	}
	printed := 0
	for _, item := range o.Items {
		if !item.IsPrinted() {
			continue
		}
		printed++
		if item.ItemStatus != itemSt.Served.Code() {
			return false
		}
	}
	return printed > 0
}

// NeedsKOTPrint flags a confirmed order that received items after its last ticket.
func (o *Order) NeedsKOTPrint() bool {
	return o.Status == statuses.Confirmed.Code() && o.HasNewItems()
}

// ItemsTotal is the raw ledger sum.
func (o *Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.Amount())
	}
	return sum
}

// Subtotal is the undiscounted amount the discount applies to.
func (o *Order) Subtotal() decimal.Decimal {
	if o.OriginalTotal != nil {
		return *o.OriginalTotal
	}
	return o.recoverOriginalTotal()
}

// DiscountValue is the currency amount taken off the subtotal.
func (o *Order) DiscountValue() decimal.Decimal {
	if o.Discount.IsZero() {
		return decimal.Zero
	}
	if o.DiscountType == DiscountAmount {
		return o.Discount
	}
	return o.Subtotal().Mul(o.Discount).Div(hundred)
}

func (o *Order) hasAppliedKey(key string) bool {
	return key != "" && slices.Contains(o.AppliedKeys, key)
}

func (o *Order) rememberKey(key string) {
	if key == "" {
		return
	}
	o.AppliedKeys = append(o.AppliedKeys, key)
	if len(o.AppliedKeys) > maxAppliedKeys {
		o.AppliedKeys = o.AppliedKeys[len(o.AppliedKeys)-maxAppliedKeys:]
	}
}

func (o *Order) syncOccupancy() {
	if o.IsDineIn() && o.IsActive() && o.TableID != uuid.Nil {
		t := o.TableID
		o.OccupiedTable = &t
		return
	}
	o.OccupiedTable = nil
}
