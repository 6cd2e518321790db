package order

import (
	"fmt"

	"github.com/appetiteclub/payper/pkg/enums/itemstatus"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is a requested quantity of a catalog entry.
type CartItem struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
	Notes      string    `json:"notes,omitempty"`
}

// Line is a cart item resolved against the catalog.
type Line struct {
	Item     MenuItem
	Quantity int
	Notes    string
}

func newRow(item MenuItem, quantity int, notes string) OrderItem {
	return OrderItem{
		ID:         uuid.New(),
		MenuItem:   item,
		Quantity:   quantity,
		KOTStatus:  kotSt.New.Code(),
		ItemStatus: itemSt.Pending.Code(),
		KOTID:      "temp-" + uuid.NewString(),
		Notes:      notes,
	}
}

// rowsFor turns resolved lines into ledger rows. Dine-in rows carry one unit
// each, online rows keep the full line quantity.
func rowsFor(orderType string, lines []Line) []OrderItem {
	var rows []OrderItem
	for _, l := range lines {
		if orderType == TypeOnline {
			rows = append(rows, newRow(l.Item, l.Quantity, l.Notes))
			continue
		}
		for range l.Quantity {
			rows = append(rows, newRow(l.Item, 1, l.Notes))
		}
	}
	return rows
}

// resetTotals recomputes the subtotal from the ledger and drops any discount.
func (o *Order) resetTotals() {
	sum := o.ItemsTotal()
	o.OriginalTotal = &sum
	o.Total = sum
	o.Discount = decimal.Zero
	o.DiscountType = ""
}

func (o *Order) appendLines(lines []Line) int {
	rows := rowsFor(o.OrderType, lines)
	o.Items = append(o.Items, rows...)
	o.resetTotals()
	return len(rows)
}

func (o *Order) countNew(menuItemID uuid.UUID) int {
	n := 0
	for _, item := range o.Items {
		if item.MenuItem.ID == menuItemID && item.IsNew() {
			n += item.Quantity
		}
	}
	return n
}

func (o *Order) findRow(menuItemID uuid.UUID) (OrderItem, bool) {
	for _, item := range o.Items {
		if item.MenuItem.ID == menuItemID {
			return item, true
		}
	}
	return OrderItem{}, false
}

// setQuantity adjusts the unsent quantity of a menu item. Printed rows are
// never touched. It reports whether the ledger changed.
func (o *Order) setQuantity(menuItemID uuid.UUID, quantity int) (bool, error) {
	template, ok := o.findRow(menuItemID)
	if !ok {
		return false, &NotFoundError{Resource: "order item", ID: menuItemID.String()}
	}
	if quantity < 0 {
		quantity = 0
	}

	current := o.countNew(menuItemID)
	if quantity == current {
		return false, nil
	}

	if o.IsOnline() {
		o.setOnlineQuantity(template, quantity)
		o.resetTotals()
		return true, nil
	}

	diff := quantity - current
	if diff > 0 {
		for range diff {
			o.Items = append(o.Items, newRow(template.MenuItem, 1, template.Notes))
		}
	} else {
		o.dropNew(menuItemID, -diff)
	}
	o.resetTotals()
	return true, nil
}

// setOnlineQuantity folds every unsent row of the item into one row holding
// quantity. Zero drops them all.
func (o *Order) setOnlineQuantity(template OrderItem, quantity int) {
	kept := o.Items[:0]
	folded := false
	for _, item := range o.Items {
		if item.MenuItem.ID == template.MenuItem.ID && item.IsNew() {
			if folded || quantity == 0 {
				continue
			}
			item.Quantity = quantity
			folded = true
		}
		kept = append(kept, item)
	}
	o.Items = kept
	if !folded && quantity > 0 {
		o.Items = append(o.Items, newRow(template.MenuItem, quantity, template.Notes))
	}
}

// dropNew removes up to limit unsent rows of a menu item, limit < 0 removes all.
func (o *Order) dropNew(menuItemID uuid.UUID, limit int) int {
	kept := o.Items[:0]
	removed := 0
	for _, item := range o.Items {
		if item.MenuItem.ID == menuItemID && item.IsNew() && (limit < 0 || removed < limit) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	o.Items = kept
	return removed
}

func (o *Order) removeItem(menuItemID uuid.UUID) error {
	if _, ok := o.findRow(menuItemID); !ok {
		return &NotFoundError{Resource: "order item", ID: menuItemID.String()}
	}
	if o.dropNew(menuItemID, -1) == 0 {
		return &StateConflictError{Op: "remove item", Reason: "item already sent to kitchen"}
	}
	o.resetTotals()
	return nil
}

func (o *Order) nextKOTID() string {
	o.KOTCounter++
	return fmt.Sprintf("KOT-%d", o.KOTCounter)
}

// issueKOT prints every unsent row under one shared ticket id. It returns an
// empty id when there is nothing to send.
func (o *Order) issueKOT() string {
	if !o.HasNewItems() {
		return ""
	}
	kotID := o.nextKOTID()
	for i := range o.Items {
		if o.Items[i].IsNew() {
			o.print(i, kotID)
		}
	}
	return kotID
}

// accept prints an online order on acceptance. Rows accepted earlier keep
// their ticket and kitchen progress, only unsent rows join the new ticket.
func (o *Order) accept() string {
	return o.issueKOT()
}

func (o *Order) print(i int, kotID string) {
	o.Items[i].KOTStatus = kotSt.Printed.Code()
	o.Items[i].ItemStatus = itemSt.Pending.Code()
	o.Items[i].KOTID = kotID
}

// advanceKOT moves every printed row of a ticket one step forward. Rows
// already at the target are left alone so retries are harmless.
func (o *Order) advanceKOT(kotID, target string) (int, error) {
	targetRank := itemstatus.Rank(target)
	if targetRank < 0 {
		return 0, &ValidationError{Field: "item_status", Reason: fmt.Sprintf("unknown status %q", target)}
	}

	var rows []int
	for i, item := range o.Items {
		if item.IsPrinted() && item.KOTID == kotID {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return 0, &NotFoundError{Resource: "kitchen ticket", ID: kotID}
	}

	for _, i := range rows {
		rank := itemstatus.Rank(o.Items[i].ItemStatus)
		if rank != targetRank && rank != targetRank-1 {
			return 0, &StateConflictError{
				Op:     "advance item status",
				Reason: fmt.Sprintf("%s cannot move from %s to %s", kotID, o.Items[i].ItemStatus, target),
			}
		}
	}

	changed := 0
	for _, i := range rows {
		if o.Items[i].ItemStatus != target {
			o.Items[i].ItemStatus = target
			changed++
		}
	}
	return changed, nil
}

// rollUpKitchenStatus derives dine-in progress from printed rows while the
// order sits between confirmation and serving.
func (o *Order) rollUpKitchenStatus() {
	if !o.IsDineIn() || o.HasNewItems() {
		return
	}
	switch o.Status {
	case statuses.Confirmed.Code(), statuses.Preparing.Code(), statuses.Ready.Code(), statuses.Served.Code():
	default:
		return
	}

	printed, started, ready, served := 0, 0, 0, 0
	for _, item := range o.Items {
		if !item.IsPrinted() {
			continue
		}
		printed++
		switch item.ItemStatus {
		case itemSt.Served.Code():
			served++
			ready++
			started++
		case itemSt.Ready.Code():
			ready++
			started++
		case itemSt.Preparing.Code():
			started++
		}
	}
	if printed == 0 {
		return
	}

	switch {
	case served == printed:
		o.Status = statuses.Served.Code()
	case ready == printed:
		o.Status = statuses.Ready.Code()
	case started > 0:
		o.Status = statuses.Preparing.Code()
	default:
		o.Status = statuses.Confirmed.Code()
	}
}

// recoverOriginalTotal rebuilds the undiscounted subtotal for documents that
// predate the original_total field.
func (o *Order) recoverOriginalTotal() decimal.Decimal {
	if o.Discount.IsZero() {
		return o.Total
	}
	if o.DiscountType == DiscountAmount {
		return o.Total.Add(o.Discount)
	}
	rest := decimal.NewFromInt(1).Sub(o.Discount.Div(hundred))
	if !rest.IsPositive() {
		return o.ItemsTotal()
	}
	return o.Total.Div(rest).Round(2)
}

func (o *Order) applyDiscount(value decimal.Decimal, discountType string) {
	base := o.Subtotal()
	o.OriginalTotal = &base
	o.Discount = value
	o.DiscountType = discountType

	total := base.Sub(o.DiscountValue())
	if total.IsNegative() {
		total = decimal.Zero
	}
	o.Total = total
}
