package order

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultRestaurantName = "PayPer-Suite"

	actionDuplicateBill = "Print Duplicate Bill"
	actionGenerateBill  = "Confirm & Generate Bill"
	ruleWidth           = 44
)

type BillLine struct {
	No       int             `json:"no"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// Bill is the printable invoice of an order.
type Bill struct {
	Restaurant    string          `json:"restaurant"`
	OrderID       string          `json:"order_id"`
	Table         string          `json:"table"`
	IssuedAt      time.Time       `json:"issued_at"`
	Lines         []BillLine      `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountLabel string          `json:"discount_label,omitempty"`
	Discount      decimal.Decimal `json:"discount"`
	Taxes         decimal.Decimal `json:"taxes"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Action        string          `json:"action"`
}

// NewBill prepares the invoice for o. tableName labels dine-in orders, online
// orders are labelled by platform and platform order id.
func NewBill(o *Order, restaurant, tableName string, loc *time.Location) Bill {
	if restaurant == "" {
		restaurant = DefaultRestaurantName
	}
	if loc == nil {
		loc = time.Local
	}

	b := Bill{
		Restaurant: restaurant,
		OrderID:    o.ID.String(),
		Table:      placeLabel(o, tableName),
		IssuedAt:   time.UnixMilli(o.Timestamp).In(loc),
		Subtotal:   o.Subtotal(),
		Discount:   o.DiscountValue(),
		Taxes:      decimal.Zero,
		Action:     actionGenerateBill,
	}
	if o.IsBilled() {
		b.Action = actionDuplicateBill
	}

	for i, row := range o.Items {
		b.Lines = append(b.Lines, BillLine{
			No:       i + 1,
			Name:     row.MenuItem.Name,
			Quantity: row.Quantity,
			Rate:     row.MenuItem.Price,
			Amount:   row.Amount(),
		})
	}

	if b.Discount.IsPositive() {
		if o.DiscountType == DiscountPercentage {
			b.DiscountLabel = o.Discount.String() + "%"
		} else {
			b.DiscountLabel = o.Discount.StringFixed(2)
		}
	}

	b.GrandTotal = b.Subtotal.Sub(b.Discount)
	if b.GrandTotal.IsNegative() {
		b.GrandTotal = decimal.Zero
	}
	return b
}

// Text renders the bill for a receipt printer.
func (b Bill) Text() string {
	var sb strings.Builder
	rule := strings.Repeat("-", ruleWidth)

	sb.WriteString(center(b.Restaurant) + "\n")
	sb.WriteString(center("Bill / Invoice") + "\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "Order ID: %s\n", b.OrderID)
	fmt.Fprintf(&sb, "Table: %s\n", b.Table)
	fmt.Fprintf(&sb, "Date: %s  Time: %s\n", b.IssuedAt.Format("2006-01-02"), b.IssuedAt.Format("15:04:05"))
	sb.WriteString(rule + "\n")

	tw := tabwriter.NewWriter(&sb, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tItem\tQty\tRate\tAmount\t")
	for _, l := range b.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t\n", l.No, l.Name, l.Quantity, l.Rate.StringFixed(2), l.Amount.StringFixed(2))
	}
	tw.Flush()

	sb.WriteString(rule + "\n")
	sb.WriteString(totalLine("Subtotal", b.Subtotal.StringFixed(2)))
	if b.DiscountLabel != "" {
		sb.WriteString(totalLine(fmt.Sprintf("Discount (%s)", b.DiscountLabel), "- "+b.Discount.StringFixed(2)))
	}
	sb.WriteString(totalLine("Taxes (0%)", b.Taxes.StringFixed(2)))
	sb.WriteString(rule + "\n")
	sb.WriteString(totalLine("GRAND TOTAL", b.GrandTotal.StringFixed(2)))
	sb.WriteString(rule + "\n")
	sb.WriteString(center(b.Action) + "\n")
	return sb.String()
}

type TicketLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// Ticket is a kitchen order ticket.
type Ticket struct {
	KOTID   string       `json:"kot_id"`
	Reprint bool         `json:"reprint"`
	OrderID string       `json:"order_id"`
	Table   string       `json:"table"`
	Lines   []TicketLine `json:"lines"`
}

// NewTicket previews the ticket the next send to kitchen would print.
func NewTicket(o *Order, tableName string) (Ticket, error) {
	if !o.HasNewItems() {
		return Ticket{}, &StateConflictError{Op: "preview kitchen ticket", Reason: "no items waiting for the kitchen"}
	}
	t := Ticket{
		KOTID:   fmt.Sprintf("KOT-%d", o.KOTCounter+1),
		OrderID: o.ID.String(),
		Table:   placeLabel(o, tableName),
		Lines:   groupTicketLines(o.Items, OrderItem.IsNew),
	}
	return t, nil
}

// ReprintTicket rebuilds a ticket that was already issued.
func ReprintTicket(o *Order, kotID, tableName string) (Ticket, error) {
	lines := groupTicketLines(o.Items, func(row OrderItem) bool {
		return row.IsPrinted() && row.KOTID == kotID
	})
	if len(lines) == 0 {
		return Ticket{}, &NotFoundError{Resource: "kitchen ticket", ID: kotID}
	}
	return Ticket{
		KOTID:   kotID,
		Reprint: true,
		OrderID: o.ID.String(),
		Table:   placeLabel(o, tableName),
		Lines:   lines,
	}, nil
}

func (t Ticket) Text() string {
	var sb strings.Builder
	rule := strings.Repeat("-", ruleWidth)

	title := "KITCHEN ORDER TICKET"
	if t.Reprint {
		title += " (REPRINT)"
	}
	sb.WriteString(center(title) + "\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "%s  Table: %s\n", t.KOTID, t.Table)
	fmt.Fprintf(&sb, "Order ID: %s\n", t.OrderID)
	sb.WriteString(rule + "\n")

	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	for _, l := range t.Lines {
		fmt.Fprintf(tw, "%dx\t%s\n", l.Quantity, l.Name)
		if l.Notes != "" {
			fmt.Fprintf(tw, "\t  * %s\n", l.Notes)
		}
	}
	tw.Flush()
	sb.WriteString(rule + "\n")
	return sb.String()
}

func groupTicketLines(rows []OrderItem, keep func(OrderItem) bool) []TicketLine {
	var lines []TicketLine
	index := map[uuid.UUID]int{}
	for _, row := range rows {
		if !keep(row) {
			continue
		}
		if i, ok := index[row.MenuItem.ID]; ok {
			lines[i].Quantity += row.Quantity
			continue
		}
		index[row.MenuItem.ID] = len(lines)
		lines = append(lines, TicketLine{Name: row.MenuItem.Name, Quantity: row.Quantity, Notes: row.Notes})
	}
	return lines
}

func placeLabel(o *Order, tableName string) string {
	if o.IsOnline() {
		if o.PlatformOrderID != "" {
			return fmt.Sprintf("%s #%s", o.OnlinePlatform, o.PlatformOrderID)
		}
		return o.OnlinePlatform
	}
	if tableName == "" {
		return o.TableID.String()
	}
	return tableName
}

func center(s string) string {
	pad := (ruleWidth - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func totalLine(label, value string) string {
	gap := ruleWidth - len(label) - len(value)
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value + "\n"
}
