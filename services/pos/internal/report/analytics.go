package report

import (
	"sort"
	"strings"
	"time"

	"github.com/appetiteclub/payper/pkg/enums/orderstatus"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopItemsLimit bounds the best sellers list.
const TopItemsLimit = 5

// Settled are the statuses that count as revenue.
var Settled = []string{
	orderstatus.Statuses.Paid.Code(),
	orderstatus.Statuses.Delivered.Code(),
}

type ItemSale struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category,omitempty"`
	Quantity   int             `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Summary aggregates settled orders placed within a day range.
type Summary struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	OrderCount        int             `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	DineInCount       int             `json:"dine_in_count"`
	OnlineCount       int             `json:"online_count"`
	ItemSales         []ItemSale      `json:"item_sales"`
	TopItems          []ItemSale      `json:"top_items"`
}

// DayRange spans the start of from's day to the end of to's day in loc.
// A zero to collapses the range onto from's day.
func DayRange(from, to time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	if to.IsZero() {
		to = from
	}
	start := startOfDay(from.In(loc))
	end := startOfDay(to.In(loc)).AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Summarize aggregates the settled orders whose placement timestamp falls in
// [start, end]. Other orders are ignored.
func Summarize(orders []*order.Order, start, end time.Time) Summary {
	s := Summary{
		From:              start,
		To:                end,
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ItemSales:         []ItemSale{},
		TopItems:          []ItemSale{},
	}

	filter := order.Filter{Statuses: Settled, From: start, To: end}
	sales := make(map[uuid.UUID]*ItemSale)

	for _, o := range orders {
		if !filter.Matches(o) {
			continue
		}
		s.OrderCount++
		s.TotalRevenue = s.TotalRevenue.Add(o.Total)
		if o.IsOnline() {
			s.OnlineCount++
		} else {
			s.DineInCount++
		}

		for _, item := range o.Items {
			sale, ok := sales[item.MenuItem.ID]
			if !ok {
				sale = &ItemSale{
					MenuItemID: item.MenuItem.ID,
					Name:       item.MenuItem.Name,
					Category:   item.MenuItem.Category,
					Revenue:    decimal.Zero,
				}
				sales[item.MenuItem.ID] = sale
			}
			sale.Quantity += item.Quantity
			sale.Revenue = sale.Revenue.Add(item.Amount())
		}
	}

	if s.OrderCount > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.OrderCount))).Round(2)
	}

	for _, sale := range sales {
		s.ItemSales = append(s.ItemSales, *sale)
	}
	sort.SliceStable(s.ItemSales, func(i, j int) bool {
		a, b := s.ItemSales[i], s.ItemSales[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	top := append([]ItemSale(nil), s.ItemSales...)
	sort.SliceStable(top, func(i, j int) bool {
		if c := top[i].Revenue.Cmp(top[j].Revenue); c != 0 {
			return c > 0
		}
		return strings.ToLower(top[i].Name) < strings.ToLower(top[j].Name)
	})
	if len(top) > TopItemsLimit {
		top = top[:TopItemsLimit]
	}
	s.TopItems = top

	return s
}

// DailyTotals rolls settled orders up per calendar day in loc. It serves the
// daily report when no sales journal is configured.
func DailyTotals(orders []*order.Order, start, end time.Time, loc *time.Location) []DailyTotal {
	if loc == nil {
		loc = time.Local
	}
	filter := order.Filter{Statuses: Settled, From: start, To: end}
	byDay := make(map[string]*DailyTotal)

	for _, o := range orders {
		if !filter.Matches(o) {
			continue
		}
		day := time.UnixMilli(o.Timestamp).In(loc).Format(time.DateOnly)
		dt, ok := byDay[day]
		if !ok {
			dt = &DailyTotal{Day: day, Revenue: decimal.Zero, Discount: decimal.Zero}
			byDay[day] = dt
		}
		dt.Orders++
		dt.Revenue = dt.Revenue.Add(o.Total)
		dt.Discount = dt.Discount.Add(o.DiscountValue())
	}

	totals := make([]DailyTotal, 0, len(byDay))
	for _, dt := range byDay {
		totals = append(totals, *dt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Day < totals[j].Day })
	return totals
}
