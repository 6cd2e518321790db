package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one settled order as written to the sales journal.
type Sale struct {
	OrderID        string          `json:"order_id"`
	OrderType      string          `json:"order_type"`
	TableID        string          `json:"table_id,omitempty"`
	OnlinePlatform string          `json:"online_platform,omitempty"`
	Status         string          `json:"status"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"item_count"`
	SettledAt      time.Time       `json:"settled_at"`
}

// DailyTotal is the journal rollup for one calendar day.
type DailyTotal struct {
	Day      string          `json:"day"`
	Orders   int             `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
	Discount decimal.Decimal `json:"discount"`
}

// Journal stores each settled order once. Record reports whether the sale was
// new.
type Journal interface {
	Record(ctx context.Context, sale Sale) (bool, error)
	DailyTotals(ctx context.Context, from, to time.Time) ([]DailyTotal, error)
}
