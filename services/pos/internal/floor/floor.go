package floor

import (
	"fmt"
	"time"

	"github.com/appetiteclub/payper/pkg/enums/tablestatus"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/appetiteclub/payper/services/pos/internal/tables"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var statuses = tablestatus.Statuses

// Tile is one table on the floor grid.
type Tile struct {
	TableID       uuid.UUID        `json:"table_id"`
	TableName     string           `json:"table_name"`
	Status        string           `json:"status"`
	StatusLabel   string           `json:"status_label"`
	OrderID       *uuid.UUID       `json:"order_id,omitempty"`
	OrderStatus   string           `json:"order_status,omitempty"`
	Total         *decimal.Decimal `json:"total,omitempty"`
	Elapsed       string           `json:"elapsed,omitempty"`
	KOTPrinted    bool             `json:"kot_printed"`
	NeedsKOTPrint bool             `json:"needs_kot_print"`
	SwitchedFrom  *uuid.UUID       `json:"switched_from,omitempty"`
}

// StatusOf derives the grid status of a table from the order seated at it.
func StatusOf(o *order.Order) tablestatus.Status {
	switch {
	case o == nil:
		return statuses.Vacant
	case o.IsBilled():
		return statuses.Billed
	case o.HasPrintedItems():
		return statuses.KOTPrinted
	default:
		return statuses.Running
	}
}

// Elapsed renders the time since a millisecond timestamp as mm:ss.
// Minutes keep counting past the hour.
func Elapsed(timestamp int64, now time.Time) string {
	d := now.Sub(time.UnixMilli(timestamp))
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// BuildGrid lays out every table with the active dine-in order holding it.
// Tables keep the order they are given in.
func BuildGrid(list []*tables.Table, orders []*order.Order, now time.Time) []Tile {
	seated := occupants(orders, uuid.Nil)

	tiles := make([]Tile, 0, len(list))
	for _, t := range list {
		o := seated[t.ID]
		st := StatusOf(o)
		tile := Tile{
			TableID:     t.ID,
			TableName:   t.Name,
			Status:      st.Code(),
			StatusLabel: st.Label(),
		}
		if o != nil {
			id := o.ID
			total := o.Total
			tile.OrderID = &id
			tile.OrderStatus = o.Status
			tile.Total = &total
			tile.Elapsed = Elapsed(o.Timestamp, now)
			tile.KOTPrinted = o.HasPrintedItems()
			tile.NeedsKOTPrint = o.NeedsKOTPrint()
			tile.SwitchedFrom = o.SwitchedFrom
		}
		tiles = append(tiles, tile)
	}
	return tiles
}

// VacantTables returns the tables no active dine-in order holds. The order
// identified by exclude is ignored so it can move to any free table.
func VacantTables(list []*tables.Table, orders []*order.Order, exclude uuid.UUID) []*tables.Table {
	seated := occupants(orders, exclude)

	var vacant []*tables.Table
	for _, t := range list {
		if _, ok := seated[t.ID]; !ok {
			vacant = append(vacant, t)
		}
	}
	return vacant
}

// Counts tallies tiles per grid status.
func Counts(tiles []Tile) map[string]int {
	counts := make(map[string]int, len(tablestatus.All))
	for _, st := range tablestatus.All {
		counts[st.Code()] = 0
	}
	for _, t := range tiles {
		counts[t.Status]++
	}
	return counts
}

func occupants(orders []*order.Order, exclude uuid.UUID) map[uuid.UUID]*order.Order {
	seated := make(map[uuid.UUID]*order.Order)
	for _, o := range orders {
		if o == nil || !o.IsDineIn() || !o.IsActive() || o.ID == exclude {
			continue
		}
		if o.TableID == uuid.Nil {
			continue
		}
		if prev, ok := seated[o.TableID]; ok && prev.Timestamp <= o.Timestamp {
			continue
		}
		seated[o.TableID] = o
	}
	return seated
}
