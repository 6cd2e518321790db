package kitchen

import (
	"slices"
	"sort"
	"strings"

	"github.com/appetiteclub/payper/pkg/enums/itemstatus"
	"github.com/appetiteclub/payper/pkg/enums/orderstatus"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/google/uuid"
)

// Row is one printed ledger row as the kitchen sees it.
type Row struct {
	ItemID     uuid.UUID `json:"item_id"`
	KOTID      string    `json:"kot_id"`
	Quantity   int       `json:"quantity"`
	ItemStatus string    `json:"item_status"`
	NextStatus string    `json:"next_status,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// DishGroup is every printed row of one dish within an order.
type DishGroup struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Rows       []Row     `json:"rows"`
}

// Card is one order on the kitchen display.
type Card struct {
	OrderID         uuid.UUID   `json:"order_id"`
	OrderType       string      `json:"order_type"`
	Status          string      `json:"status"`
	TableID         uuid.UUID   `json:"table_id,omitempty"`
	TableName       string      `json:"table_name,omitempty"`
	Platform        string      `json:"platform,omitempty"`
	PlatformOrderID string      `json:"platform_order_id,omitempty"`
	Timestamp       int64       `json:"timestamp"`
	Dishes          []DishGroup `json:"dishes"`
}

// Title is the heading a kitchen screen shows for the card.
func (c Card) Title() string {
	if c.OrderType == order.TypeOnline {
		return c.Platform + " #" + c.PlatformOrderID
	}
	if c.TableName == "" {
		return c.TableID.String()
	}
	return c.TableName
}

// DishOrder is the share one order has in a consolidated dish.
type DishOrder struct {
	OrderID  uuid.UUID `json:"order_id"`
	Title    string    `json:"title"`
	Quantity int       `json:"quantity"`
	Rows     []Row     `json:"rows"`
}

// Dish consolidates a menu item across every order in the kitchen.
type Dish struct {
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Name       string         `json:"name"`
	Quantity   int            `json:"quantity"`
	ByStatus   map[string]int `json:"by_status"`
	Orders     []DishOrder    `json:"orders"`
}

// Statuses lists the order statuses the kitchen works on.
func Statuses() []string {
	codes := make([]string, 0, len(orderstatus.Kitchen))
	for _, s := range orderstatus.Kitchen {
		codes = append(codes, s.Code())
	}
	return codes
}

// Filter selects the orders the kitchen display is built from.
func Filter() order.Filter {
	return order.Filter{Statuses: Statuses()}
}

// BuildBoard groups printed rows of kitchen orders by dish, one card per
// order, oldest order first. Orders with nothing printed are left out.
func BuildBoard(orders []*order.Order, tableNames map[uuid.UUID]string) []Card {
	kitchen := Statuses()
	cards := make([]Card, 0, len(orders))
	for _, o := range orders {
		if o == nil || !slices.Contains(kitchen, o.Status) {
			continue
		}
		dishes := groupDishes(o.Items)
		if len(dishes) == 0 {
			continue
		}
		card := Card{
			OrderID:         o.ID,
			OrderType:       o.OrderType,
			Status:          o.Status,
			Platform:        o.OnlinePlatform,
			PlatformOrderID: o.PlatformOrderID,
			Timestamp:       o.Timestamp,
			Dishes:          dishes,
		}
		if o.IsDineIn() {
			card.TableID = o.TableID
			card.TableName = tableNames[o.TableID]
		}
		cards = append(cards, card)
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Timestamp < cards[j].Timestamp
	})
	return cards
}

// BuildDishes turns a board into the consolidated per-dish view, largest
// quantity first.
func BuildDishes(cards []Card) []Dish {
	index := map[uuid.UUID]int{}
	var dishes []Dish
	for _, c := range cards {
		for _, g := range c.Dishes {
			i, ok := index[g.MenuItemID]
			if !ok {
				i = len(dishes)
				index[g.MenuItemID] = i
				dishes = append(dishes, Dish{
					MenuItemID: g.MenuItemID,
					Name:       g.Name,
					ByStatus:   map[string]int{},
				})
			}
			d := &dishes[i]
			d.Quantity += g.Quantity
			for _, r := range g.Rows {
				d.ByStatus[r.ItemStatus] += r.Quantity
			}
			d.Orders = append(d.Orders, DishOrder{
				OrderID:  c.OrderID,
				Title:    c.Title(),
				Quantity: g.Quantity,
				Rows:     g.Rows,
			})
		}
	}
	sort.SliceStable(dishes, func(i, j int) bool {
		if dishes[i].Quantity != dishes[j].Quantity {
			return dishes[i].Quantity > dishes[j].Quantity
		}
		return strings.ToLower(dishes[i].Name) < strings.ToLower(dishes[j].Name)
	})
	return dishes
}

// CountByStatus tallies printed units per item status across the board.
func CountByStatus(cards []Card) map[string]int {
	counts := make(map[string]int, len(itemstatus.All))
	for _, s := range itemstatus.All {
		counts[s.Code()] = 0
	}
	for _, c := range cards {
		for _, g := range c.Dishes {
			for _, r := range g.Rows {
				counts[r.ItemStatus] += r.Quantity
			}
		}
	}
	return counts
}

func groupDishes(items []order.OrderItem) []DishGroup {
	index := map[uuid.UUID]int{}
	var groups []DishGroup
	for _, item := range items {
		if !item.IsPrinted() {
			continue
		}
		i, ok := index[item.MenuItem.ID]
		if !ok {
			i = len(groups)
			index[item.MenuItem.ID] = i
			groups = append(groups, DishGroup{MenuItemID: item.MenuItem.ID, Name: item.MenuItem.Name})
		}
		groups[i].Quantity += item.Quantity
		groups[i].Rows = append(groups[i].Rows, rowFor(item))
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
	})
	return groups
}

func rowFor(item order.OrderItem) Row {
	r := Row{
		ItemID:     item.ID,
		KOTID:      item.KOTID,
		Quantity:   item.Quantity,
		ItemStatus: item.ItemStatus,
		Notes:      item.Notes,
	}
	if next := itemstatus.Next(item.ItemStatus); next != nil {
		r.NextStatus = next.Code()
	}
	return r
}
