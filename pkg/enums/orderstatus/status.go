package orderstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if parts[i] == "for" {
			continue
		}
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	New            Status
	Confirmed      Status
	Preparing      Status
	Ready          Status
	Served         Status
	Billed         Status
	Paid           Status
	Cancelled      Status
	Accepted       Status
	FoodReady      Status
	OutForDelivery Status
	Delivered      Status
}

var Statuses = Enum{
	New:            Status{Name: "new"},
	Confirmed:      Status{Name: "confirmed"},
	Preparing:      Status{Name: "preparing"},
	Ready:          Status{Name: "ready"},
	Served:         Status{Name: "served"},
	Billed:         Status{Name: "billed"},
	Paid:           Status{Name: "paid"},
	Cancelled:      Status{Name: "cancelled"},
	Accepted:       Status{Name: "accepted"},
	FoodReady:      Status{Name: "food-ready"},
	OutForDelivery: Status{Name: "out-for-delivery"},
	Delivered:      Status{Name: "delivered"},
}

var All = []Status{
	Statuses.New,
	Statuses.Confirmed,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
	Statuses.Billed,
	Statuses.Paid,
	Statuses.Cancelled,
	Statuses.Accepted,
	Statuses.FoodReady,
	Statuses.OutForDelivery,
	Statuses.Delivered,
}

// DineIn is the forward lineage of a dine-in order.
var DineIn = []Status{
	Statuses.New,
	Statuses.Confirmed,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
	Statuses.Billed,
	Statuses.Paid,
}

// Online is the forward lineage of an online order.
var Online = []Status{
	Statuses.New,
	Statuses.Accepted,
	Statuses.Preparing,
	Statuses.FoodReady,
	Statuses.OutForDelivery,
	Statuses.Delivered,
}

// Kitchen lists the order statuses whose printed items show on the kitchen display.
var Kitchen = []Status{
	Statuses.Confirmed,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Billed,
	Statuses.Accepted,
	Statuses.FoodReady,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// IsTerminal reports whether no further lifecycle mutation is accepted.
func IsTerminal(name string) bool {
	return name == Statuses.Paid.Name ||
		name == Statuses.Cancelled.Name ||
		name == Statuses.Delivered.Name
}

// IsActive reports whether an order in this status still occupies its table.
func IsActive(name string) bool {
	return name != Statuses.Paid.Name && name != Statuses.Cancelled.Name
}

// Codes returns the codes of the given statuses.
func Codes(statuses []Status) []string {
	codes := make([]string, 0, len(statuses))
	for _, s := range statuses {
		codes = append(codes, s.Code())
	}
	return codes
}
