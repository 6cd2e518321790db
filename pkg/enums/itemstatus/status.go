package itemstatus

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
	if s.Name == "" {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

type Enum struct {
	Pending   Status
	Preparing Status
	Ready     Status
	Served    Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Served:    Status{Name: "served"},
}

// All is ordered by preparation progress.
var All = []Status{
	Statuses.Pending,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
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

// Rank returns the position of a status in the preparation sequence, -1 if unknown.
func Rank(name string) int {
	for i, s := range All {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Next returns the status that follows name, or nil when name is the last one or unknown.
func Next(name string) *Status {
	r := Rank(name)
	if r < 0 || r+1 >= len(All) {
		return nil
	}
	next := All[r+1]
	return &next
}
