package kotstatus

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

type Enum struct {
	New     Status
	Printed Status
}

var Statuses = Enum{
	New:     Status{Name: "new"},
	Printed: Status{Name: "printed"},
}

var All = []Status{
	Statuses.New,
	Statuses.Printed,
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
