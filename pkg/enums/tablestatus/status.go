package tablestatus

type Status struct {
	Name  string
	label string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	return s.label
}

type Enum struct {
	Vacant     Status
	Running    Status
	KOTPrinted Status
	Billed     Status
}

var Statuses = Enum{
	Vacant:     Status{Name: "vacant", label: "Vacant"},
	Running:    Status{Name: "running", label: "Running"},
	KOTPrinted: Status{Name: "kot-printed", label: "KOT Printed"},
	Billed:     Status{Name: "billed", label: "Billed"},
}

var All = []Status{
	Statuses.Vacant,
	Statuses.Running,
	Statuses.KOTPrinted,
	Statuses.Billed,
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
