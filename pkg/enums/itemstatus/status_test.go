package itemstatus

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "pending", want: "preparing"},
		{name: "preparing", want: "ready"},
		{name: "ready", want: "served"},
		{name: "served", want: ""},
		{name: "burnt", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := Next(tt.name)
			got := ""
			if next != nil {
				got = next.Code()
			}
			if got != tt.want {
				t.Errorf("Next(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestRank(t *testing.T) {
	if Rank("pending") >= Rank("served") {
		t.Error("pending should rank before served")
	}
	if Rank("unknown") != -1 {
		t.Error("unknown status should rank -1")
	}
}

func TestLabel(t *testing.T) {
	if got := Statuses.Preparing.Label(); got != "Preparing" {
		t.Errorf("Label() = %q", got)
	}
	if got := (Status{}).Label(); got != "" {
		t.Errorf("empty Label() = %q", got)
	}
}
