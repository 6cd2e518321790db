package floor

import (
	"testing"
	"time"

	"github.com/appetiteclub/payper/pkg/enums/kotstatus"
	"github.com/appetiteclub/payper/pkg/enums/orderstatus"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/appetiteclub/payper/services/pos/internal/tables"
	"github.com/google/uuid"
)

var (
	now     = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	tableT1 = &tables.Table{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Name: "T1"}
	tableT2 = &tables.Table{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Name: "T2"}
	tableT3 = &tables.Table{ID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), Name: "T3"}
	tableT4 = &tables.Table{ID: uuid.MustParse("44444444-4444-4444-4444-444444444444"), Name: "T4"}
)

func seated(table *tables.Table, status string, kots ...string) *order.Order {
	o := order.NewOrder(order.TypeDineIn)
	o.TableID = table.ID
	o.Status = status
	o.Timestamp = now.Add(-75 * time.Second).UnixMilli()
	for _, k := range kots {
		o.Items = append(o.Items, order.OrderItem{ID: uuid.New(), Quantity: 1, KOTStatus: k})
	}
	return o
}

func TestStatusOf(t *testing.T) {
	printed := kotstatus.Statuses.Printed.Code()
	fresh := kotstatus.Statuses.New.Code()

	tests := []struct {
		name  string
		order *order.Order
		want  string
	}{
		{name: "vacant", order: nil, want: "vacant"},
		{name: "running", order: seated(tableT1, orderstatus.Statuses.New.Code(), fresh), want: "running"},
		{name: "kotPrinted", order: seated(tableT1, orderstatus.Statuses.Confirmed.Code(), printed, fresh), want: "kot-printed"},
		{name: "billed", order: seated(tableT1, orderstatus.Statuses.Billed.Code(), printed), want: "billed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.order); got.Code() != tt.want {
				t.Errorf("StatusOf() = %s, want %s", got.Code(), tt.want)
			}
		})
	}
}

func TestElapsed(t *testing.T) {
	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{name: "justNow", ago: 0, want: "00:00"},
		{name: "seconds", ago: 9 * time.Second, want: "00:09"},
		{name: "minutes", ago: 12*time.Minute + 5*time.Second, want: "12:05"},
		{name: "pastTheHour", ago: 75 * time.Minute, want: "75:00"},
		{name: "clockSkew", ago: -time.Minute, want: "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Elapsed(now.Add(-tt.ago).UnixMilli(), now); got != tt.want {
				t.Errorf("Elapsed() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildGrid(t *testing.T) {
	printed := kotstatus.Statuses.Printed.Code()
	fresh := kotstatus.Statuses.New.Code()

	running := seated(tableT1, orderstatus.Statuses.Confirmed.Code(), printed, fresh)
	billed := seated(tableT2, orderstatus.Statuses.Billed.Code(), printed)
	paid := seated(tableT3, orderstatus.Statuses.Paid.Code(), printed)
	online := order.NewOrder(order.TypeOnline)
	online.Status = orderstatus.Statuses.Accepted.Code()

	list := []*tables.Table{tableT1, tableT2, tableT3}
	tiles := BuildGrid(list, []*order.Order{running, billed, paid, online}, now)

	if len(tiles) != 3 {
		t.Fatalf("BuildGrid() returned %d tiles, want 3", len(tiles))
	}

	t1 := tiles[0]
	if t1.Status != "kot-printed" || t1.StatusLabel != "KOT Printed" {
		t.Errorf("T1 status = %s (%s)", t1.Status, t1.StatusLabel)
	}
	if !t1.KOTPrinted || !t1.NeedsKOTPrint {
		t.Errorf("T1 flags = printed %v, needs %v", t1.KOTPrinted, t1.NeedsKOTPrint)
	}
	if t1.Elapsed != "01:15" || t1.OrderID == nil || *t1.OrderID != running.ID {
		t.Errorf("T1 tile = %+v", t1)
	}

	if tiles[1].Status != "billed" || tiles[1].NeedsKOTPrint {
		t.Errorf("T2 tile = %+v", tiles[1])
	}
	if tiles[2].Status != "vacant" || tiles[2].OrderID != nil || tiles[2].Elapsed != "" {
		t.Errorf("T3 tile = %+v, paid order should free the table", tiles[2])
	}

	counts := Counts(tiles)
	if counts["vacant"] != 1 || counts["billed"] != 1 || counts["kot-printed"] != 1 || counts["running"] != 0 {
		t.Errorf("Counts() = %v", counts)
	}
}

func TestVacantTables(t *testing.T) {
	fresh := kotstatus.Statuses.New.Code()
	moving := seated(tableT1, orderstatus.Statuses.New.Code(), fresh)
	staying := seated(tableT2, orderstatus.Statuses.Confirmed.Code(), fresh)
	cancelled := seated(tableT3, orderstatus.Statuses.Cancelled.Code(), fresh)
	orders := []*order.Order{moving, staying, cancelled}
	list := []*tables.Table{tableT1, tableT2, tableT3, tableT4}

	tests := []struct {
		name    string
		exclude uuid.UUID
		want    []string
	}{
		{name: "noExclusion", exclude: uuid.Nil, want: []string{"T3", "T4"}},
		{name: "switchingOrder", exclude: moving.ID, want: []string{"T1", "T3", "T4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VacantTables(list, orders, tt.exclude)
			if len(got) != len(tt.want) {
				t.Fatalf("VacantTables() = %d tables, want %v", len(got), tt.want)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("table %d = %s, want %s", i, got[i].Name, name)
				}
			}
		})
	}
}
