package core

import "testing"

func TestBuildDashboard(t *testing.T) {
	snap := Snapshot{
		Version:   3,
		Customers: []Customer{{ID: 1, Name: "Alice"}, {ID: 2, Name: "Bob"}},
		Transactions: []Transaction{
			tx(1, 1, "2024-01-01", "10"),
			tx(2, 2, "2024-01-01", "20"),
			tx(3, 1, "2024-01-02", "5"),
			tx(4, 1, "2024-01-02", "7.5"),
		},
	}

	d := BuildDashboard(snap, Filter{Name: "bob", SelectedCustomer: "1"})
	if d.Matched != 1 || len(d.Groups) != 1 || d.Groups[0].CustomerName != "Bob" {
		t.Fatalf("unexpected groups: %+v", d.Groups)
	}
	// The chart ignores the card filters.
	if len(d.Series) != 2 || d.Series[1].Total.String() != "12.5" {
		t.Fatalf("unexpected series: %+v", d.Series)
	}
	if !d.HasSelection || len(d.Customers) != 2 {
		t.Fatalf("unexpected selection state: %+v", d)
	}

	d = BuildDashboard(snap, Filter{})
	if d.HasSelection || len(d.Series) != 0 || d.Matched != 4 {
		t.Fatalf("empty filter: %+v", d)
	}
	if d := BuildDashboard(Snapshot{}, Filter{SelectedCustomer: "1"}); len(d.Groups) != 0 || len(d.Series) != 0 {
		t.Fatalf("empty snapshot should render nothing: %+v", d)
	}
}

func TestFilterKey(t *testing.T) {
	distinct := []struct {
		name string
		a, b Filter
	}{
		{"field boundary", Filter{Name: "a", Amount: "1"}, Filter{Name: "a1"}},
		{"NUL inside name", Filter{Name: "x\x00a=y"}, Filter{Name: "x", Amount: "y"}},
		{"separator inside amount", Filter{Amount: `1" c="2`}, Filter{Amount: "1", SelectedCustomer: "2"}},
		{"empty vs space", Filter{}, Filter{Name: " "}},
	}
	for _, tt := range distinct {
		t.Run(tt.name, func(t *testing.T) {
			if ka, kb := tt.a.Key(), tt.b.Key(); ka == kb {
				t.Fatalf("keys collide: %q", ka)
			}
		})
	}

	f := Filter{Name: "Ali", Amount: "10", SelectedCustomer: "1"}
	if f.Key() != f.Key() || (Filter{}).Key() != (Filter{}).Key() {
		t.Fatal("key not stable")
	}
}
