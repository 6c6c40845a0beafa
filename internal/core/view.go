package core

import (
	"strconv"
	"strings"
)

// Filter is the user-controlled dashboard state.
type Filter struct {
	Name             string
	Amount           string
	SelectedCustomer string
}

// Dashboard is everything one render needs, derived from a snapshot.
type Dashboard struct {
	Groups       []CustomerGroup
	Series       []DailyTotal
	Customers    []Customer
	HasSelection bool
	Matched      int
}

// BuildDashboard recomputes the whole view. The chart series is taken from
// all transactions, not the filtered ones, so typing in the filters never
// changes the chart.
func BuildDashboard(s Snapshot, f Filter) Dashboard {
	ix := NewCustomerIndex(s.Customers)
	filtered := filterWithIndex(s.Transactions, ix, f.Name, f.Amount)
	return Dashboard{
		Groups:       groupWithIndex(filtered, ix),
		Series:       AggregateDailyTotals(s.Transactions, f.SelectedCustomer),
		Customers:    s.Customers,
		HasSelection: f.SelectedCustomer != "",
		Matched:      len(filtered),
	}
}

// Key returns a stable cache key for the filter. Each field is quoted, so
// distinct filters never share a key whatever bytes they contain.
func (f Filter) Key() string {
	var b strings.Builder
	b.WriteString("n=")
	b.WriteString(strconv.Quote(f.Name))
	b.WriteString(" a=")
	b.WriteString(strconv.Quote(f.Amount))
	b.WriteString(" c=")
	b.WriteString(strconv.Quote(f.SelectedCustomer))
	return b.String()
}
