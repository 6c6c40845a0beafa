package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ResolveCustomerName returns the name of the first customer with the given
// id, or UnknownCustomer if there is none.
func ResolveCustomerName(customerID int64, customers []Customer) string {
	for _, c := range customers {
		if c.ID == customerID {
			return c.Name
		}
	}
	return UnknownCustomer
}

// CustomerIndex is an id -> name lookup with the same first-wins semantics
// as ResolveCustomerName.
type CustomerIndex struct {
	names map[int64]string
}

func NewCustomerIndex(customers []Customer) CustomerIndex {
	names := make(map[int64]string, len(customers))
	for _, c := range customers {
		if _, ok := names[c.ID]; ok {
			continue
		}
		names[c.ID] = c.Name
	}
	return CustomerIndex{names: names}
}

// Name resolves a customer id, defaulting to UnknownCustomer.
func (ix CustomerIndex) Name(customerID int64) string {
	if name, ok := ix.names[customerID]; ok {
		return name
	}
	return UnknownCustomer
}

// FilterTransactions keeps the transactions whose resolved customer name
// contains nameQuery (case-insensitive) and whose printed amount contains
// amountQuery. An empty query matches everything. Input order is kept.
func FilterTransactions(transactions []Transaction, customers []Customer, nameQuery, amountQuery string) []Transaction {
	return filterWithIndex(transactions, NewCustomerIndex(customers), nameQuery, amountQuery)
}

func filterWithIndex(transactions []Transaction, ix CustomerIndex, nameQuery, amountQuery string) []Transaction {
	needle := strings.ToLower(nameQuery)
	out := make([]Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if needle != "" && !strings.Contains(strings.ToLower(ix.Name(tx.CustomerID)), needle) {
			continue
		}
		if amountQuery != "" && !strings.Contains(AmountString(tx.Amount), amountQuery) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// GroupByCustomerName groups transactions by resolved customer name in
// first-seen order. Distinct ids sharing a name end up in the same group,
// including every unresolved id under UnknownCustomer.
func GroupByCustomerName(transactions []Transaction, customers []Customer) []CustomerGroup {
	return groupWithIndex(transactions, NewCustomerIndex(customers))
}

func groupWithIndex(transactions []Transaction, ix CustomerIndex) []CustomerGroup {
	var groups []CustomerGroup
	pos := make(map[string]int)
	for _, tx := range transactions {
		name := ix.Name(tx.CustomerID)
		i, ok := pos[name]
		if !ok {
			i = len(groups)
			pos[name] = i
			groups = append(groups, CustomerGroup{CustomerName: name})
		}
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}
	return groups
}

// AggregateDailyTotals sums the selected customer's amounts per date label
// in first-seen date order. An empty or unparsable selection yields nil.
func AggregateDailyTotals(transactions []Transaction, selectedCustomerID string) []DailyTotal {
	id, ok := ParseCustomerID(selectedCustomerID)
	if !ok {
		return nil
	}
	var totals []DailyTotal
	pos := make(map[string]int)
	for _, tx := range transactions {
		if tx.CustomerID != id {
			continue
		}
		i, seen := pos[tx.Date]
		if !seen {
			pos[tx.Date] = len(totals)
			totals = append(totals, DailyTotal{Date: tx.Date, Total: tx.Amount})
			continue
		}
		totals[i].Total = totals[i].Total.Add(tx.Amount)
	}
	return totals
}

// ParseCustomerID parses a customer selection the way a browser's parseInt
// would: leading whitespace and a sign are skipped, then the leading run of
// decimal digits is used ("12abc" -> 12, "1.5" -> 1). It reports false when
// there are no digits.
func ParseCustomerID(s string) (int64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		id = -id
	}
	return id, true
}
