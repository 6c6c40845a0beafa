package google

import (
	"fmt"
	"strconv"
	"strings"

	"txdash/internal/core"
)

// parseCustomers converts a values matrix (as returned by Sheets API) into
// customers. The first row must hold "id" and "name" headers in any order.
// Blank rows are skipped.
func parseCustomers(values [][]interface{}) ([]core.Customer, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colID := indexOf(headers, "id")
	colName := indexOf(headers, "name")
	if err := requireColumns(headers, map[string]int{"id": colID, "name": colName}); err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}

	var out []core.Customer
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if blank(row) {
			continue
		}
		id, err := parseID(safeGet(row, colID))
		if err != nil {
			return nil, fmt.Errorf("customers row %d: id: %w", i+1, err)
		}
		c := core.Customer{ID: id, Name: safeGet(row, colName)}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("customers row %d: %w", i+1, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// parseTransactions converts a values matrix into transactions. The header
// row must hold "id", "customer_id", "date" and "amount". Amounts accept a
// decimal comma.
func parseTransactions(values [][]interface{}) ([]core.Transaction, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := map[string]int{
		"id":          indexOf(headers, "id"),
		"customer_id": indexOf(headers, "customer_id"),
		"date":        indexOf(headers, "date"),
		"amount":      indexOf(headers, "amount"),
	}
	if err := requireColumns(headers, cols); err != nil {
		return nil, fmt.Errorf("transactions: %w", err)
	}

	var out []core.Transaction
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if blank(row) {
			continue
		}
		id, err := parseID(safeGet(row, cols["id"]))
		if err != nil {
			return nil, fmt.Errorf("transactions row %d: id: %w", i+1, err)
		}
		customerID, err := parseID(safeGet(row, cols["customer_id"]))
		if err != nil {
			return nil, fmt.Errorf("transactions row %d: customer_id: %w", i+1, err)
		}
		amount, err := core.ParseAmount(safeGet(row, cols["amount"]))
		if err != nil {
			return nil, fmt.Errorf("transactions row %d: amount %q: %w", i+1, safeGet(row, cols["amount"]), err)
		}
		tx := core.Transaction{
			ID:         id,
			CustomerID: customerID,
			Date:       safeGet(row, cols["date"]),
			Amount:     amount,
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("transactions row %d: %w", i+1, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func requireColumns(headers []string, cols map[string]int) error {
	var missing []string
	for _, name := range []string{"id", "customer_id", "name", "date", "amount"} {
		if idx, ok := cols[name]; ok && idx == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, core.ErrInvalidID
	}
	return id, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
