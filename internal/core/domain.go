package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownCustomer is the display name for transactions whose customer_id
// does not match any known customer.
const UnknownCustomer = "Unknown"

type (
	Customer struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Transaction struct {
		ID         int64           `json:"id"`
		CustomerID int64           `json:"customer_id"`
		Date       string          `json:"date"` // opaque label, never parsed
		Amount     decimal.Decimal `json:"amount"`
	}

	// CustomerGroup is one display card: a resolved name and its transactions.
	CustomerGroup struct {
		CustomerName string
		Transactions []Transaction
	}

	// DailyTotal is the summed amount of one customer's transactions that
	// share a date label.
	DailyTotal struct {
		Date  string
		Total decimal.Decimal
	}

	// Snapshot is an immutable copy of both lists as fetched from a source.
	Snapshot struct {
		Version      int64
		LoadedAt     time.Time
		Customers    []Customer
		Transactions []Transaction
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidID     = errors.New("invalid id")
	ErrEmptyName     = errors.New("empty customer name")
)

func (c Customer) Validate() error {
	if c.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Validate only checks identity; customer_id is allowed to dangle and the
// amount may be zero or negative.
func (t Transaction) Validate() error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	return nil
}

// Empty reports whether the snapshot holds no records at all.
func (s Snapshot) Empty() bool {
	return len(s.Customers) == 0 && len(s.Transactions) == 0
}
