package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"

	"txdash/internal/core"
	"txdash/internal/source"
)

var _ source.Source = (*Store)(nil)

type Store struct {
	mu           sync.Mutex
	customers    []core.Customer
	transactions []core.Transaction
}

func New(customers []core.Customer, transactions []core.Transaction) *Store {
	return &Store{
		customers:    append([]core.Customer(nil), customers...),
		transactions: append([]core.Transaction(nil), transactions...),
	}
}

// NewFromFiles seeds the store from customers.json and transactions.json in
// base. Either file may be missing and records that fail validation are
// dropped; if both lists end up empty a small demo dataset is used instead.
func NewFromFiles(base string) *Store {
	var customers []core.Customer
	var transactions []core.Transaction
	readJSON(filepath.Join(base, "customers.json"), &customers)
	readJSON(filepath.Join(base, "transactions.json"), &transactions)
	customers = validOnly(customers, "customers.json")
	transactions = validOnly(transactions, "transactions.json")
	if len(customers) == 0 && len(transactions) == 0 {
		customers, transactions = demoData()
	}
	return New(customers, transactions)
}

// ListCustomers returns a copy of the seeded customers.
func (s *Store) ListCustomers(_ context.Context) ([]core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Customer(nil), s.customers...), nil
}

// ListTransactions returns a copy of the seeded transactions.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...), nil
}

func readJSON(path string, dst any) {
	b, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(b, dst); err != nil {
		slog.Warn("Ignoring malformed seed file", "path", path, "error", err)
	}
}

func validOnly[T interface{ Validate() error }](records []T, file string) []T {
	out := records[:0]
	for i, r := range records {
		if err := r.Validate(); err != nil {
			slog.Warn("Skipping invalid seed record", "file", file, "index", i, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out
}

func demoData() ([]core.Customer, []core.Transaction) {
	customers := []core.Customer{
		{ID: 1, Name: "Ahmed Ali"},
		{ID: 2, Name: "Aya Elsayed"},
		{ID: 3, Name: "Mina Adel"},
	}
	amt := decimal.NewFromInt
	transactions := []core.Transaction{
		{ID: 1, CustomerID: 1, Date: "2022-01-01", Amount: amt(1000)},
		{ID: 2, CustomerID: 1, Date: "2022-01-02", Amount: amt(2000)},
		{ID: 3, CustomerID: 2, Date: "2022-01-01", Amount: amt(550)},
		{ID: 4, CustomerID: 3, Date: "2022-01-01", Amount: amt(500)},
		{ID: 5, CustomerID: 2, Date: "2022-01-02", Amount: amt(1300)},
		{ID: 6, CustomerID: 1, Date: "2022-01-02", Amount: amt(1250)},
	}
	return customers, transactions
}
