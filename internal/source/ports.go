package source

import (
	"context"

	"txdash/internal/core"
)

// Ports for the data sources the dashboard reads from.
type (
	CustomerReader interface {
		ListCustomers(ctx context.Context) ([]core.Customer, error)
	}

	TransactionReader interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// Source is a backend able to serve both lists.
	Source interface {
		CustomerReader
		TransactionReader
	}
)
