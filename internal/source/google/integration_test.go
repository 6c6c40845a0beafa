//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"
)

// Integration tests need a real spreadsheet and service account.
// Run with: go test -tags=integration ./internal/source/google

func TestIntegration_ReadSpreadsheet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" &&
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" &&
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Config{
		SpreadsheetID:     spreadsheetID,
		CustomersSheet:    os.Getenv("GOOGLE_CUSTOMERS_SHEET"),
		TransactionsSheet: os.Getenv("GOOGLE_TRANSACTIONS_SHEET"),
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	customers, err := client.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	for _, c := range customers {
		if err := c.Validate(); err != nil {
			t.Errorf("customer %+v: %v", c, err)
		}
	}

	transactions, err := client.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	t.Logf("read %d customers and %d transactions", len(customers), len(transactions))
}
