package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"txdash/internal/core"
	"txdash/internal/source"
)

// Ensure interface conformance
var _ source.Source = (*Client)(nil)

// Config selects the spreadsheet and the two tabs to read.
type Config struct {
	SpreadsheetID     string
	CustomersSheet    string // default "Customers"
	TransactionsSheet string // default "Transactions"
}

// Client reads customers and transactions from a Google spreadsheet. Each
// tab starts with a header row; columns are located by header name.
type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	customersSheet    string
	transactionsSheet string
}

// New creates a Sheets client using service account credentials.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, spreadsheetID, cfg), nil
}

func newClient(svc *gsheet.Service, spreadsheetID string, cfg Config) *Client {
	customers := strings.TrimSpace(cfg.CustomersSheet)
	if customers == "" {
		customers = "Customers"
	}
	transactions := strings.TrimSpace(cfg.TransactionsSheet)
	if transactions == "" {
		transactions = "Transactions"
	}
	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		customersSheet:    customers,
		transactionsSheet: transactions,
	}
}

// newSheetsService initializes a read-only Sheets Service using Service
// Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ListCustomers implements source.CustomerReader
func (c *Client) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	values, err := c.readRange(ctx, c.customersSheet, "A:B")
	if err != nil {
		return nil, err
	}
	return parseCustomers(values)
}

// ListTransactions implements source.TransactionReader
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	values, err := c.readRange(ctx, c.transactionsSheet, "A:D")
	if err != nil {
		return nil, err
	}
	return parseTransactions(values)
}

func (c *Client) readRange(ctx context.Context, sheetName, cols string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheetName, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	slog.DebugContext(ctx, "Read sheet range", "range", rng, "rows", len(resp.Values))
	return resp.Values, nil
}
