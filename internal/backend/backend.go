// Package backend selects the data source the dashboard reads from.
package backend

import (
	"context"
	"fmt"
	"time"

	"txdash/internal/config"
	"txdash/internal/source"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the source and an optional cleanup function.
type BackendResult struct {
	Source  source.Source
	Cleanup CleanupFunc
}

// Factory creates sources from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// REST
	BaseURL string
	Timeout time.Duration

	// Memory
	DataDirectory string

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID     string
	GoogleCustomersSheet    string
	GoogleTransactionsSheet string
}

type BackendType string

const (
	RESTBackend   BackendType = config.BackendREST
	MemoryBackend BackendType = config.BackendMemory
	SQLiteBackend BackendType = config.BackendSQLite
	SheetsBackend BackendType = config.BackendSheets
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case RESTBackend, MemoryBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:                    backendType,
		BaseURL:                 appConfig.BackendBaseURL,
		Timeout:                 appConfig.BackendTimeout,
		DataDirectory:           appConfig.DataDir,
		SQLiteDBPath:            appConfig.SQLiteDBPath,
		GoogleSpreadsheetID:     appConfig.GoogleSpreadsheetID,
		GoogleCustomersSheet:    appConfig.GoogleCustomersSheet,
		GoogleTransactionsSheet: appConfig.GoogleTransactionsSheet,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case RESTBackend:
		if c.BaseURL == "" {
			return fmt.Errorf("base URL is required for rest backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data"
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{RESTBackend, MemoryBackend, SQLiteBackend, SheetsBackend}
}
