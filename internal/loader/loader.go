// Package loader fetches the dataset from a source and holds the current
// snapshot for concurrent readers.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"txdash/internal/core"
	applog "txdash/internal/log"
	"txdash/internal/source"
)

// Loader owns the current snapshot. Until the first load completes it
// reports Loading() == true and serves an empty snapshot.
type Loader struct {
	src    source.Source
	logger *applog.Logger
	events *applog.StructuredLogger
	now    func() time.Time

	// loadMu serializes fetches so reloads never interleave.
	loadMu sync.Mutex

	mu      sync.RWMutex
	snap    core.Snapshot
	loading bool
	loaded  bool
	lastErr error
}

func New(src source.Source, logger *applog.Logger) *Loader {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Loader{
		src:     src,
		logger:  logger.WithComponent(applog.ComponentLoader),
		events:  applog.NewStructuredLogger(logger),
		now:     time.Now,
		loading: true,
	}
}

// Load fetches both lists concurrently. Either both succeed or the snapshot
// is replaced by empty lists; the error is kept and returned.
func (l *Loader) Load(ctx context.Context) error {
	return l.load(ctx, applog.OpLoad)
}

// Reload is Load, triggered after the initial fetch (e.g. by a
// dataset-updated message).
func (l *Loader) Reload(ctx context.Context) error {
	return l.load(ctx, applog.OpReload)
}

func (l *Loader) load(ctx context.Context, op string) error {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	// Only the first load shows as loading; reloads keep serving the
	// current snapshot until the new one is ready.
	l.mu.Lock()
	l.loading = !l.loaded
	l.mu.Unlock()

	customers, transactions, err := Fetch(ctx, l.src)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	l.loaded = true
	l.lastErr = err

	next := core.Snapshot{
		Version:  l.snap.Version + 1,
		LoadedAt: l.now(),
	}
	if err != nil {
		l.events.LogError(ctx, "Error fetching data", err, applog.ComponentLoader, op, nil)
		next.Customers = []core.Customer{}
		next.Transactions = []core.Transaction{}
		l.snap = next
		return err
	}

	next.Customers = customers
	next.Transactions = transactions
	l.snap = next
	l.events.LogSnapshotLoaded(ctx, op, next.Version, len(customers), len(transactions))
	return nil
}

// Fetch reads both lists from src concurrently. If either read fails the
// other is cancelled and neither list is returned.
func Fetch(ctx context.Context, src source.Source) ([]core.Customer, []core.Transaction, error) {
	var (
		customers    []core.Customer
		transactions []core.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cs, err := src.ListCustomers(gctx)
		if err != nil {
			return fmt.Errorf("fetch customers: %w", err)
		}
		customers = cs
		return nil
	})
	g.Go(func() error {
		txs, err := src.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		transactions = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if customers == nil {
		customers = []core.Customer{}
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	return customers, transactions, nil
}

// Snapshot returns the current snapshot. Callers must not mutate its slices.
func (l *Loader) Snapshot() core.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

func (l *Loader) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

// Ready reports whether the first load has completed, successfully or not.
func (l *Loader) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

func (l *Loader) LastError() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}
