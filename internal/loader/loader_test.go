package loader

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"txdash/internal/core"
	applog "txdash/internal/log"
)

type fakeSource struct {
	mu           sync.Mutex
	customers    []core.Customer
	transactions []core.Transaction
	customerErr  error
	txErr        error
	block        chan struct{}
}

func (f *fakeSource) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers, f.customerErr
}

func (f *fakeSource) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transactions, f.txErr
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func sampleSource() *fakeSource {
	return &fakeSource{
		customers: []core.Customer{{ID: 1, Name: "Alice"}},
		transactions: []core.Transaction{
			{ID: 1, CustomerID: 1, Date: "2024-01-01", Amount: decimal.NewFromInt(10)},
		},
	}
}

func TestLoaderInitialState(t *testing.T) {
	l := New(sampleSource(), quietLogger())
	if !l.Loading() {
		t.Fatal("expected loading before first load")
	}
	if l.Ready() {
		t.Fatal("expected not ready before first load")
	}
	if s := l.Snapshot(); !s.Empty() || s.Version != 0 {
		t.Fatalf("expected empty zero snapshot, got %+v", s)
	}
}

func TestLoaderLoadSuccess(t *testing.T) {
	l := New(sampleSource(), quietLogger())
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Loading() || !l.Ready() || l.LastError() != nil {
		t.Fatalf("unexpected state loading=%v ready=%v err=%v", l.Loading(), l.Ready(), l.LastError())
	}
	s := l.Snapshot()
	if s.Version != 1 || len(s.Customers) != 1 || len(s.Transactions) != 1 || s.LoadedAt.IsZero() {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestLoaderFailureYieldsEmptyLists(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"customers fail", &fakeSource{customerErr: errors.New("down"), transactions: sampleSource().transactions}},
		{"transactions fail", &fakeSource{customers: sampleSource().customers, txErr: errors.New("down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.src, quietLogger())
			err := l.Load(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if l.Loading() {
				t.Fatal("loading flag must clear on failure")
			}
			if !l.Ready() || !errors.Is(l.LastError(), err) {
				t.Fatalf("expected ready with last error, got ready=%v err=%v", l.Ready(), l.LastError())
			}
			s := l.Snapshot()
			if s.Customers == nil || s.Transactions == nil || len(s.Customers) != 0 || len(s.Transactions) != 0 {
				t.Fatalf("expected both lists empty, got %+v", s)
			}
		})
	}
}

func TestLoaderReloadReplacesSnapshot(t *testing.T) {
	src := sampleSource()
	l := New(src, quietLogger())
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	src.mu.Lock()
	src.customers = append(src.customers, core.Customer{ID: 2, Name: "Bob"})
	src.mu.Unlock()

	if err := l.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	s := l.Snapshot()
	if s.Version != 2 || len(s.Customers) != 2 {
		t.Fatalf("expected version 2 with 2 customers, got %+v", s)
	}

	src.mu.Lock()
	src.txErr = errors.New("gone")
	src.mu.Unlock()
	if err := l.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if s := l.Snapshot(); s.Version != 3 || !s.Empty() {
		t.Fatalf("expected empty version 3 after failed reload, got %+v", s)
	}

	src.mu.Lock()
	src.txErr = nil
	src.mu.Unlock()
	if err := l.Reload(context.Background()); err != nil || l.LastError() != nil {
		t.Fatalf("expected recovery, err=%v last=%v", err, l.LastError())
	}
}

func TestLoaderLoadingDuringFetch(t *testing.T) {
	src := sampleSource()
	src.block = make(chan struct{})
	l := New(src, quietLogger())

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background()) }()

	if !l.Loading() {
		t.Fatal("expected loading while fetch is blocked")
	}
	close(src.block)
	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Loading() {
		t.Fatal("expected loading cleared")
	}

	src.block = make(chan struct{})
	go func() { done <- l.Reload(context.Background()) }()
	if l.Loading() {
		t.Fatal("reload must not flip the page back to loading")
	}
	close(src.block)
	if err := <-done; err != nil {
		t.Fatalf("Reload: %v", err)
	}
}

func TestLoaderCancelledContext(t *testing.T) {
	src := sampleSource()
	src.block = make(chan struct{})
	l := New(src, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !l.Snapshot().Empty() {
		t.Fatal("expected empty snapshot after cancelled load")
	}
}
