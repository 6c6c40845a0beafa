package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"txdash/internal/core"
)

type stubSource struct {
	customers    []core.Customer
	transactions []core.Transaction
	err          error
}

func (s *stubSource) ListCustomers(context.Context) ([]core.Customer, error) {
	return s.customers, s.err
}

func (s *stubSource) ListTransactions(context.Context) ([]core.Transaction, error) {
	return s.transactions, nil
}

type recordingStore struct {
	mu      sync.Mutex
	calls   int
	src     string
	lastTxs []core.Transaction
	err     error
}

func (r *recordingStore) ReplaceSnapshot(_ context.Context, src string, _ []core.Customer, txs []core.Transaction) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.calls++
	r.src = src
	r.lastTxs = txs
	return int64(r.calls), nil
}

func (r *recordingStore) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type recordingPublisher struct {
	versions []int64
	err      error
}

func (r *recordingPublisher) PublishDatasetUpdated(_ context.Context, version int64, _ string) error {
	r.versions = append(r.versions, version)
	return r.err
}

func upstream() *stubSource {
	return &stubSource{
		customers:    []core.Customer{{ID: 1, Name: "Alice"}},
		transactions: []core.Transaction{{ID: 1, CustomerID: 1, Date: "2024-01-01", Amount: decimal.NewFromInt(5)}},
	}
}

func TestDefaultSnapshotProcessorConfig(t *testing.T) {
	config := DefaultSnapshotProcessorConfig()
	if config.PollInterval != 5*time.Minute {
		t.Errorf("expected PollInterval 5m, got %v", config.PollInterval)
	}
	if config.SourceName != "rest" {
		t.Errorf("expected SourceName rest, got %q", config.SourceName)
	}
}

func TestSnapshotProcessor_RunOnce(t *testing.T) {
	store := &recordingStore{}
	pub := &recordingPublisher{}
	p := NewSnapshotProcessor(upstream(), store, pub, DefaultSnapshotProcessorConfig())

	version, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if version != 1 || store.src != "rest" || len(store.lastTxs) != 1 {
		t.Fatalf("unexpected store state: version=%d %+v", version, store)
	}
	if len(pub.versions) != 1 || pub.versions[0] != 1 {
		t.Fatalf("expected publish of version 1, got %v", pub.versions)
	}
}

func TestSnapshotProcessor_RunOnceErrors(t *testing.T) {
	t.Run("upstream failure stores nothing", func(t *testing.T) {
		store := &recordingStore{}
		pub := &recordingPublisher{}
		src := upstream()
		src.err = errors.New("down")
		p := NewSnapshotProcessor(src, store, pub, DefaultSnapshotProcessorConfig())
		if _, err := p.RunOnce(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if store.Calls() != 0 || len(pub.versions) != 0 {
			t.Fatalf("nothing should be stored or published")
		}
	})

	t.Run("store failure is not published", func(t *testing.T) {
		store := &recordingStore{err: errors.New("disk full")}
		pub := &recordingPublisher{}
		p := NewSnapshotProcessor(upstream(), store, pub, DefaultSnapshotProcessorConfig())
		if _, err := p.RunOnce(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if len(pub.versions) != 0 {
			t.Fatalf("unexpected publish %v", pub.versions)
		}
	})

	t.Run("publish failure keeps snapshot", func(t *testing.T) {
		store := &recordingStore{}
		pub := &recordingPublisher{err: errors.New("broker down")}
		p := NewSnapshotProcessor(upstream(), store, pub, DefaultSnapshotProcessorConfig())
		if v, err := p.RunOnce(context.Background()); err != nil || v != 1 {
			t.Fatalf("expected success despite publish failure, got v=%d err=%v", v, err)
		}
	})

	t.Run("empty upstream is stored with a warning", func(t *testing.T) {
		var buf bytes.Buffer
		prev := slog.Default()
		slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
		t.Cleanup(func() { slog.SetDefault(prev) })

		store := &recordingStore{}
		p := NewSnapshotProcessor(&stubSource{}, store, nil, DefaultSnapshotProcessorConfig())
		if v, err := p.RunOnce(context.Background()); err != nil || v != 1 {
			t.Fatalf("RunOnce: v=%d err=%v", v, err)
		}
		if !strings.Contains(buf.String(), "Upstream returned an empty dataset") {
			t.Fatalf("missing empty dataset warning in %q", buf.String())
		}
	})

	t.Run("nil publisher", func(t *testing.T) {
		p := NewSnapshotProcessor(upstream(), &recordingStore{}, nil, DefaultSnapshotProcessorConfig())
		if _, err := p.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
	})
}

func TestSnapshotProcessor_Lifecycle(t *testing.T) {
	store := &recordingStore{}
	config := SnapshotProcessorConfig{PollInterval: 10 * time.Millisecond, SourceName: "memory"}
	p := NewSnapshotProcessor(upstream(), store, nil, config)

	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop should not error when not running: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("expected error when starting already running processor")
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.Calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Calls() < 2 {
		t.Fatalf("expected repeated snapshots, got %d", store.Calls())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Fatal("processor should not be running after Stop")
	}
}

func TestSnapshotProcessor_InvalidInterval(t *testing.T) {
	p := NewSnapshotProcessor(upstream(), &recordingStore{}, nil, SnapshotProcessorConfig{})
	if err := p.Start(context.Background()); err == nil {
		t.Fatal("expected error for zero poll interval")
	}
}
