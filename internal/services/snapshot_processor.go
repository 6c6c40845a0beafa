package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"txdash/internal/core"
	"txdash/internal/loader"
	"txdash/internal/source"
)

// SnapshotWriter persists a full copy of both lists and returns its version.
type SnapshotWriter interface {
	ReplaceSnapshot(ctx context.Context, src string, customers []core.Customer, transactions []core.Transaction) (int64, error)
}

// Publisher announces a new snapshot version.
type Publisher interface {
	PublishDatasetUpdated(ctx context.Context, version int64, source string) error
}

type SnapshotProcessorConfig struct {
	// PollInterval between snapshots when running as a loop (default: 5m)
	PollInterval time.Duration

	// SourceName is recorded with each snapshot and in published messages
	SourceName string
}

func DefaultSnapshotProcessorConfig() SnapshotProcessorConfig {
	return SnapshotProcessorConfig{
		PollInterval: 5 * time.Minute,
		SourceName:   "rest",
	}
}

// SnapshotProcessor copies the upstream dataset into local storage and
// notifies subscribers. Publishing is optional.
type SnapshotProcessor struct {
	upstream  source.Source
	store     SnapshotWriter
	publisher Publisher
	config    SnapshotProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSnapshotProcessor(upstream source.Source, store SnapshotWriter, publisher Publisher, config SnapshotProcessorConfig) *SnapshotProcessor {
	return &SnapshotProcessor{
		upstream:  upstream,
		store:     store,
		publisher: publisher,
		config:    config,
	}
}

// RunOnce takes one snapshot. A publish failure is logged but does not fail
// the run: the data is already committed.
func (p *SnapshotProcessor) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()

	customers, transactions, err := loader.Fetch(ctx, p.upstream)
	if err != nil {
		return 0, fmt.Errorf("fetch upstream dataset: %w", err)
	}
	if (core.Snapshot{Customers: customers, Transactions: transactions}).Empty() {
		slog.WarnContext(ctx, "Upstream returned an empty dataset", "source", p.config.SourceName)
	}

	version, err := p.store.ReplaceSnapshot(ctx, p.config.SourceName, customers, transactions)
	if err != nil {
		return 0, fmt.Errorf("store snapshot: %w", err)
	}

	if p.publisher != nil {
		if err := p.publisher.PublishDatasetUpdated(ctx, version, p.config.SourceName); err != nil {
			slog.WarnContext(ctx, "Failed to publish dataset update",
				"version", version, "error", err)
		}
	}

	slog.InfoContext(ctx, "Snapshot taken",
		"version", version,
		"customers", len(customers),
		"transactions", len(transactions),
		"duration", time.Since(start))
	return version, nil
}

// Start runs RunOnce immediately and then on every PollInterval.
func (p *SnapshotProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("snapshot processor is already running")
	}
	if p.config.PollInterval <= 0 {
		p.mu.Unlock()
		return fmt.Errorf("invalid poll interval %v", p.config.PollInterval)
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Snapshot processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop signals the loop and waits for the current snapshot to finish.
func (p *SnapshotProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Snapshot processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Snapshot processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *SnapshotProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SnapshotProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.runLogged(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runLogged(ctx)
		}
	}
}

func (p *SnapshotProcessor) runLogged(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Snapshot failed", "error", err)
	}
}
