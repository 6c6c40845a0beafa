// Package worker reacts to dataset-updated messages by reloading the
// dashboard's snapshot.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"txdash/internal/amqp"
)

// Reloader refreshes the in-memory dataset.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloadWorker handles dataset-updated messages. Messages for a version
// already applied are acknowledged without reloading.
type ReloadWorker struct {
	reloader Reloader

	mu          sync.Mutex
	lastVersion int64
}

func NewReloadWorker(reloader Reloader) *ReloadWorker {
	return &ReloadWorker{reloader: reloader}
}

// HandleDatasetUpdated matches amqp.DatasetUpdatedHandler. A reload error
// is returned so the message is requeued.
func (w *ReloadWorker) HandleDatasetUpdated(ctx context.Context, msg *amqp.DatasetUpdatedMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if msg.Version <= w.lastVersion {
		slog.DebugContext(ctx, "Skipping stale dataset update",
			"version", msg.Version,
			"last_version", w.lastVersion)
		return nil
	}

	slog.InfoContext(ctx, "Reloading dataset",
		"version", msg.Version,
		"source", msg.Source)

	if err := w.reloader.Reload(ctx); err != nil {
		return fmt.Errorf("reload dataset version %d: %w", msg.Version, err)
	}
	w.lastVersion = msg.Version
	return nil
}

func (w *ReloadWorker) LastVersion() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastVersion
}
