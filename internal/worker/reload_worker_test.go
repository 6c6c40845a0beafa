package worker

import (
	"context"
	"errors"
	"testing"

	"txdash/internal/amqp"
)

type countingReloader struct {
	calls int
	err   error
}

func (c *countingReloader) Reload(context.Context) error {
	c.calls++
	return c.err
}

var _ amqp.DatasetUpdatedHandler = NewReloadWorker(nil).HandleDatasetUpdated

func TestReloadWorker(t *testing.T) {
	r := &countingReloader{}
	w := NewReloadWorker(r)
	ctx := context.Background()

	steps := []struct {
		version   int64
		err       error
		wantCalls int
		wantLast  int64
		wantErr   bool
	}{
		{version: 1, wantCalls: 1, wantLast: 1},
		{version: 1, wantCalls: 1, wantLast: 1}, // duplicate delivery
		{version: 3, wantCalls: 2, wantLast: 3},
		{version: 2, wantCalls: 2, wantLast: 3}, // out of order
		{version: 4, err: errors.New("upstream down"), wantCalls: 3, wantLast: 3, wantErr: true},
		{version: 4, wantCalls: 4, wantLast: 4}, // redelivered after requeue
	}

	for i, s := range steps {
		r.err = s.err
		err := w.HandleDatasetUpdated(ctx, &amqp.DatasetUpdatedMessage{Version: s.version, Source: "rest"})
		if (err != nil) != s.wantErr {
			t.Fatalf("step %d: err=%v wantErr=%v", i, err, s.wantErr)
		}
		if r.calls != s.wantCalls {
			t.Fatalf("step %d: reload calls=%d want %d", i, r.calls, s.wantCalls)
		}
		if w.LastVersion() != s.wantLast {
			t.Fatalf("step %d: last version=%d want %d", i, w.LastVersion(), s.wantLast)
		}
	}
}
