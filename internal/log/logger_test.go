package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Component: ComponentLoader, Output: &buf}), &buf
}

func TestLoggerStampsComponent(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	logger.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "component=loader") || !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	logger.WithComponent(ComponentHTTP).Warn("child")
	if !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("child logger lost component: %q", buf.String())
	}
	if logger.Component() != ComponentLoader {
		t.Fatalf("parent component changed to %q", logger.Component())
	}
}

func TestLoggerLevelFilters(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn)
	logger.Debug("hidden")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	logger.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %+v", l)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		}),
	))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id missing: %q", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{503, "level=ERROR"},
	}
	for _, tt := range tests {
		logger, buf := newBufferLogger(slog.LevelDebug)
		sl := NewStructuredLogger(logger)
		r := httptest.NewRequest(http.MethodGet, "/api/customers?x=1", nil)
		sl.LogHTTPEnd(context.Background(), r, tt.status, 3, "127.0.0.1")
		out := buf.String()
		if !strings.Contains(out, tt.level) || !strings.Contains(out, "path=/api/customers") {
			t.Errorf("status %d: unexpected output %q", tt.status, out)
		}
	}

	logger, buf := newBufferLogger(slog.LevelDebug)
	sl := NewStructuredLogger(logger)
	sl.LogSnapshotLoaded(context.Background(), OpLoad, 3, 2, 5)
	if out := buf.String(); !strings.Contains(out, "snapshot_version=3") || !strings.Contains(out, "transactions=5") {
		t.Errorf("unexpected snapshot log %q", out)
	}

	buf.Reset()
	sl.LogError(context.Background(), "fetch failed", errors.New("boom"), ComponentSource, OpFetch, nil)
	if out := buf.String(); !strings.Contains(out, "error=boom") || !strings.Contains(out, "component=source") {
		t.Errorf("unexpected error log %q", out)
	}
}
