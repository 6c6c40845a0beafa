package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "txdash/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Output: &buf})
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" })

	var seen string
	h := applog.Middleware(logger)(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		applog.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/customers", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("expected generated id, got %q", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header %q != context id %q", rr.Header().Get(HeaderRequestID), seen)
	}
	out := buf.String()
	if strings.Count(out, "request_id="+seen) != 2 || !strings.Contains(out, "status_code=418") {
		t.Fatalf("unexpected log output: %s", out)
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Fatalf("expected 1 request counted, got %d", got)
	}
}

func TestMiddlewareHonorsIncomingRequestID(t *testing.T) {
	m := NewMiddleware(nil)
	h := applog.Middleware(applog.New(applog.Config{Output: &bytes.Buffer{}}))(m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))

	tests := []struct {
		incoming string
		keep     bool
	}{
		{"abc-123", true},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, tt.incoming)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		got := rr.Header().Get(HeaderRequestID)
		if (got == tt.incoming) != tt.keep {
			t.Errorf("incoming %q: got %q keep=%v", tt.incoming, got, tt.keep)
		}
	}
}
