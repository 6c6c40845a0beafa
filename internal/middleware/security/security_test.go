package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Frame-Options") != "DENY" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing basic headers: %v", rr.Header())
	}
	if !strings.Contains(rr.Header().Get("Content-Security-Policy"), "https://cdn.jsdelivr.net") {
		t.Fatalf("CSP should allow the chart library: %q", rr.Header().Get("Content-Security-Policy"))
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if !strings.HasPrefix(rr.Header().Get("Strict-Transport-Security"), "max-age=31536000") {
		t.Fatalf("expected HSTS over TLS, got %q", rr.Header().Get("Strict-Transport-Security"))
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		method, target string
		want           bool
	}{
		{http.MethodGet, "/ui/customer-cards?name=ali&amount=10", false},
		{http.MethodGet, "/../../etc/passwd", true},
		{http.MethodGet, "/?name=%3Cscript%3E", false},
		{http.MethodGet, "/?name=<script>", true},
		{"TRACE", "/", true},
		{http.MethodGet, "/?q=" + strings.Repeat("a", 2100), true},
	}
	flagged := int64(0)
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/", nil)
		req.URL.Path, req.URL.RawQuery, _ = strings.Cut(tt.target, "?")
		if got := d.DetectSuspiciousRequest(req); got != tt.want {
			t.Errorf("%s %s: got %v want %v", tt.method, tt.target, got, tt.want)
		}
		if tt.want {
			flagged++
		}
	}
	if d.SuspiciousCount() != flagged {
		t.Errorf("count = %d, want %d", d.SuspiciousCount(), flagged)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name, remote, xff, xri, want string
	}{
		{"direct public", "203.0.113.9:1234", "", "", "203.0.113.9"},
		{"spoofed header from public peer", "203.0.113.9:1234", "1.2.3.4", "", "203.0.113.9"},
		{"forwarded by trusted proxy", "10.0.0.2:80", "198.51.100.7, 10.0.0.2", "", "198.51.100.7"},
		{"real ip by trusted proxy", "127.0.0.1:80", "", "198.51.100.8", "198.51.100.8"},
		{"garbage forwarded header", "127.0.0.1:80", "nope", "", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(req); got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}
