package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"txdash/internal/cache"
	"txdash/internal/core"
	applog "txdash/internal/log"
	"txdash/internal/middleware/ratelimit"
	"txdash/internal/middleware/security"
	"txdash/internal/middleware/trace"
	appweb "txdash/web"
)

// Snapshotter is the read side of the loader.
type Snapshotter interface {
	Snapshot() core.Snapshot
	Loading() bool
	Ready() bool
	LastError() error
}

type Options struct {
	Logger          *applog.Logger
	ViewCacheSize   int
	ViewCacheTTL    time.Duration
	CleanupInterval time.Duration
	RateLimit       ratelimit.Config
}

type Server struct {
	http.Server
	snaps     Snapshotter
	templates *template.Template
	logger    *applog.Logger

	viewCache *cache.LRUCache[core.Dashboard]
	caches    *cache.Manager

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, snaps Snapshotter, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.ViewCacheSize <= 0 {
		opts.ViewCacheSize = 200
	}
	if opts.ViewCacheTTL <= 0 {
		opts.ViewCacheTTL = time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}

	detector := security.NewDetector()
	s := &Server{
		snaps:       snaps,
		logger:      opts.Logger.WithComponent(applog.ComponentHTTP),
		viewCache:   cache.NewLRUCache[core.Dashboard](opts.ViewCacheSize, opts.ViewCacheTTL),
		caches:      cache.NewManager(),
		detector:    detector,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		tracer:      trace.NewMiddleware(detector.ExtractClientIP),
	}
	s.caches.Register(s.viewCache)
	s.caches.StartCleanup(opts.CleanupInterval)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		opts.Logger.WithComponent(applog.ComponentTemplate).Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	app := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		app.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}
	app.HandleFunc("GET /{$}", s.handleIndex)
	app.HandleFunc("GET /ui/customer-cards", s.handleCustomerCards)
	app.HandleFunc("GET /api/customers", s.handleCustomers)
	app.HandleFunc("GET /api/daily-totals", s.handleDailyTotals)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/", s.protect(app))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           headers.Middleware(root),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// protect wraps app routes with request logging, probe detection and rate
// limiting. Health checks stay outside so probes never get throttled.
func (s *Server) protect(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, nil)(next)
	inspected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		limited.ServeHTTP(w, r)
	})
	return applog.Middleware(s.logger)(s.tracer.Middleware(inspected))
}

// Shutdown stops background cleanup and then the HTTP server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports 503 until the first load has finished, successful or
// not. A failed load is still ready: the dashboard is serving empty lists,
// and only this probe says so.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.snaps.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	if s.snaps.LastError() != nil {
		_, _ = w.Write([]byte("degraded"))
		return
	}
	_, _ = w.Write([]byte("ready"))
}
