package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"cupsreport/internal/core"
	applog "cupsreport/internal/log"
	"cupsreport/internal/middleware/ratelimit"
	"cupsreport/internal/middleware/security"
	"cupsreport/internal/middleware/trace"
	"cupsreport/internal/services"
)

// ReportService is the tally the server exposes.
type ReportService interface {
	Catalog() []core.Category
	Increment(ctx context.Context, category, product string, tier core.Tier) (services.CounterUpdate, error)
	Decrement(ctx context.Context, category, product string, tier core.Tier) (services.CounterUpdate, error)
	Counts() []core.ProductCount
	Totals() services.Totals
	CategoryTotals(category string) (core.CategoryTotals, error)
	Export(w io.Writer) error
	Save(ctx context.Context) (services.SaveResult, error)
	Load(ctx context.Context, r io.Reader, name string) (core.LoadResult, error)
	CashierPerformance(date, cashier string) core.CashierPerformance
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	http.Server
	svc    ReportService
	logger *applog.Logger
	now    func() time.Time

	readiness map[string]ReadinessCheck
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	started   time.Time

	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReadinessCheck adds a named dependency check to /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) { s.readiness[name] = check }
}

// WithRateLimit overrides the save and load rate limit.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) {
		s.limiter.Stop()
		s.limiter = ratelimit.NewLimiter(cfg)
	}
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc ReportService, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:       svc,
		logger:    applog.Nop(),
		now:       time.Now,
		readiness: make(map[string]ReadinessCheck),
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(applog.ComponentHTTP)

	ips := security.NewClientIPResolver()
	s.tracer = trace.NewMiddleware(s.logger, ips.ClientIP)
	limited := s.limiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, ips.ClientIP(r),
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError("rate limit exceeded, try again later").Write(w)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/counters", s.handleCounts)
	mux.HandleFunc("GET /api/totals", s.handleTotals)
	mux.HandleFunc("GET /api/categories/{category}/totals", s.handleCategoryTotals)
	mux.HandleFunc("POST /api/counters/{category}/{product}/increment", s.handleIncrement)
	mux.HandleFunc("POST /api/counters/{category}/{product}/decrement", s.handleDecrement)

	mux.Handle("POST /api/report/save", limited(http.HandlerFunc(s.handleSave)))
	mux.HandleFunc("GET /api/report/export", s.handleExport)
	mux.Handle("POST /api/report/load", limited(http.HandlerFunc(s.handleLoad)))
	mux.HandleFunc("POST /api/cashier-performance", s.handleCashierPerformance)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(headers.Middleware(security.NoStore(mux)))
	return s
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
