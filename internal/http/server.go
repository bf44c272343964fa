package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Services bundles the application services behind the API.
type Services struct {
	Ledger    *services.LedgerService
	Reports   *services.ReportService
	Debts     *services.DebtService
	Reminders *services.ReminderService
}

// Options tunes the server's middleware and collaborators. Zero values
// fall back to defaults.
type Options struct {
	Logger    *log.Logger
	RateLimit ratelimit.Config
	// CacheCleanupInterval is how often expired rate-limit windows are swept.
	CacheCleanupInterval time.Duration
	// Ready reports whether the storage backend can serve requests.
	Ready func(context.Context) error
	Now   func() time.Time
}

type Server struct {
	http.Server
	ledger    *services.LedgerService
	reports   *services.ReportService
	debts     *services.DebtService
	reminders *services.ReminderService

	logger   *log.Logger
	limiter  *ratelimit.Limiter
	caches   *cache.Manager
	tracer   *trace.Middleware
	resolver *security.IPResolver
	ready    func(context.Context) error
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// The rate-limit window store is registered with a cache manager whose
// cleanup goroutine runs until Shutdown.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.CacheCleanupInterval <= 0 {
		opts.CacheCleanupInterval = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	windows := ratelimit.NewStore(opts.RateLimit)
	caches := cache.NewManager()
	caches.Register(windows)

	resolver := security.NewIPResolver()
	s := &Server{
		ledger:    svc.Ledger,
		reports:   svc.Reports,
		debts:     svc.Debts,
		reminders: svc.Reminders,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(opts.RateLimit, windows),
		caches:    caches,
		tracer:    trace.NewMiddleware(logger, resolver.ClientIP),
		resolver:  resolver,
		ready:     opts.Ready,
		now:       opts.Now,
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	caches.StartCleanup(opts.CacheCleanupInterval)
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.withSession(h))
	}

	api("POST /api/transactions", s.handleCreateTransaction)
	api("GET /api/transactions", s.handleListTransactions)
	api("GET /api/transactions/{id}", s.handleGetTransaction)
	api("PATCH /api/transactions/{id}", s.handleEditTransaction)
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api("POST /api/transactions/{id}/toggle", s.handleToggleSettlement)

	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories", s.handleCreateCategory)
	api("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api("GET /api/reports/period", s.handlePeriodReport)
	api("GET /api/reports/dashboard", s.handleDashboard)
	api("GET /api/reports/year", s.handleYearNetIncome)
	api("POST /api/reports/export", s.handleExportPeriod)

	api("GET /api/contracts", s.handleListContracts)
	api("POST /api/contracts", s.handleCreateContract)
	api("GET /api/contracts/summary", s.handleContractsSummary)
	api("GET /api/contracts/financings", s.handleFinancings)
	api("GET /api/contracts/{id}", s.handleGetContract)
	api("PATCH /api/contracts/{id}", s.handleEditContract)
	api("DELETE /api/contracts/{id}", s.handleDeleteContract)
	api("POST /api/contracts/{id}/payments", s.handleRegisterPayment)
	api("GET /api/contracts/{id}/reconciliation", s.handleReconcile)
	api("GET /api/simulate", s.handleSimulate)

	api("GET /api/reminders", s.handleListReminders)
	api("GET /api/reminders/undated", s.handleListUndatedReminders)
	api("POST /api/reminders", s.handleCreateReminder)
	api("PATCH /api/reminders/{id}", s.handleUpdateReminder)
	api("DELETE /api/reminders/{id}", s.handleDeleteReminder)

	var h http.Handler = mux
	h = s.tracer.Middleware(h)
	h = security.APIHeaders(h)
	h = log.Middleware(s.logger)(h)
	return h
}

// withSession requires a session and applies the per-session rate limit.
func (s *Server) withSession(h http.HandlerFunc) http.Handler {
	limited := s.limiter.Middleware(
		func(r *http.Request) string { return ownerFrom(r.Context()) },
		func(w http.ResponseWriter, r *http.Request) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldOwnerKey, ownerFrom(r.Context()),
				log.FieldClientIP, s.resolver.ClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
		},
	)(h)
	return requireSession(limited)
}

// Shutdown stops the cache cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
