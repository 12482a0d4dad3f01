package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"budgettracker/internal/auth"
	"budgettracker/internal/core"
	"budgettracker/internal/log"
	"budgettracker/internal/middleware/ratelimit"
	"budgettracker/internal/middleware/security"
	"budgettracker/internal/middleware/trace"
	"budgettracker/internal/services"
)

type (
	AccountService interface {
		Register(ctx context.Context, in services.RegisterInput) (core.User, error)
		Authenticate(ctx context.Context, username, password string) (auth.TokenPair, error)
		Refresh(ctx context.Context, refresh string) (string, error)
		UserForToken(ctx context.Context, access string) (core.User, error)
		Profile(ctx context.Context, userID int64) (core.User, error)
		UpdateProfile(ctx context.Context, userID int64, in services.ProfileInput, partial bool) (core.User, error)
	}

	BudgetService interface {
		List(ctx context.Context, userID int64) ([]core.Budget, error)
		Get(ctx context.Context, userID, id int64) (core.Budget, error)
		Create(ctx context.Context, userID int64, in services.BudgetInput) (core.Budget, error)
		Update(ctx context.Context, userID, id int64, in services.BudgetInput, partial bool) (core.Budget, error)
		Delete(ctx context.Context, userID, id int64) error
	}

	TransactionService interface {
		List(ctx context.Context, userID int64, kind string) ([]core.Transaction, error)
		ListMonth(ctx context.Context, userID int64, year, month int) ([]core.Transaction, error)
		Get(ctx context.Context, userID, id int64) (core.Transaction, error)
		Create(ctx context.Context, userID int64, in services.TransactionInput) (core.Transaction, error)
		Update(ctx context.Context, userID, id int64, in services.TransactionInput, partial bool) (core.Transaction, error)
		Delete(ctx context.Context, userID, id int64) error
	}

	DashboardService interface {
		Summary(ctx context.Context, userID int64, p core.YearMonth) (core.Dashboard, error)
	}

	// Pinger reports whether a dependency is reachable. Used by /readyz.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Services groups what the handlers delegate to. Database is optional.
type Services struct {
	Accounts     AccountService
	Budgets      BudgetService
	Transactions TransactionService
	Dashboard    DashboardService
	Database     Pinger
}

type Options struct {
	// TrustedProxies may set X-Forwarded-For. Empty means loopback and
	// private networks.
	TrustedProxies []string
	// AuthRateLimit is the per-IP requests per minute on register and token routes.
	AuthRateLimit int
}

type Server struct {
	http.Server
	accounts     AccountService
	budgets      BudgetService
	transactions TransactionService
	dashboard    DashboardService
	database     Pinger

	logger            *log.Logger
	detector          *security.Detector
	authLimiter       *ratelimit.Limiter
	traceMiddleware   *trace.Middleware
	headersMiddleware *security.HeadersMiddleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if svc.Accounts == nil || svc.Budgets == nil || svc.Transactions == nil || svc.Dashboard == nil {
		return nil, fmt.Errorf("http server: every service must be provided")
	}

	detector, err := security.NewDetector(logger, opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	s := &Server{
		accounts:          svc.Accounts,
		budgets:           svc.Budgets,
		transactions:      svc.Transactions,
		dashboard:         svc.Dashboard,
		database:          svc.Database,
		logger:            logger.WithComponent(log.ComponentHTTP),
		detector:          detector,
		authLimiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.AuthRateLimit}),
		traceMiddleware:   trace.NewMiddleware(logger, detector.ClientIP),
		headersMiddleware: security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		started:           time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.traceMiddleware.Middleware(s.headersMiddleware.Middleware(detector.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	limited := s.authLimiter.Middleware(s.detector.ClientIP, s.handleRateLimited)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /api/register", limited(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /api/token", limited(http.HandlerFunc(s.handleToken)))
	mux.Handle("POST /api/token/refresh", limited(http.HandlerFunc(s.handleTokenRefresh)))

	mux.Handle("GET /api/profile", s.requireAuth(s.handleProfile))
	mux.Handle("PUT /api/profile", s.requireAuth(s.handleUpdateProfile))
	mux.Handle("PATCH /api/profile", s.requireAuth(s.handleUpdateProfile))

	mux.Handle("GET /api/budgets", s.requireAuth(s.handleListBudgets))
	mux.Handle("POST /api/budgets", s.requireAuth(s.handleCreateBudget))
	mux.Handle("GET /api/budgets/{id}", s.requireAuth(s.handleGetBudget))
	mux.Handle("PUT /api/budgets/{id}", s.requireAuth(s.handleUpdateBudget))
	mux.Handle("PATCH /api/budgets/{id}", s.requireAuth(s.handleUpdateBudget))
	mux.Handle("DELETE /api/budgets/{id}", s.requireAuth(s.handleDeleteBudget))

	mux.Handle("GET /api/transactions", s.requireAuth(s.handleListTransactions))
	mux.Handle("POST /api/transactions", s.requireAuth(s.handleCreateTransaction))
	mux.Handle("GET /api/transactions/monthly/{year}/{month}", s.requireAuth(s.handleMonthlyTransactions))
	mux.Handle("GET /api/transactions/{id}", s.requireAuth(s.handleGetTransaction))
	mux.Handle("PUT /api/transactions/{id}", s.requireAuth(s.handleUpdateTransaction))
	mux.Handle("PATCH /api/transactions/{id}", s.requireAuth(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.requireAuth(s.handleDeleteTransaction))

	mux.Handle("GET /api/dashboard/summary", s.requireAuth(s.handleDashboardSummary))
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.authLimiter.Stop()
		s.logger.InfoContext(ctx, "HTTP server shutting down",
			log.FieldOperation, log.OpShutdown,
			"suspicious_requests", s.detector.SuspiciousRequests(),
			"rate_limited", s.authLimiter.Rejected(),
			"total_requests", s.traceMiddleware.GetMetrics().TotalRequests)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
