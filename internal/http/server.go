package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/middleware/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/taxonomy"
)

// storeTimeout bounds every store round trip a handler makes.
const storeTimeout = 7 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API serves from.
type Deps struct {
	Store        Pinger
	Gate         *auth.Gate
	Transactions *services.TransactionService
	Taxonomy     *taxonomy.Taxonomy
	Metrics      *metrics.Metrics
	Logger       *log.Logger

	RateLimitPerMinute int
	// Now is the clock used for defaulted dates; time.Now when nil.
	Now func() time.Time
}

type Server struct {
	http.Server

	gate     *auth.Gate
	txs      *services.TransactionService
	taxonomy *taxonomy.Taxonomy
	store    Pinger
	logger   *log.Logger
	now      func() time.Time

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	tax := deps.Taxonomy
	if tax == nil {
		tax = taxonomy.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	limiterCfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = deps.RateLimitPerMinute
	}

	s := &Server{
		gate:        deps.Gate,
		txs:         deps.Transactions,
		taxonomy:    tax,
		store:       deps.Store,
		logger:      logger,
		now:         now,
		rateLimiter: ratelimit.NewLimiter(limiterCfg),
	}

	detector := security.NewDetector(logger, m.Suspicious)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(detector.ExtractClientIP, logger)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})
	r.Use(m.Middleware)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", handleLogout).Methods(http.MethodPost)

	private := func(path string, h http.HandlerFunc, method string) {
		api.Handle(path, s.gate.Middleware(h)).Methods(method)
	}
	private("/me", handleMe, http.MethodGet)
	private("/categories", s.handleCategories, http.MethodGet)
	private("/transactions", s.handleListTransactions, http.MethodGet)
	private("/transactions", s.handleCreateTransaction, http.MethodPost)
	private("/transactions/{id}", s.handleDeleteTransaction, http.MethodDelete)
	private("/summary", s.handleSummary, http.MethodGet)
	private("/charts/trend", s.handleTrend, http.MethodGet)
	private("/charts/categories", s.handleCategoryChart, http.MethodGet)
	private("/dashboard", s.handleDashboard, http.MethodGet)

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, ratelimit.Mutating,
		func(w http.ResponseWriter, r *http.Request) {
			m.RateLimited(r)
			log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			TooManyRequestsError().Write(w)
		})

	var h http.Handler = r
	h = limited(h)
	h = detector.Middleware(h)
	h = headers.Middleware(h)
	h = tracer.Middleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}
