package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spendwise/internal/backend"
	"spendwise/internal/cache"
	"spendwise/internal/events"
	applog "spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/storage"
	"spendwise/internal/view"
	appweb "spendwise/web"
)

// Options wires the server's collaborators. Backend, Sessions and Pages are
// required; the rest have defaults.
type Options struct {
	Addr          string
	Backend       backend.Backend
	Sessions      storage.SessionStore
	Pages         cache.Cache[*view.Page]
	Publisher     events.Publisher
	Logger        *applog.Logger
	SessionCookie string
	SessionTTL    time.Duration
	RateLimit     int
	// TrustedProxies are CIDRs added to the detector's proxy list.
	TrustedProxies []string
	// Templates and Static default to the embedded web assets.
	Templates fs.FS
	Static    fs.FS
}

type Server struct {
	http.Server

	backend       backend.Backend
	sessions      storage.SessionStore
	pages         cache.Cache[*view.Page]
	publisher     events.Publisher
	renderer      *Renderer
	logger        *applog.Logger
	sl            *applog.StructuredLogger
	limiter       *ratelimit.Limiter
	detector      *security.Detector
	tracer        *trace.Middleware
	sessionCookie string
	sessionTTL    time.Duration

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer parses the templates and configures routes, returning a
// ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.Backend == nil || opts.Sessions == nil || opts.Pages == nil {
		return nil, fmt.Errorf("server: backend, sessions and pages are required")
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Noop{}
	}
	if opts.SessionCookie == "" {
		opts.SessionCookie = "sw_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 720 * time.Hour
	}
	if opts.Templates == nil {
		opts.Templates = appweb.TemplatesFS
	}
	if opts.Static == nil {
		sub, err := fs.Sub(appweb.StaticFS, "static")
		if err != nil {
			return nil, fmt.Errorf("mount static assets: %w", err)
		}
		opts.Static = sub
	}

	renderer, err := NewRenderer(opts.Templates)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	}
	s := &Server{
		backend:       opts.Backend,
		sessions:      opts.Sessions,
		pages:         opts.Pages,
		publisher:     opts.Publisher,
		renderer:      renderer,
		logger:        logger,
		sl:            applog.NewStructuredLogger(opts.Logger),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		detector:      detector,
		tracer:        trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
		sessionCookie: opts.SessionCookie,
		sessionTTL:    opts.SessionTTL,
		started:       time.Now(),
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts.Static),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(static fs.FS) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.logger))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(s.withSession)
		r.Use(s.limitMutations)

		r.Get("/", s.handleIndex)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Get("/signup", s.handleSignupPage)
		r.Post("/signup", s.handleSignup)
		r.Get("/income", s.handleIncomePage)
		r.Get("/logout", s.handleLogout)
		r.Get("/reports/{kind}.csv", s.handleReport)

		r.Route("/ui", func(r chi.Router) {
			r.Get("/tab/{tab}", s.handleTab)
			r.Get("/summary", s.handleSummary)
			r.Get("/budget", s.handleLoadBudget)
			r.Post("/budget", s.handleSetBudget)
			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Get("/expenses/{id}/edit", s.handleEditExpense)
			r.Post("/expenses/{id}", s.handleUpdateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)
			r.Get("/income", s.handleListIncome)
			r.Post("/income", s.handleCreateIncome)
		})
	})

	return r
}

// limitMutations applies the rate limit to every non-GET request.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").
			TriggerErrorNotification("Too many requests").
			Write(w)
	})(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks that the session store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.sessions.Get(ctx, "readiness-probe"); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics writes request, rate limit, security and cache counters in
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_last_response_microseconds", "gauge", "Duration of the last completed request", traceMetrics.AverageResponseTime)
	writeMetric(w, "rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limitMetrics.TotalHits)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", limitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Requests rejected as suspicious", securityMetrics.SuspiciousRequests)
	writeMetric(w, "invalid_ip_attempts_total", "counter", "Requests with an unparseable peer address", securityMetrics.InvalidIPAttempts)
	writeMetric(w, "page_state_entries", "gauge", "Cached per-session page states", int64(s.pages.Size()))
	writeMetric(w, "uptime_seconds", "gauge", "Seconds since the server was built", int64(time.Since(s.started).Seconds()))
}

func writeMetric(w io.Writer, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", name, help, name, kind, name, value)
}
