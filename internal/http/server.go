package http

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"invoicer/internal/cache"
	"invoicer/internal/core"
	applog "invoicer/internal/log"
	"invoicer/internal/middleware/ratelimit"
	"invoicer/internal/middleware/security"
	"invoicer/internal/middleware/trace"
	"invoicer/internal/render"
	appweb "invoicer/web"
)

// Service views consumed by the handlers. The types in internal/services
// satisfy them.
type (
	InvoiceService interface {
		Create(ctx context.Context, inv core.Invoice) (core.Invoice, error)
		Get(ctx context.Context, id int64) (core.Invoice, error)
		ListByUser(ctx context.Context, userID int64) ([]core.Invoice, error)
		Update(ctx context.Context, id int64, inv core.Invoice) (core.Invoice, error)
		UpdateStatus(ctx context.Context, id int64, status string) (core.Invoice, error)
		Delete(ctx context.Context, id int64) error
		GenerateDescription(ctx context.Context, clientName string, amount decimal.Decimal, services []string) string
	}

	ExpenseService interface {
		Create(ctx context.Context, e core.Expense) (core.Expense, error)
		Get(ctx context.Context, id int64) (core.Expense, error)
		ListByUser(ctx context.Context, userID int64) ([]core.Expense, error)
		Update(ctx context.Context, id int64, e core.Expense) (core.Expense, error)
		Delete(ctx context.Context, id int64) error
		Categorize(ctx context.Context, description string) core.Categorization
	}

	SettingsService interface {
		Get(ctx context.Context, userID int64) (*core.BusinessSettings, error)
		Upsert(ctx context.Context, b core.BusinessSettings) (core.BusinessSettings, error)
	}

	DashboardService interface {
		Summary(ctx context.Context, userID int64) (core.Summary, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// CacheStats reports per-cache counters for /metrics.
	CacheStats interface {
		Stats() map[string]cache.Stats
	}
)

// Config holds the HTTP-only settings.
type Config struct {
	UploadDir      string
	MaxUploadBytes int64
	RateLimitRPM   int
}

// Deps are the collaborators behind the routes. DB may be nil, in which
// case /readyz always succeeds. Caches may be nil.
type Deps struct {
	Invoices  InvoiceService
	Expenses  ExpenseService
	Settings  SettingsService
	Dashboard DashboardService
	Taxonomy  core.Taxonomy
	DB        Pinger
	Caches    CacheStats
	Logger    *applog.Logger
}

type Server struct {
	*http.Server
	cfg      Config
	deps     Deps
	html     *render.HTMLRenderer
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *applog.Logger

	shutdownOnce sync.Once
}

// NewServer parses the preview templates, prepares the upload directory
// and wires the router.
func NewServer(addr string, cfg Config, deps Deps) (*Server, error) {
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	html, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, fmt.Errorf("load preview templates: %w", err)
	}

	limitCfg := ratelimit.DefaultConfig()
	if cfg.RateLimitRPM > 0 {
		limitCfg.RequestsPerMinute = cfg.RateLimitRPM
	}

	s := &Server{
		cfg:      cfg,
		deps:     deps,
		html:     html,
		limiter:  ratelimit.NewLimiter(limitCfg),
		detector: security.NewDetector(),
		logger:   deps.Logger.WithComponent(applog.ComponentHTTP),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, deps.Logger)

	s.Server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware(s.logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleCategories)

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", s.handleCreateInvoice)
			r.Post("/generate-description", s.handleGenerateDescription)
			r.Get("/edit/{id}", s.handleGetInvoice)
			r.Get("/{userId}", s.handleListInvoices)
			r.Patch("/{id}", s.handleUpdateInvoice)
			r.Delete("/{id}", s.handleDeleteInvoice)
			r.Patch("/{id}/status", s.handleUpdateInvoiceStatus)
			r.Get("/{id}/pdf", s.handleInvoicePDF)
			r.Get("/{id}/preview", s.handleInvoicePreview)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", s.handleCreateExpense)
			r.Post("/categorize", s.handleCategorizeExpense)
			r.Get("/edit/{id}", s.handleGetExpense)
			r.Get("/{userId}", s.handleListExpenses)
			r.Get("/{userId}/export.xlsx", s.handleExportExpenses)
			r.Patch("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Get("/business-settings/{userId}", s.handleGetSettings)
		r.Post("/business-settings", s.handleUpsertSettings)
		r.Post("/business-settings/{userId}", s.handleUpsertSettings)

		r.Post("/upload-logo", s.handleUploadLogo)
		r.Get("/dashboard/{userId}", s.handleDashboard)
	})

	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/uploads/*", http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(s.cfg.UploadDir)))))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.With(security.StaticAssetMiddleware(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// noDirListing hides directory indexes of the upload folder.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			writeMessage(w, http.StatusNotFound, "not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}
