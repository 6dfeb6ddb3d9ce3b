package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"journal/internal/journal"
	"journal/internal/log"
	"journal/internal/middleware/ratelimit"
	"journal/internal/middleware/security"
	"journal/internal/middleware/trace"
	appweb "journal/web"
)

// ReadinessCheck is a named dependency probe reported by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options configures the UI server.
type Options struct {
	Addr           string
	Logger         *log.Logger
	RateLimit      ratelimit.Config
	TrustedProxies []string
	Checks         []ReadinessCheck
}

type Server struct {
	http.Server
	app       *journal.App
	templates *template.Template
	logger    *log.Logger
	checks    []ReadinessCheck

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime       time.Time
	actions      int64
	actionErrors int64
	reloads      int64
}

// NewServer configures routes, middleware and templates around app.
func NewServer(app *journal.App, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		app:              app,
		templates:        t,
		logger:           logger,
		checks:           opts.Checks,
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// screens
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /landing", s.handleLanding)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	// partials and actions
	mux.HandleFunc("GET /ui/transactions", s.requireMain(s.handleTransactions))
	mux.HandleFunc("GET /ui/transactions/new", s.requireMain(s.handleNewTransaction))
	mux.HandleFunc("POST /transactions", s.requireMain(s.handleCreateTransaction))
	mux.HandleFunc("GET /ui/transactions/{id}", s.requireMain(s.handleTransactionDetail))
	mux.HandleFunc("GET /ui/transactions/{id}/edit", s.requireMain(s.handleEditTransaction))
	mux.HandleFunc("GET /ui/transactions/{id}/reply", s.requireMain(s.handleReplyForm))
	mux.HandleFunc("POST /transactions/{id}/reply", s.requireMain(s.handleReply))
	mux.HandleFunc("POST /transactions/{id}/delete", s.requireMain(s.handleDeleteTransaction))
	mux.HandleFunc("GET /ui/categories", s.requireMain(s.handleCategories))
	mux.HandleFunc("POST /categories", s.requireMain(s.handleCreateCategory))
	mux.HandleFunc("POST /categories/{id}/delete", s.requireMain(s.handleDeleteCategory))
	mux.HandleFunc("GET /ui/budget", s.requireMain(s.handleBudget))

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(detector.ExtractClientIP, ratelimit.Mutating, s.onRateLimit)(h)
	h = s.withDetection(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	s.Handler = h

	return s, nil
}

// Shutdown stops background workers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// withDetection logs requests that look like probes. They are still served.
func (s *Server) withDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	NotificationOnly(NotificationWarning, "Slow down a little and try again in a minute.").
		Status(http.StatusTooManyRequests).
		Header("Retry-After", "60").
		Write(w)
}

// requireMain sends clients back to the start page when no session is open.
func (s *Server) requireMain(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.app.CurrentView() != journal.ViewMain {
			redirectHome(w, r)
			return
		}
		next(w, r)
	}
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	if IsHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// writeTemplate renders name into b's body and sends it. Rendering happens
// before any header is written so a template failure still yields a 500.
func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name)
		InternalServerError("Something went wrong while drawing this page.").Write(w)
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}
