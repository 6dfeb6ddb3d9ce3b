package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"journal/internal/api"
	"journal/internal/backend"
	"journal/internal/cache"
	"journal/internal/cli"
	"journal/internal/config"
	apphttp "journal/internal/http"
	"journal/internal/journal"
	"journal/internal/log"
	"journal/internal/middleware/ratelimit"
	"journal/internal/session"
	"journal/internal/sheets"
	gsheet "journal/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	infra, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	defer func() {
		if err := infra.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()
	checks := make([]apphttp.ReadinessCheck, 0, len(infra.Checks))
	for _, c := range infra.Checks {
		checks = append(checks, apphttp.ReadinessCheck{Name: c.Name, Check: c.Check})
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout,
		api.WithLogger(logger.WithComponent(log.ComponentAPI)))

	sess, err := session.NewManager(ctx, infra.Store, client, session.Policy(cfg.TokenPolicy), logger)
	if err != nil {
		logger.Error("Failed to restore session", log.FieldError, err)
		os.Exit(1)
	}
	client.SetTokenSource(sess)

	// Spreadsheet link
	caches := cache.NewManager(logger)
	links := buildLinks(ctx, cfg, caches, logger)
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	app := journal.New(client, sess, journal.Options{
		Mode:          journal.Mode(cfg.JournalMode),
		BudgetEnabled: cfg.BudgetEnabled,
		Publisher:     infra.Publisher,
		Links:         links,
		Logger:        logger,
	})
	if err := app.Init(ctx); err != nil {
		logger.Warn("Initial load failed", log.FieldError, err)
	}

	srv, err := apphttp.NewServer(app, apphttp.Options{
		Addr:           cfg.Addr(),
		Logger:         logger,
		RateLimit:      ratelimit.Config{RequestsPerMinute: cfg.RateLimit},
		TrustedProxies: cfg.TrustedProxies,
		Checks:         checks,
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.APITimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting journal server",
		"port", cfg.Port,
		log.FieldMode, cfg.JournalMode,
		"session_backend", cfg.SessionBackend,
		"token_policy", cfg.TokenPolicy)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}

// buildLinks resolves the spreadsheet link from the Sheets API when an id is
// configured, falling back to SPREADSHEET_URL and then to the default edit
// link for the id.
func buildLinks(ctx context.Context, cfg *config.Config, caches *cache.Manager, logger *log.Logger) sheets.LinkResolver {
	var chain sheets.Chain
	if cfg.GoogleSpreadsheetID != "" {
		resolver, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, logger)
		if err != nil {
			logger.Warn("Sheets API unavailable, using static spreadsheet link", log.FieldError, err)
		} else {
			lru := cache.NewLRUCache[string](1, cfg.SpreadsheetLinkTTL)
			caches.Register(lru)
			chain = append(chain, sheets.NewCached(resolver, lru))
		}
	}
	if cfg.SpreadsheetURL != "" {
		chain = append(chain, sheets.Static(cfg.SpreadsheetURL))
	}
	if cfg.GoogleSpreadsheetID != "" {
		chain = append(chain, sheets.Static(sheets.EditURL(cfg.GoogleSpreadsheetID)))
	}
	return chain
}
