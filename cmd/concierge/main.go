// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/backend"
	"github.com/olegiv/concierge/internal/cache"
	"github.com/olegiv/concierge/internal/captcha"
	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/chat"
	"github.com/olegiv/concierge/internal/config"
	"github.com/olegiv/concierge/internal/gallery"
	"github.com/olegiv/concierge/internal/geoip"
	"github.com/olegiv/concierge/internal/handler"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/inquiry"
	"github.com/olegiv/concierge/internal/logging"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/render"
	"github.com/olegiv/concierge/internal/scheduler"
	"github.com/olegiv/concierge/internal/session"
	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/version"
	"github.com/olegiv/concierge/internal/vip"
	"github.com/olegiv/concierge/web"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "concierge - luxury villa and concierge site\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CONCIERGE_SESSION_SECRET   Session and API token key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CONCIERGE_DB_PATH          SQLite database path (default: ./data/concierge.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CONCIERGE_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CONCIERGE_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CONCIERGE_BACKEND_URL      Remote catalog REST backend (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CONCIERGE_FORM_RELAY_URL   Inquiry form relay endpoint (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CONCIERGE_CHAT_PROVIDER    Chat assistant: gemini|openai (default: gemini)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CONCIERGE_REDIS_URL        Redis URL for distributed caching (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("concierge %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewTextLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}
	slog.Info("i18n system initialized", "languages", i18n.SupportedLanguages)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Warnings and errors also land in the audit log from here on
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)})
	logger = slog.New(logging.NewAuditHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DoSeed {
		if err := store.SeedCatalog(ctx, db); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}

	queries := store.New(db)
	users := vip.NewService(queries, logger)
	if cfg.AdminEmail != "" {
		created, err := users.Bootstrap(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			return fmt.Errorf("bootstrapping admin: %w", err)
		}
		if created {
			slog.Info("bootstrap admin created", "email", cfg.AdminEmail)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	sessions := session.NewManager(sessionManager)

	cacher := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = cacher.Close() }()

	// Catalog: remote backend when configured, local database otherwise or on failure
	var (
		source        catalog.Source = catalog.NewLocalSource(db)
		backendClient *backend.Client
	)
	if cfg.BackendEnabled() {
		backendClient, err = backend.New(backend.Options{
			BaseURL: cfg.BackendURL,
			Token:   cfg.BackendToken,
			Timeout: cfg.BackendTimeout,
		})
		if err != nil {
			return fmt.Errorf("initializing backend client: %w", err)
		}
		source = catalog.NewFallbackSource(backendClient, source, logger)
		slog.Info("remote catalog backend enabled", "url", cfg.BackendURL)
	}
	cachedSource := catalog.NewCachedSource(source, cacher, cfg.CacheTTLDuration(), logger)
	cat := catalog.New(cachedSource, logger)

	galleryService := gallery.NewService(queries, cfg.UploadsDir, logger)
	cat.SetGallery(galleryService)

	// Audit recorder
	recorder := audit.NewRecorder(db, logger, audit.DefaultConfig())
	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("GeoIP database unavailable, countries will not be resolved", "error", err)
	}
	defer func() { _ = geo.Close() }()
	recorder.SetCountryResolver(geo)
	if cfg.AuditForward && backendClient != nil {
		recorder.SetForwarder(backendClient)
		slog.Info("audit events forwarded to backend")
	}
	recorder.Start(context.WithoutCancel(ctx))
	defer recorder.Stop()

	verifier := captcha.New(cfg.HCaptchaSiteKey, cfg.HCaptchaSecretKey, logger)

	inquiryConfig := inquiry.Config{
		Captcha:      verifier,
		Recorder:     recorder,
		ContactEmail: cfg.ContactEmail,
	}
	if cfg.RelayEnabled() {
		inquiryConfig.Relay = inquiry.NewHTTPRelay(cfg.FormRelayURL, nil)
	} else {
		slog.Warn("no form relay configured, inquiries fall back to email links")
	}
	inquiries := inquiry.NewService(queries, inquiryConfig, logger)

	provider, err := chat.NewProvider(ctx, cfg)
	if err != nil {
		slog.Warn("chat provider unavailable", "provider", cfg.ChatProvider, "error", err)
		provider = nil
	}
	chatService := chat.NewService(provider, cat, recorder, chat.Config{
		BrandName:     cfg.BrandName,
		ContactEmail:  cfg.ContactEmail,
		MaxHistory:    cfg.ChatMaxHistory,
		MaxMessageLen: cfg.ChatMaxMessageLen,
		Timeout:       cfg.ChatRequestTimeout,
	}, logger)

	sched := scheduler.New(logger)
	if err := sched.RegisterDefaults(schedulerDeps(cfg, queries, cachedSource, geo)); err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:  templatesFS,
		Sessions:     sessions,
		BrandName:    cfg.BrandName,
		SiteURL:      cfg.SiteURL,
		ContactEmail: cfg.ContactEmail,
		IsDev:        cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()

	tokenSecret := []byte(cfg.SessionSecret)

	frontendHandler := handler.NewFrontendHandler(renderer, cat, recorder, cfg.SiteURL, logger)
	contactHandler := handler.NewContactHandler(renderer, inquiries, verifier, cat, logger)
	vipHandler := handler.NewVIPHandler(handler.VIPConfig{
		Renderer:        renderer,
		Sessions:        sessions,
		Users:           users,
		Catalog:         cat,
		LoginProtection: loginProtection,
		Captcha:         verifier,
		Recorder:        recorder,
		TokenSecret:     tokenSecret,
		TokenTTL:        cfg.APITokenTTL,
		Logger:          logger,
	})
	apiHandler := handler.NewAPIHandler(cat)
	chatHandler := handler.NewChatHandler(chatService, cfg.ContactEmail, logger)
	auditHandler := handler.NewAuditHandler(recorder, queries)
	galleryHandler := handler.NewGalleryHandler(galleryService, cat, recorder, logger)
	adminHandler := handler.NewAdminHandler(handler.AdminConfig{
		Users:     users,
		Inquiries: inquiries,
		Cache:     cachedSource,
		Jobs:      sched,
		Recorder:  recorder,
		Logger:    logger,
	})
	seoHandler := handler.NewSEOHandler(cat, cfg.SiteURL, cfg.IsDevelopment(), logger)

	var pinger handler.Pinger
	if backendClient != nil {
		pinger = backendClient
	}
	healthHandler := handler.NewHealthHandler(db, cfg.UploadsDir, pinger, cacher)

	loginLimiter := middleware.NewRateLimiter("login", 0.5, 5)
	contactLimiter := middleware.NewRateLimiter("contact", 0.2, 5)
	chatLimiter := middleware.NewRateLimiter("chat", cfg.ChatRateLimit, cfg.ChatRateBurst)
	apiLimiter := middleware.NewRateLimiter("api", 20, 40)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.Language(cfg.DefaultLang))
	r.Use(middleware.AuditSession(!cfg.IsDevelopment()))
	r.Use(middleware.LoadSession(sessions, users, tokenSecret))
	r.Use(middleware.NoStoreForVIP())
	r.Use(middleware.SkipCSRFPrefix("/api/"))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(tokenSecret, cfg.IsDevelopment())))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/sitemap.xml", seoHandler.Sitemap)
	r.Get("/robots.txt", seoHandler.Robots)

	// Public pages
	r.Group(func(r chi.Router) {
		r.Use(audit.TrackPageViews(recorder, middleware.GetUserID))

		r.Get("/", frontendHandler.Home)
		r.Get("/villas", frontendHandler.Villas)
		r.Get("/villas/{slug}", frontendHandler.Villa)
		r.Get("/yachts", frontendHandler.Yachts)
		r.Get("/yachts/{slug}", frontendHandler.Yacht)
		r.Get("/services", frontendHandler.Services)
		r.Get("/services/{slug}", frontendHandler.Service)
		r.Get("/blog", frontendHandler.Blog)
		r.Get("/blog/{slug}", frontendHandler.Post)
		r.Get("/language/{code}", frontendHandler.Language)

		r.Get("/contact", contactHandler.Form)
		r.With(contactLimiter.HTMLMiddleware()).Post("/contact", contactHandler.Submit)

		r.Get("/vip/login", vipHandler.LoginForm)
		r.With(loginLimiter.HTMLMiddleware(), loginProtection.Middleware()).Post("/vip/login", vipHandler.Login)
		r.Post("/vip/logout", vipHandler.Logout)

		// VIP area
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireVIP())
			r.Get("/vip", vipHandler.Lounge)
			r.Get("/vip/account", vipHandler.Account)
			r.Post("/vip/account", vipHandler.ChangePassword)
		})
	})

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Use(apiLimiter.Middleware())

		r.Get("/villas", apiHandler.ListVillas)
		r.Get("/villas/{slug}", apiHandler.GetVilla)
		r.With(contactLimiter.Middleware()).Post("/inquiries", contactHandler.APISubmit)
		r.With(chatLimiter.Middleware()).Post("/chat", chatHandler.Reply)
		r.Post("/audit/events", auditHandler.ClientEvents)

		r.With(loginLimiter.Middleware()).Post("/vip/login", vipHandler.APILogin)
		r.With(middleware.RequireVIP()).Get("/vip/me", vipHandler.APIMe)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(recorder))

			r.Get("/users", adminHandler.ListUsers)
			r.Post("/users", adminHandler.CreateUser)
			r.Get("/users/{id}", adminHandler.GetUser)
			r.Patch("/users/{id}", adminHandler.UpdateUser)
			r.Delete("/users/{id}", adminHandler.DeleteUser)

			r.Get("/inquiries", adminHandler.ListInquiries)
			r.Post("/cache/clear", adminHandler.ClearCache)
			r.Get("/jobs", adminHandler.ListJobs)
			r.Post("/jobs/{name}/run", adminHandler.TriggerJob)

			r.Get("/audit", auditHandler.List)
			r.Get("/audit/summary", auditHandler.Summary)

			r.Get("/villas/{slug}/images", galleryHandler.List)
			r.Post("/villas/{slug}/images", galleryHandler.Upload)
			r.Delete("/images/{id}", galleryHandler.Delete)
		})
	})

	// Static assets: cache for 1 year
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", middleware.StaticCache(365*24*time.Hour)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))

	// Gallery uploads: cache for 1 week
	r.Handle("/uploads/*", middleware.StaticCache(7*24*time.Hour)(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))))

	r.NotFound(frontendHandler.NotFound)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // chat replies can be slow
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// schedulerDeps wires only the jobs that have something to do: catalog
// warmup needs a remote backend and the GeoIP reload needs a database file.
func schedulerDeps(cfg *config.Config, queries *store.Queries, warmer scheduler.Warmer, geo scheduler.Reloader) scheduler.Deps {
	deps := scheduler.Deps{
		Queries:       queries,
		RetentionDays: cfg.AuditRetentionDays,
	}
	if cfg.BackendEnabled() {
		deps.Catalog = warmer
	}
	if cfg.GeoIPEnabled() {
		deps.GeoIP = geo
	}
	return deps
}
