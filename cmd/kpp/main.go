// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/kpp-site/internal/auth"
	"github.com/olegiv/kpp-site/internal/cache"
	"github.com/olegiv/kpp-site/internal/config"
	"github.com/olegiv/kpp-site/internal/geoip"
	"github.com/olegiv/kpp-site/internal/handler"
	"github.com/olegiv/kpp-site/internal/handler/api"
	"github.com/olegiv/kpp-site/internal/logging"
	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/render"
	"github.com/olegiv/kpp-site/internal/scheduler"
	"github.com/olegiv/kpp-site/internal/service"
	"github.com/olegiv/kpp-site/internal/session"
	"github.com/olegiv/kpp-site/internal/store"
	"github.com/olegiv/kpp-site/internal/version"
	"github.com/olegiv/kpp-site/web"
)

// Cache lifetimes of served files, in seconds.
const (
	staticMaxAge  = 31536000 // 1 year
	uploadsMaxAge = 604800   // 1 week
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "kpp - KPP Energy website and admin API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KPP_SECRET_KEY         Token and cookie signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KPP_DB_PATH            SQLite database path (default: ./data/kpp.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KPP_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KPP_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KPP_SITE_URL           Public base URL used in sitemap and meta tags\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KPP_REDIS_URL          Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KPP_BACKUP_SCHEDULE    Cron schedule of database backups (empty disables)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("kpp %s\n", version.Get())
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

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
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
	slog.Info("database ready")

	// From here on WARN and ERROR records are also kept in the events table.
	logger = slog.New(logging.NewEventLogHandler(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}), db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := seedIfNeeded(ctx, db, cfg); err != nil {
		return err
	}

	backend, kind := cache.NewCache(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	cacheManager := cache.NewManager(backend, kind, time.Duration(cfg.CacheTTL)*time.Second)
	defer func() {
		if err := cacheManager.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	if kind == "redis" {
		slog.Info("cache manager initialized", "backend", kind, "url", cache.SanitizeRedisURL(cfg.RedisURL))
	} else {
		slog.Info("cache manager initialized", "backend", kind)
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip database unavailable, countries will be blank", "error", err)
	}
	defer func() { _ = geo.Close() }()

	// Services
	eventService := service.NewEventService(db)
	contentService := service.NewContentService(db, cacheManager)
	siteService := service.NewSiteService(db, cacheManager)
	contactService := service.NewContactService(db)
	analyticsService := service.NewAnalyticsService(db, geo, cfg.AnalyticsSalt)
	auditService := service.NewAuditService(db)
	backupService := service.NewBackupService(db, cfg.BackupDir, cfg.BackupKeep, cacheManager)
	permService := service.NewPermissionService(db, cacheManager)

	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.TokenTTL)
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()

	sessionManager, stopSessions := session.New(db, cfg.IsDevelopment())
	defer stopSessions()

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates(),
		SessionManager: sessionManager,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	sched := scheduler.New(logger)
	jobs := scheduler.MaintenanceJobs(scheduler.MaintenanceConfig{
		PruneSchedule: scheduler.DefaultPruneSchedule,
		Retention: []scheduler.Retention{
			{Table: "audit_logs", Pruner: auditService, Days: cfg.RetentionAuditDays},
			{Table: "events", Pruner: eventService, Days: cfg.RetentionLogDays},
			{Table: "analytics_events", Pruner: analyticsService, Days: cfg.RetentionAnalyticsDays},
		},
		BackupSchedule: cfg.BackupSchedule,
		Backups:        backupService,
		GeoIPSchedule:  geoIPSchedule(cfg),
		GeoIP:          geo,
		Events:         eventService,
	})
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("scheduling %s: %w", job.Name, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	apiHandler := api.NewHandler(api.Services{
		DB:        db,
		Tokens:    tokens,
		Login:     loginProtection,
		Perms:     permService,
		Content:   contentService,
		Site:      siteService,
		Media:     service.NewMediaService(db, cfg.UploadsDir, cfg.MaxUploadBytes()),
		Users:     service.NewUserService(db),
		Audit:     auditService,
		Events:    eventService,
		Analytics: analyticsService,
		Backups:   backupService,
		Contact:   contactService,
		Dashboard: service.NewDashboardService(db),
		Cache:     cacheManager,
		Jobs:      sched,
	})
	frontend := handler.NewFrontend(handler.FrontendConfig{
		Content:  contentService,
		Site:     siteService,
		Contact:  contactService,
		Renderer: renderer,
		SiteURL:  cfg.SiteURL,
	})
	healthHandler := handler.NewHealthHandler(db, tokens, cfg.UploadsDir)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead) // HEAD for uptime monitors
	r.Use(middleware.Timeout(30*time.Second, "/api/admin/media", "/api/admin/backups"))
	r.Use(middleware.StripTrailingSlash("/static/", "/uploads/"))
	r.Use(middleware.RequestInfo)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	staticHandler := middleware.StaticCache(staticMaxAge)(
		http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	r.Handle("/static/*", staticHandler)

	uploadsHandler := middleware.UploadHeaders(uploadsMaxAge)(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	r.Handle("/uploads/*", uploadsHandler)

	// Admin API: bearer tokens, no cookies, so no CSRF check.
	guard := middleware.NewGuard(permService, eventService)
	adminLimiter := middleware.NewRateLimiter("admin-api", 20, 40)
	r.Mount("/api/admin", apiHandler.AdminRoutes(guard, adminLimiter))

	beaconLimiter := middleware.NewRateLimiter("analytics-beacon", 2, 20)
	r.With(beaconLimiter.Middleware(), middleware.NoStore).Post("/api/analytics/events", apiHandler.Beacon)

	// Public site
	contactLimiter := middleware.NewRateLimiter("contact", 0.1, 3)
	analyticsOn := func(ctx context.Context) bool {
		return siteService.SettingBool(ctx, model.SettingAnalyticsOn, true)
	}
	csrfProtect := middleware.CSRF(middleware.DefaultCSRFConfig(
		[]byte(cfg.SecretKey)[:config.MinSecretKeyLength], cfg.IsDevelopment(), cfg.TrustedOrigins))

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.SkipCSRF("/api/"))
		r.Use(csrfProtect)
		r.Use(middleware.Tracking(analyticsService, analyticsOn))
		frontend.Routes(r, contactLimiter)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/") {
			middleware.WriteAPIError(w, http.StatusNotFound, "Not found")
			return
		}
		frontend.NotFound(w, req)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads and backup downloads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// seedIfNeeded fills a fresh database with the admin account and default
// site content. KPP_DO_SEED forces a run on an existing database, which only
// adds what is missing.
func seedIfNeeded(ctx context.Context, db *sql.DB, cfg *config.Config) error {
	if !cfg.DoSeed {
		n, err := store.New(db).CountUsers(ctx, store.CountUsersParams{})
		if err != nil {
			return fmt.Errorf("counting users: %w", err)
		}
		if n > 0 {
			return nil
		}
	}
	if err := store.Seed(ctx, db, store.SeedOptions{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	return nil
}

func geoIPSchedule(cfg *config.Config) string {
	if !cfg.GeoIPEnabled() {
		return ""
	}
	return scheduler.DefaultGeoIPSchedule
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
