// MeetDesk is the web front-end for the meeting-management REST API: login,
// dashboard, and role-gated meeting administration rendered server-side. It
// owns no meeting data; every view is fetched fresh from the upstream API.
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

	"github.com/meetdesk/meetdesk/internal/apiclient"
	"github.com/meetdesk/meetdesk/internal/config"
	"github.com/meetdesk/meetdesk/internal/handler"
	"github.com/meetdesk/meetdesk/internal/middleware"
	"github.com/meetdesk/meetdesk/internal/model"
	"github.com/meetdesk/meetdesk/internal/render"
	"github.com/meetdesk/meetdesk/internal/session"
	"github.com/meetdesk/meetdesk/internal/store"
	"github.com/meetdesk/meetdesk/web"
)

// Build-time injected values.
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "MeetDesk - meeting management front-end\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETDESK_API_URL           Upstream API base URL (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETDESK_SESSION_SECRET    Session key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETDESK_DB_PATH           Session store path (default: ./data/meetdesk.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETDESK_SERVER_HOST       Bind host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETDESK_SERVER_PORT       Bind port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETDESK_ENV               development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MEETDESK_LOG_LEVEL         debug|info|warn|error (default: info)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("meetdesk %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Session store database
	slog.Info("initializing session store", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	apiClient := apiclient.New(cfg.APIBaseURL)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("templates sub FS: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(apiClient, renderer, sessionManager)
	dashboardHandler := handler.NewDashboardHandler(apiClient, renderer, sessionManager)
	meetingHandler := handler.NewMeetingHandler(apiClient, renderer, sessionManager)
	healthHandler := handler.NewHealthHandler(db, apiClient)
	errorHandler := handler.NewErrorHandler(renderer)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig(
		[]byte(cfg.SessionSecret)[:32], cfg.IsDevelopment()))
	// Shared by the login and meeting-create forms.
	formRateLimiter := middleware.NewIPRateLimiter(1, 5)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)

	r.Get(handler.RouteHealth, healthHandler.Health)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(formRateLimiter.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, apiClient))

		r.Get(handler.RouteRoot, dashboardHandler.Root)
		r.Get(handler.RouteDashboard, dashboardHandler.Dashboard)

		r.Route(handler.RouteMeetings, func(r chi.Router) {
			r.Get("/", meetingHandler.List)
			r.Get(handler.RouteParamID, meetingHandler.Detail)

			// Meeting administration, both admin tiers
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(meetingHandler.RenderDenied,
					model.RoleAdminMain, model.RoleAdminGroup))
				r.Get(handler.RouteSuffixNew, meetingHandler.NewForm)
				r.With(formRateLimiter.Middleware()).Post("/", meetingHandler.Create)
				r.Get(handler.RouteParamID+handler.RouteSuffixClose, meetingHandler.ConfirmClose)
				r.Post(handler.RouteParamID+handler.RouteSuffixClose, meetingHandler.Close)
				r.Get(handler.RouteParamID+handler.RouteSuffixDelete, meetingHandler.ConfirmDelete)
				r.Post(handler.RouteParamID+handler.RouteSuffixDelete, meetingHandler.Delete)
				r.Get(handler.RouteParamID+handler.RouteSuffixEdit, meetingHandler.EditForm)
			})
		})
	})

	// Embedded static assets
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("static sub FS: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	r.NotFound(errorHandler.NotFound)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
