package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aussiebroadwan/till/internal/auth/denylist"
	"github.com/aussiebroadwan/till/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/till/internal/auth/http"
	"github.com/aussiebroadwan/till/internal/auth/policy"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/service"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/till/internal/mailer"
	"github.com/aussiebroadwan/till/internal/metrics"
	"github.com/aussiebroadwan/till/pkg/cryptox"
	"github.com/aussiebroadwan/till/pkg/jwtx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

const (
	// BuildVersion is reported by the health probes and till_build_info.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the till auth service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	redis    *redis.Client // nil unless a redis driver is configured
	codec    *jwtx.Codec
	denylist denylist.Denylist
	resolver *rbac.Resolver
	gate     *policy.Gate
	mailer   mailer.Mailer
	registry *prometheus.Registry
	metrics  *metrics.Collector

	// Services
	authService          *service.AuthService
	userService          *service.UserService
	roleService          *service.RoleService
	passwordResetService *service.PasswordResetService
	bootstrapService     *service.BootstrapService
	housekeepingService  *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "till-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	ctx := context.Background()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initRedis(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	key, err := LoadSigningKey(app.cfg, app.logger)
	if err != nil {
		app.closeBackends()
		return nil, fmt.Errorf("failed to initialize signing key: %w", err)
	}
	app.codec = jwtx.NewCodec(key, jwtx.WithIssuer(app.cfg.Issuer))

	app.initMetrics()
	app.initAuthorization()
	app.initMailer()
	app.initServices()

	if err := app.seed(ctx); err != nil {
		app.closeBackends()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("till auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"algorithm", app.codec.Alg(),
		"denylist", app.cfg.DenylistDriver,
		"permission_cache", app.cfg.PermissionCache,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down till auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("till auth service stopped")
	return nil
}

func (app *Application) closeBackends() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRedis connects only when the denylist or permission cache lives there.
func (app *Application) initRedis(ctx context.Context) error {
	if !app.cfg.needsRedis() {
		return nil
	}

	client, err := denylist.NewRedisClient(ctx, app.cfg.RedisURL)
	if err != nil {
		return err
	}
	app.redis = client
	app.logger.Info("connected to redis")
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.metrics = metrics.NewCollector(app.registry)
	app.metrics.SetBuildInfo(BuildVersion)
}

// initAuthorization builds the denylist, the permission resolver and the
// policy gate.
func (app *Application) initAuthorization() {
	dlOpts := []denylist.Option{
		denylist.WithClock(app.codec.Now),
		denylist.WithMaxTTL(app.cfg.DenylistTTL),
	}
	switch app.cfg.DenylistDriver {
	case denylist.DriverRedis:
		app.denylist = denylist.NewRedis(app.redis, dlOpts...)
	default:
		app.denylist = denylist.NewStore(app.db, dlOpts...)
	}

	var cache rbac.Cache
	switch app.cfg.PermissionCache {
	case CacheRedis:
		cache = rbac.NewRedisCache(app.redis, app.cfg.PermissionCacheTTL)
	case CacheMemory:
		cache = rbac.NewMemoryCache(app.cfg.PermissionCacheSize, app.cfg.PermissionCacheTTL)
	default:
		cache = rbac.NoCache{}
	}

	app.resolver = rbac.NewResolver(rbac.NewStoreSource(app.db), cache,
		rbac.WithObserver(app.metrics),
		rbac.WithCatalog(rbac.DefaultCatalog),
	)
	app.gate = policy.NewGate(app.resolver, policy.WithDenialObserver(app.metrics))
}

func (app *Application) initMailer() {
	switch app.cfg.MailDriver {
	case mailer.DriverSMTP:
		app.mailer = mailer.NewSMTP(mailer.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.MailFrom,
		})
	default:
		app.mailer = mailer.NewLog()
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:    app.db,
		Codec:    app.codec,
		Denylist: app.denylist,
		Resolver: app.resolver,
		TokenTTL: app.cfg.TokenTTL,
		Observer: app.metrics,
	}
	app.userService = &service.UserService{Store: app.db, Resolver: app.resolver}
	app.roleService = &service.RoleService{Store: app.db, Resolver: app.resolver, Catalog: rbac.DefaultCatalog}
	app.passwordResetService = &service.PasswordResetService{
		Store:    app.db,
		Mailer:   app.mailer,
		Resolver: app.resolver,
		TTL:      app.cfg.ResetTTL,
		ResetURL: app.cfg.ResetURL,
	}
	app.bootstrapService = &service.BootstrapService{
		Store:    app.db,
		Resolver: app.resolver,
		Catalog:  rbac.DefaultCatalog,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// seed makes sure the catalog and default roles exist, and creates the
// first admin when configured.
func (app *Application) seed(ctx context.Context) error {
	ctx = slogx.WithContext(ctx, app.logger)

	password := app.cfg.AdminPassword
	if app.cfg.AdminEmail != "" && password == "" {
		generated, err := cryptox.GeneratePassword()
		if err != nil {
			return fmt.Errorf("failed to generate admin password: %w", err)
		}
		password = generated
		// Only used if the users table turns out to be empty.
		app.logger.Warn("no admin password configured; generated one",
			"email", app.cfg.AdminEmail,
			"password", password,
		)
	}

	err := app.bootstrapService.Seed(ctx, domain.SeedData{
		AdminName:     app.cfg.AdminName,
		AdminEmail:    app.cfg.AdminEmail,
		AdminPassword: password,
		Roles:         service.DefaultRoles(),
	})
	if err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		app.denylist,
		app.resolver,
		app.gate,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.UserService = app.userService
	router.RoleService = app.roleService
	router.PasswordResetService = app.passwordResetService
	router.Metrics = app.metrics
	router.Gatherer = app.registry
	if app.cfg.DenylistDriver == denylist.DriverRedis {
		router.DenylistPinger = app.denylist.(*denylist.Redis)
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
