package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/authsession/internal/authsession/codestore"
	"github.com/aussiebroadwan/authsession/internal/authsession/domain"
	httpapi "github.com/aussiebroadwan/authsession/internal/authsession/http"
	"github.com/aussiebroadwan/authsession/internal/authsession/mail"
	"github.com/aussiebroadwan/authsession/internal/authsession/service"
	"github.com/aussiebroadwan/authsession/internal/authsession/store"
	"github.com/aussiebroadwan/authsession/internal/authsession/store/drivers/postgres"
	"github.com/aussiebroadwan/authsession/internal/authsession/store/drivers/sqlite"
	"github.com/aussiebroadwan/authsession/pkg/httpx"
	"github.com/aussiebroadwan/authsession/pkg/jwtx"
	"github.com/aussiebroadwan/authsession/pkg/slogx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the session service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	redis  redis.UniversalClient
	codes  *codestore.RedisStore
	mailer mail.Sender
	codec  *jwtx.Codec

	// Services
	sessionService      *service.SessionService
	credentialService   *service.CredentialService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router

	closers []func() error
}

// Option overrides a dependency New would otherwise build from Config.
type Option func(*Application)

// WithLogger replaces the logger built from the LOG_* settings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Application) { a.logger = l }
}

// WithRedis uses an existing client for the code store. The caller keeps
// ownership and closes it.
func WithRedis(c redis.UniversalClient) Option {
	return func(a *Application) { a.redis = c }
}

// WithMailer replaces the configured email transport.
func WithMailer(m mail.Sender) Option {
	return func(a *Application) { a.mailer = m }
}

// New validates cfg and creates an Application with all dependencies initialized.
func New(cfg Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{cfg: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "authsession",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	codec, err := jwtx.NewHS256([]byte(cfg.SecretKey), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.initCodeStore()
	if err := app.initMailer(); err != nil {
		app.closeAll()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// AddUser registers a user so password reset links can be sent to email.
func (app *Application) AddUser(ctx context.Context, email string) (domain.User, error) {
	u := domain.User{
		ID:    uuid.NewString(),
		Email: domain.NormalizeEmail(email),
	}
	if err := app.db.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth session service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"prefix", "/api/v1/"+app.cfg.ServiceName,
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
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeAll()
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth session service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slogx.Err(err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slogx.Err(err))
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeAll(); err != nil {
		return err
	}

	app.logger.Info("auth session service stopped")
	return nil
}

// Close releases the stores and mail transport without touching the HTTP
// server. Used by one-shot commands.
func (app *Application) Close() error { return app.closeAll() }

// closeAll runs the registered closers in reverse order.
func (app *Application) closeAll() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error("error closing dependency", slogx.Err(err))
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

// initDatabase opens the configured driver and applies migrations.
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), app.connectTimeout())
		defer cancel()
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqliteDSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.db = db
	app.closers = append(app.closers, db.Close)
	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func sqliteDSN(file string) string {
	if file == ":memory:" {
		return file
	}
	return "file:" + file
}

// initCodeStore connects to Redis. An unreachable Redis is not fatal; the
// readiness check reports it until it comes up.
func (app *Application) initCodeStore() {
	if app.redis == nil {
		client := redis.NewClient(&redis.Options{
			Addr:         app.cfg.RedisAddr,
			Password:     app.cfg.RedisPassword,
			DB:           app.cfg.RedisDB,
			DialTimeout:  app.connectTimeout(),
			ReadTimeout:  app.cfg.StoreTimeout,
			WriteTimeout: app.cfg.StoreTimeout,
		})
		app.redis = client
		app.closers = append(app.closers, client.Close)
	}
	app.codes = codestore.NewRedisStore(app.redis)

	ctx, cancel := context.WithTimeout(context.Background(), app.connectTimeout())
	defer cancel()
	if err := app.codes.Ping(ctx); err != nil {
		app.logger.Warn("code store not reachable at startup", "addr", app.cfg.RedisAddr, slogx.Err(err))
	}
}

// initMailer builds the configured email transport unless one was injected.
func (app *Application) initMailer() error {
	if app.mailer != nil {
		return nil
	}

	switch app.cfg.EmailTransport {
	case "amqp":
		sender, err := mail.DialAMQP(app.cfg.AMQPURL, app.cfg.EmailQueue)
		if err != nil {
			return fmt.Errorf("failed to connect email queue: %w", err)
		}
		app.mailer = sender
		app.closers = append(app.closers, sender.Close)
		app.logger.Info("email transport: amqp", "queue", app.cfg.EmailQueue)
	case "log":
		app.mailer = mail.LogSender{Logger: app.logger}
		app.logger.Warn("email transport: log, messages are not delivered")
	default:
		app.mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUser,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.SMTPFrom,
			StartTLS: app.cfg.Env != "dev",
		})
		app.logger.Info("email transport: smtp", "host", app.cfg.SMTPHost, "port", app.cfg.SMTPPort)
	}
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Codec:       app.codec,
		Store:       app.db,
		AccessTTL:   app.cfg.AccessTokenTTL,
		RefreshTTL:  app.cfg.RefreshTokenTTL,
		CallTimeout: app.cfg.StoreTimeout,
	}

	app.credentialService = &service.CredentialService{
		Codec:           app.codec,
		Codes:           app.codes,
		Store:           app.db,
		Mailer:          app.mailer,
		VerificationTTL: app.cfg.VerificationCodeTTL,
		ResetStoreTTL:   app.cfg.PasswordResetStoreTTL,
		ResetTokenTTL:   app.cfg.PasswordResetTokenTTL,
		ResetLinkBase:   app.cfg.ResetLinkBase,
		CallTimeout:     app.cfg.StoreTimeout,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.cfg.ServiceName,
		BuildVersion,
		app.db,
		app.codes,
		app.logger,
	)

	router.SessionService = app.sessionService
	router.CredentialService = app.credentialService
	router.SecureCookie = app.cfg.Env == "prod"
	// Validate has already rejected malformed entries.
	router.TrustedProxies, _ = httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelWarn),
	}
}

func (app *Application) connectTimeout() time.Duration {
	return max(app.cfg.StoreTimeout, 5*time.Second)
}
