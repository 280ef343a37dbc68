package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/Mir00r/planify-backend/internal/auth/http"
	"github.com/Mir00r/planify-backend/internal/auth/mail"
	"github.com/Mir00r/planify-backend/internal/auth/service"
	"github.com/Mir00r/planify-backend/internal/auth/store"
	"github.com/Mir00r/planify-backend/internal/auth/store/drivers/sqlite"
	"github.com/Mir00r/planify-backend/pkg/jwtx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codec *jwtx.Codec

	tokenService        *service.TokenService
	authService         *service.AuthService
	resetService        *service.PasswordResetService
	mfaService          *service.MFAService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.codec = jwtx.NewCodec(
		[]byte(cfg.JWTSecret),
		cfg.Issuer,
		cfg.AccessTokenTTL,
		cfg.VerificationTokenTTL,
	)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	app.housekeepingService.Start()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	app.housekeepingService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
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

func (app *Application) initServices() {
	mailer := &mail.LogSender{Logger: app.logger}

	app.tokenService = &service.TokenService{
		Store:      app.db,
		Codec:      app.codec,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}
	app.authService = &service.AuthService{
		Store:    app.db,
		Codec:    app.codec,
		Tokens:   app.tokenService,
		Mailer:   mailer,
		HashCost: app.cfg.BcryptCost,
	}
	app.resetService = &service.PasswordResetService{
		Store:    app.db,
		Mailer:   mailer,
		HashCost: app.cfg.BcryptCost,
		ResetTTL: app.cfg.ResetTokenTTL,
	}
	app.mfaService = &service.MFAService{
		Store:            app.db,
		Issuer:           app.cfg.Issuer,
		BackupCodeCount:  app.cfg.BackupCodeCount,
		BackupCodeLength: app.cfg.BackupCodeLength,
	}
	app.userService = &service.UserService{Store: app.db}
	app.housekeepingService = service.NewHousekeepingService(app.db, app.logger, app.cfg.HousekeepingInterval)
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(app.codec, BuildVersion, app.db, app.logger)
	app.router.AuthService = app.authService
	app.router.TokenService = app.tokenService
	app.router.ResetService = app.resetService
	app.router.MFAService = app.mfaService
	app.router.UserService = app.userService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
