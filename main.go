package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/cuevaio/cpp-insumos/config"
	insumorepo "github.com/cuevaio/cpp-insumos/internal/repositories/insumo"
	insumosvc "github.com/cuevaio/cpp-insumos/internal/services/insumo"
	"github.com/cuevaio/cpp-insumos/pkg/database"
	"github.com/cuevaio/cpp-insumos/pkg/middleware"
	"github.com/cuevaio/cpp-insumos/pkg/routes/health"
	insumoroutes "github.com/cuevaio/cpp-insumos/pkg/routes/insumo"
	"github.com/cuevaio/cpp-insumos/pkg/startup"
	"github.com/cuevaio/cpp-insumos/pkg/tracing"
	"github.com/cuevaio/cpp-insumos/pkg/tracing/exporters"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	zapLogger, err := newZapLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	defer func() { _ = zapLogger.Sync() }()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := tracing.Init(ctx, cfg.AppName, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to initialize tracing")
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(flushCtx)
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(
		echomw.Recover(),
		middleware.Context(),
		middleware.Logger(logger),
		otelecho.Middleware(cfg.AppName),
		echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.AllowOrigins}),
	)
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	var db *database.DatabaseInstance
	var checker *health.Checker

	boot := startup.New(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&startup.Func{
		Name: "postgres",
		StartFunc: func(ctx context.Context) error {
			sqlxDB, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
			if err != nil {
				return err
			}
			sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
			sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
			sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
			db = database.NewDatabaseInstance(sqlxDB, logger)

			driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
			if err != nil {
				return err
			}
			ms := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             cfg.DatabaseMigrationVersion,
				Force:               cfg.DatabaseMigrationForce,
			})
			return ms.Migrate(cfg.DatabaseName, driver)
		},
		StopFunc: func(ctx context.Context) error {
			if db == nil {
				return nil
			}
			return db.Close()
		},
	})
	boot.AddDependency(&startup.Func{
		Name:  "http-server",
		Needs: []string{"postgres"},
		StartFunc: func(ctx context.Context) error {
			repo := insumorepo.NewRepository(db, logger)
			service := insumosvc.NewService(repo, logger)
			insumoroutes.NewHandler(service, logger).RegisterRoutes(e.Group("/insumos"))

			checker = health.NewChecker(db, version)
			checker.RegisterRoutes(e)
			e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
					stop()
				}
			}()

			checker.SetReady(true)
			logger.WithField("port", cfg.Port).Infof("%s listening on port %d", cfg.AppName, cfg.Port)
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			if checker != nil {
				checker.SetReady(false)
			}
			return e.Shutdown(ctx)
		},
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown failed")
		os.Exit(1)
	}
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.PrettyLogs {
		return zap.NewDevelopment()
	}

	zapCfg := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}
