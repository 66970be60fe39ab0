package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	reportapp "github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/janytree/orderdesk/internal/infrastructure/cache"
	"github.com/janytree/orderdesk/internal/infrastructure/config"
	"github.com/janytree/orderdesk/internal/infrastructure/ecommerce"
	"github.com/janytree/orderdesk/internal/infrastructure/export"
	"github.com/janytree/orderdesk/internal/infrastructure/logger"
	"github.com/janytree/orderdesk/internal/infrastructure/metrics"
	"github.com/janytree/orderdesk/internal/infrastructure/persistence"
	"github.com/janytree/orderdesk/internal/infrastructure/storage"
	"github.com/janytree/orderdesk/internal/infrastructure/telemetry"
	"github.com/janytree/orderdesk/internal/interfaces/http/handler"
	"github.com/janytree/orderdesk/internal/interfaces/http/middleware"
	"github.com/janytree/orderdesk/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting orderdesk",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracer, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Tracing.Enabled,
		CollectorEndpoint: cfg.Tracing.CollectorEndpoint,
		SamplingRatio:     cfg.Tracing.SamplingRatio,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
		Insecure:          cfg.Tracing.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	loc, err := cfg.Report.Location()
	if err != nil {
		log.Fatal("Invalid report timezone", zap.Error(err))
	}
	schema, err := order.DefaultSchema().Extend(cfg.Schema)
	if err != nil {
		log.Fatal("Invalid schema configuration", zap.Error(err))
	}
	normalizer := order.NewNormalizer(schema, loc)

	// Session store: Redis when enabled, in-memory otherwise
	sessions, err := cache.NewSessionStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithCleanupInterval(cfg.Report.CleanupInterval),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create session store", zap.Error(err))
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Error("Error closing session store", zap.Error(err))
		}
	}()

	system := handler.NewSystemHandler(cfg.App.Name, version)

	// Run history: database when enabled, bounded in-memory list otherwise
	var runs order.RunRepository
	if cfg.Database.Enabled {
		db, err := persistence.NewDatabase(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Info("Database connected", zap.String("driver", cfg.Database.Driver))
		runs = persistence.NewGormRunRepository(db.DB)
		system.AddCheck("database", func(context.Context) error { return db.Ping() })
	} else {
		runs = persistence.NewInMemoryRunRepository(persistence.DefaultInMemoryRunCapacity)
	}

	svcCfg := reportapp.DefaultServiceConfig()
	if cfg.Report.SessionTTL > 0 {
		svcCfg.SessionTTL = cfg.Report.SessionTTL
	}
	if cfg.Report.DefaultTopN > 0 {
		svcCfg.DefaultTopN = cfg.Report.DefaultTopN
	}
	if cfg.Storage.PresignExpiration > 0 {
		svcCfg.DownloadURLExpiry = cfg.Storage.PresignExpiration
	}
	if cfg.Storage.KeyPrefix != "" {
		svcCfg.ExportKeyPrefix = cfg.Storage.KeyPrefix
	}
	opts := []reportapp.Option{reportapp.WithConfig(svcCfg)}

	if cfg.Imweb.Enabled {
		imwebCfg := ecommerce.NewImwebConfig(cfg.Imweb.AccessToken)
		imwebCfg.APIBaseURL = cfg.Imweb.BaseURL
		imwebCfg.PageSize = cfg.Imweb.PageSize
		imwebCfg.MaxPages = cfg.Imweb.MaxPages
		imwebCfg.Timeout = cfg.Imweb.Timeout
		imwebCfg.ItemSurface = cfg.Imweb.ItemSurface
		adapter, err := ecommerce.NewImwebAdapter(imwebCfg)
		if err != nil {
			log.Fatal("Invalid imweb configuration", zap.Error(err))
		}
		opts = append(opts, reportapp.WithOrderSource(adapter))
		log.Info("Storefront sync enabled", zap.Bool("item_surface", imwebCfg.ItemSurface))
	}

	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create object storage", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = s3.EnsureBucket(ctx)
		cancel()
		if err != nil {
			log.Fatal("Failed to prepare storage bucket", zap.Error(err))
		}
		opts = append(opts, reportapp.WithObjectStorage(s3))
		log.Info("Invoice publishing enabled", zap.String("bucket", s3.GetBucket()))
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		opts = append(opts, reportapp.WithMetrics(recorder))
	}

	svc := reportapp.NewReconciliationService(normalizer, sessions, runs, export.NewXLSXExporter(), opts...)

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	var writeLimiter *middleware.RateLimiter
	if cfg.HTTP.WriteRateLimit > 0 {
		writeLimiter = middleware.NewRateLimiter(cfg.HTTP.WriteRateLimit, cfg.HTTP.WriteRateWindow)
		defer writeLimiter.Close()
	}

	engine := router.NewEngine(log, router.EngineConfig{
		CORS:         corsConfig,
		MaxBodySize:  cfg.HTTP.MaxBodySize,
		MetricsPath:  cfg.Metrics.Path,
		WriteLimiter: writeLimiter,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.App.Name,
			Enabled:     tracer.IsEnabled(),
		},
	}, router.Handlers{
		Reconciliation: handler.NewReconciliationHandler(svc),
		System:         system,
		Metrics:        recorder,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
