// Entry point for REST API
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance.service/internal/api"
	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/cache"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/realtime"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/ports/storage"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("Invalid APP_TIMEZONE")
	}

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("attendance-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// DB connection
	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	if err := database.Migrate(context.Background(), db, database.SchemaAPI); err != nil {
		log.Fatal().Err(err).Msg("Schema migration failed")
	}

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	appCache, err := newCache(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not connect to cache")
	}
	defer appCache.Close()

	// Initialize dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg, aws.S3Options(cfg))
	producer := messaging.NewSQSProducer(sqsClient, cfg.AuditSQSQueueURL, cfg.EmailSQSQueueURL)
	hub := realtime.NewHub(cfg.FrontendURL)
	photos := storage.NewS3PhotoStore(s3Client, cfg.PhotoBucket, cfg.AWSRegion, cfg.PhotoBaseURL)

	employeeRepo := repository.NewEmployeeRepository(db)
	employeeRepo.Timeout = cfg.DBQueryTimeout
	attendanceRepo := repository.NewAttendanceRepository(db)
	attendanceRepo.Timeout = cfg.DBQueryTimeout

	fx := core.NewEffects(appCache, producer, hub, core.EffectsConfig{
		CacheTTL:        cfg.CacheTTL,
		AdvisoryTimeout: cfg.AdvisoryTimeout,
	})
	authService := core.NewAuthService(employeeRepo, cfg.JWTSecret, cfg.JWTExpiresIn)
	attendanceService := core.NewAttendanceService(attendanceRepo, fx, core.AttendanceOptions{
		Location: loc,
		MaxLimit: cfg.EmployeeListMaxLimit,
	})
	employeeService := core.NewEmployeeService(employeeRepo, photos, fx, core.EmployeeOptions{
		MaxLimit:      cfg.EmployeeListMaxLimit,
		MaxPhotoSize:  cfg.MaxPhotoSize,
		UploadTimeout: cfg.UploadTimeout,
	})

	// Setup router and server
	router := api.NewRouter(api.Services{
		Auth:         authService,
		Attendance:   attendanceService,
		Employees:    employeeService,
		Tokens:       authService,
		Realtime:     hub,
		MaxPhotoSize: cfg.MaxPhotoSize,
	})

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.EnrichContextWithLogger(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	handler := otelhttp.NewHandler(loggerMiddleware(router), "api")

	serverAddr := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("timezone", loc.String()).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// The server gets 5 seconds to finish in-flight requests; queued audit
	// and email publishes get the same budget after that.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer drainCancel()
	if err := fx.Drain(drainCtx); err != nil {
		log.Warn().Err(err).Msg("Advisory publishes still in flight at exit")
	}

	log.Info().Msg("Server exiting")
}

func newCache(cfg config.Config) (cache.Cache, error) {
	if cfg.CacheBackend == "memory" {
		log.Info().Msg("Using in-process memory cache")
		return cache.NewMemoryCache(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return cache.NewRedisCache(ctx, cfg.RedisURL)
}
