package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quoteflow/quoteflow-backend/internal/reports/events"
	"github.com/quoteflow/quoteflow-backend/internal/reports/handler"
	"github.com/quoteflow/quoteflow-backend/internal/reports/processor"
	"github.com/quoteflow/quoteflow-backend/internal/reports/repository"
	"github.com/quoteflow/quoteflow-backend/internal/reports/service"
	"github.com/quoteflow/quoteflow-backend/internal/reports/storage"
	"github.com/quoteflow/quoteflow-backend/internal/reports/textextract"
	"github.com/quoteflow/quoteflow-backend/pkg/config"
	"github.com/quoteflow/quoteflow-backend/pkg/database"
	"github.com/quoteflow/quoteflow-backend/pkg/httputil"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
	"github.com/quoteflow/quoteflow-backend/pkg/messaging"
)

const serviceName = "report-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Report Service")

	// Persistence is optional; without it results live in the TTL store only
	var (
		db   *database.DB
		repo service.Repository
	)
	if cfg.Database.Enabled {
		db, err = database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		reportRepo := repository.NewReportRepository(db)
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := reportRepo.Migrate(migrateCtx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		cancel()
		repo = reportRepo
	}

	// Events are optional too
	var (
		rmq       *messaging.RabbitMQ
		publisher *events.ReportEventPublisher
	)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewRabbitPublisher(rmq, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	store := storage.NewResultStore(cfg.Parser.ResultTTL)
	defer store.Close()

	svc := service.NewService(
		textextract.DefaultChain(cfg.Parser.MinTextLength, log),
		processor.DefaultRegistry(log),
		store,
		repo,
		publisher,
		log,
		cfg.Parser.RawTextPreview,
	)
	reportHandler := handler.NewHandler(svc, cfg.Parser, log)

	// Create router
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Report-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]any{
			"status":         "healthy",
			"service":        serviceName,
			"stored_results": store.Len(),
		}
		if db != nil {
			health["database"] = db.Health(r.Context())
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		reportHandler.Register(r)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
